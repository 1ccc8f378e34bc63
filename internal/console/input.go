package console

import (
	"sync"

	"signage-player/internal/slideshow"
)

// Input is the keyboard as a slideshow.InputSource. The console model
// feeds it navigation keys.
type Input struct {
	mu       sync.Mutex
	next     int
	handlers map[int]func(slideshow.Key)
}

var _ slideshow.InputSource = (*Input)(nil)

func NewInput() *Input {
	return &Input{handlers: make(map[int]func(slideshow.Key))}
}

func (in *Input) Subscribe(handler func(slideshow.Key)) func() {
	in.mu.Lock()
	id := in.next
	in.next++
	in.handlers[id] = handler
	in.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			in.mu.Lock()
			delete(in.handlers, id)
			in.mu.Unlock()
		})
	}
}

// Dispatch delivers k to every subscriber.
func (in *Input) Dispatch(k slideshow.Key) {
	in.mu.Lock()
	hs := make([]func(slideshow.Key), 0, len(in.handlers))
	for _, h := range in.handlers {
		hs = append(hs, h)
	}
	in.mu.Unlock()

	for _, h := range hs {
		h(k)
	}
}

// Subscribers returns the number of live subscriptions.
func (in *Input) Subscribers() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.handlers)
}
