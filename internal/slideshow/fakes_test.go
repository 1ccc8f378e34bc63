package slideshow

import (
	"context"
	"fmt"
	"sync"
	"time"

	"signage-player/internal/media"
)

// events is a shared, ordered record of collaborator calls.
type events struct {
	mu  sync.Mutex
	log []string
}

func (e *events) add(format string, args ...any) {
	e.mu.Lock()
	e.log = append(e.log, fmt.Sprintf(format, args...))
	e.mu.Unlock()
}

func (e *events) all() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.log...)
}

func (e *events) reset() {
	e.mu.Lock()
	e.log = nil
	e.mu.Unlock()
}

// fakeClock is a manual ScheduleFunc.
type fakeClock struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d         time.Duration
	f         func()
	cancelled bool
}

func (c *fakeClock) Schedule(d time.Duration, f func()) func() {
	t := &fakeTimer{d: d, f: f}
	c.mu.Lock()
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	return func() {
		c.mu.Lock()
		t.cancelled = true
		c.mu.Unlock()
	}
}

func (c *fakeClock) live() []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []*fakeTimer
	for _, t := range c.timers {
		if !t.cancelled {
			out = append(out, t)
		}
	}
	return out
}

// fire runs the newest live timer as if its delay elapsed.
func (c *fakeClock) fire() bool {
	live := c.live()
	if len(live) == 0 {
		return false
	}
	t := live[len(live)-1]
	c.mu.Lock()
	t.cancelled = true
	c.mu.Unlock()
	t.f()
	return true
}

type fakeVideo struct {
	ev     *events
	src    string
	ended  chan struct{}
	mu     sync.Mutex
	paused bool
	closed bool
}

func (v *fakeVideo) Ended() <-chan struct{} { return v.ended }

func (v *fakeVideo) SetPaused(p bool) {
	v.mu.Lock()
	v.paused = p
	v.mu.Unlock()
	v.ev.add("video.paused:%v", p)
}

func (v *fakeVideo) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	v.ev.add("video.close:%s", v.src)
}

func (v *fakeVideo) isPaused() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.paused
}

type fakeRenderer struct {
	ev     *events
	mu     sync.Mutex
	videos []*fakeVideo
}

func (r *fakeRenderer) ShowImage(src string) error {
	r.ev.add("image:%s", src)
	return nil
}

func (r *fakeRenderer) PlayVideo(src string, autoplay bool) (Video, error) {
	v := &fakeVideo{ev: r.ev, src: src, ended: make(chan struct{}), paused: !autoplay}
	r.mu.Lock()
	r.videos = append(r.videos, v)
	r.mu.Unlock()
	r.ev.add("video:%s autoplay=%v", src, autoplay)
	return v, nil
}

func (r *fakeRenderer) ShowMessage(msg string) {
	r.ev.add("message:%s", msg)
}

func (r *fakeRenderer) lastVideo() *fakeVideo {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.videos) == 0 {
		return nil
	}
	return r.videos[len(r.videos)-1]
}

type fakePanoramas struct {
	ev      *events
	created int
}

func (p *fakePanoramas) NewPanorama(src string) (Panorama, error) {
	p.created++
	p.ev.add("pano.new:%s", src)
	return &fakePanorama{ev: p.ev}, nil
}

type fakePanorama struct{ ev *events }

func (p *fakePanorama) SetSource(src string) error {
	p.ev.add("pano.set:%s", src)
	return nil
}

func (p *fakePanorama) Destroy() { p.ev.add("pano.destroy") }

type fakeInput struct {
	mu       sync.Mutex
	handlers map[int]func(Key)
	next     int
	total    int
}

func newFakeInput() *fakeInput { return &fakeInput{handlers: map[int]func(Key){}} }

func (in *fakeInput) Subscribe(h func(Key)) func() {
	in.mu.Lock()
	defer in.mu.Unlock()
	id := in.next
	in.next++
	in.total++
	in.handlers[id] = h
	return func() {
		in.mu.Lock()
		delete(in.handlers, id)
		in.mu.Unlock()
	}
}

func (in *fakeInput) press(k Key) {
	in.mu.Lock()
	var hs []func(Key)
	for _, h := range in.handlers {
		hs = append(hs, h)
	}
	in.mu.Unlock()
	for _, h := range hs {
		h(k)
	}
}

func (in *fakeInput) active() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.handlers)
}

type memStore struct {
	mu     sync.Mutex
	groups []Group
	saves  int
	err    error
}

func (s *memStore) LoadGroups() ([]Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneGroups(s.groups), s.err
}

func (s *memStore) SaveGroups(g []Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.groups = cloneGroups(g)
	s.saves++
	return nil
}

type staticInventory struct {
	items []media.Item
	err   error
}

func (s staticInventory) FetchInventory(context.Context) ([]media.Item, error) {
	return s.items, s.err
}

// passthrough resolves every location to itself, counting releases.
type passthrough struct {
	mu       sync.Mutex
	acquired int
	released int
}

func (p *passthrough) Acquire(loc string, _ bool) (string, func()) {
	p.mu.Lock()
	p.acquired++
	p.mu.Unlock()
	return loc, func() {
		p.mu.Lock()
		p.released++
		p.mu.Unlock()
	}
}

func (p *passthrough) outstanding() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.acquired - p.released
}

func img(name string) media.Item {
	return media.Item{Source: media.RemoteMedia{Name: name, URL: "http://cdn/" + name, Type: "image/jpeg"}}
}

func vid(name string) media.Item {
	return media.Item{Source: media.RemoteMedia{Name: name, URL: "http://cdn/" + name, Type: "video/mp4"}}
}

func pano(name string) media.Item {
	return media.Item{Source: media.RemoteMedia{Name: name, URL: "http://cdn/" + name}}
}

type harness struct {
	c        *Controller
	ev       *events
	clock    *fakeClock
	renderer *fakeRenderer
	panos    *fakePanoramas
	input    *fakeInput
	store    *memStore
	resolver *passthrough
}

func newHarness(groups ...Group) *harness {
	ev := &events{}
	h := &harness{
		ev:       ev,
		clock:    &fakeClock{},
		renderer: &fakeRenderer{ev: ev},
		panos:    &fakePanoramas{ev: ev},
		input:    newFakeInput(),
		store:    &memStore{groups: groups},
		resolver: &passthrough{},
	}
	h.c = New(Options{
		Store:     h.store,
		Renderer:  h.renderer,
		Panoramas: h.panos,
		Resolver:  h.resolver,
		Schedule:  h.clock.Schedule,
	})
	return h
}
