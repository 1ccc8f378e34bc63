package slideshow

import (
	"context"

	"signage-player/internal/media"
)

// Store persists the group collection between sessions.
type Store interface {
	LoadGroups() ([]Group, error)
	SaveGroups(groups []Group) error
}

// Confirmer answers yes/no before a destructive operation.
type Confirmer interface {
	Confirm(prompt string) bool
}

// ConfirmFunc adapts a plain function to Confirmer.
type ConfirmFunc func(prompt string) bool

func (f ConfirmFunc) Confirm(prompt string) bool { return f(prompt) }

// Renderer draws flat media. Implementations must return promptly; long
// running playback happens in the background.
type Renderer interface {
	ShowImage(src string) error
	PlayVideo(src string, autoplay bool) (Video, error)
	ShowMessage(msg string)
}

// Video is a live video element. Ended is closed once, on natural
// completion only; Close must not close it.
type Video interface {
	Ended() <-chan struct{}
	SetPaused(paused bool)
	Close()
}

// PanoramaRenderer constructs the 360° viewer on demand.
type PanoramaRenderer interface {
	NewPanorama(src string) (Panorama, error)
}

// Panorama is a live 360° viewer instance holding GPU/window resources
// until Destroy.
type Panorama interface {
	SetSource(src string) error
	Destroy()
}

// Resolver turns an item location into something a renderer can open,
// together with the func that releases it.
type Resolver interface {
	Acquire(location string, local bool) (src string, release func())
}

// Key is a navigation input.
type Key int

const (
	KeyLeft Key = iota
	KeyRight
	KeySpace
)

// InputSource delivers key presses until the returned cancel func is called.
type InputSource interface {
	Subscribe(handler func(Key)) (cancel func())
}

// InventorySource fetches the remote inventory list.
type InventorySource interface {
	FetchInventory(ctx context.Context) ([]media.Item, error)
}

type nopRenderer struct{}

func (nopRenderer) ShowImage(string) error                 { return nil }
func (nopRenderer) PlayVideo(string, bool) (Video, error) { return nil, nil }
func (nopRenderer) ShowMessage(string)                     {}
