//go:build linux && arm64

// Production backend: CGO bindings to libVLC with RPi5 MMAL hardware
// acceleration. One Player per zone; end-of-media arrives through the
// player's event manager.
package vlc

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	libvlc "github.com/adrg/libvlc-go/v3"
	"go.uber.org/zap"

	"signage-player/internal/layout"
)

var (
	vlcInitOnce sync.Once
	vlcInitErr  error
)

type libvlcBackend struct {
	mu      sync.Mutex
	player  *libvlc.Player
	events  *libvlc.EventManager
	endID   libvlc.EventID
	media   *libvlc.Media
	current atomic.Pointer[libvlcPlayback]
	log     *zap.Logger
}

func newBackend(log *zap.Logger) Backend {
	return &libvlcBackend{log: log}
}

func (b *libvlcBackend) Init(zone layout.Zone, screenW, screenH int) error {
	// libVLC is initialized once per process, shared by all renderers.
	vlcInitOnce.Do(func() {
		vlcInitErr = libvlc.Init(libvlcArgs(geometry{zone: zone, screenW: screenW, screenH: screenH})...)
	})
	if vlcInitErr != nil {
		return fmt.Errorf("libvlc init failed: %w", vlcInitErr)
	}

	player, err := libvlc.NewPlayer()
	if err != nil {
		return fmt.Errorf("player creation failed: %w", err)
	}
	b.player = player

	events, err := player.EventManager()
	if err != nil {
		return fmt.Errorf("player events: %w", err)
	}
	id, err := events.Attach(libvlc.MediaPlayerEndReached, b.onEndReached, nil)
	if err != nil {
		return fmt.Errorf("attach end event: %w", err)
	}
	b.events = events
	b.endID = id

	if zone.IsFull() {
		player.SetFullScreen(true)
	}

	b.log.Info("libVLC player initialized with MMAL")
	return nil
}

// onEndReached runs on a libVLC thread and must not call back into the
// player.
func (b *libvlcBackend) onEndReached(libvlc.Event, interface{}) {
	if pb := b.current.Swap(nil); pb != nil {
		pb.finish()
	}
}

func (b *libvlcBackend) load(path string, options ...string) error {
	var (
		m   *libvlc.Media
		err error
	)
	if strings.Contains(path, "://") {
		m, err = libvlc.NewMediaFromURL(path)
	} else {
		m, err = libvlc.NewMediaFromPath(path)
	}
	if err != nil {
		return fmt.Errorf("load media: %w", err)
	}
	if len(options) > 0 {
		if err := m.AddOptions(options...); err != nil {
			m.Release()
			return fmt.Errorf("media options: %w", err)
		}
	}
	if err := b.player.SetMedia(m); err != nil {
		m.Release()
		return fmt.Errorf("set media: %w", err)
	}
	if b.media != nil {
		b.media.Release()
	}
	b.media = m
	return nil
}

func (b *libvlcBackend) Show(path string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current.Store(nil)
	b.player.Stop()
	if err := b.load(path, ":image-duration=-1"); err != nil {
		return err
	}
	return b.player.Play()
}

func (b *libvlcBackend) Play(path string, autoplay bool) (Playback, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.current.Store(nil)
	b.player.Stop()

	var opts []string
	if !autoplay {
		opts = append(opts, ":start-paused")
	}
	if err := b.load(path, opts...); err != nil {
		return nil, err
	}

	pb := &libvlcPlayback{b: b, ended: make(chan struct{})}
	b.current.Store(pb)
	if err := b.player.Play(); err != nil {
		b.current.Store(nil)
		return nil, fmt.Errorf("play failed: %w", err)
	}
	return pb, nil
}

func (b *libvlcBackend) Stop() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.current.Store(nil)
	if b.player != nil {
		b.player.Stop()
	}
}

func (b *libvlcBackend) Release() {
	b.Stop()
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.events != nil {
		b.events.Detach(b.endID)
		b.events = nil
	}
	if b.media != nil {
		b.media.Release()
		b.media = nil
	}
	if b.player != nil {
		b.player.Release()
		b.player = nil
	}
	libvlc.Release()
	b.log.Info("libVLC released")
}

type libvlcPlayback struct {
	b     *libvlcBackend
	ended chan struct{}
	once  sync.Once
}

func (p *libvlcPlayback) finish() { p.once.Do(func() { close(p.ended) }) }

func (p *libvlcPlayback) Ended() <-chan struct{} { return p.ended }

func (p *libvlcPlayback) SetPaused(paused bool) error {
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	if p.b.current.Load() != p {
		return nil
	}
	return p.b.player.SetPause(paused)
}

func (p *libvlcPlayback) Stop() {
	if !p.b.current.CompareAndSwap(p, nil) {
		return
	}
	p.b.mu.Lock()
	defer p.b.mu.Unlock()
	p.b.player.Stop()
}
