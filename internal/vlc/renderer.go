// Package vlc renders slideshow items with VLC.
// On RPi5 (linux/arm64) it uses CGO with libVLC for DRM/KMS rendering.
// On other platforms it runs VLC as a subprocess for development.
package vlc

import (
	"fmt"
	"sync"

	"go.uber.org/zap"

	"signage-player/internal/layout"
	"signage-player/internal/slideshow"
)

// Backend is the platform-specific output for a single zone. Show and
// Play replace whatever the zone was displaying.
type Backend interface {
	Init(zone layout.Zone, screenW, screenH int) error
	Show(path string) error
	Play(path string, autoplay bool) (Playback, error)
	Stop()
	Release()
}

// Playback is one running video. Ended is closed on natural completion
// only; Stop must not close it.
type Playback interface {
	Ended() <-chan struct{}
	SetPaused(paused bool) error
	Stop()
}

// Resolver maps a blob handle to the file it stands for. Other
// locations pass through unchanged.
type Resolver interface {
	Resolve(ref string) (string, error)
}

type Options struct {
	Zone    layout.Zone
	ScreenW int
	ScreenH int
	// Resolver for local media handles. Nil means sources are used as is.
	Resolver Resolver
	Logger   *zap.Logger
	// Backend overrides the platform default.
	Backend Backend
}

// Renderer draws slideshow items into one layout zone. It implements
// slideshow.Renderer and slideshow.PanoramaRenderer.
type Renderer struct {
	mu       sync.Mutex
	backend  Backend
	resolver Resolver
	zone     layout.Zone
	log      *zap.Logger
}

var (
	_ slideshow.Renderer         = (*Renderer)(nil)
	_ slideshow.PanoramaRenderer = (*Renderer)(nil)
)

func New(opts Options) (*Renderer, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("vlc").With(zap.String("zone", opts.Zone.ID))

	b := opts.Backend
	if b == nil {
		b = newBackend(log)
	}
	if err := b.Init(opts.Zone, opts.ScreenW, opts.ScreenH); err != nil {
		b.Release()
		return nil, fmt.Errorf("init renderer: %w", err)
	}

	r := &Renderer{backend: b, resolver: opts.Resolver, zone: opts.Zone, log: log}
	log.Info("renderer ready",
		zap.Int("x", opts.Zone.X), zap.Int("y", opts.Zone.Y),
		zap.Int("width", opts.Zone.Width), zap.Int("height", opts.Zone.Height))
	return r, nil
}

func (r *Renderer) resolve(src string) (string, error) {
	if r.resolver == nil {
		return src, nil
	}
	return r.resolver.Resolve(src)
}

func (r *Renderer) ShowImage(src string) error {
	path, err := r.resolve(src)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.backend.Show(path); err != nil {
		return fmt.Errorf("show %s: %w", path, err)
	}
	return nil
}

func (r *Renderer) PlayVideo(src string, autoplay bool) (slideshow.Video, error) {
	path, err := r.resolve(src)
	if err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	pb, err := r.backend.Play(path, autoplay)
	if err != nil {
		return nil, fmt.Errorf("play %s: %w", path, err)
	}
	return &video{pb: pb, log: r.log}, nil
}

// ShowMessage blanks the zone; the text goes to the log and to whatever
// status view observes the controller.
func (r *Renderer) ShowMessage(msg string) {
	r.mu.Lock()
	r.backend.Stop()
	r.mu.Unlock()
	r.log.Info("placeholder", zap.String("message", msg))
}

// NewPanorama opens a viewer on src. The equirectangular image is drawn
// flat into the zone.
func (r *Renderer) NewPanorama(src string) (slideshow.Panorama, error) {
	p := &panorama{r: r}
	if err := p.SetSource(src); err != nil {
		return nil, err
	}
	return p, nil
}

// Release stops output and frees the backend.
func (r *Renderer) Release() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.backend.Release()
	r.log.Info("released")
}

type video struct {
	pb  Playback
	log *zap.Logger
}

func (v *video) Ended() <-chan struct{} { return v.pb.Ended() }

func (v *video) SetPaused(paused bool) {
	if err := v.pb.SetPaused(paused); err != nil {
		v.log.Warn("pause failed", zap.Bool("paused", paused), zap.Error(err))
	}
}

func (v *video) Close() { v.pb.Stop() }

type panorama struct {
	r         *Renderer
	destroyed bool
}

func (p *panorama) SetSource(src string) error {
	if p.destroyed {
		return fmt.Errorf("panorama destroyed")
	}
	return p.r.ShowImage(src)
}

func (p *panorama) Destroy() {
	if p.destroyed {
		return
	}
	p.destroyed = true
	p.r.mu.Lock()
	p.r.backend.Stop()
	p.r.mu.Unlock()
}
