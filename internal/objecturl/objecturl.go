// Package objecturl hands out revocable "blob:" handles for local media
// files so a renderer never holds a raw path longer than the item is on
// screen.
package objecturl

import (
	"errors"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const scheme = "blob:"

var ErrRevoked = errors.New("objecturl: handle revoked or unknown")

// Registry maps live handles to file paths.
type Registry struct {
	mu      sync.Mutex
	handles map[string]string
}

func NewRegistry() *Registry {
	return &Registry{handles: make(map[string]string)}
}

// Create registers path and returns a fresh handle for it.
func (r *Registry) Create(path string) string {
	h := scheme + uuid.NewString()
	r.mu.Lock()
	r.handles[h] = path
	r.mu.Unlock()
	return h
}

// Revoke invalidates a handle. Revoking twice is harmless.
func (r *Registry) Revoke(handle string) {
	r.mu.Lock()
	delete(r.handles, handle)
	r.mu.Unlock()
}

// Resolve turns a handle back into its path. Anything that is not a blob
// handle (a remote URL, a plain path) is returned unchanged.
func (r *Registry) Resolve(ref string) (string, error) {
	if !strings.HasPrefix(ref, scheme) {
		return ref, nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.handles[ref]
	if !ok {
		return "", ErrRevoked
	}
	return p, nil
}

// Live returns how many handles are currently registered.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.handles)
}

// Acquire is the scoped form of Create: local sources get a handle and a
// release func, remote locations pass through with a no-op release.
func (r *Registry) Acquire(location string, local bool) (string, func()) {
	if !local {
		return location, func() {}
	}
	h := r.Create(location)
	var once sync.Once
	return h, func() { once.Do(func() { r.Revoke(h) }) }
}
