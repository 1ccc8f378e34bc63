package objecturl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateResolveRevoke(t *testing.T) {
	r := NewRegistry()
	h := r.Create("/playlist/a.jpg")
	assert.True(t, strings.HasPrefix(h, "blob:"))

	p, err := r.Resolve(h)
	require.NoError(t, err)
	assert.Equal(t, "/playlist/a.jpg", p)

	r.Revoke(h)
	_, err = r.Resolve(h)
	assert.ErrorIs(t, err, ErrRevoked)
	r.Revoke(h)
	assert.Equal(t, 0, r.Live())
}

func TestResolvePassesThroughNonHandles(t *testing.T) {
	r := NewRegistry()
	p, err := r.Resolve("https://cdn.example.com/a.mp4")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/a.mp4", p)
}

func TestAcquire(t *testing.T) {
	r := NewRegistry()

	url, release := r.Acquire("https://cdn.example.com/a.mp4", false)
	assert.Equal(t, "https://cdn.example.com/a.mp4", url)
	release()

	h, release := r.Acquire("/media/b.png", true)
	assert.Equal(t, 1, r.Live())
	assert.NotEqual(t, "/media/b.png", h)
	release()
	release()
	assert.Equal(t, 0, r.Live())
}

func TestHandlesAreUnique(t *testing.T) {
	r := NewRegistry()
	a := r.Create("/same.png")
	b := r.Create("/same.png")
	assert.NotEqual(t, a, b)
	assert.Equal(t, 2, r.Live())
}
