package playlist

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"signage-player/internal/media"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("test"), 0644))
	}
}

// run starts the watcher loop and stops it when the test ends.
func run(t *testing.T, w *Watcher) {
	t.Helper()
	if w.settle == DefaultSettle {
		w.settle = 20 * time.Millisecond
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		assert.NoError(t, w.Run(ctx))
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	time.Sleep(100 * time.Millisecond)
}

func TestScanFindsMediaFiles(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir,
		"charlie.mp4",
		"alpha.mov",
		"notes.txt",
		"readme.md",
		"delta.hevc",
		"echo.webm",
		"foxtrot.JPG",
		"golf.avif",
	)

	w, err := NewWatcher(dir, nil, nil)
	require.NoError(t, err)
	defer w.Close()

	assert.Equal(t, []string{
		filepath.Join(dir, "alpha.mov"),
		filepath.Join(dir, "charlie.mp4"),
		filepath.Join(dir, "delta.hevc"),
		filepath.Join(dir, "echo.webm"),
		filepath.Join(dir, "foxtrot.JPG"),
		filepath.Join(dir, "golf.avif"),
	}, w.Files())
}

func TestItemsAreLocalMedia(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "lobby_360.jpg", "intro.mp4")

	w, err := NewWatcher(dir, nil, nil)
	require.NoError(t, err)
	defer w.Close()

	items := w.Items()
	require.Len(t, items, 2)
	assert.Equal(t, media.Video, media.Classify(&items[0]))
	assert.Equal(t, media.Panorama, media.Classify(&items[1]))
	assert.True(t, items[1].Source.IsLocal())
	assert.Equal(t, filepath.Join(dir, "lobby_360.jpg"), items[1].Source.Location())
}

func TestScanIgnoresDirectories(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "subdir.mp4"), 0755))
	touch(t, dir, "video.mp4")

	w, err := NewWatcher(dir, nil, nil)
	require.NoError(t, err)
	defer w.Close()

	assert.Len(t, w.Files(), 1)
}

func TestScanEmptyDir(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil, nil)
	require.NoError(t, err)
	defer w.Close()

	assert.Empty(t, w.Files())
}

func TestWatcherDetectsNewFile(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan []media.Item, 4)

	w, err := NewWatcher(dir, nil, func(items []media.Item) {
		select {
		case changed <- items:
		default:
		}
	})
	require.NoError(t, err)
	run(t, w)

	touch(t, dir, "new_video.mp4")

	select {
	case items := <-changed:
		require.Len(t, items, 1)
		assert.Equal(t, "new_video.mp4", items[0].Name())
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for onChange callback")
	}
}

func TestWatcherDetectsRemoval(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "existing.mp4")
	changed := make(chan []media.Item, 4)

	w, err := NewWatcher(dir, nil, func(items []media.Item) {
		select {
		case changed <- items:
		default:
		}
	})
	require.NoError(t, err)
	require.Len(t, w.Files(), 1)
	run(t, w)

	require.NoError(t, os.Remove(filepath.Join(dir, "existing.mp4")))

	select {
	case items := <-changed:
		assert.Empty(t, items)
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for removal callback")
	}
}

func TestWatcherIgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan []media.Item, 4)

	w, err := NewWatcher(dir, nil, func(items []media.Item) { changed <- items })
	require.NoError(t, err)
	run(t, w)

	touch(t, dir, "notes.txt")

	select {
	case <-changed:
		t.Fatal("unsupported file should not change the list")
	case <-time.After(300 * time.Millisecond):
	}
}

func TestWatcherCoalescesBursts(t *testing.T) {
	dir := t.TempDir()
	changed := make(chan []media.Item, 8)

	w, err := NewWatcher(dir, nil, func(items []media.Item) { changed <- items })
	require.NoError(t, err)
	w.settle = 200 * time.Millisecond
	run(t, w)

	touch(t, dir, "a.jpg", "b.jpg", "c.mp4")

	select {
	case items := <-changed:
		assert.Len(t, items, 3, "one rescan after the burst settles")
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for onChange callback")
	}
	select {
	case <-changed:
		t.Fatal("burst produced more than one callback")
	case <-time.After(400 * time.Millisecond):
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	w, err := NewWatcher(t.TempDir(), nil, nil)
	require.NoError(t, err)
	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}

func TestRunFailsOnMissingDir(t *testing.T) {
	w, err := NewWatcher(filepath.Join(t.TempDir(), "gone"), nil, nil)
	require.NoError(t, err)
	assert.Empty(t, w.Files())
	assert.Error(t, w.Run(context.Background()))
}
