// Package playlist watches a media folder and feeds new files into a
// slideshow group.
package playlist

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"signage-player/internal/media"
)

// DefaultSettle is how long the folder must stay quiet after an event
// before it is rescanned. Copying a large video fires many events.
const DefaultSettle = 250 * time.Millisecond

// OnChangeFunc receives the folder's media, sorted by path, each time
// the set of files changes.
type OnChangeFunc func(items []media.Item)

// Watcher keeps the sorted list of supported media files in one folder.
type Watcher struct {
	dir    string
	fs     *fsnotify.Watcher
	notify OnChangeFunc
	settle time.Duration
	log    *zap.Logger

	mu    sync.RWMutex
	paths []string

	closeOnce sync.Once
}

// NewWatcher scans dir once. notify may be nil when only the scan is
// wanted; call Close in that case.
func NewWatcher(dir string, log *zap.Logger, notify OnChangeFunc) (*Watcher, error) {
	fs, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = zap.NewNop()
	}

	w := &Watcher{
		dir:    dir,
		fs:     fs,
		notify: notify,
		settle: DefaultSettle,
		log:    log.Named("watcher").With(zap.String("dir", dir)),
	}
	w.rescan()
	return w, nil
}

// rescan lists the folder and reports whether the file set differs from
// the previous scan.
func (w *Watcher) rescan() bool {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		w.log.Warn("scan failed", zap.Error(err))
		return false
	}

	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && media.IsSupported(e.Name()) {
			paths = append(paths, filepath.Join(w.dir, e.Name()))
		}
	}
	slices.Sort(paths)

	w.mu.Lock()
	defer w.mu.Unlock()
	if slices.Equal(w.paths, paths) {
		return false
	}
	w.paths = paths
	w.log.Debug("folder changed", zap.Int("files", len(paths)))
	return true
}

// Files returns the media file paths from the last scan.
func (w *Watcher) Files() []string {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return slices.Clone(w.paths)
}

// Items returns Files as local media items.
func (w *Watcher) Items() []media.Item {
	files := w.Files()
	items := make([]media.Item, len(files))
	for i, f := range files {
		items[i] = media.DetectFile(f)
	}
	return items
}

// Run watches the folder until ctx is done, rescanning once events have
// settled. It closes the watcher on return.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.Close()
	if err := w.fs.Add(w.dir); err != nil {
		return err
	}
	w.log.Info("monitoring")

	settle := time.NewTimer(w.settle)
	settle.Stop()
	defer settle.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info("stopped")
			return nil

		case ev, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			settle.Reset(w.settle)

		case <-settle.C:
			if w.rescan() && w.notify != nil {
				w.notify(w.Items())
			}

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("fsnotify error", zap.Error(err))
		}
	}
}

// Close releases the fsnotify handle. It is safe to call more than once.
func (w *Watcher) Close() error {
	var err error
	w.closeOnce.Do(func() { err = w.fs.Close() })
	return err
}
