package playlist

import (
	"strings"
	"sync"

	"go.uber.org/zap"

	"signage-player/internal/media"
	"signage-player/internal/slideshow"
)

// Target is the group registry the importer appends to.
type Target interface {
	Snapshot() slideshow.Snapshot
	AddGroup(name string) bool
	AppendMedia(groupIndex int, items ...media.Item) bool
}

// Importer appends files that appear in a watched folder to a named
// group. Files already in the group are skipped; removed files stay.
type Importer struct {
	mu     sync.Mutex
	target Target
	group  string
	seen   map[string]bool
	log    *zap.Logger
}

func NewImporter(target Target, group string, log *zap.Logger) *Importer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Importer{
		target: target,
		group:  strings.TrimSpace(group),
		seen:   make(map[string]bool),
		log:    log.Named("importer"),
	}
}

// Import appends the items not yet in the group, creating the group
// when it does not exist. It returns how many were added.
func (im *Importer) Import(items []media.Item) int {
	im.mu.Lock()
	defer im.mu.Unlock()

	idx, ok := im.groupIndex()
	if !ok {
		if !im.target.AddGroup(im.group) {
			return 0
		}
		if idx, ok = im.groupIndex(); !ok {
			return 0
		}
	}

	var fresh []media.Item
	for _, it := range items {
		if it.Source == nil {
			continue
		}
		loc := it.Source.Location()
		if im.seen[loc] {
			continue
		}
		im.seen[loc] = true
		fresh = append(fresh, it)
	}
	if len(fresh) == 0 {
		return 0
	}
	if !im.target.AppendMedia(idx, fresh...) {
		return 0
	}
	im.log.Info("imported", zap.String("group", im.group), zap.Int("items", len(fresh)))
	return len(fresh)
}

// groupIndex finds the group by exact name and records the locations it
// already holds.
func (im *Importer) groupIndex() (int, bool) {
	snap := im.target.Snapshot()
	for i, g := range snap.Groups {
		if !strings.EqualFold(g.Name, im.group) {
			continue
		}
		for _, it := range g.Items {
			if it.Source != nil {
				im.seen[it.Source.Location()] = true
			}
		}
		return i, true
	}
	return 0, false
}
