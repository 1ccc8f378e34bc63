// Package slideshow implements the playback controller: the group
// registry, the playback cursor and the render/advance scheduling that
// drives a Renderer while the controller is mounted.
package slideshow

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"signage-player/internal/media"
	"signage-player/internal/objecturl"
)

// Prompt and placeholder texts shared with UIs.
const (
	DeletePrompt   = "Delete this group?"
	MsgNoMedia     = "No media in this group"
	MsgUnsupported = "Unsupported file type"
)

const defaultSlideWindow = media.DefaultSlideInterval * time.Millisecond

// ScheduleFunc runs f after d and returns a func that cancels it.
type ScheduleFunc func(d time.Duration, f func()) (cancel func())

func afterFunc(d time.Duration, f func()) func() {
	t := time.AfterFunc(d, f)
	return func() { t.Stop() }
}

// Options wires a Controller to its collaborators. Every field is optional.
type Options struct {
	Store         Store
	Renderer      Renderer
	Panoramas     PanoramaRenderer
	Confirm       Confirmer
	Resolver      Resolver
	Logger        *zap.Logger
	SlideInterval time.Duration
	Schedule      ScheduleFunc
}

// Controller owns the playback state. All methods are safe for
// concurrent use; transitions are serialized by a single mutex.
type Controller struct {
	mu sync.Mutex

	log       *zap.Logger
	store     Store
	renderer  Renderer
	panoramas PanoramaRenderer
	confirm   Confirmer
	resolver  Resolver
	interval  time.Duration
	schedule  ScheduleFunc
	observers []func(Snapshot)

	groups   []Group
	selected int
	current  int
	playing  bool

	// Resources held only while mounted.
	mounted     bool
	unsubscribe func()
	gen         uint64
	cancelTimer func()
	watchDone   chan struct{}
	watchers    sync.WaitGroup
	video       Video
	pano        Panorama
	release     func()
}

// New creates a controller and restores groups from the store. A store
// read failure is logged and the controller starts empty.
func New(opts Options) *Controller {
	c := &Controller{
		log:       opts.Logger,
		store:     opts.Store,
		renderer:  opts.Renderer,
		panoramas: opts.Panoramas,
		confirm:   opts.Confirm,
		resolver:  opts.Resolver,
		interval:  opts.SlideInterval,
		schedule:  opts.Schedule,
	}
	if c.log == nil {
		c.log = zap.NewNop()
	}
	c.log = c.log.Named("controller")
	if c.renderer == nil {
		c.renderer = nopRenderer{}
	}
	if c.resolver == nil {
		c.resolver = objecturl.NewRegistry()
	}
	if c.interval <= 0 {
		c.interval = defaultSlideWindow
	}
	if c.schedule == nil {
		c.schedule = afterFunc
	}

	if c.store != nil {
		groups, err := c.store.LoadGroups()
		if err != nil {
			c.log.Warn("restore groups failed", zap.Error(err))
		} else {
			c.groups = cloneGroups(groups)
		}
	}
	c.log.Info("controller ready", zap.Int("groups", len(c.groups)))
	return c
}

// OnChange registers an observer called with a snapshot after every
// state transition. Observers run outside the controller lock.
func (c *Controller) OnChange(fn func(Snapshot)) {
	c.mu.Lock()
	c.observers = append(c.observers, fn)
	c.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	return Snapshot{
		Groups:        cloneGroups(c.groups),
		SelectedGroup: c.selected,
		CurrentItem:   c.current,
		Playing:       c.playing,
	}
}

// update runs fn under the lock and notifies observers when it reports
// a change.
func (c *Controller) update(fn func() bool) bool {
	changed, snap, obs := c.apply(fn)
	for _, fn := range obs {
		fn(snap)
	}
	return changed
}

func (c *Controller) apply(fn func() bool) (changed bool, snap Snapshot, obs []func(Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	changed = fn()
	if changed && len(c.observers) > 0 {
		snap = c.snapshotLocked()
		obs = append(obs, c.observers...)
	}
	return changed, snap, obs
}

// --- Group registry ---

// AddGroup appends an empty group and selects it. Blank names are ignored.
func (c *Controller) AddGroup(name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return c.update(func() bool {
		c.groups = append(c.groups, Group{Name: name})
		c.selected = len(c.groups) - 1
		c.resetCursorLocked()
		c.persistLocked()
		c.log.Info("group added", zap.String("name", name))
		return true
	})
}

// DeleteGroup removes a group after confirmation and selects the first
// group, whichever group was deleted. If the groups shift while the
// prompt is open, the group confirmed by the user is the one removed.
func (c *Controller) DeleteGroup(index int) bool {
	c.mu.Lock()
	valid := index >= 0 && index < len(c.groups)
	var name string
	if valid {
		name = c.groups[index].Name
	}
	c.mu.Unlock()
	if !valid {
		return false
	}
	// Asked outside the lock: a prompt may take a while.
	if c.confirm != nil && !c.confirm.Confirm(DeletePrompt) {
		return false
	}
	return c.update(func() bool {
		if index >= len(c.groups) || c.groups[index].Name != name {
			i := slices.IndexFunc(c.groups, func(g Group) bool { return g.Name == name })
			if i < 0 {
				c.log.Info("group gone before delete", zap.String("name", name))
				return false
			}
			index = i
		}
		c.groups = append(c.groups[:index:index], c.groups[index+1:]...)
		c.selected = 0
		c.resetCursorLocked()
		c.persistLocked()
		c.log.Info("group deleted", zap.String("name", name), zap.Int("index", index))
		return true
	})
}

// RenameGroup sets a trimmed name. A blank name is rejected and the old
// name is kept.
func (c *Controller) RenameGroup(index int, name string) bool {
	name = strings.TrimSpace(name)
	if name == "" {
		return false
	}
	return c.update(func() bool {
		if index < 0 || index >= len(c.groups) {
			return false
		}
		if c.groups[index].Name == name {
			return false
		}
		c.groups[index].Name = name
		c.persistLocked()
		return true
	})
}

// AppendMedia adds items to a group. New content invalidates the current
// position: the cursor goes back to 0 and playback stops.
func (c *Controller) AppendMedia(groupIndex int, items ...media.Item) bool {
	if len(items) == 0 {
		return false
	}
	return c.update(func() bool {
		if groupIndex < 0 || groupIndex >= len(c.groups) {
			return false
		}
		g := &c.groups[groupIndex]
		g.Items = append(g.Items, items...)
		c.resetCursorLocked()
		c.persistLocked()
		c.log.Info("media appended",
			zap.String("group", g.Name), zap.Int("added", len(items)), zap.Int("total", len(g.Items)))
		return true
	})
}

// SetPanorama changes the user panorama override of one item.
func (c *Controller) SetPanorama(groupIndex, itemIndex int, panorama bool) bool {
	return c.update(func() bool {
		if groupIndex < 0 || groupIndex >= len(c.groups) {
			return false
		}
		items := c.groups[groupIndex].Items
		if itemIndex < 0 || itemIndex >= len(items) || items[itemIndex].Panorama == panorama {
			return false
		}
		items[itemIndex].Panorama = panorama
		c.persistLocked()
		if groupIndex == c.selected && itemIndex == c.current {
			c.refreshLocked(true)
		}
		return true
	})
}

// SelectGroup jumps to another group, stopping playback.
func (c *Controller) SelectGroup(index int) bool {
	return c.update(func() bool {
		if index < 0 || index >= len(c.groups) {
			return false
		}
		c.selected = index
		c.resetCursorLocked()
		return true
	})
}

// FindGroup looks a group up by name, exact match first then fuzzy.
func (c *Controller) FindGroup(query string) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return findGroup(c.groups, query)
}

// LoadInventory fetches the remote inventory and prepends it as a group
// named "Inventory". Failures are logged and leave the state unchanged.
func (c *Controller) LoadInventory(ctx context.Context, src InventorySource) error {
	items, err := src.FetchInventory(ctx)
	if err != nil {
		c.log.Warn("inventory load failed", zap.Error(err))
		return err
	}
	c.update(func() bool {
		wasEmpty := len(c.groups) == 0
		c.groups = append([]Group{{Name: InventoryGroupName, Items: items}}, c.groups...)
		if wasEmpty {
			c.resetCursorLocked()
		} else {
			// keep pointing at the group that was selected
			c.selected++
		}
		c.persistLocked()
		c.log.Info("inventory loaded", zap.Int("items", len(items)))
		return true
	})
	return nil
}

// --- Playback cursor ---

// Next advances to the following item, wrapping to the first.
func (c *Controller) Next() bool {
	return c.update(c.nextLocked)
}

// Previous steps back one item, wrapping to the last.
func (c *Controller) Previous() bool {
	return c.update(func() bool {
		n := c.itemCountLocked()
		if n == 0 {
			return false
		}
		c.current = (c.current - 1 + n) % n
		c.refreshLocked(true)
		return true
	})
}

func (c *Controller) nextLocked() bool {
	n := c.itemCountLocked()
	if n == 0 {
		return false
	}
	c.current = (c.current + 1) % n
	c.refreshLocked(true)
	return true
}

// TogglePlay switches between playing and stopped. It is inert while the
// selected group is empty.
func (c *Controller) TogglePlay() bool {
	return c.update(func() bool {
		if c.itemCountLocked() == 0 {
			return false
		}
		c.playing = !c.playing
		c.refreshLocked(false)
		return true
	})
}

// HandleKey maps navigation keys: left/right step, space toggles.
func (c *Controller) HandleKey(k Key) {
	switch k {
	case KeyLeft:
		c.Previous()
	case KeyRight:
		c.Next()
	case KeySpace:
		c.TogglePlay()
	}
}

func (c *Controller) itemCountLocked() int {
	if c.selected < 0 || c.selected >= len(c.groups) {
		return 0
	}
	return len(c.groups[c.selected].Items)
}

func (c *Controller) currentItemLocked() *media.Item {
	if c.selected < 0 || c.selected >= len(c.groups) {
		return nil
	}
	items := c.groups[c.selected].Items
	if c.current < 0 || c.current >= len(items) {
		return nil
	}
	return &items[c.current]
}

// resetCursorLocked is the common tail of selection, deletion and
// append: back to the first item, stopped.
func (c *Controller) resetCursorLocked() {
	c.current = 0
	c.playing = false
	c.refreshLocked(true)
}

func (c *Controller) persistLocked() {
	if c.store == nil {
		return
	}
	if err := c.store.SaveGroups(cloneGroups(c.groups)); err != nil {
		c.log.Warn("persist groups failed", zap.Error(err))
	}
}
