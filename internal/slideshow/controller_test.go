package slideshow

import (
	"context"
	"errors"
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

func TestAddGroup(t *testing.T) {
	h := newHarness()

	assert.False(t, h.c.AddGroup(""))
	assert.False(t, h.c.AddGroup("   "))
	assert.Empty(t, h.c.Snapshot().Groups)

	require.True(t, h.c.AddGroup("  Trip "))
	s := h.c.Snapshot()
	require.Len(t, s.Groups, 1)
	assert.Equal(t, "Trip", s.Groups[0].Name)
	assert.Equal(t, 0, s.SelectedGroup)

	h.c.AddGroup("Lobby")
	assert.Equal(t, 1, h.c.Snapshot().SelectedGroup)
	assert.Equal(t, 2, h.store.saves)
}

func TestNextWrapsAround(t *testing.T) {
	h := newHarness(Group{Name: "g", Items: []media.Item{img("a.jpg"), img("b.jpg"), img("c.jpg")}})

	h.c.Next()
	h.c.Next()
	assert.Equal(t, 2, h.c.Snapshot().CurrentItem)
	h.c.Next()
	assert.Equal(t, 0, h.c.Snapshot().CurrentItem)

	h.c.Previous()
	assert.Equal(t, 2, h.c.Snapshot().CurrentItem)
}

func TestNextPreviousAreInverse(t *testing.T) {
	for n := 1; n <= 5; n++ {
		items := make([]media.Item, n)
		for i := range items {
			items[i] = img("x.jpg")
		}
		h := newHarness(Group{Name: "g", Items: items})
		for start := 0; start < n; start++ {
			for h.c.Snapshot().CurrentItem != start {
				h.c.Next()
			}
			h.c.Next()
			h.c.Previous()
			assert.Equal(t, start, h.c.Snapshot().CurrentItem)

			for i := 0; i < n; i++ {
				h.c.Next()
			}
			assert.Equal(t, start, h.c.Snapshot().CurrentItem, "n=%d cycles back", n)
		}
	}
}

func TestNavigationOnEmptyGroup(t *testing.T) {
	h := newHarness(Group{Name: "empty"})

	assert.False(t, h.c.Next())
	assert.False(t, h.c.Previous())
	assert.False(t, h.c.TogglePlay())
	assert.False(t, h.c.Snapshot().Playing)

	none := newHarness()
	assert.False(t, none.c.Next())
	assert.False(t, none.c.TogglePlay())
}

func TestDeleteGroupResetsSelection(t *testing.T) {
	h := newHarness(
		Group{Name: "a", Items: []media.Item{img("1.jpg")}},
		Group{Name: "b"},
		Group{Name: "c", Items: []media.Item{img("1.jpg"), img("2.jpg")}},
	)
	h.c.SelectGroup(2)
	h.c.Next()
	h.c.TogglePlay()

	require.True(t, h.c.DeleteGroup(1))
	s := h.c.Snapshot()
	assert.Len(t, s.Groups, 2)
	assert.Equal(t, "c", s.Groups[1].Name)
	assert.Equal(t, 0, s.SelectedGroup)
	assert.Equal(t, 0, s.CurrentItem)
	assert.False(t, s.Playing)

	assert.False(t, h.c.DeleteGroup(5))
	assert.False(t, h.c.DeleteGroup(-1))

	h.c.DeleteGroup(0)
	h.c.DeleteGroup(0)
	s = h.c.Snapshot()
	assert.Empty(t, s.Groups)
	assert.Equal(t, 0, s.SelectedGroup)
}

func TestDeleteGroupNeedsConfirmation(t *testing.T) {
	var asked []string
	answer := false
	c := New(Options{Confirm: ConfirmFunc(func(p string) bool {
		asked = append(asked, p)
		return answer
	})})
	c.AddGroup("keep")

	assert.False(t, c.DeleteGroup(0))
	assert.Len(t, c.Snapshot().Groups, 1)

	answer = true
	assert.True(t, c.DeleteGroup(0))
	assert.Empty(t, c.Snapshot().Groups)
	assert.Equal(t, []string{"Delete this group?", "Delete this group?"}, asked)
}

func TestRenameGroup(t *testing.T) {
	h := newHarness(Group{Name: "Old"})

	assert.True(t, h.c.RenameGroup(0, "  New  "))
	assert.Equal(t, "New", h.c.Snapshot().Groups[0].Name)

	assert.False(t, h.c.RenameGroup(0, "   "))
	assert.Equal(t, "New", h.c.Snapshot().Groups[0].Name)

	assert.False(t, h.c.RenameGroup(3, "x"))
	assert.Equal(t, "New", h.store.groups[0].Name)
}

func TestAppendMediaResetsPlayback(t *testing.T) {
	h := newHarness(Group{Name: "g", Items: []media.Item{img("a.jpg"), img("b.jpg")}})
	h.c.Next()
	h.c.TogglePlay()
	require.True(t, h.c.Snapshot().Playing)

	require.True(t, h.c.AppendMedia(0, vid("c.mp4")))
	s := h.c.Snapshot()
	assert.Len(t, s.Groups[0].Items, 3)
	assert.Equal(t, 0, s.CurrentItem)
	assert.False(t, s.Playing)
	assert.Len(t, h.store.groups[0].Items, 3)

	assert.False(t, h.c.AppendMedia(4, img("d.jpg")))
	assert.False(t, h.c.AppendMedia(0))
	assert.Len(t, h.c.Snapshot().Groups[0].Items, 3)
}

func TestSelectGroupStopsPlayback(t *testing.T) {
	h := newHarness(
		Group{Name: "a", Items: []media.Item{img("1.jpg"), img("2.jpg")}},
		Group{Name: "b", Items: []media.Item{img("3.jpg")}},
	)
	h.c.Next()
	h.c.TogglePlay()

	require.True(t, h.c.SelectGroup(1))
	s := h.c.Snapshot()
	assert.Equal(t, 1, s.SelectedGroup)
	assert.Equal(t, 0, s.CurrentItem)
	assert.False(t, s.Playing)

	assert.False(t, h.c.SelectGroup(2))
	assert.Equal(t, 1, h.c.Snapshot().SelectedGroup)
}

func TestSetPanoramaOverride(t *testing.T) {
	h := newHarness(Group{Name: "g", Items: []media.Item{img("flat.jpg")}})

	require.True(t, h.c.SetPanorama(0, 0, true))
	_, it, ok := h.c.Snapshot().Current()
	require.True(t, ok)
	assert.Equal(t, media.Panorama, media.Classify(&it))
	assert.True(t, h.store.groups[0].Items[0].Panorama)

	assert.False(t, h.c.SetPanorama(0, 0, true))
	assert.False(t, h.c.SetPanorama(0, 9, false))
}

func TestRestoresFromStore(t *testing.T) {
	store := &memStore{groups: []Group{{Name: "saved", Items: []media.Item{img("a.jpg")}}}}
	c := New(Options{Store: store})
	s := c.Snapshot()
	require.Len(t, s.Groups, 1)
	assert.Equal(t, "saved", s.Groups[0].Name)

	broken := &memStore{err: errors.New("disk gone")}
	assert.Empty(t, New(Options{Store: broken}).Snapshot().Groups)
}

func TestLoadInventory(t *testing.T) {
	h := newHarness(Group{Name: "a"}, Group{Name: "b"})
	h.c.SelectGroup(1)

	inv := staticInventory{items: []media.Item{img("x.jpg"), vid("y.mp4")}}
	require.NoError(t, h.c.LoadInventory(context.Background(), inv))

	s := h.c.Snapshot()
	require.Len(t, s.Groups, 3)
	assert.Equal(t, InventoryGroupName, s.Groups[0].Name)
	assert.Len(t, s.Groups[0].Items, 2)
	assert.Equal(t, "b", s.Groups[s.SelectedGroup].Name)
	assert.Len(t, h.store.groups, 3)
}

func TestLoadInventoryFailureKeepsState(t *testing.T) {
	h := newHarness(Group{Name: "a"})
	saves := h.store.saves

	err := h.c.LoadInventory(context.Background(), staticInventory{err: errors.New("503")})
	assert.Error(t, err)
	assert.Len(t, h.c.Snapshot().Groups, 1)
	assert.Equal(t, saves, h.store.saves)
}

func TestLoadInventoryIntoEmptyState(t *testing.T) {
	h := newHarness()
	require.NoError(t, h.c.LoadInventory(context.Background(), staticInventory{items: []media.Item{img("x.jpg")}}))
	s := h.c.Snapshot()
	assert.Equal(t, 0, s.SelectedGroup)
	assert.True(t, h.c.TogglePlay())
}

func TestFindGroup(t *testing.T) {
	h := newHarness(Group{Name: "Lobby Screens"}, Group{Name: "Trip"}, Group{Name: "trip photos"})

	i, ok := h.c.FindGroup("TRIP")
	require.True(t, ok)
	assert.Equal(t, 1, i)

	i, ok = h.c.FindGroup("lbby")
	require.True(t, ok)
	assert.Equal(t, 0, i)

	_, ok = h.c.FindGroup("zzz")
	assert.False(t, ok)
	_, ok = h.c.FindGroup("")
	assert.False(t, ok)
}

func TestOnChangeObserver(t *testing.T) {
	h := newHarness(Group{Name: "g", Items: []media.Item{img("a.jpg"), img("b.jpg")}})
	var seen []int
	h.c.OnChange(func(s Snapshot) {
		seen = append(seen, s.CurrentItem)
		// observers run outside the lock
		_ = h.c.Snapshot()
	})

	h.c.Next()
	h.c.Next()
	h.c.RenameGroup(0, "")
	assert.Equal(t, []int{1, 0}, seen)
}

func TestHandleKeyWithoutMount(t *testing.T) {
	h := newHarness(Group{Name: "g", Items: []media.Item{img("a.jpg"), img("b.jpg"), img("c.jpg")}})

	h.c.HandleKey(KeyRight)
	assert.Equal(t, 1, h.c.Snapshot().CurrentItem)
	h.c.HandleKey(KeyLeft)
	h.c.HandleKey(KeyLeft)
	assert.Equal(t, 2, h.c.Snapshot().CurrentItem)
	h.c.HandleKey(KeySpace)
	assert.True(t, h.c.Snapshot().Playing)
	// unmounted: nothing is scheduled
	assert.Empty(t, h.clock.live())
}

func TestUpdateReleasesLockOnPanic(t *testing.T) {
	c := New(Options{})
	assert.Panics(t, func() { c.update(func() bool { panic("boom") }) })

	done := make(chan struct{})
	go func() {
		defer close(done)
		c.AddGroup("after")
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("controller lock still held")
	}
	assert.Len(t, c.Snapshot().Groups, 1)
}

func TestDeleteGroupFollowsShiftedGroup(t *testing.T) {
	var c *Controller
	c = New(Options{Confirm: ConfirmFunc(func(string) bool {
		// the inventory lands while the prompt is open
		require.NoError(t, c.LoadInventory(context.Background(), staticInventory{items: []media.Item{img("x.jpg")}}))
		return true
	})})
	c.AddGroup("a")
	c.AddGroup("b")

	require.True(t, c.DeleteGroup(0))
	s := c.Snapshot()
	require.Len(t, s.Groups, 2)
	assert.Equal(t, InventoryGroupName, s.Groups[0].Name)
	assert.Equal(t, "b", s.Groups[1].Name)
}
