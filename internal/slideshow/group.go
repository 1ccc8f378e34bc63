package slideshow

import (
	"strings"

	"github.com/sahilm/fuzzy"

	"signage-player/internal/media"
)

// InventoryGroupName is the name of the group created from the remote
// inventory.
const InventoryGroupName = "Inventory"

// Group is a named, ordered collection of media shown in one slideshow.
type Group struct {
	Name  string
	Items []media.Item
}

func (g Group) clone() Group {
	items := make([]media.Item, len(g.Items))
	copy(items, g.Items)
	return Group{Name: g.Name, Items: items}
}

func cloneGroups(groups []Group) []Group {
	out := make([]Group, len(groups))
	for i, g := range groups {
		out[i] = g.clone()
	}
	return out
}

// Snapshot is a read-only copy of the playback state.
type Snapshot struct {
	Groups        []Group
	SelectedGroup int
	CurrentItem   int
	Playing       bool
}

// Current returns the selected group and the item under the cursor.
// ok is false when there is no group or the group is empty.
func (s Snapshot) Current() (g Group, it media.Item, ok bool) {
	if s.SelectedGroup < 0 || s.SelectedGroup >= len(s.Groups) {
		return Group{}, media.Item{}, false
	}
	g = s.Groups[s.SelectedGroup]
	if s.CurrentItem < 0 || s.CurrentItem >= len(g.Items) {
		return g, media.Item{}, false
	}
	return g, g.Items[s.CurrentItem], true
}

type groupNames []Group

func (g groupNames) String(i int) string { return g[i].Name }
func (g groupNames) Len() int            { return len(g) }

// findGroup matches query against group names: an exact
// case-insensitive match first, otherwise the best fuzzy match.
func findGroup(groups []Group, query string) (int, bool) {
	query = strings.TrimSpace(query)
	if query == "" || len(groups) == 0 {
		return 0, false
	}
	for i, g := range groups {
		if strings.EqualFold(g.Name, query) {
			return i, true
		}
	}
	matches := fuzzy.FindFrom(query, groupNames(groups))
	if len(matches) == 0 {
		return 0, false
	}
	return matches[0].Index, true
}
