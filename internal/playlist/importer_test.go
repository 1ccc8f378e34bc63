package playlist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"signage-player/internal/media"
	"signage-player/internal/slideshow"
)

func local(path string) media.Item { return media.DetectFile(path) }

func TestImporterCreatesGroup(t *testing.T) {
	ctrl := slideshow.New(slideshow.Options{})
	im := NewImporter(ctrl, "Lobby", nil)

	n := im.Import([]media.Item{local("/m/a.jpg"), local("/m/b.mp4")})
	assert.Equal(t, 2, n)

	snap := ctrl.Snapshot()
	require.Len(t, snap.Groups, 1)
	assert.Equal(t, "Lobby", snap.Groups[0].Name)
	assert.Len(t, snap.Groups[0].Items, 2)
}

func TestImporterAppendsOnlyNewFiles(t *testing.T) {
	ctrl := slideshow.New(slideshow.Options{})
	im := NewImporter(ctrl, "Lobby", nil)

	im.Import([]media.Item{local("/m/a.jpg")})
	n := im.Import([]media.Item{local("/m/a.jpg"), local("/m/c.png")})
	assert.Equal(t, 1, n)

	// A removed file stays in the group.
	assert.Equal(t, 0, im.Import([]media.Item{local("/m/c.png")}))

	items := ctrl.Snapshot().Groups[0].Items
	require.Len(t, items, 2)
	assert.Equal(t, "c.png", items[1].Name())
}

func TestImporterSkipsItemsAlreadyPersisted(t *testing.T) {
	ctrl := slideshow.New(slideshow.Options{})
	ctrl.AddGroup("Other")
	ctrl.AddGroup("lobby")
	ctrl.AppendMedia(1, local("/m/a.jpg"))

	im := NewImporter(ctrl, "Lobby", nil)
	assert.Equal(t, 1, im.Import([]media.Item{local("/m/a.jpg"), local("/m/b.jpg")}))

	snap := ctrl.Snapshot()
	require.Len(t, snap.Groups, 2, "matched existing group case-insensitively")
	assert.Len(t, snap.Groups[1].Items, 2)
	assert.Empty(t, snap.Groups[0].Items)
}

func TestImporterBlankGroupIsInert(t *testing.T) {
	ctrl := slideshow.New(slideshow.Options{})
	im := NewImporter(ctrl, "  ", nil)
	assert.Equal(t, 0, im.Import([]media.Item{local("/m/a.jpg")}))
	assert.Empty(t, ctrl.Snapshot().Groups)
}
