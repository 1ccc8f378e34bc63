// Package media provides centralized media type detection for the player,
// distinguishing between image, video and 360° panorama content.
package media

import (
	"mime"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// Kind represents how an item is rendered.
type Kind int

const (
	Unsupported Kind = iota
	Image
	Video
	Panorama
)

func (k Kind) String() string {
	switch k {
	case Image:
		return "image"
	case Video:
		return "video"
	case Panorama:
		return "panorama"
	default:
		return "unsupported"
	}
}

// Video file extensions.
var videoExts = map[string]bool{
	".mp4":  true,
	".webm": true,
	".mov":  true,
	".m4v":  true,
	".hevc": true,
}

// Image file extensions.
var imageExts = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".heic": true,
	".heif": true,
	".avif": true,
}

// Filenames such as "beach_360.jpg" or "Lobby-PANO.png".
var panoramaName = regexp.MustCompile(`(?i)360|pano`)

// Source is the accessor shared by local files and remote references.
type Source interface {
	// Identifier is the display name used by the filename heuristics.
	Identifier() string
	// DeclaredType is the MIME-style type, empty when unknown.
	DeclaredType() string
	// Location is the file path for local media or the URL for remote media.
	Location() string
	IsLocal() bool
}

// LocalMedia is a file on the player's own disk.
type LocalMedia struct {
	Path     string
	MimeType string
}

func (l LocalMedia) Identifier() string   { return filepath.Base(l.Path) }
func (l LocalMedia) DeclaredType() string { return l.MimeType }
func (l LocalMedia) Location() string     { return l.Path }
func (l LocalMedia) IsLocal() bool        { return true }

// RemoteMedia is a reference returned by the inventory service.
type RemoteMedia struct {
	Name string
	URL  string
	Type string
}

// Identifier returns Name, or the last path segment of URL when Name is empty.
func (r RemoteMedia) Identifier() string {
	if r.Name != "" {
		return r.Name
	}
	u := r.URL
	if i := strings.IndexAny(u, "?#"); i >= 0 {
		u = u[:i]
	}
	if base := path.Base(u); base != "." && base != "/" {
		return base
	}
	return u
}

func (r RemoteMedia) DeclaredType() string { return r.Type }
func (r RemoteMedia) Location() string     { return r.URL }
func (r RemoteMedia) IsLocal() bool        { return false }

// Item is one playable entry of a group. Panorama is the user override
// and the only field that changes after the item is created.
type Item struct {
	Source   Source
	Panorama bool
}

// Name returns the item's identifier, or "" for an empty item.
func (it *Item) Name() string {
	if it == nil || it.Source == nil {
		return ""
	}
	return it.Source.Identifier()
}

// Classify decides how an item is rendered. The first matching rule wins:
// user override, panorama filename, declared type, then extension when no
// type was declared. It never panics on nil input.
func Classify(it *Item) Kind {
	switch {
	case IsPanorama(it):
		return Panorama
	case IsVideo(it):
		return Video
	case IsImage(it):
		return Image
	default:
		return Unsupported
	}
}

// IsPanorama reports whether the item is marked or named as a 360° panorama.
func IsPanorama(it *Item) bool {
	if it == nil || it.Source == nil {
		return false
	}
	if it.Panorama {
		return true
	}
	return panoramaName.MatchString(it.Source.Identifier())
}

// IsVideo checks the declared type first and falls back to the extension.
func IsVideo(it *Item) bool {
	return matches(it, "video/", videoExts)
}

// IsImage checks the declared type first and falls back to the extension.
func IsImage(it *Item) bool {
	return matches(it, "image/", imageExts)
}

func matches(it *Item, prefix string, exts map[string]bool) bool {
	if it == nil || it.Source == nil {
		return false
	}
	if t := it.Source.DeclaredType(); t != "" {
		return strings.HasPrefix(strings.ToLower(t), prefix)
	}
	return exts[strings.ToLower(filepath.Ext(it.Source.Identifier()))]
}

// DetectFile builds an item for a file on disk, taking the MIME type from
// the system table when the extension is known there.
func DetectFile(p string) Item {
	mt := mime.TypeByExtension(strings.ToLower(filepath.Ext(p)))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return Item{Source: LocalMedia{Path: p, MimeType: mt}}
}

// IsSupported returns true if the file would classify as playable media.
func IsSupported(p string) bool {
	it := Item{Source: LocalMedia{Path: p}}
	return Classify(&it) != Unsupported
}

// DefaultSlideInterval is how long (in milliseconds) an image or panorama
// is displayed before the slideshow advances.
const DefaultSlideInterval = 5000
