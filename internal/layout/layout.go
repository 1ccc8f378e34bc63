// Package layout defines where on the screen the slideshow is drawn.
// A layout divides the screen into rectangular zones; the renderer
// draws into the "main" zone.
package layout

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// MainZone is the zone the slideshow renders into.
const MainZone = "main"

// Zone represents a rectangular region of the screen.
// Coordinates are percentages (0-100) of total screen area.
type Zone struct {
	ID     string `json:"id" yaml:"id"`
	X      int    `json:"x" yaml:"x"`
	Y      int    `json:"y" yaml:"y"`
	Width  int    `json:"width" yaml:"width"`
	Height int    `json:"height" yaml:"height"`
	Zindex int    `json:"zindex" yaml:"zindex"`
}

// Rect is a zone in screen pixels.
type Rect struct {
	X, Y, W, H int
}

// IsFull reports whether the zone covers the whole screen.
func (z Zone) IsFull() bool {
	return z.X == 0 && z.Y == 0 && z.Width >= 100 && z.Height >= 100
}

// Pixels converts the zone to pixels on a screenW x screenH display.
func (z Zone) Pixels(screenW, screenH int) Rect {
	if z.IsFull() {
		return Rect{W: screenW, H: screenH}
	}
	return Rect{
		X: z.X * screenW / 100,
		Y: z.Y * screenH / 100,
		W: z.Width * screenW / 100,
		H: z.Height * screenH / 100,
	}
}

// Layout is a named screen layout with one or more zones.
type Layout struct {
	Name  string `json:"name" yaml:"name"`
	Zones []Zone `json:"zones" yaml:"zones"`
}

// LoadFromFile reads a layout from a JSON or YAML file, chosen by
// extension.
func LoadFromFile(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read layout: %w", err)
	}

	var l Layout
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &l)
	default:
		err = json.Unmarshal(data, &l)
	}
	if err != nil {
		return nil, fmt.Errorf("parse layout %s: %w", filepath.Base(path), err)
	}

	if err := l.Validate(); err != nil {
		return nil, err
	}
	return &l, nil
}

// Resolve returns the preset called name, or loads name as a file when
// no preset matches.
func Resolve(name string) (*Layout, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "fullscreen":
		return Fullscreen(), nil
	case "billboard":
		return Billboard(), nil
	}
	return LoadFromFile(name)
}

// Validate checks that the layout has a main zone and that all zones
// have valid dimensions.
func (l *Layout) Validate() error {
	if len(l.Zones) == 0 {
		return fmt.Errorf("layout %q has no zones", l.Name)
	}

	ids := make(map[string]bool)
	for _, z := range l.Zones {
		if z.ID == "" {
			return fmt.Errorf("zone missing id")
		}
		if ids[z.ID] {
			return fmt.Errorf("duplicate zone id: %s", z.ID)
		}
		ids[z.ID] = true

		if z.Width <= 0 || z.Height <= 0 {
			return fmt.Errorf("zone %q has invalid dimensions: %dx%d", z.ID, z.Width, z.Height)
		}
		if z.X < 0 || z.Y < 0 || z.X+z.Width > 100 || z.Y+z.Height > 100 {
			return fmt.Errorf("zone %q exceeds screen bounds", z.ID)
		}
	}

	if !ids[MainZone] {
		return fmt.Errorf("layout %q has no %q zone", l.Name, MainZone)
	}
	return nil
}

// Main returns the zone the slideshow renders into.
func (l *Layout) Main() Zone {
	for _, z := range l.Zones {
		if z.ID == MainZone {
			return z
		}
	}
	return Zone{ID: MainZone, Width: 100, Height: 100}
}

// Stacked returns the zones ordered bottom to top.
func (l *Layout) Stacked() []Zone {
	zones := append([]Zone(nil), l.Zones...)
	sort.SliceStable(zones, func(i, j int) bool { return zones[i].Zindex < zones[j].Zindex })
	return zones
}

// Fullscreen returns a single-zone layout that fills the entire screen.
// This is the default.
func Fullscreen() *Layout {
	return &Layout{
		Name:  "fullscreen",
		Zones: []Zone{{ID: MainZone, Width: 100, Height: 100}},
	}
}

// Billboard places the slideshow on an inset panel above a backdrop
// zone, the flat stand-in for a billboard in a scene.
func Billboard() *Layout {
	return &Layout{
		Name: "billboard",
		Zones: []Zone{
			{ID: "backdrop", Width: 100, Height: 100, Zindex: 0},
			{ID: MainZone, X: 10, Y: 10, Width: 80, Height: 60, Zindex: 1},
		},
	}
}
