package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"signage-player/internal/media"
	"signage-player/internal/slideshow"
)

// Key under which the whole group collection is saved.
const groupsKey = "slideshowGroups"

// mediaRecord is the persisted form of one item: {name, url, type}, plus
// flags that are omitted when false.
type mediaRecord struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Type     string `json:"type"`
	Panorama bool   `json:"panorama,omitempty"`
	Local    bool   `json:"local,omitempty"`
}

type groupRecord struct {
	Name  string        `json:"name"`
	Media []mediaRecord `json:"media"`
}

// LoadGroups implements slideshow.Store. A fresh database has no groups.
func (s *DB) LoadGroups() ([]slideshow.Group, error) {
	data, err := s.get(bucketGroups, groupsKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load groups: %w", err)
	}

	var records []groupRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("decode groups: %w", err)
	}
	return decodeGroups(records), nil
}

// SaveGroups implements slideshow.Store.
func (s *DB) SaveGroups(groups []slideshow.Group) error {
	data, err := json.Marshal(encodeGroups(groups))
	if err != nil {
		return fmt.Errorf("encode groups: %w", err)
	}
	if err := s.set(bucketGroups, groupsKey, data); err != nil {
		return fmt.Errorf("save groups: %w", err)
	}
	return nil
}

func encodeGroups(groups []slideshow.Group) []groupRecord {
	records := make([]groupRecord, len(groups))
	for i, g := range groups {
		rec := groupRecord{Name: g.Name, Media: make([]mediaRecord, 0, len(g.Items))}
		for _, it := range g.Items {
			if it.Source == nil {
				continue
			}
			rec.Media = append(rec.Media, mediaRecord{
				Name:     it.Source.Identifier(),
				URL:      it.Source.Location(),
				Type:     it.Source.DeclaredType(),
				Panorama: it.Panorama,
				Local:    it.Source.IsLocal(),
			})
		}
		records[i] = rec
	}
	return records
}

func decodeGroups(records []groupRecord) []slideshow.Group {
	groups := make([]slideshow.Group, 0, len(records))
	for _, rec := range records {
		name := strings.TrimSpace(rec.Name)
		if name == "" {
			continue
		}
		g := slideshow.Group{Name: name, Items: make([]media.Item, 0, len(rec.Media))}
		for _, m := range rec.Media {
			g.Items = append(g.Items, media.Item{Source: m.source(), Panorama: m.Panorama})
		}
		groups = append(groups, g)
	}
	return groups
}

func (m mediaRecord) source() media.Source {
	if m.Local || strings.HasPrefix(m.URL, "file://") {
		return media.LocalMedia{Path: strings.TrimPrefix(m.URL, "file://"), MimeType: m.Type}
	}
	return media.RemoteMedia{Name: m.Name, URL: m.URL, Type: m.Type}
}
