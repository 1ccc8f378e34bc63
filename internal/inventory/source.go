// Package inventory serves the media inventory list. Items come from a
// relational table, a key-value list, or the table behind a TTL cache,
// depending on which stores are configured.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrNotConfigured is returned when an operation needs the relational
// inventory table and no database path is set.
var ErrNotConfigured = errors.New("inventory: no database configured")

// Item is one inventory entry as served over HTTP.
type Item struct {
	ID   int64  `json:"id,omitempty"`
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// Source lists inventory items.
type Source interface {
	List(ctx context.Context) ([]Item, error)
}

// Lister reads an ordered list of JSON values from a key-value store.
type Lister interface {
	ListRange() ([][]byte, error)
}

// Cache is a key-value store with per-key expiry.
type Cache interface {
	CacheGet(key string) ([]byte, bool, error)
	CacheSet(key string, value []byte, ttl time.Duration) error
}

// CacheKey is the key the cache-aside source stores the list under.
const CacheKey = "inventory"

// DefaultTTL matches how long a cached inventory stays fresh.
const DefaultTTL = 300 * time.Second

// Empty is the source used when nothing is configured.
type Empty struct{}

func (Empty) List(context.Context) ([]Item, error) { return []Item{}, nil }

// ListSource decodes every value of a key-value list as an Item.
type ListSource struct {
	kv Lister
}

func NewListSource(kv Lister) *ListSource {
	return &ListSource{kv: kv}
}

func (s *ListSource) List(ctx context.Context) ([]Item, error) {
	values, err := s.kv.ListRange()
	if err != nil {
		return nil, fmt.Errorf("read inventory list: %w", err)
	}
	items := make([]Item, 0, len(values))
	for i, v := range values {
		var it Item
		if err := json.Unmarshal(v, &it); err != nil {
			return nil, fmt.Errorf("decode inventory list entry %d: %w", i, err)
		}
		items = append(items, it)
	}
	return items, nil
}

// Cached is a cache-aside wrapper: a fresh cache entry is served as is,
// a miss reads the origin and fills the cache.
type Cached struct {
	cache  Cache
	origin Source
	ttl    time.Duration
	log    *zap.Logger
}

func NewCached(cache Cache, origin Source, ttl time.Duration, log *zap.Logger) *Cached {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Cached{cache: cache, origin: origin, ttl: ttl, log: log.Named("inventory.cache")}
}

func (c *Cached) List(ctx context.Context) ([]Item, error) {
	raw, ok, err := c.cache.CacheGet(CacheKey)
	if err != nil {
		return nil, fmt.Errorf("inventory cache: %w", err)
	}
	if ok {
		var items []Item
		if err := json.Unmarshal(raw, &items); err == nil {
			c.log.Debug("cache hit", zap.Int("items", len(items)))
			return items, nil
		}
		c.log.Warn("cached inventory unreadable, refetching")
	}

	items, err := c.origin.List(ctx)
	if err != nil {
		return nil, err
	}
	data, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("encode inventory: %w", err)
	}
	if err := c.cache.CacheSet(CacheKey, data, c.ttl); err != nil {
		return nil, fmt.Errorf("inventory cache: %w", err)
	}
	c.log.Debug("cache filled", zap.Int("items", len(items)), zap.Duration("ttl", c.ttl))
	return items, nil
}

// Select picks the source for the configured stores: the table behind
// the cache when both exist, the key-value list when only it exists, the
// table alone, or an empty list.
func Select(kv interface {
	Lister
	Cache
}, table Source, ttl time.Duration, log *zap.Logger) Source {
	switch {
	case kv != nil && table != nil:
		return NewCached(kv, table, ttl, log)
	case kv != nil:
		return NewListSource(kv)
	case table != nil:
		return table
	default:
		return Empty{}
	}
}
