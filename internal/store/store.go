// Package store is the player's bbolt database: persisted slideshow
// groups, a TTL key-value cache and an append-only list bucket used by
// the inventory service.
package store

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	bolt "go.etcd.io/bbolt"
)

// Bucket names
var (
	bucketGroups = []byte("groups")
	bucketCache  = []byte("cache")
	bucketList   = []byte("inventory_list")
)

var ErrNotFound = errors.New("store: key not found")

// DB wraps a bolt database with an in-memory read cache. A DB opened
// with OpenMemory keeps everything in memory only.
type DB struct {
	db   *bolt.DB
	path string
	now  func() time.Time

	mu    sync.RWMutex
	cache map[string][]byte
	// memory-only list contents
	list [][]byte
}

// Open opens (or creates) the database file at path.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		for _, bucket := range [][]byte{bucketGroups, bucketCache, bucketList} {
			if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create buckets: %w", err)
	}

	return &DB{db: db, path: path, now: time.Now, cache: make(map[string][]byte)}, nil
}

// OpenMemory returns a store without persistence.
func OpenMemory() *DB {
	return &DB{now: time.Now, cache: make(map[string][]byte)}
}

// Path returns the database file path, or "" for a memory store.
func (s *DB) Path() string { return s.path }

func (s *DB) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping checks that the database can serve a read transaction.
func (s *DB) Ping() error {
	if s.db == nil {
		return nil
	}
	return s.db.View(func(tx *bolt.Tx) error {
		if tx.Bucket(bucketGroups) == nil {
			return fmt.Errorf("bucket %s missing", bucketGroups)
		}
		return nil
	})
}

// === Generic helpers ===

func (s *DB) get(bucket []byte, key string) ([]byte, error) {
	cacheKey := string(bucket) + ":" + key

	s.mu.RLock()
	if data, ok := s.cache[cacheKey]; ok {
		s.mu.RUnlock()
		return data, nil
	}
	s.mu.RUnlock()

	if s.db == nil {
		return nil, ErrNotFound
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucket).Get([]byte(key)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if data == nil {
		return nil, ErrNotFound
	}

	// Promote to memory cache
	s.mu.Lock()
	s.cache[cacheKey] = data
	s.mu.Unlock()

	return data, nil
}

func (s *DB) set(bucket []byte, key string, data []byte) error {
	if s.db != nil {
		err := s.db.Update(func(tx *bolt.Tx) error {
			return tx.Bucket(bucket).Put([]byte(key), data)
		})
		if err != nil {
			return err
		}
	}

	s.mu.Lock()
	s.cache[string(bucket)+":"+key] = data
	s.mu.Unlock()
	return nil
}

func (s *DB) delete(bucket []byte, key string) error {
	s.mu.Lock()
	delete(s.cache, string(bucket)+":"+key)
	s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	})
}

// === TTL cache ===

type cacheEntry struct {
	Value     json.RawMessage `json:"value"`
	ExpiresAt time.Time       `json:"expires_at"`
}

// CacheGet returns a cached value. Expired entries are removed and
// reported as a miss.
func (s *DB) CacheGet(key string) ([]byte, bool, error) {
	raw, err := s.get(bucketCache, key)
	if errors.Is(err, ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("cache get %s: %w", key, err)
	}

	var e cacheEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		// corrupt entry: treat as a miss and drop it
		_ = s.delete(bucketCache, key)
		return nil, false, nil
	}
	if !e.ExpiresAt.IsZero() && !s.now().Before(e.ExpiresAt) {
		if err := s.delete(bucketCache, key); err != nil {
			return nil, false, fmt.Errorf("cache evict %s: %w", key, err)
		}
		return nil, false, nil
	}
	return e.Value, true, nil
}

// CacheSet stores a JSON value for ttl. A ttl <= 0 never expires.
func (s *DB) CacheSet(key string, value []byte, ttl time.Duration) error {
	e := cacheEntry{Value: json.RawMessage(value)}
	if ttl > 0 {
		e.ExpiresAt = s.now().Add(ttl)
	}
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}
	if err := s.set(bucketCache, key, data); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// CacheDelete drops a cached key.
func (s *DB) CacheDelete(key string) error {
	return s.delete(bucketCache, key)
}

// === List bucket ===

// ListAppend pushes values to the tail of the inventory list.
func (s *DB) ListAppend(values ...[]byte) error {
	if s.db == nil {
		s.mu.Lock()
		for _, v := range values {
			s.list = append(s.list, append([]byte(nil), v...))
		}
		s.mu.Unlock()
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucketList)
		for _, v := range values {
			seq, err := b.NextSequence()
			if err != nil {
				return err
			}
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, seq)
			if err := b.Put(key, v); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRange returns every list value in insertion order.
func (s *DB) ListRange() ([][]byte, error) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		out := make([][]byte, len(s.list))
		copy(out, s.list)
		return out, nil
	}
	var out [][]byte
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketList).ForEach(func(_, v []byte) error {
			out = append(out, append([]byte(nil), v...))
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("list range: %w", err)
	}
	return out, nil
}

// ListClear empties the inventory list.
func (s *DB) ListClear() error {
	if s.db == nil {
		s.mu.Lock()
		s.list = nil
		s.mu.Unlock()
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		if err := tx.DeleteBucket(bucketList); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucketList)
		return err
	})
}
