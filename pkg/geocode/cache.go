package geocode

import (
	"encoding/json"
	"os"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Cache is a persistent mapping from the exact query string to its resolved
// coordinate. Keys are not normalized: callers must pass the same string to
// hit the cache. Entries are never evicted.
type Cache interface {
	// Load reads persisted state into memory and returns the entry count.
	// A missing or corrupt backing store is non-fatal: it is logged and an
	// empty cache is substituted.
	Load() (int, error)

	// Get returns the cached result for an exact query string.
	Get(query string) (*Result, bool)

	// Put inserts or overwrites an entry.
	Put(query string, r *Result)

	// Persist writes the full in-memory mapping back to storage, replacing
	// prior contents, and returns the entry count.
	Persist() (int, error)

	// Len reports the number of in-memory entries.
	Len() int

	// Entries returns a snapshot of the in-memory mapping.
	Entries() map[string]Result
}

// CopyCache copies every entry of src into dst and returns the count. The
// destination still needs a Persist call to hit storage.
func CopyCache(src, dst Cache) int {
	entries := src.Entries()
	for query, r := range entries {
		dst.Put(query, &r)
	}
	return len(entries)
}

// cacheEntry is the persisted form of a resolved query.
type cacheEntry struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	DisplayName string  `json:"display_name"`
}

// FileCache keeps the mapping in memory and persists it as a single flat
// JSON object. A crash between Load and Persist loses entries added this
// run; the next run simply re-resolves them.
type FileCache struct {
	path string

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

// NewFileCache creates a FileCache backed by the given path. Call Load
// before first use.
func NewFileCache(path string) *FileCache {
	return &FileCache{
		path:    path,
		entries: make(map[string]cacheEntry),
	}
}

// Load implements Cache.
func (c *FileCache) Load() (int, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		if !os.IsNotExist(err) {
			zap.L().Warn("geocode: cache unreadable, starting empty",
				zap.String("path", c.path),
				zap.Error(err),
			)
		}
		return 0, nil
	}

	entries := make(map[string]cacheEntry)
	if err := json.Unmarshal(data, &entries); err != nil {
		zap.L().Warn("geocode: cache corrupt, starting empty",
			zap.String("path", c.path),
			zap.Error(err),
		)
		return 0, nil
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return len(entries), nil
}

// Get implements Cache.
func (c *FileCache) Get(query string) (*Result, bool) {
	c.mu.RLock()
	e, ok := c.entries[query]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	return &Result{
		Coordinate:  Coordinate{Lat: e.Latitude, Lon: e.Longitude},
		DisplayName: e.DisplayName,
		Matched:     true,
	}, true
}

// Put implements Cache.
func (c *FileCache) Put(query string, r *Result) {
	c.mu.Lock()
	c.entries[query] = cacheEntry{
		Latitude:    r.Lat,
		Longitude:   r.Lon,
		DisplayName: r.DisplayName,
	}
	c.mu.Unlock()
}

// Persist implements Cache.
func (c *FileCache) Persist() (int, error) {
	c.mu.RLock()
	data, err := json.Marshal(c.entries)
	n := len(c.entries)
	c.mu.RUnlock()
	if err != nil {
		return 0, eris.Wrap(err, "geocode: marshal cache")
	}
	if err := os.WriteFile(c.path, data, 0o644); err != nil {
		return 0, eris.Wrapf(err, "geocode: write cache %s", c.path)
	}
	return n, nil
}

// Len implements Cache.
func (c *FileCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries implements Cache.
func (c *FileCache) Entries() map[string]Result {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]Result, len(c.entries))
	for query, e := range c.entries {
		out[query] = Result{
			Coordinate:  Coordinate{Lat: e.Latitude, Lon: e.Longitude},
			DisplayName: e.DisplayName,
			Matched:     true,
		}
	}
	return out
}
