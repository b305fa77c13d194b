package geocode

import (
	"database/sql"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

// SQLiteCache implements Cache on a local SQLite database. It keeps the
// same load-all / persist-all lifecycle as FileCache so the two backends
// are interchangeable.
type SQLiteCache struct {
	db *sql.DB

	mu      sync.RWMutex
	entries map[string]cacheEntry
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS geocode_cache (
	query        TEXT PRIMARY KEY,
	latitude     REAL NOT NULL,
	longitude    REAL NOT NULL,
	display_name TEXT NOT NULL DEFAULT ''
);
`

// NewSQLiteCache opens (creating if needed) a SQLite-backed cache at the
// given path and configures WAL mode.
func NewSQLiteCache(dsn string) (*SQLiteCache, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: sqlite open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "geocode: sqlite exec %s", pragma)
		}
	}
	if _, err := db.Exec(sqliteMigration); err != nil {
		db.Close()
		return nil, eris.Wrap(err, "geocode: sqlite migrate")
	}
	return &SQLiteCache{
		db:      db,
		entries: make(map[string]cacheEntry),
	}, nil
}

// Load implements Cache.
func (c *SQLiteCache) Load() (int, error) {
	rows, err := c.db.Query(`SELECT query, latitude, longitude, display_name FROM geocode_cache`)
	if err != nil {
		zap.L().Warn("geocode: sqlite cache unreadable, starting empty", zap.Error(err))
		return 0, nil
	}
	defer rows.Close() //nolint:errcheck

	entries := make(map[string]cacheEntry)
	for rows.Next() {
		var query string
		var e cacheEntry
		if err := rows.Scan(&query, &e.Latitude, &e.Longitude, &e.DisplayName); err != nil {
			zap.L().Warn("geocode: sqlite cache row unreadable, starting empty", zap.Error(err))
			return 0, nil
		}
		entries[query] = e
	}
	if err := rows.Err(); err != nil {
		zap.L().Warn("geocode: sqlite cache iteration failed, starting empty", zap.Error(err))
		return 0, nil
	}

	c.mu.Lock()
	c.entries = entries
	c.mu.Unlock()
	return len(entries), nil
}

// Get implements Cache.
func (c *SQLiteCache) Get(query string) (*Result, bool) {
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
func (c *SQLiteCache) Put(query string, r *Result) {
	c.mu.Lock()
	c.entries[query] = cacheEntry{
		Latitude:    r.Lat,
		Longitude:   r.Lon,
		DisplayName: r.DisplayName,
	}
	c.mu.Unlock()
}

// Persist implements Cache. All in-memory entries are upserted in one
// transaction.
func (c *SQLiteCache) Persist() (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	tx, err := c.db.Begin()
	if err != nil {
		return 0, eris.Wrap(err, "geocode: sqlite begin")
	}
	for query, e := range c.entries {
		if _, err := tx.Exec(`
			INSERT INTO geocode_cache (query, latitude, longitude, display_name)
			VALUES (?, ?, ?, ?)
			ON CONFLICT (query) DO UPDATE SET
				latitude = excluded.latitude,
				longitude = excluded.longitude,
				display_name = excluded.display_name`,
			query, e.Latitude, e.Longitude, e.DisplayName,
		); err != nil {
			tx.Rollback() //nolint:errcheck
			return 0, eris.Wrapf(err, "geocode: sqlite upsert %q", query)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "geocode: sqlite commit")
	}
	return len(c.entries), nil
}

// Len implements Cache.
func (c *SQLiteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Entries implements Cache.
func (c *SQLiteCache) Entries() map[string]Result {
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

// Close releases the underlying database handle.
func (c *SQLiteCache) Close() error {
	return c.db.Close()
}
