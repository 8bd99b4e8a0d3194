package assets

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// CachedAsset is a previously downloaded image.
type CachedAsset struct {
	URL       string
	ETag      string
	Body      []byte
	FetchedAt time.Time
}

// Cache stores downloaded images in SQLite keyed by URL, so repeated builds
// can revalidate instead of re-downloading.
type Cache struct {
	db  *sql.DB
	mu  sync.Mutex
	now func() time.Time
}

// OpenCache opens (or creates) the cache database at dbPath.
func OpenCache(dbPath string) (*Cache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		_ = db.Close()
		return nil, err
	}

	schema := `
	CREATE TABLE IF NOT EXISTS assets (
		url TEXT PRIMARY KEY,
		etag TEXT NOT NULL DEFAULT '',
		body BLOB NOT NULL,
		fetched_at INTEGER NOT NULL
	);
	`
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Cache{db: db, now: time.Now}, nil
}

// Get returns the cached asset for url, or nil when absent.
func (c *Cache) Get(ctx context.Context, url string) (*CachedAsset, error) {
	row := c.db.QueryRowContext(ctx, "SELECT etag, body, fetched_at FROM assets WHERE url = ?", url)
	a := CachedAsset{URL: url}
	var fetched int64
	if err := row.Scan(&a.ETag, &a.Body, &fetched); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("query asset %s: %w", url, err)
	}
	a.FetchedAt = time.Unix(fetched, 0)
	return &a, nil
}

// Put inserts or replaces an asset.
func (c *Cache) Put(ctx context.Context, a CachedAsset) error {
	// Concurrent fetches share one connection pool; serialize writers.
	c.mu.Lock()
	defer c.mu.Unlock()

	_, err := c.db.ExecContext(ctx, `
	INSERT INTO assets (url, etag, body, fetched_at) VALUES (?, ?, ?, ?)
	ON CONFLICT(url) DO UPDATE SET etag = excluded.etag, body = excluded.body, fetched_at = excluded.fetched_at
	`, a.URL, a.ETag, a.Body, c.now().Unix())
	if err != nil {
		return fmt.Errorf("store asset %s: %w", a.URL, err)
	}
	return nil
}

// Close releases the database.
func (c *Cache) Close() error {
	if c == nil || c.db == nil {
		return nil
	}
	return c.db.Close()
}
