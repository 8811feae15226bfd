// Package sqlite provides a store engine backed by a SQLite database,
// suitable for single-node durable caching without an external service.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"

	"github.com/serviejs/popsicle-cache/pkg/store"
)

// Engine is a store.Engine over a SQLite database. Writes are serialized
// through a mutex; SQLite allows only one writer at a time.
type Engine struct {
	filename string

	mu    sync.Mutex
	db    *sql.DB
	ready bool
}

// New creates a SQLite engine persisting to filename. An empty filename
// opens a shared in-memory database.
func New(filename string) *Engine {
	if filename == "" {
		filename = "file::memory:?cache=shared"
	}
	return &Engine{filename: filename}
}

// Start opens the database and creates the cache table.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	db, err := sql.Open("sqlite", e.filename)
	if err != nil {
		return fmt.Errorf("open sqlite: %w", err)
	}

	stmts := []string{
		`CREATE TABLE IF NOT EXISTS cache (
			segment TEXT NOT NULL,
			id TEXT NOT NULL,
			item BLOB NOT NULL,
			ttl_ms INTEGER NOT NULL,
			stored INTEGER NOT NULL,
			expires INTEGER NOT NULL,
			PRIMARY KEY (segment, id)
		)`,
		"CREATE INDEX IF NOT EXISTS cache_expires_idx ON cache (expires)",
		"PRAGMA journal_mode=WAL",
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return fmt.Errorf("init sqlite schema: %w", err)
		}
	}

	e.db = db
	e.ready = true
	return nil
}

func (e *Engine) Get(ctx context.Context, segment, id string) (*store.StoredResult, error) {
	if !e.IsReady() {
		return nil, store.ErrNotReady
	}

	var blob []byte
	var ttlMillis, storedUnix, expiresUnix int64
	err := e.db.QueryRowContext(ctx,
		"SELECT item, ttl_ms, stored, expires FROM cache WHERE segment = ? AND id = ?",
		segment, id,
	).Scan(&blob, &ttlMillis, &storedUnix, &expiresUnix)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get: %w", err)
	}

	// expires == 0 marks a forever entry.
	if expiresUnix > 0 && time.Now().After(time.Unix(0, expiresUnix)) {
		e.purge(ctx, segment, id)
		return nil, nil
	}

	var item store.CacheItem
	if err := json.Unmarshal(blob, &item); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}

	result := &store.StoredResult{
		Item:   item,
		TTL:    store.TTLForever,
		Stored: time.Unix(0, storedUnix),
	}
	if ttlMillis >= 0 {
		result.TTL = time.Duration(ttlMillis) * time.Millisecond
	}
	return result, nil
}

func (e *Engine) Set(ctx context.Context, segment, id string, item store.CacheItem, ttl time.Duration) error {
	if !e.IsReady() {
		return store.ErrNotReady
	}

	blob, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	now := time.Now()
	ttlMillis := int64(-1)
	var expiresUnix int64
	if ttl != store.TTLForever {
		ttlMillis = ttl.Milliseconds()
		expiresUnix = now.Add(ttl).UnixNano()
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	_, err = e.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO cache (segment, id, item, ttl_ms, stored, expires)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		segment, id, blob, ttlMillis, now.UnixNano(), expiresUnix,
	)
	if err != nil {
		return fmt.Errorf("sqlite set: %w", err)
	}
	return nil
}

func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = false
	if e.db == nil {
		return nil
	}
	err := e.db.Close()
	e.db = nil
	return err
}

func (e *Engine) IsReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.ready
}

func (e *Engine) purge(ctx context.Context, segment, id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, _ = e.db.ExecContext(ctx, "DELETE FROM cache WHERE segment = ? AND id = ?", segment, id)
}
