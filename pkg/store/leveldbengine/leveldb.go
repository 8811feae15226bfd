// Package leveldbengine provides a store engine backed by an embedded
// LevelDB database. Expiry is stamped into each record and enforced on Get.
package leveldbengine

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"

	"github.com/serviejs/popsicle-cache/pkg/store"
)

type record struct {
	Item     store.CacheItem
	TTLMilli int64 // -1 means forever
	Stored   time.Time
	Expires  time.Time // zero means no expiry
}

// Engine is a store.Engine over a LevelDB directory.
type Engine struct {
	path string

	mu    sync.Mutex
	db    *leveldb.DB
	ready bool
}

// New creates a LevelDB engine rooted at path.
func New(path string) *Engine {
	return &Engine{path: path}
}

func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	db, err := leveldb.OpenFile(e.path, nil)
	if err != nil {
		return fmt.Errorf("open leveldb: %w", err)
	}
	e.db = db
	e.ready = true
	return nil
}

func (e *Engine) Get(ctx context.Context, segment, id string) (*store.StoredResult, error) {
	if !e.IsReady() {
		return nil, store.ErrNotReady
	}

	data, err := e.db.Get(key(segment, id), nil)
	if err == leveldb.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("leveldb get: %w", err)
	}

	var rec record
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}

	if !rec.Expires.IsZero() && time.Now().After(rec.Expires) {
		_ = e.db.Delete(key(segment, id), nil)
		return nil, nil
	}

	result := &store.StoredResult{
		Item:   rec.Item,
		TTL:    store.TTLForever,
		Stored: rec.Stored,
	}
	if rec.TTLMilli >= 0 {
		result.TTL = time.Duration(rec.TTLMilli) * time.Millisecond
	}
	return result, nil
}

func (e *Engine) Set(ctx context.Context, segment, id string, item store.CacheItem, ttl time.Duration) error {
	if !e.IsReady() {
		return store.ErrNotReady
	}

	now := time.Now()
	rec := record{
		Item:     item,
		TTLMilli: -1,
		Stored:   now,
	}
	if ttl != store.TTLForever {
		rec.TTLMilli = ttl.Milliseconds()
		rec.Expires = now.Add(ttl)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rec); err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := e.db.Put(key(segment, id), buf.Bytes(), nil); err != nil {
		return fmt.Errorf("leveldb put: %w", err)
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

func key(segment, id string) []byte {
	return []byte(segment + "~" + id)
}
