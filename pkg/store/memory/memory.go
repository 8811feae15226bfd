// Package memory provides an in-process store engine backed by a map.
// Entries expire lazily on Get. It is the default engine for tests and
// single-process setups.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/serviejs/popsicle-cache/pkg/store"
)

type record struct {
	result   store.StoredResult
	deadline time.Time // zero means no TTL expiry
}

// Engine is a thread-safe in-memory store.Engine.
type Engine struct {
	mu      sync.RWMutex
	entries map[string]record
	ready   bool
}

// New creates an in-memory engine.
func New() *Engine {
	return &Engine{}
}

func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.entries == nil {
		e.entries = make(map[string]record)
	}
	e.ready = true
	return nil
}

func (e *Engine) Get(ctx context.Context, segment, id string) (*store.StoredResult, error) {
	e.mu.RLock()
	rec, ok := e.entries[segment+"~"+id]
	ready := e.ready
	e.mu.RUnlock()

	if !ready {
		return nil, store.ErrNotReady
	}
	if !ok {
		return nil, nil
	}
	if !rec.deadline.IsZero() && time.Now().After(rec.deadline) {
		e.mu.Lock()
		delete(e.entries, segment+"~"+id)
		e.mu.Unlock()
		return nil, nil
	}

	result := rec.result
	return &result, nil
}

func (e *Engine) Set(ctx context.Context, segment, id string, item store.CacheItem, ttl time.Duration) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if !e.ready {
		return store.ErrNotReady
	}

	now := time.Now()
	rec := record{
		result: store.StoredResult{Item: item, TTL: ttl, Stored: now},
	}
	if ttl != store.TTLForever {
		rec.deadline = now.Add(ttl)
	}
	e.entries[segment+"~"+id] = rec
	return nil
}

func (e *Engine) Stop(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ready = false
	e.entries = nil
	return nil
}

func (e *Engine) IsReady() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.ready
}
