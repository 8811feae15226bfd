// Package redisengine provides a store engine backed by Redis. Entries are
// JSON-encoded and expiry is delegated to Redis key TTLs, so a stale entry
// simply disappears from lookups.
package redisengine

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/serviejs/popsicle-cache/pkg/store"
)

// persisted is the wire form of an entry. The TTL is carried in the record
// as well so lookups can report the TTL the entry was written with.
type persisted struct {
	Item   store.CacheItem `json:"item"`
	TTL    int64           `json:"ttl_ms"` // -1 means forever
	Stored time.Time       `json:"stored"`
}

// Engine is a store.Engine over a Redis client.
type Engine struct {
	client *redis.Client
	ready  bool
}

// New creates a Redis engine. The client's lifecycle remains the caller's.
func New(client *redis.Client) *Engine {
	if client == nil {
		panic("redis client cannot be nil")
	}
	return &Engine{client: client}
}

// Start pings the server; a failed ping aborts construction of the plugin.
func (e *Engine) Start(ctx context.Context) error {
	if err := e.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}
	e.ready = true
	return nil
}

func (e *Engine) Get(ctx context.Context, segment, id string) (*store.StoredResult, error) {
	data, err := e.client.Get(ctx, key(segment, id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var rec persisted
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decode cache entry: %w", err)
	}

	result := &store.StoredResult{
		Item:   rec.Item,
		TTL:    store.TTLForever,
		Stored: rec.Stored,
	}
	if rec.TTL >= 0 {
		result.TTL = time.Duration(rec.TTL) * time.Millisecond
	}
	return result, nil
}

func (e *Engine) Set(ctx context.Context, segment, id string, item store.CacheItem, ttl time.Duration) error {
	rec := persisted{
		Item:   item,
		TTL:    -1,
		Stored: time.Now(),
	}

	var expiration time.Duration // 0 means no expiry for redis
	if ttl != store.TTLForever {
		rec.TTL = ttl.Milliseconds()
		expiration = ttl
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}

	if err := e.client.Set(ctx, key(segment, id), data, expiration).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (e *Engine) Stop(ctx context.Context) error {
	e.ready = false
	return nil
}

func (e *Engine) IsReady() bool {
	return e.ready
}

func key(segment, id string) string {
	return segment + ":" + id
}
