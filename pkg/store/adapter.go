package store

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// Adapter binds an Engine to a fixed segment and adds logging and metrics
// around its get/set primitives. One Adapter is shared by all requests of a
// plugin instance; it holds no per-request state.
type Adapter struct {
	engine  Engine
	segment string
	logger  zerolog.Logger
}

// NewAdapter creates an Adapter over engine scoped to segment.
func NewAdapter(engine Engine, segment string, logger zerolog.Logger) *Adapter {
	if engine == nil {
		panic("store engine cannot be nil")
	}
	return &Adapter{
		engine:  engine,
		segment: segment,
		logger:  logger,
	}
}

// Get looks up id in the adapter's segment. A miss is (nil, nil); read
// errors propagate to the caller.
func (a *Adapter) Get(ctx context.Context, id string) (*StoredResult, error) {
	result, err := a.engine.Get(ctx, a.segment, id)
	if err != nil {
		StoreErrors.WithLabelValues("get").Inc()
		return nil, fmt.Errorf("store get: %w", err)
	}
	if result == nil {
		Misses.Inc()
		a.logger.Debug().Str("id", id).Msg("Cache miss")
		return nil, nil
	}
	Hits.Inc()
	a.logger.Debug().
		Str("id", id).
		Time("stored", result.Stored).
		Msg("Cache hit")
	return result, nil
}

// Set upserts item under id with the given TTL.
func (a *Adapter) Set(ctx context.Context, id string, item CacheItem, ttl time.Duration) error {
	if err := a.engine.Set(ctx, a.segment, id, item, ttl); err != nil {
		StoreErrors.WithLabelValues("set").Inc()
		return fmt.Errorf("store set: %w", err)
	}
	Writes.Inc()
	a.logger.Debug().
		Str("id", id).
		Dur("ttl", ttl).
		Int("body_bytes", len(item.Body)).
		Msg("Cached response")
	return nil
}

// Stop shuts the engine down if it reports readiness.
func (a *Adapter) Stop(ctx context.Context) error {
	if !a.engine.IsReady() {
		return nil
	}
	return a.engine.Stop(ctx)
}
