// Package cachehttp implements the cache decision engine for an HTTP
// client: it intercepts outgoing requests, consults a store engine,
// decides whether a cached entry is fresh enough to serve directly,
// revalidates stale entries with conditional requests, and persists
// cacheable responses after the fact.
//
// # Basic Usage
//
//	engine := memory.New()
//	plugin, err := cachehttp.New(ctx, cachehttp.Options{Engine: engine})
//	if err != nil {
//		return err
//	}
//	defer plugin.Stop(context.Background())
//
//	client := &http.Client{
//		Transport: &cachehttp.Transport{Plugin: plugin},
//	}
//
// # Decision Flow
//
// A request flows: cache id -> store lookup -> revalidation handler ->
// forward if needed -> cacheability check -> serialize and store -> return.
// A fresh hit short-circuits without any network call. A stale entry is
// revalidated with If-None-Match/If-Modified-Since; a 304 answer is merged
// with the stored entry. When the origin is unreachable or erroring with a
// 5xx and StaleFallback is enabled, the stale entry is served instead.
//
// # Concurrency
//
// There is no single-flight deduplication: concurrent requests for the same
// id may all miss and all store. Entries are self-contained value objects,
// so duplicate writes are idempotent (last write wins).
//
// # Metrics
//
// The package exports Prometheus metrics:
//
//   - popsicle_cache_fresh_hits_total - entries served without a network call
//   - popsicle_cache_revalidations_total - conditional requests issued
//   - popsicle_cache_not_modified_total - 304 merges
//   - popsicle_cache_stale_fallbacks_total - stale entries served on origin failure
package cachehttp
