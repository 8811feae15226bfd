// Package metrics provides the centralized Prometheus registry reference
// for the cache. All metrics are defined in their respective packages
// (store, cachehttp) to maintain modularity and avoid circular
// dependencies.
//
// This package provides documentation and reference for all available
// metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Registry is the default Prometheus registry used by the cache. All
// metrics are automatically registered via promauto in their respective
// packages.
var Registry = prometheus.DefaultRegisterer

// Metrics Documentation
//
// Store Metrics (pkg/store):
//   - popsicle_cache_hits_total (Counter): Lookups that found a stored entry
//   - popsicle_cache_misses_total (Counter): Lookups that found nothing
//   - popsicle_cache_writes_total (Counter): Entries written to the engine
//   - popsicle_cache_store_errors_total{operation} (Counter): Engine failures by operation (get, set)
//
// Decision Metrics (pkg/cachehttp):
//   - popsicle_cache_fresh_hits_total (Counter): Entries served without contacting the origin
//   - popsicle_cache_revalidations_total (Counter): Conditional requests sent to the origin
//   - popsicle_cache_not_modified_total (Counter): 304 answers merged with the cached entry
//   - popsicle_cache_stale_fallbacks_total (Counter): Stale entries served because the origin was unreachable or erroring
//
// Example Prometheus Queries:
//
//   # Cache Hit Rate
//   sum(rate(popsicle_cache_hits_total[5m])) /
//   (sum(rate(popsicle_cache_hits_total[5m])) + sum(rate(popsicle_cache_misses_total[5m])))
//
//   # Revalidation Efficiency (how often conditional requests avoid a full body)
//   sum(rate(popsicle_cache_not_modified_total[5m])) /
//   sum(rate(popsicle_cache_revalidations_total[5m]))
//
//   # Store Error Rate
//   sum(rate(popsicle_cache_store_errors_total[5m])) by (operation)
