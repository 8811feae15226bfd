package store

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Hits counts lookups that found a stored entry.
	Hits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "popsicle_cache_hits_total",
			Help: "Total number of cache lookups that found an entry",
		},
	)

	// Misses counts lookups that found nothing.
	Misses = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "popsicle_cache_misses_total",
			Help: "Total number of cache lookups that found no entry",
		},
	)

	// Writes counts successful store writes.
	Writes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "popsicle_cache_writes_total",
			Help: "Total number of cache entries written",
		},
	)

	// StoreErrors counts engine operation failures.
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "popsicle_cache_store_errors_total",
			Help: "Total number of cache store operation errors",
		},
		[]string{"operation"}, // "get", "set"
	)
)
