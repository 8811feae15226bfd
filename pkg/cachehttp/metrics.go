package cachehttp

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// FreshHits counts cached responses served with no network call.
	FreshHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "popsicle_cache_fresh_hits_total",
			Help: "Total number of cached responses served without contacting the origin",
		},
	)

	// Revalidations counts conditional requests issued for stale entries.
	Revalidations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "popsicle_cache_revalidations_total",
			Help: "Total number of conditional revalidation requests issued",
		},
	)

	// NotModified counts 304 answers merged with stored entries.
	NotModified = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "popsicle_cache_not_modified_total",
			Help: "Total number of 304 Not Modified responses merged with cached entries",
		},
	)

	// StaleFallbacks counts stale entries served because the origin was
	// unreachable or answered with a server error.
	StaleFallbacks = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "popsicle_cache_stale_fallbacks_total",
			Help: "Total number of stale cached responses served on origin failure",
		},
	)
)
