// Package policy holds the pluggable cache policy functions: the
// cacheability predicate, the TTL function and the cache-id function.
// All three are plain function values injected into the plugin.
package policy

import (
	"net/http"
	"time"

	"github.com/serviejs/popsicle-cache/pkg/freshness"
	"github.com/serviejs/popsicle-cache/pkg/store"
)

// Cacheable decides whether a response may be written to the cache.
type Cacheable func(req *http.Request, resp *http.Response) bool

// TTL computes the store TTL for a cacheable response.
type TTL func(resp *http.Response) time.Duration

// Key derives the cache id for a request. Two requests with the same
// method and URL always collide on the same id regardless of headers.
type Key func(serializerName string, req *http.Request) string

// DefaultCacheable caches only successful GET responses.
func DefaultCacheable(req *http.Request, resp *http.Response) bool {
	return resp.StatusCode == http.StatusOK && req.Method == http.MethodGet
}

// AlwaysCacheable caches unconditionally.
func AlwaysCacheable(req *http.Request, resp *http.Response) bool {
	return true
}

// NewTTL returns a TTL function computing min + minimum(max, window), where
// window is the response's freshness window.
func NewTTL(min, max time.Duration) TTL {
	return func(resp *http.Response) time.Duration {
		window := freshness.Window(resp.Header)
		if window > max {
			window = max
		}
		return min + window
	}
}

// ForeverTTL never expires entries by TTL; staleness is governed entirely
// by the freshness heuristics at read time.
func ForeverTTL(resp *http.Response) time.Duration {
	return store.TTLForever
}

// DefaultKey derives the id from serializer name, method and URL.
func DefaultKey(serializerName string, req *http.Request) string {
	return serializerName + "~" + req.Method + "~" + req.URL.String()
}
