// Package store defines the persisted cache entry model and the contract
// an external cache engine must satisfy. The engines themselves (Redis,
// SQLite, LevelDB, in-memory) live in subpackages; this core never
// implements eviction or persistence, only the narrow key-value boundary.
package store

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"
	"time"
)

var (
	// ErrNotReady indicates the engine has not been started or has been stopped.
	ErrNotReady = errors.New("store engine not ready")
)

// TTLForever marks an entry that never expires by TTL. Engines map it to
// "no expiration" in their own terms.
const TTLForever = time.Duration(math.MaxInt64)

// VaryField records one header the origin declared as varying the response,
// together with the request value the entry was stored under. A nil Value
// means the storing request did not carry the header, so matching requests
// must not carry it either.
type VaryField struct {
	Name  string  `json:"name"`
	Value *string `json:"value"`
}

// CacheItem is the persisted unit: a fully serialized response. It is
// written once and superseded, never edited in place. Vary is captured at
// write time from the response that produced the entry and is never
// recomputed on read.
type CacheItem struct {
	Body       string      `json:"body"`
	RawHeaders []string    `json:"rawHeaders"`
	URL        string      `json:"url"`
	Status     int         `json:"status"`
	StatusText string      `json:"statusText"`
	Vary       []VaryField `json:"vary,omitempty"`
}

// StoredResult is what an engine returns on lookup: the item plus the TTL
// it was written with and the write timestamp.
type StoredResult struct {
	Item   CacheItem
	TTL    time.Duration
	Stored time.Time
}

// Engine is the external cache collaborator. Implementations own TTL
// enforcement, eviction and persistence; the core only requires these
// primitives. Get must return (nil, nil) on a miss.
type Engine interface {
	Start(ctx context.Context) error
	Get(ctx context.Context, segment, id string) (*StoredResult, error)
	Set(ctx context.Context, segment, id string, item CacheItem, ttl time.Duration) error
	Stop(ctx context.Context) error
	IsReady() bool
}

// FlattenHeader converts an http.Header into ordered "Name: value" lines,
// one line per value, suitable for CacheItem.RawHeaders.
func FlattenHeader(h http.Header) []string {
	lines := make([]string, 0, len(h))
	for name, values := range h {
		for _, value := range values {
			lines = append(lines, name+": "+value)
		}
	}
	return lines
}

// ParseRawHeaders rebuilds an http.Header from "Name: value" lines.
// Lines without a colon are skipped.
func ParseRawHeaders(lines []string) http.Header {
	h := http.Header{}
	for _, line := range lines {
		name, value, ok := strings.Cut(line, ":")
		if !ok {
			continue
		}
		h.Add(strings.TrimSpace(name), strings.TrimSpace(value))
	}
	return h
}
