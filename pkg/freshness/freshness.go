// Package freshness derives cache freshness information from HTTP
// response headers (Cache-Control, Expires, Date, Last-Modified).
//
// All functions are pure and operate on the stored response headers only:
// freshness of a cached entry is always judged against the headers that
// were persisted with it, never against headers seen at lookup time.
package freshness

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Directives holds the response Cache-Control directives relevant to
// caching decisions.
type Directives struct {
	// MaxAge is the parsed max-age directive, nil when absent or malformed.
	MaxAge *time.Duration

	// NoCache indicates the no-cache directive was present.
	NoCache bool

	// Immutable indicates the immutable directive was present.
	Immutable bool

	// MustRevalidate indicates the must-revalidate directive was present.
	MustRevalidate bool
}

// ParseCacheControl parses the Cache-Control header into Directives.
// Token matching is case-insensitive. A missing header yields the zero
// value (all nil/false).
func ParseCacheControl(h http.Header) Directives {
	var d Directives

	value := h.Get("Cache-Control")
	if value == "" {
		return d
	}

	for _, token := range strings.Split(value, ",") {
		token = strings.ToLower(strings.TrimSpace(token))
		switch {
		case strings.HasPrefix(token, "max-age="):
			seconds, err := strconv.ParseInt(token[len("max-age="):], 10, 64)
			if err != nil {
				continue
			}
			maxAge := time.Duration(seconds) * time.Second
			d.MaxAge = &maxAge
		case token == "no-cache":
			d.NoCache = true
		case token == "immutable":
			d.Immutable = true
		case token == "must-revalidate":
			d.MustRevalidate = true
		}
	}

	return d
}

// ExpiresIn returns the freshness window derived from the Expires and Date
// headers (Expires - Date). It returns nil when either header is absent or
// unparsable. The result may be negative for already-expired responses.
func ExpiresIn(h http.Header) *time.Duration {
	expires, ok := parseTime(h, "Expires")
	if !ok {
		return nil
	}
	date, ok := parseTime(h, "Date")
	if !ok {
		return nil
	}
	window := expires.Sub(date)
	return &window
}

// Heuristic returns the heuristic freshness window (Date - Last-Modified)/10,
// one tenth of the resource age at response time. It is the standard fallback
// when neither max-age nor Expires is available. Returns nil when either
// header is absent or unparsable.
func Heuristic(h http.Header) *time.Duration {
	date, ok := parseTime(h, "Date")
	if !ok {
		return nil
	}
	lastModified, ok := parseTime(h, "Last-Modified")
	if !ok {
		return nil
	}
	window := date.Sub(lastModified) / 10
	return &window
}

// Window computes a single freshness window from the response headers with
// precedence max-age > Expires > heuristic > 0. Negative windows clamp to 0.
func Window(h http.Header) time.Duration {
	var window time.Duration
	if maxAge := ParseCacheControl(h).MaxAge; maxAge != nil {
		window = *maxAge
	} else if expiresIn := ExpiresIn(h); expiresIn != nil {
		window = *expiresIn
	} else if heuristic := Heuristic(h); heuristic != nil {
		window = *heuristic
	}
	if window < 0 {
		return 0
	}
	return window
}

func parseTime(h http.Header, name string) (time.Time, bool) {
	value := h.Get(name)
	if value == "" {
		return time.Time{}, false
	}
	t, err := http.ParseTime(value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
