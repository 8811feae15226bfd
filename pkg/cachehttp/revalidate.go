package cachehttp

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/serviejs/popsicle-cache/pkg/freshness"
	"github.com/serviejs/popsicle-cache/pkg/store"
)

// State is the revalidation decision for a stored entry. A lookup miss
// never reaches the state machine; it always forwards.
type State int

const (
	// FreshHit serves the cached response with no network call.
	FreshHit State = iota

	// Revalidate issues a conditional request before serving.
	Revalidate
)

// Forward executes a request against the network. The plugin never sends
// bytes itself; it only decides when forwarding is necessary.
type Forward func(*http.Request) (*http.Response, error)

// Result is a revalidation outcome. FromCache marks responses that came
// from (or were merged with) the cache; they are never re-stored.
type Result struct {
	Response  *http.Response
	FromCache bool
}

// Handler decides how to serve a request that has a stored entry.
type Handler func(ctx context.Context, req *http.Request, cached *CachedResponse, forward Forward) (Result, error)

// Evaluate runs the freshness state machine over a stored entry. Freshness
// is computed from the stored response headers; the Vary fields recorded at
// write time can disqualify an otherwise time-fresh entry.
func Evaluate(cached *CachedResponse, req *http.Request, now time.Time) State {
	h := cached.Response.Header
	d := freshness.ParseCacheControl(h)

	if !d.Immutable && d.NoCache {
		return Revalidate
	}

	var fresh bool
	expiresIn := freshness.ExpiresIn(h)
	heuristic := freshness.Heuristic(h)
	switch {
	case d.MaxAge != nil:
		fresh = now.Before(cached.Stored.Add(*d.MaxAge)) && !d.MustRevalidate
	case expiresIn != nil:
		fresh = now.Before(cached.Stored.Add(*expiresIn))
	case heuristic != nil:
		fresh = now.Before(cached.Stored.Add(*heuristic))
	default:
		fresh = !d.MustRevalidate
	}
	if !fresh {
		return Revalidate
	}

	if !varyMatches(cached.Vary, req) {
		return Revalidate
	}
	return FreshHit
}

// varyMatches reports whether the request agrees with the Vary fields the
// entry was stored under. A nil stored value requires the request to lack
// the header; a concrete value requires exact equality.
func varyMatches(fields []store.VaryField, req *http.Request) bool {
	for _, f := range fields {
		if f.Name == "*" {
			return false
		}
		got := req.Header.Get(f.Name)
		if f.Value == nil {
			if got != "" {
				return false
			}
			continue
		}
		if got != *f.Value {
			return false
		}
	}
	return true
}

// addConditionalHeaders attaches If-None-Match and If-Modified-Since from
// the stored entry's validators.
func addConditionalHeaders(req *http.Request, stored http.Header) {
	if etag := stored.Get("ETag"); etag != "" {
		req.Header.Set("If-None-Match", etag)
	}
	if lastModified := stored.Get("Last-Modified"); lastModified != "" {
		req.Header.Set("If-Modified-Since", lastModified)
	}
}

// NewHandler returns the default revalidation handler. With staleFallback,
// an unreachable or 5xx-erroring origin resolves to the stale cached entry
// instead of the failure.
func NewHandler(staleFallback bool, logger zerolog.Logger) Handler {
	return func(ctx context.Context, req *http.Request, cached *CachedResponse, forward Forward) (Result, error) {
		if Evaluate(cached, req, time.Now()) == FreshHit {
			FreshHits.Inc()
			logger.Debug().Str("url", req.URL.String()).Msg("Serving fresh cache entry")
			return Result{Response: cached.Response, FromCache: true}, nil
		}

		conditional := req.Clone(ctx)
		addConditionalHeaders(conditional, cached.Response.Header)
		Revalidations.Inc()
		logger.Debug().Str("url", req.URL.String()).Msg("Revalidating cache entry")

		resp, err := forward(conditional)
		if err != nil {
			if staleFallback && isUnavailable(err) {
				StaleFallbacks.Inc()
				logger.Warn().Err(err).Str("url", req.URL.String()).Msg("Origin unavailable, serving stale entry")
				return Result{Response: cached.Response, FromCache: true}, nil
			}
			return Result{}, err
		}

		if resp.StatusCode == http.StatusNotModified {
			NotModified.Inc()
			logger.Debug().Str("url", req.URL.String()).Msg("304 Not Modified, serving merged entry")
			return Result{Response: Merge(cached, resp), FromCache: true}, nil
		}

		// A server error response counts as an unavailable origin.
		if staleFallback && resp.StatusCode >= 500 {
			StaleFallbacks.Inc()
			logger.Warn().
				Int("status", resp.StatusCode).
				Str("url", req.URL.String()).
				Msg("Origin returned server error, serving stale entry")
			if resp.Body != nil {
				resp.Body.Close()
			}
			return Result{Response: cached.Response, FromCache: true}, nil
		}

		return Result{Response: resp, FromCache: false}, nil
	}
}

// AlwaysHandler serves the cached entry unconditionally, bypassing the
// freshness state machine entirely.
func AlwaysHandler() Handler {
	return func(ctx context.Context, req *http.Request, cached *CachedResponse, forward Forward) (Result, error) {
		FreshHits.Inc()
		return Result{Response: cached.Response, FromCache: true}, nil
	}
}

// isUnavailable classifies forward errors that may be recovered by serving
// a stale entry. Cancellation always propagates unchanged.
func isUnavailable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
