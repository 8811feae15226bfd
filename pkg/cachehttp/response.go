package cachehttp

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/serviejs/popsicle-cache/pkg/serializer"
	"github.com/serviejs/popsicle-cache/pkg/store"
)

// CachedResponse is the runtime view of a stored entry: a reconstructed
// response plus the cache metadata the revalidation handler needs. The
// embedded response is a plain *http.Response, so anything consuming a
// response accepts a cached one transparently.
type CachedResponse struct {
	Response *http.Response
	TTL      time.Duration
	Stored   time.Time
	Vary     []store.VaryField
}

// FromStored reconstructs a CachedResponse from a store lookup using the
// serializer's parse step for the body.
func FromStored(result *store.StoredResult, s serializer.Serializer) *CachedResponse {
	item := result.Item

	resp := &http.Response{
		StatusCode: item.Status,
		Status:     strconv.Itoa(item.Status) + " " + item.StatusText,
		Header:     store.ParseRawHeaders(item.RawHeaders),
		Body:       s.Parse(item.Body),
	}
	if u, err := url.Parse(item.URL); err == nil {
		resp.Request = &http.Request{Method: http.MethodGet, URL: u}
	}

	return &CachedResponse{
		Response: resp,
		TTL:      result.TTL,
		Stored:   result.Stored,
		Vary:     item.Vary,
	}
}

// Merge combines a stored entry with a 304 Not Modified answer: the cached
// body, headers and url are kept, while the forwarded status and status
// text are adopted to surface real server state. The forwarded body is
// discarded.
func Merge(cached *CachedResponse, notModified *http.Response) *http.Response {
	if notModified.Body != nil {
		notModified.Body.Close()
	}

	merged := *cached.Response
	merged.StatusCode = notModified.StatusCode
	merged.Status = notModified.Status
	return &merged
}

// statusText extracts the reason phrase from a response, falling back to
// the canonical text for its status code.
func statusText(resp *http.Response) string {
	prefix := strconv.Itoa(resp.StatusCode) + " "
	if strings.HasPrefix(resp.Status, prefix) {
		return resp.Status[len(prefix):]
	}
	return http.StatusText(resp.StatusCode)
}
