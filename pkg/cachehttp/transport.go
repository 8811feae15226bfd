package cachehttp

import "net/http"

// Transport is an http.RoundTripper that routes every request through a
// Plugin, letting the cache drop into any *http.Client unchanged.
type Transport struct {
	// Plugin handles the cache decision flow. Required.
	Plugin *Plugin

	// Base executes forwarded requests. Defaults to http.DefaultTransport.
	Base http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	return t.Plugin.Handle(req.Context(), req, base.RoundTrip)
}
