package cachehttp

import (
	"context"
	"fmt"
	"net/http"
	"net/textproto"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/serviejs/popsicle-cache/pkg/policy"
	"github.com/serviejs/popsicle-cache/pkg/serializer"
	"github.com/serviejs/popsicle-cache/pkg/store"
)

// DefaultSegment namespaces entries written by this plugin within the
// store engine.
const DefaultSegment = "popsicle-cache"

// Options configures a Plugin. Only Engine is required; every other field
// has a default.
type Options struct {
	// Engine is the external cache backend.
	Engine store.Engine

	// Cacheable decides whether a response is written to the cache.
	// Defaults to policy.DefaultCacheable (GET + 200 only).
	Cacheable policy.Cacheable

	// TTL computes the store TTL for cacheable responses. Defaults to
	// policy.ForeverTTL; freshness heuristics govern staleness.
	TTL policy.TTL

	// Serializer converts response bodies to and from stored form.
	// Defaults to the bounded stream serializer.
	Serializer serializer.Serializer

	// Handler decides how to serve requests with a stored entry.
	// Defaults to the freshness state machine with StaleFallback applied.
	Handler Handler

	// StaleFallback serves a stale entry when the origin is unreachable or
	// answers with a 5xx. Enabled unless explicitly disabled.
	StaleFallback *bool

	// Key derives cache ids. Defaults to policy.DefaultKey.
	Key policy.Key

	// CatchCacheError receives background store-write failures. Defaults
	// to logging them; write errors never fail a response.
	CatchCacheError func(error)

	// WaitForCache completes the store write inside the serializer's
	// completion callback instead of detaching it as a goroutine.
	WaitForCache bool

	// Segment namespaces entries in the engine. Defaults to DefaultSegment.
	Segment string

	// Logger used for plugin events. Defaults to the global logger with a
	// component field.
	Logger *zerolog.Logger
}

// Plugin orchestrates a request through lookup, revalidation, forwarding
// and the store-decision path.
type Plugin struct {
	adapter      *store.Adapter
	cacheable    policy.Cacheable
	ttl          policy.TTL
	serializer   serializer.Serializer
	handler      Handler
	key          policy.Key
	catchError   func(error)
	waitForCache bool
	logger       zerolog.Logger
}

// New constructs a Plugin and starts its engine. An engine that fails to
// start aborts construction.
func New(ctx context.Context, opts Options) (*Plugin, error) {
	if opts.Engine == nil {
		return nil, fmt.Errorf("store engine is required")
	}

	logger := log.With().Str("component", "popsicle-cache").Logger()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	staleFallback := true
	if opts.StaleFallback != nil {
		staleFallback = *opts.StaleFallback
	}

	p := &Plugin{
		cacheable:    opts.Cacheable,
		ttl:          opts.TTL,
		serializer:   opts.Serializer,
		handler:      opts.Handler,
		key:          opts.Key,
		catchError:   opts.CatchCacheError,
		waitForCache: opts.WaitForCache,
		logger:       logger,
	}
	if p.cacheable == nil {
		p.cacheable = policy.DefaultCacheable
	}
	if p.ttl == nil {
		p.ttl = policy.ForeverTTL
	}
	if p.serializer == nil {
		p.serializer = serializer.NewStream(0)
	}
	if p.handler == nil {
		p.handler = NewHandler(staleFallback, logger)
	}
	if p.key == nil {
		p.key = policy.DefaultKey
	}
	if p.catchError == nil {
		p.catchError = func(err error) {
			logger.Error().Err(err).Msg("Background cache write failed")
		}
	}

	segment := opts.Segment
	if segment == "" {
		segment = DefaultSegment
	}
	p.adapter = store.NewAdapter(opts.Engine, segment, logger)

	if err := opts.Engine.Start(ctx); err != nil {
		return nil, fmt.Errorf("start store engine: %w", err)
	}
	return p, nil
}

// Handle runs one request through the cache: lookup, revalidation or
// forwarding, then the store-decision path. Store-read errors fail the
// request; store-write errors are routed to the error sink.
func (p *Plugin) Handle(ctx context.Context, req *http.Request, forward Forward) (*http.Response, error) {
	id := p.key(p.serializer.Name(), req)

	stored, err := p.adapter.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	var result Result
	if stored == nil {
		resp, err := forward(req)
		if err != nil {
			return nil, err
		}
		result = Result{Response: resp}
	} else {
		result, err = p.handler(ctx, req, FromStored(stored, p.serializer), forward)
		if err != nil {
			return nil, err
		}
	}

	// Responses that came from the cache are never re-stored.
	if result.FromCache {
		return result.Response, nil
	}
	return p.storeDecision(ctx, id, req, result.Response), nil
}

// ForceUpdate always forwards and always runs the store-decision path,
// bypassing lookup and revalidation. Used to refresh an entry
// unconditionally.
func (p *Plugin) ForceUpdate(ctx context.Context, req *http.Request, forward Forward) (*http.Response, error) {
	resp, err := forward(req)
	if err != nil {
		return nil, err
	}
	id := p.key(p.serializer.Name(), req)
	return p.storeDecision(ctx, id, req, resp), nil
}

// Stop shuts down the store engine if it is ready.
func (p *Plugin) Stop(ctx context.Context) error {
	return p.adapter.Stop(ctx)
}

// storeDecision applies the cacheable predicate and, when it accepts,
// captures the body and persists a CacheItem once the storable form is
// known. The response is returned immediately; the write happens behind
// the body's consumption.
func (p *Plugin) storeDecision(ctx context.Context, id string, req *http.Request, resp *http.Response) *http.Response {
	if !p.cacheable(req, resp) {
		return resp
	}

	ttl := p.ttl(resp)
	item := store.CacheItem{
		RawHeaders: store.FlattenHeader(resp.Header),
		URL:        req.URL.String(),
		Status:     resp.StatusCode,
		StatusText: statusText(resp),
		Vary:       varyFields(req, resp),
	}

	// The write must survive request cancellation; the entry is valuable
	// even when the caller went away after consuming the body.
	writeCtx := context.WithoutCancel(ctx)

	resp.Body = p.serializer.Capture(resp.Body, func(storedBody *string, err error) {
		if err != nil {
			p.catchError(fmt.Errorf("capture response body: %w", err))
			return
		}
		if storedBody == nil {
			p.logger.Debug().Str("id", id).Msg("Body not storable, skipping cache write")
			return
		}
		item.Body = *storedBody

		write := func() {
			if err := p.adapter.Set(writeCtx, id, item, ttl); err != nil {
				p.catchError(err)
			}
		}
		if p.waitForCache {
			write()
			return
		}
		go write()
	})
	return resp
}

// varyFields captures the response's Vary header as (name, request value)
// pairs. A request that lacked a varied header is recorded with a nil
// value, meaning future requests must lack it too.
func varyFields(req *http.Request, resp *http.Response) []store.VaryField {
	var fields []store.VaryField
	for _, value := range resp.Header.Values("Vary") {
		for _, name := range strings.Split(value, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			if name == "*" {
				fields = append(fields, store.VaryField{Name: "*"})
				continue
			}
			name = textproto.CanonicalMIMEHeaderKey(name)
			f := store.VaryField{Name: name}
			if v := req.Header.Get(name); v != "" {
				value := v
				f.Value = &value
			}
			fields = append(fields, f)
		}
	}
	return fields
}
