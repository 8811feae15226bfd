// Command cache-proxy is a forward caching proxy: every request is rewritten
// onto a configured upstream base URL and executed through an *http.Client
// whose transport runs the cache decision flow.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/serviejs/popsicle-cache/pkg/cachehttp"
	"github.com/serviejs/popsicle-cache/pkg/logging"
	"github.com/serviejs/popsicle-cache/pkg/policy"
	"github.com/serviejs/popsicle-cache/pkg/serializer"
	"github.com/serviejs/popsicle-cache/pkg/store"
	"github.com/serviejs/popsicle-cache/pkg/store/leveldbengine"
	"github.com/serviejs/popsicle-cache/pkg/store/memory"
	"github.com/serviejs/popsicle-cache/pkg/store/redisengine"
	"github.com/serviejs/popsicle-cache/pkg/store/sqlite"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "cache-proxy: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}

	logging.Setup(logging.Config{
		Level:      logging.LogLevel(cfg.Log.Level),
		Pretty:     cfg.Log.Pretty,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
	})
	logger := logging.NewLogger("cache-proxy")

	ctx := context.Background()
	engine, err := newEngine(ctx, cfg.Engine)
	if err != nil {
		return err
	}

	plugin, err := cachehttp.New(ctx, cachehttp.Options{
		Engine:       engine,
		TTL:          policy.NewTTL(cfg.Cache.MinTTL, cfg.Cache.MaxTTL),
		Serializer:   serializer.NewStream(cfg.Cache.MaxBufferBytes),
		WaitForCache: cfg.Cache.WaitForCache,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := plugin.Stop(context.Background()); err != nil {
			logger.Error().Err(err).Msg("Failed to stop cache plugin")
		}
	}()

	client := &http.Client{
		Transport: &cachehttp.Transport{Plugin: plugin},
		Timeout:   30 * time.Second,
	}
	upstream, _ := url.Parse(cfg.Upstream)

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	})
	r.Handle("/metrics", promhttp.Handler())
	r.Handle("/*", proxyHandler(client, upstream, logger))

	srv := &http.Server{
		Addr:    cfg.Listen,
		Handler: r,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("listen", cfg.Listen).
			Str("upstream", cfg.Upstream).
			Str("backend", cfg.Engine.Backend).
			Msg("Starting cache proxy")
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-stop:
		logger.Info().Str("signal", sig.String()).Msg("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
	}
	return nil
}

// newEngine builds the store backend named by the configuration.
func newEngine(ctx context.Context, cfg EngineConfig) (store.Engine, error) {
	switch cfg.Backend {
	case "memory":
		return memory.New(), nil
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			return nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
		}
		return redisengine.New(client), nil
	case "sqlite":
		return sqlite.New(cfg.SQLitePath), nil
	case "leveldb":
		return leveldbengine.New(cfg.LevelDBPath), nil
	default:
		return nil, fmt.Errorf("unknown engine backend %q", cfg.Backend)
	}
}

// proxyHandler rewrites the incoming request onto the upstream base URL and
// relays the (possibly cached) response.
func proxyHandler(client *http.Client, upstream *url.URL, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		target := *upstream
		target.Path = r.URL.Path
		target.RawQuery = r.URL.RawQuery

		req, err := http.NewRequestWithContext(r.Context(), r.Method, target.String(), r.Body)
		if err != nil {
			http.Error(w, fmt.Sprintf("build upstream request: %v", err), http.StatusBadRequest)
			return
		}
		req.Header = r.Header.Clone()
		req.Header.Del("Connection")

		resp, err := client.Do(req)
		if err != nil {
			http.Error(w, fmt.Sprintf("upstream request failed: %v", err), http.StatusBadGateway)
			return
		}
		defer resp.Body.Close()

		for key, values := range resp.Header {
			for _, value := range values {
				w.Header().Add(key, value)
			}
		}
		w.WriteHeader(resp.StatusCode)
		if _, err := io.Copy(w, resp.Body); err != nil {
			logger.Debug().Err(err).Str("url", target.String()).Msg("Failed to relay response body")
		}
	}
}
