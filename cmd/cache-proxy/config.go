package main

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config drives the proxy binary. The library itself stays configuration
// free; everything here only wires the demo process.
type Config struct {
	// Listen is the address the proxy binds to.
	Listen string `mapstructure:"listen"`

	// Upstream is the origin base URL requests are proxied to.
	Upstream string `mapstructure:"upstream"`

	Engine EngineConfig `mapstructure:"engine"`
	Cache  CacheConfig  `mapstructure:"cache"`
	Log    LogConfig    `mapstructure:"log"`
}

// EngineConfig selects and parameterizes the store backend.
type EngineConfig struct {
	// Backend is one of: memory, redis, sqlite, leveldb.
	Backend string `mapstructure:"backend"`

	// RedisAddr is the host:port of the Redis server (backend=redis).
	RedisAddr string `mapstructure:"redis_addr"`

	// SQLitePath is the database file path (backend=sqlite).
	SQLitePath string `mapstructure:"sqlite_path"`

	// LevelDBPath is the database directory (backend=leveldb).
	LevelDBPath string `mapstructure:"leveldb_path"`
}

// CacheConfig bounds the cache policy used by the proxy.
type CacheConfig struct {
	// MinTTL and MaxTTL bound how long entries stay in the store.
	MinTTL time.Duration `mapstructure:"min_ttl"`
	MaxTTL time.Duration `mapstructure:"max_ttl"`

	// MaxBufferBytes caps how large a body the stream serializer retains.
	MaxBufferBytes int `mapstructure:"max_buffer_bytes"`

	// WaitForCache makes store writes complete before a response body is
	// fully handed back. Useful for tests, off by default.
	WaitForCache bool `mapstructure:"wait_for_cache"`
}

// LogConfig configures pkg/logging.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Pretty     bool   `mapstructure:"pretty"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
}

// loadConfig reads configuration from a YAML file (when path is set) and
// CACHE_PROXY_* environment variables, with defaults for everything.
func loadConfig(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("CACHE_PROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("listen", ":8080")
	v.SetDefault("upstream", "")
	v.SetDefault("engine.backend", "memory")
	v.SetDefault("engine.redis_addr", "localhost:6379")
	v.SetDefault("engine.sqlite_path", "cache.db")
	v.SetDefault("engine.leveldb_path", "cache.leveldb")
	v.SetDefault("cache.min_ttl", time.Minute)
	v.SetDefault("cache.max_ttl", 24*time.Hour)
	v.SetDefault("cache.max_buffer_bytes", 1<<20)
	v.SetDefault("cache.wait_for_cache", false)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 10)
}

func (c *Config) validate() error {
	switch c.Engine.Backend {
	case "memory", "redis", "sqlite", "leveldb":
	default:
		return fmt.Errorf("unknown engine backend %q", c.Engine.Backend)
	}
	if c.Upstream == "" {
		return fmt.Errorf("upstream base URL is required")
	}
	u, err := url.Parse(c.Upstream)
	if err != nil {
		return fmt.Errorf("invalid upstream URL: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream URL %q must be absolute", c.Upstream)
	}
	if c.Cache.MinTTL < 0 || c.Cache.MaxTTL < c.Cache.MinTTL {
		return fmt.Errorf("cache TTL bounds are invalid: min=%s max=%s", c.Cache.MinTTL, c.Cache.MaxTTL)
	}
	return nil
}
