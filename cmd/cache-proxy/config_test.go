package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config file: %v", err)
	}
	return path
}

func TestLoadConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, "upstream: http://origin.example\n")

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Listen != ":8080" {
		t.Errorf("Listen = %q, want :8080", cfg.Listen)
	}
	if cfg.Engine.Backend != "memory" {
		t.Errorf("Engine.Backend = %q, want memory", cfg.Engine.Backend)
	}
	if cfg.Cache.MinTTL != time.Minute {
		t.Errorf("Cache.MinTTL = %s, want 1m", cfg.Cache.MinTTL)
	}
	if cfg.Cache.MaxTTL != 24*time.Hour {
		t.Errorf("Cache.MaxTTL = %s, want 24h", cfg.Cache.MaxTTL)
	}
	if cfg.Cache.MaxBufferBytes != 1<<20 {
		t.Errorf("Cache.MaxBufferBytes = %d, want %d", cfg.Cache.MaxBufferBytes, 1<<20)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want info", cfg.Log.Level)
	}
}

func TestLoadConfig_FromFile(t *testing.T) {
	path := writeConfigFile(t, `
listen: ":9090"
upstream: https://api.example.com
engine:
  backend: sqlite
  sqlite_path: /tmp/test-cache.db
cache:
  min_ttl: 30s
  max_ttl: 2h
  max_buffer_bytes: 4096
  wait_for_cache: true
log:
  level: debug
  pretty: true
`)

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.Listen != ":9090" {
		t.Errorf("Listen = %q", cfg.Listen)
	}
	if cfg.Upstream != "https://api.example.com" {
		t.Errorf("Upstream = %q", cfg.Upstream)
	}
	if cfg.Engine.Backend != "sqlite" || cfg.Engine.SQLitePath != "/tmp/test-cache.db" {
		t.Errorf("Engine = %+v", cfg.Engine)
	}
	if cfg.Cache.MinTTL != 30*time.Second || cfg.Cache.MaxTTL != 2*time.Hour {
		t.Errorf("Cache TTL bounds = %s/%s", cfg.Cache.MinTTL, cfg.Cache.MaxTTL)
	}
	if !cfg.Cache.WaitForCache {
		t.Error("Cache.WaitForCache = false, want true")
	}
	if cfg.Log.Level != "debug" || !cfg.Log.Pretty {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"missing upstream", "listen: :8080\n"},
		{"relative upstream", "upstream: origin.example/api\n"},
		{"unknown backend", "upstream: http://origin.example\nengine:\n  backend: memcached\n"},
		{"inverted ttl bounds", "upstream: http://origin.example\ncache:\n  min_ttl: 1h\n  max_ttl: 1m\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfigFile(t, tt.content)
			if _, err := loadConfig(path); err == nil {
				t.Error("loadConfig should fail")
			}
		})
	}
}
