package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Sampler.CacheTTLMs != 3000 {
		t.Fatalf("expected 3000ms cache TTL, got %d", cfg.Sampler.CacheTTLMs)
	}
	if cfg.Activity.Capacity != 50 {
		t.Fatalf("expected activity capacity 50, got %d", cfg.Activity.Capacity)
	}
}

func TestLoadLayersFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hivemond.yaml")
	content := `
listen_addr: "127.0.0.1:9090"
sampler:
  cache_ttl_ms: 5000
  demo_mode: true
search:
  demo_mode: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.ListenAddr != "127.0.0.1:9090" {
		t.Fatalf("expected overridden listen addr, got %q", cfg.ListenAddr)
	}
	if cfg.Sampler.CacheTTLMs != 5000 {
		t.Fatalf("expected overridden cache TTL, got %d", cfg.Sampler.CacheTTLMs)
	}
	if !cfg.Sampler.DemoMode {
		t.Fatal("expected demo mode enabled")
	}
	if cfg.Activity.Capacity != DefaultActivityCapacity {
		t.Fatalf("expected default activity capacity kept, got %d", cfg.Activity.Capacity)
	}
}

func TestLoadRejectsMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("listen_addr: [unclosed"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
		substr string
	}{
		{"empty addr", func(c *Config) { c.ListenAddr = "" }, "listen_addr"},
		{"zero ttl", func(c *Config) { c.Sampler.CacheTTLMs = 0 }, "cache_ttl_ms"},
		{"zero capacity", func(c *Config) { c.Activity.Capacity = 0 }, "activity.capacity"},
		{"zero link capacity", func(c *Config) { c.Sampler.LinkCapacityMbps = 0 }, "link_capacity_mbps"},
		{"live search without url", func(c *Config) { c.Search.DemoMode = false }, "elasticsearch_url"},
		{"bad exporter", func(c *Config) { c.Telemetry.Exporter = "jaeger" }, "telemetry.exporter"},
	}

	for _, tc := range cases {
		cfg := Default()
		tc.mutate(cfg)
		err := cfg.Validate()
		if err == nil {
			t.Fatalf("%s: expected validation error", tc.name)
		}
		if !strings.Contains(err.Error(), tc.substr) {
			t.Fatalf("%s: expected error mentioning %q, got %v", tc.name, tc.substr, err)
		}
	}
}
