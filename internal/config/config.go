// Package config holds hivemond's configuration: defaults, optional YAML
// file loading, and validation.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level hivemond configuration.
type Config struct {
	ListenAddr string          `yaml:"listen_addr"`
	Sampler    SamplerConfig   `yaml:"sampler"`
	Activity   ActivityConfig  `yaml:"activity"`
	Search     SearchConfig    `yaml:"search"`
	Telemetry  TelemetryConfig `yaml:"telemetry"`
}

// SamplerConfig controls the resource sampler.
type SamplerConfig struct {
	CacheTTLMs       int     `yaml:"cache_ttl_ms"`
	DemoMode         bool    `yaml:"demo_mode"`
	LinkCapacityMbps float64 `yaml:"link_capacity_mbps"`
}

// ActivityConfig controls the activity log.
type ActivityConfig struct {
	Capacity int `yaml:"capacity"`
}

// SearchConfig controls the honeypot event search client.
type SearchConfig struct {
	ElasticsearchURL string `yaml:"elasticsearch_url"`
	Index            string `yaml:"index"`
	TimeoutMs        int    `yaml:"timeout_ms"`
	DemoMode         bool   `yaml:"demo_mode"`
}

// TelemetryConfig controls OpenTelemetry export.
type TelemetryConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	TracesEnabled  bool   `yaml:"traces_enabled"`
	Exporter       string `yaml:"exporter"` // none, stdout, otlp-grpc, otlp-http
	OTLPEndpoint   string `yaml:"otlp_endpoint"`
	OTLPInsecure   bool   `yaml:"otlp_insecure"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		ListenAddr: DefaultListenAddr,
		Sampler: SamplerConfig{
			CacheTTLMs:       DefaultSampleCacheMs,
			LinkCapacityMbps: DefaultLinkCapacityMbps,
		},
		Activity: ActivityConfig{
			Capacity: DefaultActivityCapacity,
		},
		Search: SearchConfig{
			Index:     DefaultSearchIndex,
			TimeoutMs: DefaultSearchTimeoutMs,
			DemoMode:  true,
		},
		Telemetry: TelemetryConfig{
			Exporter: "none",
		},
	}
}

// Load reads a YAML config file layered over the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr must not be empty")
	}
	if c.Sampler.CacheTTLMs <= 0 {
		return fmt.Errorf("sampler.cache_ttl_ms must be positive, got %d", c.Sampler.CacheTTLMs)
	}
	if c.Sampler.LinkCapacityMbps <= 0 {
		return fmt.Errorf("sampler.link_capacity_mbps must be positive, got %f", c.Sampler.LinkCapacityMbps)
	}
	if c.Activity.Capacity <= 0 {
		return fmt.Errorf("activity.capacity must be positive, got %d", c.Activity.Capacity)
	}
	if c.Search.TimeoutMs <= 0 {
		return fmt.Errorf("search.timeout_ms must be positive, got %d", c.Search.TimeoutMs)
	}
	if !c.Search.DemoMode && c.Search.ElasticsearchURL == "" {
		return fmt.Errorf("search.elasticsearch_url is required unless search.demo_mode is set")
	}
	switch c.Telemetry.Exporter {
	case "", "none", "stdout", "otlp-grpc", "otlp-http":
	default:
		return fmt.Errorf("telemetry.exporter must be one of none, stdout, otlp-grpc, otlp-http; got %q", c.Telemetry.Exporter)
	}
	return nil
}
