package config

// Default configuration constants for sampling, activity logging, and search
const (
	DefaultListenAddr       = ":8080"
	DefaultSampleCacheMs    = 3000
	DefaultLinkCapacityMbps = 1000
	DefaultActivityCapacity = 50
	DefaultSearchTimeoutMs  = 10000
	DefaultSearchIndex      = "honeypot-*"
	DefaultSearchTimeRange  = "now-1h"
)
