// Package sysmon measures host resource utilization on demand, throttled
// by a time-based cache so bursty callers see a stable snapshot instead
// of triggering a re-measurement per request.
package sysmon

import (
	"sync"
	"time"

	"github.com/bc-dunia/hivemon/internal/events"
)

// Snapshot is a single point-in-time measurement of resource utilization.
// Every field lies in [0, 100].
type Snapshot struct {
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	NetworkPercent float64 `json:"network_percent"`
	DiskPercent    float64 `json:"disk_percent"`
}

// Stats reports sampler counters for metrics exposition.
type Stats struct {
	Refreshes     int64
	Degradations  int64
	LastSampledAt time.Time
}

// Config controls sampling behavior.
type Config struct {
	// CacheTTL is the minimum interval between real re-measurements.
	// Callers within the window receive the prior snapshot.
	CacheTTL time.Duration

	// DemoMode substitutes bounded pseudo-random placeholders for the
	// network and disk probes, for running without real instrumentation.
	DemoMode bool

	// LinkCapacityMbps scales the measured network byte rate into a
	// utilization percentage.
	LinkCapacityMbps float64
}

// DefaultConfig returns the sampling defaults.
func DefaultConfig() *Config {
	return &Config{
		CacheTTL:         DefaultCacheTTL,
		LinkCapacityMbps: DefaultLinkCapacityMbps,
	}
}

const (
	DefaultCacheTTL         = 3000 * time.Millisecond
	DefaultLinkCapacityMbps = 1000
)

// Sampler owns the snapshot cache and every raw measurement baseline.
// The CPU, network, and disk probes are destructive delta reads that
// re-anchor their own reference point on each call, so there must be
// exactly one Sampler per process and all probe calls happen under its
// lock. Safe for concurrent use.
type Sampler struct {
	mu        sync.Mutex
	ttl       time.Duration
	snapshot  Snapshot
	sampledAt time.Time

	probes probes

	refreshes    int64
	degradations int64

	logger *events.EventLogger

	// nowFunc allows tests to control the cache clock
	nowFunc func() time.Time
}

// NewSampler creates a sampler with gopsutil-backed probes, or placeholder
// probes when cfg.DemoMode is set.
func NewSampler(cfg *Config) *Sampler {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	ttl := cfg.CacheTTL
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Sampler{
		ttl:     ttl,
		probes:  newProbes(cfg),
		nowFunc: time.Now,
	}
}

// SetEventLogger sets the logger used for refresh and degradation events.
func (s *Sampler) SetEventLogger(l *events.EventLogger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

// Sample returns the current resource snapshot. Within the cache window it
// returns the cached snapshot unchanged; otherwise it recomputes all four
// fields and commits snapshot, timestamp, and measurement baselines as one
// atomic update. Sample never fails: a degraded probe falls back to the
// previous snapshot's value.
func (s *Sampler) Sample() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.nowFunc()
	if !s.sampledAt.IsZero() && now.Sub(s.sampledAt) < s.ttl {
		return s.snapshot
	}

	started := time.Now()
	prev := s.snapshot
	next := Snapshot{
		CPUPercent:     s.probeLocked("cpu", s.probes.cpuPercent, prev.CPUPercent),
		MemoryPercent:  s.probeLocked("memory", s.probes.memoryPercent, prev.MemoryPercent),
		NetworkPercent: s.probeLocked("network", s.probes.networkPercent, prev.NetworkPercent),
		DiskPercent:    s.probeLocked("disk", s.probes.diskPercent, prev.DiskPercent),
	}

	s.snapshot = next
	s.sampledAt = now
	s.refreshes++

	s.eventLogger().LogSampleRefresh(
		next.CPUPercent, next.MemoryPercent, next.NetworkPercent, next.DiskPercent,
		time.Since(started).Milliseconds(),
	)

	return next
}

// Stats returns a point-in-time copy of the sampler's counters.
func (s *Sampler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		Refreshes:     s.refreshes,
		Degradations:  s.degradations,
		LastSampledAt: s.sampledAt,
	}
}

// CacheTTL returns the configured cache window.
func (s *Sampler) CacheTTL() time.Duration {
	return s.ttl
}

// probeLocked runs one probe and clamps its result, falling back to the
// previous field value on error. Must be called with mu held.
func (s *Sampler) probeLocked(name string, probe probeFunc, fallback float64) float64 {
	v, err := probe()
	if err != nil {
		s.degradations++
		s.eventLogger().LogProbeDegraded(name, err)
		return clampPercent(fallback)
	}
	return clampPercent(v)
}

func (s *Sampler) eventLogger() *events.EventLogger {
	if s.logger != nil {
		return s.logger
	}
	return events.GetGlobalEventLogger()
}

func clampPercent(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
