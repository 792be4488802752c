// Package metrics provides Prometheus text exposition for hivemon.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bc-dunia/hivemon/internal/activity"
	"github.com/bc-dunia/hivemon/internal/sysmon"
)

// SnapshotProvider provides resource utilization for metrics collection.
type SnapshotProvider interface {
	Sample() sysmon.Snapshot
	Stats() sysmon.Stats
}

// ActivityProvider provides activity log counters for metrics collection.
type ActivityProvider interface {
	Stats() activity.Stats
}

// Collector collects and exposes hivemon metrics in Prometheus text format.
// Thread-safe for concurrent access; gauges are read from the providers at
// exposition time (Sample is cheap behind the sampler's TTL cache).
type Collector struct {
	mu sync.RWMutex

	snapshotProvider SnapshotProvider
	activityProvider ActivityProvider

	searchQueries map[string]int64 // outcome -> count

	// Time function for testing
	nowFunc func() time.Time
}

// NewCollector creates a new metrics collector.
func NewCollector() *Collector {
	return &Collector{
		searchQueries: make(map[string]int64),
		nowFunc:       time.Now,
	}
}

// SetSnapshotProvider sets the resource snapshot source.
func (c *Collector) SetSnapshotProvider(p SnapshotProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshotProvider = p
}

// SetActivityProvider sets the activity log source.
func (c *Collector) SetActivityProvider(p ActivityProvider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.activityProvider = p
}

// RecordSearchQuery counts one search query by outcome ("ok" or "error").
func (c *Collector) RecordSearchQuery(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	outcome := "ok"
	if !ok {
		outcome = "error"
	}
	c.searchQueries[outcome]++
}

// Expose renders all metrics in Prometheus text format.
func (c *Collector) Expose() string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var sb strings.Builder
	timestamp := c.nowFunc().UnixMilli()

	// hivemon_resource_*_percent
	c.writeResourceGauges(&sb, timestamp)

	// hivemon_sample_*
	c.writeSamplerCounters(&sb, timestamp)

	// hivemon_activity_*
	c.writeActivityMetrics(&sb, timestamp)

	// hivemon_search_queries_total
	c.writeSearchQueries(&sb, timestamp)

	return sb.String()
}

func (c *Collector) writeResourceGauges(sb *strings.Builder, timestamp int64) {
	if c.snapshotProvider == nil {
		return
	}
	snap := c.snapshotProvider.Sample()

	gauges := []struct {
		name  string
		help  string
		value float64
	}{
		{"hivemon_resource_cpu_percent", "Process CPU utilization percentage", snap.CPUPercent},
		{"hivemon_resource_memory_percent", "Physical memory utilization percentage", snap.MemoryPercent},
		{"hivemon_resource_network_percent", "Network link utilization percentage", snap.NetworkPercent},
		{"hivemon_resource_disk_percent", "Disk busy-time percentage", snap.DiskPercent},
	}

	for _, g := range gauges {
		fmt.Fprintf(sb, "# HELP %s %s\n", g.name, g.help)
		fmt.Fprintf(sb, "# TYPE %s gauge\n", g.name)
		fmt.Fprintf(sb, "%s %.2f %d\n", g.name, g.value, timestamp)
	}
}

func (c *Collector) writeSamplerCounters(sb *strings.Builder, timestamp int64) {
	if c.snapshotProvider == nil {
		return
	}
	stats := c.snapshotProvider.Stats()

	sb.WriteString("# HELP hivemon_sample_refreshes_total Total snapshot recomputations past the cache window\n")
	sb.WriteString("# TYPE hivemon_sample_refreshes_total counter\n")
	fmt.Fprintf(sb, "hivemon_sample_refreshes_total %d %d\n", stats.Refreshes, timestamp)

	sb.WriteString("# HELP hivemon_sample_probe_degradations_total Total probe reads that fell back to the previous value\n")
	sb.WriteString("# TYPE hivemon_sample_probe_degradations_total counter\n")
	fmt.Fprintf(sb, "hivemon_sample_probe_degradations_total %d %d\n", stats.Degradations, timestamp)
}

func (c *Collector) writeActivityMetrics(sb *strings.Builder, timestamp int64) {
	if c.activityProvider == nil {
		return
	}
	stats := c.activityProvider.Stats()

	sb.WriteString("# HELP hivemon_activity_events_total Total activity events recorded by status\n")
	sb.WriteString("# TYPE hivemon_activity_events_total counter\n")

	// Sort statuses for deterministic output
	statuses := make([]string, 0, len(stats.ByStatus))
	for s := range stats.ByStatus {
		statuses = append(statuses, string(s))
	}
	sort.Strings(statuses)
	for _, s := range statuses {
		fmt.Fprintf(sb, "hivemon_activity_events_total{status=%q} %d %d\n", s, stats.ByStatus[activity.Status(s)], timestamp)
	}

	sb.WriteString("# HELP hivemon_activity_evicted_total Total activity events evicted from the buffer\n")
	sb.WriteString("# TYPE hivemon_activity_evicted_total counter\n")
	fmt.Fprintf(sb, "hivemon_activity_evicted_total %d %d\n", stats.Evicted, timestamp)

	sb.WriteString("# HELP hivemon_activity_buffer_events Current activity events held in the buffer\n")
	sb.WriteString("# TYPE hivemon_activity_buffer_events gauge\n")
	fmt.Fprintf(sb, "hivemon_activity_buffer_events %d %d\n", stats.Len, timestamp)

	sb.WriteString("# HELP hivemon_activity_buffer_capacity Maximum activity events the buffer can hold\n")
	sb.WriteString("# TYPE hivemon_activity_buffer_capacity gauge\n")
	fmt.Fprintf(sb, "hivemon_activity_buffer_capacity %d %d\n", stats.Capacity, timestamp)
}

func (c *Collector) writeSearchQueries(sb *strings.Builder, timestamp int64) {
	sb.WriteString("# HELP hivemon_search_queries_total Total honeypot search queries by outcome\n")
	sb.WriteString("# TYPE hivemon_search_queries_total counter\n")

	outcomes := make([]string, 0, len(c.searchQueries))
	for o := range c.searchQueries {
		outcomes = append(outcomes, o)
	}
	sort.Strings(outcomes)
	for _, o := range outcomes {
		fmt.Fprintf(sb, "hivemon_search_queries_total{outcome=%q} %d %d\n", o, c.searchQueries[o], timestamp)
	}
}
