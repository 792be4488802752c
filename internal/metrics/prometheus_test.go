package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/bc-dunia/hivemon/internal/activity"
	"github.com/bc-dunia/hivemon/internal/sysmon"
)

type stubSnapshotProvider struct {
	snap  sysmon.Snapshot
	stats sysmon.Stats
}

func (s *stubSnapshotProvider) Sample() sysmon.Snapshot { return s.snap }
func (s *stubSnapshotProvider) Stats() sysmon.Stats     { return s.stats }

func newFixedCollector() *Collector {
	c := NewCollector()
	c.nowFunc = func() time.Time {
		return time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	}
	return c
}

func TestExpose_ResourceGauges(t *testing.T) {
	c := newFixedCollector()
	c.SetSnapshotProvider(&stubSnapshotProvider{
		snap:  sysmon.Snapshot{CPUPercent: 12.34, MemoryPercent: 56.78, NetworkPercent: 22, DiskPercent: 33},
		stats: sysmon.Stats{Refreshes: 7, Degradations: 1},
	})

	out := c.Expose()

	for _, want := range []string{
		"# TYPE hivemon_resource_cpu_percent gauge",
		"hivemon_resource_cpu_percent 12.34",
		"hivemon_resource_memory_percent 56.78",
		"hivemon_resource_network_percent 22.00",
		"hivemon_resource_disk_percent 33.00",
		"hivemon_sample_refreshes_total 7",
		"hivemon_sample_probe_degradations_total 1",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q:\n%s", want, out)
		}
	}
}

func TestExpose_ActivityCounters(t *testing.T) {
	c := newFixedCollector()

	log := activity.NewLog(50)
	log.Record("scanner", "ok", activity.StatusSuccess)
	log.Record("scanner", "hm", activity.StatusWarning)
	log.Record("scanner", "fyi", activity.StatusInfo)
	log.Record("scanner", "fyi again", activity.StatusInfo)
	c.SetActivityProvider(log)

	out := c.Expose()

	for _, want := range []string{
		`hivemon_activity_events_total{status="info"} 2`,
		`hivemon_activity_events_total{status="success"} 1`,
		`hivemon_activity_events_total{status="warning"} 1`,
		"hivemon_activity_evicted_total 0",
		"hivemon_activity_buffer_events 4",
		"hivemon_activity_buffer_capacity 50",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("exposition missing %q:\n%s", want, out)
		}
	}

	// statuses sorted for deterministic scrapes
	info := strings.Index(out, `status="info"`)
	success := strings.Index(out, `status="success"`)
	warning := strings.Index(out, `status="warning"`)
	if !(info < success && success < warning) {
		t.Fatalf("expected sorted status labels:\n%s", out)
	}
}

func TestExpose_SearchQueryOutcomes(t *testing.T) {
	c := newFixedCollector()
	c.RecordSearchQuery(true)
	c.RecordSearchQuery(true)
	c.RecordSearchQuery(false)

	out := c.Expose()

	if !strings.Contains(out, `hivemon_search_queries_total{outcome="error"} 1`) {
		t.Fatalf("missing error outcome:\n%s", out)
	}
	if !strings.Contains(out, `hivemon_search_queries_total{outcome="ok"} 2`) {
		t.Fatalf("missing ok outcome:\n%s", out)
	}
}

func TestExpose_WithoutProvidersStillRenders(t *testing.T) {
	c := newFixedCollector()
	out := c.Expose()

	if strings.Contains(out, "hivemon_resource_cpu_percent ") {
		t.Fatal("unexpected resource gauges without a provider")
	}
	if !strings.Contains(out, "hivemon_search_queries_total") {
		t.Fatal("search header should render even with no samples")
	}
}
