package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/bc-dunia/hivemon/internal/activity"
	"github.com/bc-dunia/hivemon/internal/events"
)

func TestBuildMetricsQuery(t *testing.T) {
	q := BuildMetricsQuery("now-6h")

	if q["size"] != 0 {
		t.Fatalf("expected size 0, got %v", q["size"])
	}

	rng := q["query"].(map[string]interface{})["range"].(map[string]interface{})
	ts := rng["@timestamp"].(map[string]interface{})
	if ts["gte"] != "now-6h" {
		t.Fatalf("expected gte now-6h, got %v", ts["gte"])
	}

	aggs := q["aggs"].(map[string]interface{})
	for _, name := range []string{"event_types", "unique_ips", "countries"} {
		if _, ok := aggs[name]; !ok {
			t.Fatalf("missing aggregation %q", name)
		}
	}

	terms := aggs["event_types"].(map[string]interface{})["terms"].(map[string]interface{})
	if terms["field"] != "eventid.keyword" {
		t.Fatalf("expected eventid.keyword terms field, got %v", terms["field"])
	}
}

func TestQueryMetrics_DecodesElasticsearchResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/honeypot-*/_search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}

		var body map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("request body not JSON: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"hits": {"total": {"value": 1234}},
			"aggregations": {
				"event_types": {"buckets": [
					{"key": "cowrie.login.failed", "doc_count": 900},
					{"key": "cowrie.command.input", "doc_count": 334}
				]},
				"unique_ips": {"value": 57},
				"countries": {"buckets": [{"key": "China", "doc_count": 600}]}
			}
		}`))
	}))
	defer srv.Close()

	client := NewClient(&Config{
		BaseURL: srv.URL,
		Index:   "honeypot-*",
		Timeout: 5 * time.Second,
	}, nil)

	summary, err := client.QueryMetrics(context.Background(), "now-1h")
	if err != nil {
		t.Fatalf("QueryMetrics failed: %v", err)
	}

	if summary.TotalEvents != 1234 {
		t.Fatalf("expected 1234 total events, got %d", summary.TotalEvents)
	}
	if summary.UniqueIPs != 57 {
		t.Fatalf("expected 57 unique IPs, got %d", summary.UniqueIPs)
	}
	if len(summary.EventTypes) != 2 || summary.EventTypes[0].Key != "cowrie.login.failed" || summary.EventTypes[0].Count != 900 {
		t.Fatalf("unexpected event types: %+v", summary.EventTypes)
	}
	if len(summary.TopCountries) != 1 || summary.TopCountries[0].Key != "China" {
		t.Fatalf("unexpected countries: %+v", summary.TopCountries)
	}
}

func TestQueryMetrics_DegradesToEmptySummaryOnFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	log := activity.NewLog(50)
	client := NewClient(&Config{
		BaseURL: srv.URL,
		Index:   "honeypot-*",
		Timeout: 5 * time.Second,
	}, log)

	summary, err := client.QueryMetrics(context.Background(), "now-1h")
	if err == nil {
		t.Fatal("expected error from failing backend")
	}
	if summary.TotalEvents != 0 || len(summary.EventTypes) != 0 {
		t.Fatalf("expected empty summary, got %+v", summary)
	}

	recent := log.Recent(2)
	if len(recent) != 2 {
		t.Fatalf("expected 2 activity events, got %d", len(recent))
	}
	if recent[0].Status != activity.StatusWarning {
		t.Fatalf("expected warning event first, got %s", recent[0].Status)
	}
	if recent[1].Status != activity.StatusInfo {
		t.Fatalf("expected info event second, got %s", recent[1].Status)
	}
	if recent[0].Source != Source {
		t.Fatalf("expected source %q, got %q", Source, recent[0].Source)
	}
}

func TestQueryMetrics_DemoModeRecordsSuccess(t *testing.T) {
	log := activity.NewLog(50)
	client := NewClient(&Config{DemoMode: true, Timeout: time.Second}, log)

	summary, err := client.QueryMetrics(context.Background(), "")
	if err != nil {
		t.Fatalf("demo query failed: %v", err)
	}

	if summary.TotalEvents <= 0 {
		t.Fatalf("expected positive total events, got %d", summary.TotalEvents)
	}
	if len(summary.EventTypes) == 0 {
		t.Fatal("expected demo event types")
	}
	var sum int64
	for _, b := range summary.EventTypes {
		sum += b.Count
	}
	if sum != summary.TotalEvents {
		t.Fatalf("bucket counts %d do not sum to total %d", sum, summary.TotalEvents)
	}

	recent := log.Recent(1)
	if len(recent) != 1 || recent[0].Status != activity.StatusSuccess {
		t.Fatalf("expected success event, got %+v", recent)
	}
}

func TestSetEventLogger_SafeDuringConcurrentQueries(t *testing.T) {
	log := activity.NewLog(50)
	client := NewClient(&Config{DemoMode: true, Timeout: time.Second}, log)

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			client.SetEventLogger(events.NewEventLoggerWithWriter("hivemon", "panel-1", io.Discard))
		}()
		go func() {
			defer wg.Done()
			if _, err := client.QueryMetrics(context.Background(), "now-1h"); err != nil {
				t.Errorf("demo query failed: %v", err)
			}
		}()
	}
	wg.Wait()
}
