package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/bc-dunia/hivemon/internal/activity"
	"github.com/bc-dunia/hivemon/internal/events"
)

// Source is the collaborator identifier used for recorded activity events.
const Source = "honeypot-search"

// ActivityRecorder receives activity events emitted by the search layer.
type ActivityRecorder interface {
	Record(source, message string, status activity.Status) error
}

// Config configures the search client.
type Config struct {
	// BaseURL of the Elasticsearch cluster, e.g. "http://localhost:9200".
	BaseURL string
	// Index pattern to query.
	Index string
	// Timeout bounds a single query round trip.
	Timeout time.Duration
	// DemoMode fabricates summaries instead of querying Elasticsearch.
	DemoMode bool
}

// DefaultConfig returns a demo-mode configuration.
func DefaultConfig() *Config {
	return &Config{
		Index:    "honeypot-*",
		Timeout:  10 * time.Second,
		DemoMode: true,
	}
}

// Client executes honeypot metrics queries. Safe for concurrent use.
type Client struct {
	cfg        Config
	httpClient *http.Client
	recorder   ActivityRecorder

	mu     sync.Mutex
	logger *events.EventLogger
	rng    *rand.Rand
}

// NewClient creates a search client. recorder may be nil, in which case no
// activity events are emitted.
func NewClient(cfg *Config, recorder ActivityRecorder) *Client {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	c := *cfg
	if c.Index == "" {
		c.Index = "honeypot-*"
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	return &Client{
		cfg:        c,
		httpClient: &http.Client{Timeout: c.Timeout},
		recorder:   recorder,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// SetEventLogger sets the logger for search lifecycle events.
func (c *Client) SetEventLogger(l *events.EventLogger) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger = l
}

// QueryMetrics returns a honeypot activity summary for the given time
// range (e.g. "now-1h"). On failure it returns an empty summary along with
// the error, matching the degrade-to-empty contract of the status panel.
func (c *Client) QueryMetrics(ctx context.Context, timeRange string) (MetricsSummary, error) {
	if timeRange == "" {
		timeRange = "now-1h"
	}

	c.record(fmt.Sprintf("querying %s over %s", c.cfg.Index, timeRange), activity.StatusInfo)
	started := time.Now()

	summary, err := c.queryMetrics(ctx, timeRange)
	if err != nil {
		c.eventLogger().LogSearchFailed(c.cfg.Index, err)
		c.record(fmt.Sprintf("query failed: %v", err), activity.StatusWarning)
		return MetricsSummary{}, err
	}

	c.eventLogger().LogSearchExecuted(c.cfg.Index, timeRange, summary.TotalEvents, time.Since(started).Milliseconds())
	c.record(fmt.Sprintf("found %d events from %d sources", summary.TotalEvents, summary.UniqueIPs), activity.StatusSuccess)
	return summary, nil
}

func (c *Client) queryMetrics(ctx context.Context, timeRange string) (MetricsSummary, error) {
	if c.cfg.DemoMode {
		return c.mockSummary(), nil
	}

	body, err := json.Marshal(BuildMetricsQuery(timeRange))
	if err != nil {
		return MetricsSummary{}, fmt.Errorf("encode query: %w", err)
	}

	url := fmt.Sprintf("%s/%s/_search", c.cfg.BaseURL, c.cfg.Index)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return MetricsSummary{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return MetricsSummary{}, fmt.Errorf("query elasticsearch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return MetricsSummary{}, fmt.Errorf("elasticsearch returned %s", resp.Status)
	}

	var es esSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&es); err != nil {
		return MetricsSummary{}, fmt.Errorf("decode response: %w", err)
	}

	return MetricsSummary{
		TotalEvents:  es.Hits.Total.Value,
		EventTypes:   es.Aggregations.EventTypes.counts(),
		UniqueIPs:    es.Aggregations.UniqueIPs.Value,
		TopCountries: es.Aggregations.Countries.counts(),
	}, nil
}

// demo-mode event taxonomy, mirroring the cowrie eventid vocabulary
var demoEventTypes = []string{
	"cowrie.login.failed",
	"cowrie.session.connect",
	"cowrie.command.input",
	"cowrie.login.success",
	"cowrie.session.file_download",
}

var demoCountries = []string{"China", "United States", "Russia", "Brazil", "India", "Netherlands"}

func (c *Client) mockSummary() MetricsSummary {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := int64(0)
	eventTypes := make([]BucketCount, 0, len(demoEventTypes))
	share := int64(400 + c.rng.Intn(1200))
	for _, id := range demoEventTypes {
		eventTypes = append(eventTypes, BucketCount{Key: id, Count: share})
		total += share
		// descending bucket counts, ES terms-agg style
		share = share/2 + int64(c.rng.Intn(50))
	}

	countries := make([]BucketCount, 0, len(demoCountries))
	countryShare := total / 3
	for _, name := range demoCountries {
		if countryShare <= 0 {
			break
		}
		countries = append(countries, BucketCount{Key: name, Count: countryShare})
		countryShare = countryShare/2 + int64(c.rng.Intn(20))
	}

	return MetricsSummary{
		TotalEvents:  total,
		EventTypes:   eventTypes,
		UniqueIPs:    20 + int64(c.rng.Intn(200)),
		TopCountries: countries,
	}
}

func (c *Client) record(message string, status activity.Status) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(Source, message, status)
}

func (c *Client) eventLogger() *events.EventLogger {
	c.mu.Lock()
	l := c.logger
	c.mu.Unlock()
	if l != nil {
		return l
	}
	return events.GetGlobalEventLogger()
}
