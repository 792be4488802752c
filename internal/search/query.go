// Package search shapes and executes honeypot event queries against
// Elasticsearch, with a demo mode that fabricates plausible summaries.
// It is a collaborator of the activity log: every query records events
// into the injected recorder.
package search

// BucketCount is a single terms-aggregation bucket.
type BucketCount struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// MetricsSummary aggregates honeypot event activity over a time range.
type MetricsSummary struct {
	TotalEvents  int64         `json:"total_events"`
	EventTypes   []BucketCount `json:"event_types"`
	UniqueIPs    int64         `json:"unique_ips"`
	TopCountries []BucketCount `json:"top_countries"`
}

// BuildMetricsQuery shapes the Elasticsearch aggregation request for a
// honeypot metrics summary: event-type terms, unique source IPs, and top
// source countries, restricted to documents newer than timeRange.
func BuildMetricsQuery(timeRange string) map[string]interface{} {
	return map[string]interface{}{
		"size": 0,
		"query": map[string]interface{}{
			"range": map[string]interface{}{
				"@timestamp": map[string]interface{}{"gte": timeRange},
			},
		},
		"aggs": map[string]interface{}{
			"event_types": map[string]interface{}{
				"terms": map[string]interface{}{"field": "eventid.keyword", "size": 20},
			},
			"unique_ips": map[string]interface{}{
				"cardinality": map[string]interface{}{"field": "src_ip.keyword"},
			},
			"countries": map[string]interface{}{
				"terms": map[string]interface{}{"field": "geoip.country_name.keyword", "size": 10},
			},
		},
	}
}

// esSearchResponse is the subset of the Elasticsearch response we decode.
type esSearchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
	} `json:"hits"`
	Aggregations struct {
		EventTypes esTermsAgg `json:"event_types"`
		UniqueIPs  struct {
			Value int64 `json:"value"`
		} `json:"unique_ips"`
		Countries esTermsAgg `json:"countries"`
	} `json:"aggregations"`
}

type esTermsAgg struct {
	Buckets []struct {
		Key      string `json:"key"`
		DocCount int64  `json:"doc_count"`
	} `json:"buckets"`
}

func (a esTermsAgg) counts() []BucketCount {
	out := make([]BucketCount, 0, len(a.Buckets))
	for _, b := range a.Buckets {
		out = append(out, BucketCount{Key: b.Key, Count: b.DocCount})
	}
	return out
}
