package server

import (
	"github.com/bc-dunia/hivemon/internal/activity"
	"github.com/bc-dunia/hivemon/internal/search"
	"github.com/bc-dunia/hivemon/internal/sysmon"
)

// StatusResponse is returned by GET /api/v1/status.
type StatusResponse struct {
	Resources     sysmon.Snapshot  `json:"resources"`
	Activity      []activity.Event `json:"activity"`
	UptimeSeconds float64          `json:"uptime_seconds"`
}

// ActivityResponse is returned by GET /api/v1/activity.
type ActivityResponse struct {
	Events []activity.Event `json:"events"`
}

// RecordActivityRequest is the body of POST /api/v1/activity.
type RecordActivityRequest struct {
	Source  string `json:"source"`
	Message string `json:"message"`
	Status  string `json:"status,omitempty"`
}

// RecordActivityResponse acknowledges a recorded event.
type RecordActivityResponse struct {
	Recorded bool `json:"recorded"`
}

// SearchMetricsResponse is returned by GET /api/v1/search/metrics.
// Degraded is set when the summary is empty because the backend failed.
type SearchMetricsResponse struct {
	Summary  search.MetricsSummary `json:"summary"`
	Degraded bool                  `json:"degraded,omitempty"`
}

// HealthResponse is returned by the health check endpoint.
type HealthResponse struct {
	Status string `json:"status"`
}

// ReadyResponse is returned by the readiness check endpoint.
type ReadyResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

// ErrorResponse is the standard error response format.
type ErrorResponse struct {
	ErrorType    string                 `json:"error_type"`
	ErrorCode    string                 `json:"error_code"`
	ErrorMessage string                 `json:"error_message"`
	Retryable    bool                   `json:"retryable"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

// ErrorType constants for API errors.
const (
	ErrorTypeInvalidArgument = "invalid_argument"
	ErrorTypeUnavailable     = "unavailable"
	ErrorTypeInternal        = "internal"
)

// ErrorCode constants for specific error conditions.
const (
	ErrorCodeInvalidRequest   = "INVALID_REQUEST"
	ErrorCodeInvalidStatus    = "INVALID_STATUS"
	ErrorCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrorCodeInternalError    = "INTERNAL_ERROR"
)
