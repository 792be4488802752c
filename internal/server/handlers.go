package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/bc-dunia/hivemon/internal/activity"
	"github.com/bc-dunia/hivemon/internal/config"
)

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w, r.Method, "GET")
		return
	}

	var uptime float64
	s.mu.Lock()
	if !s.startedAt.IsZero() {
		uptime = time.Since(s.startedAt).Seconds()
	}
	s.mu.Unlock()

	s.writeJSON(w, http.StatusOK, &StatusResponse{
		Resources:     s.sampler.Sample(),
		Activity:      s.activityLog.Recent(activity.DefaultRecentLimit),
		UptimeSeconds: uptime,
	})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.handleListActivity(w, r)
	case http.MethodPost:
		s.handleRecordActivity(w, r)
	default:
		s.writeMethodNotAllowed(w, r.Method, "GET, POST")
	}
}

func (s *Server) handleListActivity(w http.ResponseWriter, r *http.Request) {
	limit := activity.DefaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			s.writeError(w, http.StatusBadRequest, &ErrorResponse{
				ErrorType:    ErrorTypeInvalidArgument,
				ErrorCode:    ErrorCodeInvalidRequest,
				ErrorMessage: "limit must be an integer",
				Retryable:    false,
			})
			return
		}
		limit = parsed
	}

	s.writeJSON(w, http.StatusOK, &ActivityResponse{
		Events: s.activityLog.Recent(limit),
	})
}

func (s *Server) handleRecordActivity(w http.ResponseWriter, r *http.Request) {
	var req RecordActivityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, &ErrorResponse{
			ErrorType:    ErrorTypeInvalidArgument,
			ErrorCode:    ErrorCodeInvalidRequest,
			ErrorMessage: "request body must be valid JSON",
			Retryable:    false,
		})
		return
	}

	if req.Source == "" || req.Message == "" {
		s.writeError(w, http.StatusBadRequest, &ErrorResponse{
			ErrorType:    ErrorTypeInvalidArgument,
			ErrorCode:    ErrorCodeInvalidRequest,
			ErrorMessage: "source and message are required",
			Retryable:    false,
		})
		return
	}

	status := activity.Status(req.Status)
	if req.Status == "" {
		status = activity.StatusInfo
	}

	if err := s.activityLog.Record(req.Source, req.Message, status); err != nil {
		if errors.Is(err, activity.ErrInvalidStatus) {
			s.eventLogger().LogActivityRejected(req.Source, req.Status, err.Error())
			s.writeError(w, http.StatusBadRequest, &ErrorResponse{
				ErrorType:    ErrorTypeInvalidArgument,
				ErrorCode:    ErrorCodeInvalidStatus,
				ErrorMessage: "status must be one of success, warning, info",
				Retryable:    false,
				Details: map[string]interface{}{
					"status": req.Status,
				},
			})
			return
		}
		s.writeError(w, http.StatusInternalServerError, &ErrorResponse{
			ErrorType:    ErrorTypeInternal,
			ErrorCode:    ErrorCodeInternalError,
			ErrorMessage: err.Error(),
			Retryable:    false,
		})
		return
	}

	s.eventLogger().LogActivityRecorded(req.Source, string(status))
	s.writeJSON(w, http.StatusCreated, &RecordActivityResponse{Recorded: true})
}

func (s *Server) handleSearchMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w, r.Method, "GET")
		return
	}

	if s.searchClient == nil {
		s.writeError(w, http.StatusServiceUnavailable, &ErrorResponse{
			ErrorType:    ErrorTypeUnavailable,
			ErrorCode:    "SEARCH_NOT_CONFIGURED",
			ErrorMessage: "Search client not configured",
			Retryable:    false,
		})
		return
	}

	timeRange := r.URL.Query().Get("range")
	if timeRange == "" {
		timeRange = config.DefaultSearchTimeRange
	}

	started := time.Now()
	summary, err := s.searchClient.QueryMetrics(r.Context(), timeRange)
	latencyMs := float64(time.Since(started).Milliseconds())

	if s.metricsCollector != nil {
		s.metricsCollector.RecordSearchQuery(err == nil)
	}
	if s.otelMetrics != nil {
		s.otelMetrics.RecordSearchLatency(r.Context(), latencyMs, err == nil)
	}

	// the panel degrades to an empty summary rather than failing the page
	s.writeJSON(w, http.StatusOK, &SearchMetricsResponse{
		Summary:  summary,
		Degraded: err != nil,
	})
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w, r.Method, "GET")
		return
	}
	s.writeJSON(w, http.StatusOK, &HealthResponse{Status: "ok"})
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w, r.Method, "GET")
		return
	}

	ready := s.sampler != nil && s.activityLog != nil
	status := "ready"
	if !ready {
		status = "not_ready"
	}

	s.writeJSON(w, http.StatusOK, &ReadyResponse{
		Status: status,
		Ready:  ready,
	})
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeMethodNotAllowed(w, r.Method, "GET")
		return
	}

	if s.metricsCollector == nil {
		s.writeError(w, http.StatusServiceUnavailable, &ErrorResponse{
			ErrorType:    ErrorTypeInternal,
			ErrorCode:    "METRICS_NOT_CONFIGURED",
			ErrorMessage: "Metrics collector not configured",
			Retryable:    false,
		})
		return
	}

	output := s.metricsCollector.Expose()

	w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(output))
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, status int, errResp *ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errResp)
}

func (s *Server) writeMethodNotAllowed(w http.ResponseWriter, method, allowed string) {
	w.Header().Set("Allow", allowed)
	s.writeError(w, http.StatusMethodNotAllowed, &ErrorResponse{
		ErrorType:    ErrorTypeInvalidArgument,
		ErrorCode:    ErrorCodeMethodNotAllowed,
		ErrorMessage: "Method not allowed",
		Retryable:    false,
		Details: map[string]interface{}{
			"method":  method,
			"allowed": allowed,
		},
	})
}
