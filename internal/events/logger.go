package events

import (
	"io"
	"log/slog"
	"os"
	"sync"
)

// EventLogger provides structured logging for key events in hivemon.
type EventLogger struct {
	logger  *slog.Logger
	service string
	host    string
}

// NewEventLogger creates a new EventLogger with JSON output to stdout.
// It includes base attributes: service and host.
func NewEventLogger(service, host string) *EventLogger {
	return NewEventLoggerWithWriter(service, host, os.Stdout)
}

// NewEventLoggerWithWriter creates a new EventLogger with JSON output to a
// custom writer. Useful for testing or redirecting output.
func NewEventLoggerWithWriter(service, host string, w io.Writer) *EventLogger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	logger := slog.New(handler).With(
		"service", service,
		"host", host,
	)
	return &EventLogger{
		logger:  logger,
		service: service,
		host:    host,
	}
}

// LogSampleRefresh logs a resource snapshot recomputation.
// event: "sample_refresh"
// Attributes: cpu_percent, memory_percent, network_percent, disk_percent, duration_ms
func (el *EventLogger) LogSampleRefresh(cpu, memory, network, disk float64, durationMs int64) {
	el.logger.Info("sample_refresh",
		"cpu_percent", cpu,
		"memory_percent", memory,
		"network_percent", network,
		"disk_percent", disk,
		"duration_ms", durationMs,
	)
}

// LogProbeDegraded logs a resource probe falling back to its previous value.
// event: "probe_degraded"
// Attributes: probe, error
func (el *EventLogger) LogProbeDegraded(probe string, err error) {
	el.logger.Warn("probe_degraded",
		"probe", probe,
		"error", err.Error(),
	)
}

// LogActivityRecorded logs an accepted activity event.
// event: "activity_recorded"
// Attributes: source, status
func (el *EventLogger) LogActivityRecorded(source, status string) {
	el.logger.Info("activity_recorded",
		"source", source,
		"status", status,
	)
}

// LogActivityRejected logs an activity event rejected at the boundary.
// event: "activity_rejected"
// Attributes: source, status, reason
func (el *EventLogger) LogActivityRejected(source, status, reason string) {
	el.logger.Warn("activity_rejected",
		"source", source,
		"status", status,
		"reason", reason,
	)
}

// LogSearchExecuted logs a completed honeypot event search.
// event: "search_executed"
// Attributes: index, time_range, total_events, duration_ms
func (el *EventLogger) LogSearchExecuted(index, timeRange string, totalEvents int64, durationMs int64) {
	el.logger.Info("search_executed",
		"index", index,
		"time_range", timeRange,
		"total_events", totalEvents,
		"duration_ms", durationMs,
	)
}

// LogSearchFailed logs a search that degraded to an empty summary.
// event: "search_failed"
// Attributes: index, error
func (el *EventLogger) LogSearchFailed(index string, err error) {
	el.logger.Warn("search_failed",
		"index", index,
		"error", err.Error(),
	)
}

// LogServerStarted logs the HTTP server coming up.
// event: "server_started"
// Attributes: addr
func (el *EventLogger) LogServerStarted(addr string) {
	el.logger.Info("server_started",
		"addr", addr,
	)
}

// LogServerStopped logs the HTTP server shutting down.
// event: "server_stopped"
// Attributes: reason
func (el *EventLogger) LogServerStopped(reason string) {
	el.logger.Info("server_stopped",
		"reason", reason,
	)
}

// LogServerError logs a failure of the serving loop itself.
// event: "server_error"
// Attributes: error
func (el *EventLogger) LogServerError(err error) {
	el.logger.Warn("server_error",
		"error", err.Error(),
	)
}

// Global logger management
var (
	globalLogger *EventLogger
	globalMu     sync.RWMutex
	noopOnce     sync.Once
	noopLogger   *EventLogger
)

// SetGlobalEventLogger sets the global event logger instance.
func SetGlobalEventLogger(l *EventLogger) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalLogger = l
}

// GetGlobalEventLogger returns the global event logger instance.
// If no logger is set, returns a no-op logger.
func GetGlobalEventLogger() *EventLogger {
	globalMu.RLock()
	defer globalMu.RUnlock()
	if globalLogger != nil {
		return globalLogger
	}
	return NoopEventLogger()
}

// NoopEventLogger returns an event logger that discards all events.
// Useful for testing or when event logging is disabled.
func NoopEventLogger() *EventLogger {
	noopOnce.Do(func() {
		handler := slog.NewJSONHandler(io.Discard, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
		noopLogger = &EventLogger{logger: slog.New(handler)}
	})
	return noopLogger
}
