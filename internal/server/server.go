// Package server exposes the hivemon status API over HTTP: resource
// snapshots, the activity feed, honeypot event search, health checks,
// and Prometheus metrics.
package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/bc-dunia/hivemon/internal/activity"
	"github.com/bc-dunia/hivemon/internal/events"
	"github.com/bc-dunia/hivemon/internal/metrics"
	"github.com/bc-dunia/hivemon/internal/otel"
	"github.com/bc-dunia/hivemon/internal/search"
	"github.com/bc-dunia/hivemon/internal/sysmon"
)

type Server struct {
	sampler     *sysmon.Sampler
	activityLog *activity.Log

	searchClient     *search.Client
	metricsCollector *metrics.Collector
	tracer           *otel.Tracer
	otelMetrics      *otel.Metrics
	logger           *events.EventLogger

	server    *http.Server
	listener  net.Listener
	mu        sync.Mutex
	running   bool
	addr      string
	startedAt time.Time
}

// NewServer creates a server around the given sampler and activity log.
func NewServer(addr string, sampler *sysmon.Sampler, log *activity.Log) *Server {
	return &Server{
		sampler:     sampler,
		activityLog: log,
		addr:        addr,
	}
}

// SetSearchClient enables the honeypot search endpoint.
func (s *Server) SetSearchClient(c *search.Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.searchClient = c
}

// SetMetricsCollector enables the Prometheus metrics endpoint.
func (s *Server) SetMetricsCollector(mc *metrics.Collector) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metricsCollector = mc
}

// SetTracer enables trace propagation on all endpoints.
func (s *Server) SetTracer(t *otel.Tracer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tracer = t
}

// SetOTelMetrics enables OpenTelemetry instrumentation of the search path.
func (s *Server) SetOTelMetrics(m *otel.Metrics) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.otelMetrics = m
}

// SetEventLogger sets the logger for server lifecycle events.
func (s *Server) SetEventLogger(l *events.EventLogger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logger = l
}

// Handler builds the route table. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/api/v1/status", s.handleStatus)
	mux.HandleFunc("/api/v1/activity", s.handleActivity)
	mux.HandleFunc("/api/v1/search/metrics", s.handleSearchMetrics)
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/readyz", s.handleReadyz)
	mux.HandleFunc("/metrics", s.handleMetrics)

	return otel.Middleware(s.tracer)(mux)
}

func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	s.listener = listener

	s.server = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 10 * time.Second, // Protect against slowloris attacks
	}

	s.running = true
	s.startedAt = time.Now()
	s.eventLogger().LogServerStarted(listener.Addr().String())

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.eventLogger().LogServerError(err)
		}
	}()

	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	s.eventLogger().LogServerStopped("shutdown requested")

	if s.server != nil {
		return s.server.Shutdown(ctx)
	}
	return nil
}

func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.listener != nil {
		return s.listener.Addr().String()
	}
	return s.addr
}

func (s *Server) URL() string {
	return fmt.Sprintf("http://%s", s.Addr())
}

func (s *Server) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) eventLogger() *events.EventLogger {
	if s.logger != nil {
		return s.logger
	}
	return events.GetGlobalEventLogger()
}
