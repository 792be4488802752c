// Package otel provides OpenTelemetry metrics and tracing integration for hivemon.
package otel

import (
	"context"
	"fmt"
	"sync"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/bc-dunia/hivemon/internal/activity"
	"github.com/bc-dunia/hivemon/internal/sysmon"
)

// SnapshotProvider feeds the resource utilization observables.
type SnapshotProvider interface {
	Sample() sysmon.Snapshot
	Stats() sysmon.Stats
}

// ActivityProvider feeds the activity event observables.
type ActivityProvider interface {
	Stats() activity.Stats
}

// MetricsConfig holds configuration for the OpenTelemetry metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics collection is active. Default: false (no-op).
	Enabled bool

	// ServiceName is the name of the service for metric attribution.
	ServiceName string

	// ServiceVersion is the version of the service.
	ServiceVersion string

	// ExporterType specifies which exporter to use.
	ExporterType ExporterType

	// OTLPEndpoint is the endpoint for OTLP exporters (e.g., "localhost:4317").
	OTLPEndpoint string

	// OTLPInsecure disables TLS for OTLP connections.
	OTLPInsecure bool

	// Attributes are additional attributes to add to all metrics.
	Attributes map[string]string
}

// DefaultMetricsConfig returns a default configuration with metrics disabled.
func DefaultMetricsConfig() *MetricsConfig {
	return &MetricsConfig{
		Enabled:      false,
		ServiceName:  "hivemon",
		ExporterType: ExporterNone,
	}
}

// Metrics wraps OpenTelemetry metrics functionality with hivemon-specific
// instruments. Resource gauges and event counters are observable: readings
// are pulled from the providers at export time, so the sampler's TTL cache
// bounds the measurement rate regardless of the export interval.
type Metrics struct {
	config        *MetricsConfig
	meterProvider *sdkmetric.MeterProvider
	meter         metric.Meter
	shutdown      func(context.Context) error

	mu               sync.RWMutex
	snapshotProvider SnapshotProvider
	activityProvider ActivityProvider

	cpuGauge        metric.Float64ObservableGauge
	memoryGauge     metric.Float64ObservableGauge
	networkGauge    metric.Float64ObservableGauge
	diskGauge       metric.Float64ObservableGauge
	refreshCounter  metric.Int64ObservableCounter
	activityCounter metric.Int64ObservableCounter
	callbackReg     metric.Registration

	searchLatency metric.Float64Histogram
}

// globalMetrics is the singleton metrics instance.
var (
	globalMetrics   *Metrics
	globalMetricsMu sync.RWMutex
)

// NewMetrics creates a new Metrics instance with the given configuration.
func NewMetrics(ctx context.Context, cfg *MetricsConfig) (*Metrics, error) {
	if cfg == nil {
		cfg = DefaultMetricsConfig()
	}

	m := &Metrics{
		config: cfg,
	}

	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		// Use no-op meter when disabled
		m.meterProvider = sdkmetric.NewMeterProvider()
		m.meter = m.meterProvider.Meter(cfg.ServiceName)
		m.shutdown = func(context.Context) error { return nil }
		return m, nil
	}

	exporter, err := m.createExporter(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}

	res, err := m.createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
		sdkmetric.WithResource(res),
	)

	m.meterProvider = mp
	m.meter = mp.Meter(cfg.ServiceName)
	m.shutdown = mp.Shutdown

	if err := m.registerInstruments(); err != nil {
		return nil, fmt.Errorf("failed to register metric instruments: %w", err)
	}

	return m, nil
}

// SetSnapshotProvider sets the resource snapshot source for the observables.
func (m *Metrics) SetSnapshotProvider(p SnapshotProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshotProvider = p
}

// SetActivityProvider sets the activity log source for the observables.
func (m *Metrics) SetActivityProvider(p ActivityProvider) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activityProvider = p
}

// createExporter creates the appropriate metrics exporter based on configuration.
func (m *Metrics) createExporter(ctx context.Context, cfg *MetricsConfig) (sdkmetric.Exporter, error) {
	switch cfg.ExporterType {
	case ExporterStdout:
		return stdoutmetric.New()

	case ExporterOTLPGRPC:
		opts := []otlpmetricgrpc.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetricgrpc.WithInsecure())
		}
		return otlpmetricgrpc.New(ctx, opts...)

	case ExporterOTLPHTTP:
		opts := []otlpmetrichttp.Option{}
		if cfg.OTLPEndpoint != "" {
			opts = append(opts, otlpmetrichttp.WithEndpoint(cfg.OTLPEndpoint))
		}
		if cfg.OTLPInsecure {
			opts = append(opts, otlpmetrichttp.WithInsecure())
		}
		return otlpmetrichttp.New(ctx, opts...)

	default:
		return nil, fmt.Errorf("unknown exporter type: %s", cfg.ExporterType)
	}
}

// createResource creates the OpenTelemetry resource with service information.
func (m *Metrics) createResource(cfg *MetricsConfig) (*resource.Resource, error) {
	attrs := []attribute.KeyValue{
		semconv.ServiceName(cfg.ServiceName),
	}

	if cfg.ServiceVersion != "" {
		attrs = append(attrs, semconv.ServiceVersion(cfg.ServiceVersion))
	}

	for k, v := range cfg.Attributes {
		attrs = append(attrs, attribute.String(k, v))
	}

	return resource.Merge(
		resource.Default(),
		resource.NewWithAttributes("", attrs...),
	)
}

// registerInstruments creates and registers all metric instruments.
func (m *Metrics) registerInstruments() error {
	var err error

	gauges := []struct {
		target *metric.Float64ObservableGauge
		name   string
		desc   string
	}{
		{&m.cpuGauge, "hivemon.resource.cpu_percent", "Process CPU utilization percentage"},
		{&m.memoryGauge, "hivemon.resource.memory_percent", "Physical memory utilization percentage"},
		{&m.networkGauge, "hivemon.resource.network_percent", "Network link utilization percentage"},
		{&m.diskGauge, "hivemon.resource.disk_percent", "Disk busy-time percentage"},
	}
	for _, g := range gauges {
		*g.target, err = m.meter.Float64ObservableGauge(
			g.name,
			metric.WithDescription(g.desc),
			metric.WithUnit("%"),
		)
		if err != nil {
			return fmt.Errorf("failed to create gauge %s: %w", g.name, err)
		}
	}

	m.refreshCounter, err = m.meter.Int64ObservableCounter(
		"hivemon.sample.refreshes",
		metric.WithDescription("Snapshot recomputations past the cache window"),
	)
	if err != nil {
		return fmt.Errorf("failed to create refresh counter: %w", err)
	}

	m.activityCounter, err = m.meter.Int64ObservableCounter(
		"hivemon.activity.events",
		metric.WithDescription("Activity events recorded by status"),
	)
	if err != nil {
		return fmt.Errorf("failed to create activity counter: %w", err)
	}

	m.searchLatency, err = m.meter.Float64Histogram(
		"hivemon.search.latency",
		metric.WithDescription("Latency of honeypot search queries"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return fmt.Errorf("failed to create search latency histogram: %w", err)
	}

	m.callbackReg, err = m.meter.RegisterCallback(
		m.observe,
		m.cpuGauge, m.memoryGauge, m.networkGauge, m.diskGauge,
		m.refreshCounter, m.activityCounter,
	)
	if err != nil {
		return fmt.Errorf("failed to register observable callback: %w", err)
	}

	return nil
}

// observe pulls current readings from the providers for every observable.
func (m *Metrics) observe(ctx context.Context, o metric.Observer) error {
	m.mu.RLock()
	snapshots := m.snapshotProvider
	activities := m.activityProvider
	m.mu.RUnlock()

	if snapshots != nil {
		snap := snapshots.Sample()
		o.ObserveFloat64(m.cpuGauge, snap.CPUPercent)
		o.ObserveFloat64(m.memoryGauge, snap.MemoryPercent)
		o.ObserveFloat64(m.networkGauge, snap.NetworkPercent)
		o.ObserveFloat64(m.diskGauge, snap.DiskPercent)
		o.ObserveInt64(m.refreshCounter, snapshots.Stats().Refreshes)
	}

	if activities != nil {
		stats := activities.Stats()
		for status, count := range stats.ByStatus {
			o.ObserveInt64(m.activityCounter, count,
				metric.WithAttributes(attribute.String("status", string(status))))
		}
	}

	return nil
}

// RecordSearchLatency records the latency of one honeypot search query.
func (m *Metrics) RecordSearchLatency(ctx context.Context, latencyMs float64, ok bool) {
	if m.searchLatency == nil {
		return
	}
	m.searchLatency.Record(ctx, latencyMs,
		metric.WithAttributes(attribute.Bool("ok", ok)))
}

// Enabled reports whether metrics export is active.
func (m *Metrics) Enabled() bool {
	return m.config.Enabled && m.config.ExporterType != ExporterNone
}

// Shutdown gracefully shuts down the meter provider, flushing pending metrics.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if m.callbackReg != nil {
		m.callbackReg.Unregister()
	}
	if m.shutdown != nil {
		return m.shutdown(ctx)
	}
	return nil
}

// SetGlobalMetrics sets the global metrics instance.
func SetGlobalMetrics(m *Metrics) {
	globalMetricsMu.Lock()
	defer globalMetricsMu.Unlock()
	globalMetrics = m
}

// GetGlobalMetrics returns the global metrics instance, or nil if unset.
func GetGlobalMetrics() *Metrics {
	globalMetricsMu.RLock()
	defer globalMetricsMu.RUnlock()
	return globalMetrics
}
