package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bc-dunia/hivemon/internal/activity"
	"github.com/bc-dunia/hivemon/internal/config"
	"github.com/bc-dunia/hivemon/internal/events"
	"github.com/bc-dunia/hivemon/internal/metrics"
	"github.com/bc-dunia/hivemon/internal/otel"
	"github.com/bc-dunia/hivemon/internal/search"
	"github.com/bc-dunia/hivemon/internal/server"
	"github.com/bc-dunia/hivemon/internal/sysmon"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", "", "Path to YAML config file")
	addr := flag.String("addr", "", "HTTP server address (overrides config)")
	demoMode := flag.Bool("demo", false, "Demo mode: fabricated network/disk readings and search results")
	otelExporter := flag.String("otel-exporter", "", "OpenTelemetry exporter: none, stdout, otlp-grpc, otlp-http (overrides config)")
	otlpEndpoint := flag.String("otlp-endpoint", "", "OTLP endpoint, e.g. localhost:4317 (overrides config)")
	showVersion := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("hivemond %s\n", version)
		return
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.ListenAddr = *addr
	}
	if *demoMode {
		cfg.Sampler.DemoMode = true
		cfg.Search.DemoMode = true
	}
	if *otelExporter != "" {
		cfg.Telemetry.Exporter = *otelExporter
		cfg.Telemetry.MetricsEnabled = *otelExporter != "none"
		cfg.Telemetry.TracesEnabled = *otelExporter != "none"
	}
	if *otlpEndpoint != "" {
		cfg.Telemetry.OTLPEndpoint = *otlpEndpoint
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	logger := events.NewEventLogger("hivemond", hostname)
	events.SetGlobalEventLogger(logger)

	sampler := sysmon.NewSampler(&sysmon.Config{
		CacheTTL:         time.Duration(cfg.Sampler.CacheTTLMs) * time.Millisecond,
		DemoMode:         cfg.Sampler.DemoMode,
		LinkCapacityMbps: cfg.Sampler.LinkCapacityMbps,
	})
	sampler.SetEventLogger(logger)

	activityLog := activity.NewLog(cfg.Activity.Capacity)

	srv := server.NewServer(cfg.ListenAddr, sampler, activityLog)
	srv.SetEventLogger(logger)

	searchClient := search.NewClient(&search.Config{
		BaseURL:  cfg.Search.ElasticsearchURL,
		Index:    cfg.Search.Index,
		Timeout:  time.Duration(cfg.Search.TimeoutMs) * time.Millisecond,
		DemoMode: cfg.Search.DemoMode,
	}, activityLog)
	searchClient.SetEventLogger(logger)
	srv.SetSearchClient(searchClient)

	collector := metrics.NewCollector()
	collector.SetSnapshotProvider(sampler)
	collector.SetActivityProvider(activityLog)
	srv.SetMetricsCollector(collector)

	ctx := context.Background()

	tracer, err := otel.NewTracer(ctx, &otel.Config{
		Enabled:        cfg.Telemetry.TracesEnabled,
		ServiceName:    "hivemond",
		ServiceVersion: version,
		ExporterType:   otel.ExporterType(cfg.Telemetry.Exporter),
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:   cfg.Telemetry.OTLPInsecure,
		SampleRate:     1.0,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing tracing: %v\n", err)
		os.Exit(1)
	}
	otel.SetGlobalTracer(tracer)
	srv.SetTracer(tracer)

	otelMetrics, err := otel.NewMetrics(ctx, &otel.MetricsConfig{
		Enabled:        cfg.Telemetry.MetricsEnabled,
		ServiceName:    "hivemond",
		ServiceVersion: version,
		ExporterType:   otel.ExporterType(cfg.Telemetry.Exporter),
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure:   cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing metrics: %v\n", err)
		os.Exit(1)
	}
	otelMetrics.SetSnapshotProvider(sampler)
	otelMetrics.SetActivityProvider(activityLog)
	otel.SetGlobalMetrics(otelMetrics)
	srv.SetOTelMetrics(otelMetrics)

	if err := srv.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "Error starting server: %v\n", err)
		os.Exit(1)
	}

	if cfg.Sampler.DemoMode || cfg.Search.DemoMode {
		fmt.Println("Demo mode enabled: some readings and search results are fabricated")
	}
	fmt.Printf("hivemond %s listening on %s\n", version, srv.URL())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	fmt.Println("\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error during shutdown: %v\n", err)
	}
	if err := otelMetrics.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error shutting down metrics: %v\n", err)
	}
	if err := tracer.Shutdown(shutdownCtx); err != nil {
		fmt.Fprintf(os.Stderr, "Error shutting down tracing: %v\n", err)
	}
	fmt.Println("Server stopped")
}
