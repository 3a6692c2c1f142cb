package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	prometheusotel "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"wordhash/internal/app"
	"wordhash/internal/config"
	"wordhash/internal/lexicon"
)

func main() {
	ctx := context.Background()

	configPath := flag.String("config", "", "Path to a TOML or YAML config file")
	listen := flag.String("listen", "", "Override the listen address (e.g. :8080)")
	journalDir := flag.String("journal-dir", "", "Override the hashed-document journal directory")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stdout, nil)).Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg.ApplyEnv(os.Getenv)

	if *listen != "" {
		cfg.Server.Listen = *listen
	}
	if *journalDir != "" {
		cfg.Journal.Dir = *journalDir
	}

	level, _ := cfg.LogLevel()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	components, err := app.New(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize hashing pipeline", "error", err)
		os.Exit(1)
	}
	defer components.Close()

	telemetry := newTelemetry(ctx, logger, cfg.MetricsEnabled(), components.Lexicon)
	server := newAPIServer(components, telemetry, logger)
	go server.warm()

	handler := withJSONHeaders(server.routes())
	handler = withTelemetry(handler, telemetry, cfg.RequestLogsEnabled())

	logger.Info("wordhash API listening", "listen", cfg.Server.Listen, "language", cfg.Hashing.Language, "stemming", cfg.StemmingEnabled(), "journal", cfg.Journal.Dir)
	if err := http.ListenAndServe(cfg.Server.Listen, handler); err != nil {
		logger.Error("server stopped", "error", err)
	}
}

func withJSONHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

type telemetry struct {
	enabled bool
	logger  *slog.Logger

	registry       *prometheus.Registry
	metricsHandler http.Handler
	meter          metric.Meter

	reqCount atomic.Int64
	errCount atomic.Int64

	httpRequests metric.Int64Counter
	httpErrors   metric.Int64Counter
	httpLatency  metric.Float64Histogram
	hashDocs     metric.Int64Counter
	hashTokens   metric.Int64Counter
	hashLatency  metric.Float64Histogram
	journalRecs  metric.Int64Counter
}

func newTelemetry(ctx context.Context, logger *slog.Logger, enabled bool, cache *lexicon.Cache) *telemetry {
	telemetry := &telemetry{enabled: enabled, logger: logger}
	if !enabled {
		return telemetry
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	exporter, err := prometheusotel.New(prometheusotel.WithRegisterer(registry))
	if err != nil {
		logger.Error("failed to initialize prometheus exporter", "error", err)
		telemetry.enabled = false
		return telemetry
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	otel.SetMeterProvider(provider)
	meter := provider.Meter("wordhash")

	httpReq, _ := meter.Int64Counter("http_requests_total", metric.WithDescription("Total HTTP requests"))
	httpErr, _ := meter.Int64Counter("http_errors_total", metric.WithDescription("HTTP requests that returned an error status"))
	httpLatency, _ := meter.Float64Histogram("http_request_duration_ms", metric.WithDescription("Latency of HTTP requests in milliseconds"), metric.WithUnit("ms"))
	hashDocs, _ := meter.Int64Counter("hash_documents_total", metric.WithDescription("Documents turned into frequency maps"))
	hashTokens, _ := meter.Int64Counter("hash_tokens_total", metric.WithDescription("Token occurrences counted across all frequency maps"))
	hashLatency, _ := meter.Float64Histogram("hash_latency_ms", metric.WithDescription("Latency of hashing a request"), metric.WithUnit("ms"))
	journalRecs, _ := meter.Int64Counter("journal_records_total", metric.WithDescription("Records appended to the hashed-document journal"))

	if cache != nil {
		lexiconGauge := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "wordhash",
			Name:      "lexicon_languages_resolved",
			Help:      "Languages with a resolved stopword list",
		}, func() float64 {
			return float64(len(cache.Languages(lexicon.KindStopwords)))
		})
		registry.MustRegister(lexiconGauge)
	}

	telemetry.registry = registry
	telemetry.metricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	telemetry.meter = meter
	telemetry.httpRequests = httpReq
	telemetry.httpErrors = httpErr
	telemetry.httpLatency = httpLatency
	telemetry.hashDocs = hashDocs
	telemetry.hashTokens = hashTokens
	telemetry.hashLatency = hashLatency
	telemetry.journalRecs = journalRecs

	telemetry.logger.Info("telemetry initialized", "prometheus", true)
	telemetry.httpRequests.Add(ctx, 0) // ensure metric is created eagerly
	return telemetry
}

func (t *telemetry) recordRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	t.reqCount.Add(1)
	if status >= http.StatusBadRequest {
		t.errCount.Add(1)
	}
	if !t.enabled {
		return
	}

	attrs := metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("path", path),
		attribute.Int("status", status),
	)
	t.httpRequests.Add(ctx, 1, attrs)
	t.httpLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
	if status >= http.StatusBadRequest {
		t.httpErrors.Add(ctx, 1, attrs)
	}
}

func (t *telemetry) recordHash(ctx context.Context, language string, documents, tokens int, duration time.Duration) {
	if !t.enabled {
		return
	}

	attrs := metric.WithAttributes(attribute.String("language", language))
	t.hashDocs.Add(ctx, int64(documents), attrs)
	t.hashTokens.Add(ctx, int64(tokens), attrs)
	t.hashLatency.Record(ctx, float64(duration.Milliseconds()), attrs)
}

func (t *telemetry) recordJournal(ctx context.Context, records int) {
	if !t.enabled || records <= 0 {
		return
	}
	t.journalRecs.Add(ctx, int64(records))
}

func (t *telemetry) handleMetrics(w http.ResponseWriter, r *http.Request) {
	if !t.enabled || t.registry == nil {
		respond(w, http.StatusOK, map[string]any{"enabled": false, "requests": t.reqCount.Load(), "errors": t.errCount.Load()})
		return
	}

	t.metricsHandler.ServeHTTP(w, r)
}

func withTelemetry(next http.Handler, telemetry *telemetry, logRequests bool) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(recorder, r)
		duration := time.Since(start)

		if telemetry != nil {
			telemetry.recordRequest(r.Context(), r.Method, r.URL.Path, recorder.status, duration)
		}
		if logRequests && telemetry != nil && telemetry.logger != nil {
			telemetry.logger.Info("request completed", "method", r.Method, "path", r.URL.Path, "status", recorder.status, "duration_ms", duration.Milliseconds())
		}
	})
}
