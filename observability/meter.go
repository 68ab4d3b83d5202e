package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/framegraph/logger"
)

// InitMeter installs a periodic OTLP/HTTP meter provider. The caller shuts
// it down.
func InitMeter(ctx context.Context, s Settings) (*sdkmetric.MeterProvider, error) {
	s = s.withDefaults()
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(s.Endpoint)}
	if s.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("metric exporter: %w", err)
	}
	res, err := newResource(s)
	if err != nil {
		return nil, fmt.Errorf("resource: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(s.MetricInterval))),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	logger.Get("telemetry").Info("meter initialized", logger.Fields("endpoint", s.Endpoint, "interval", s.MetricInterval.String()))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the frame and job instruments.
type Metrics struct {
	frameTotal    metric.Int64Counter
	frameDuration metric.Float64Histogram
	jobTotal      metric.Int64Counter
	jobDuration   metric.Float64Histogram
	jobFailures   metric.Int64Counter
	configChanges metric.Int64Counter
}

// NewMetrics creates metric instruments on the given meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	frameTotal, err := meter.Int64Counter("frame.total",
		metric.WithDescription("Frames rendered"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frame.total counter: %w", err)
	}

	frameDuration, err := meter.Float64Histogram("frame.duration",
		metric.WithDescription("Wall time of one frame graph run"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating frame.duration histogram: %w", err)
	}

	jobTotal, err := meter.Int64Counter("job.total",
		metric.WithDescription("Job executions by status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating job.total counter: %w", err)
	}

	jobDuration, err := meter.Float64Histogram("job.duration",
		metric.WithDescription("Duration of job runs"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating job.duration histogram: %w", err)
	}

	jobFailures, err := meter.Int64Counter("job.failures",
		metric.WithDescription("Soft failures by node and error code"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating job.failures counter: %w", err)
	}

	configChanges, err := meter.Int64Counter("config.changes",
		metric.WithDescription("Configuration overrides applied"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating config.changes counter: %w", err)
	}

	return &Metrics{
		frameTotal:    frameTotal,
		frameDuration: frameDuration,
		jobTotal:      jobTotal,
		jobDuration:   jobDuration,
		jobFailures:   jobFailures,
		configChanges: configChanges,
	}, nil
}

// RecordFrame records one finished frame.
func (m *Metrics) RecordFrame(ctx context.Context, pipeline string, duration time.Duration, failed int) {
	status := "ok"
	if failed > 0 {
		status = "degraded"
	}
	m.frameTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("status", status),
	))
	m.frameDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pipeline", pipeline),
	))
}

// RecordJob records one node visit. Skipped nodes are counted but not timed.
func (m *Metrics) RecordJob(ctx context.Context, pipeline, path, status string, duration time.Duration) {
	m.jobTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("node", path),
		attribute.String("status", status),
	))
	if status == "skipped" {
		return
	}
	m.jobDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("pipeline", pipeline),
		attribute.String("node", path),
	))
}

// RecordFailure records a soft failure by node and error code.
func (m *Metrics) RecordFailure(ctx context.Context, path, code string) {
	m.jobFailures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node", path),
		attribute.String("code", code),
	))
}

// RecordConfigChange records an applied configuration override.
func (m *Metrics) RecordConfigChange(ctx context.Context, path, source string) {
	m.configChanges.Add(ctx, 1, metric.WithAttributes(
		attribute.String("node", path),
		attribute.String("source", source),
	))
}
