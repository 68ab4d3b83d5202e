package observability

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestSettings_Defaults(t *testing.T) {
	s := Settings{ServiceName: "framegraph"}.withDefaults()
	if s.Endpoint != "localhost:4318" || s.ServiceVersion != "dev" || s.Environment != "development" {
		t.Errorf("unexpected defaults: %+v", s)
	}
	if s.SampleRate != 1 || s.MetricInterval != 15*time.Second {
		t.Errorf("unexpected sampling defaults: %+v", s)
	}

	kept := Settings{Endpoint: "collector:4318", SampleRate: 0.25}.withDefaults()
	if kept.Endpoint != "collector:4318" || kept.SampleRate != 0.25 {
		t.Errorf("explicit values must win: %+v", kept)
	}
}

func TestNewMetrics_Noop(t *testing.T) {
	metrics, err := NewMetrics(noop.NewMeterProvider().Meter("test"))
	if err != nil {
		t.Fatalf("unexpected error creating metrics: %v", err)
	}
	ctx := context.Background()
	metrics.RecordFrame(ctx, "forward", 16*time.Millisecond, 0)
	metrics.RecordJob(ctx, "forward", "Forward.Draw", "completed", time.Millisecond)
	metrics.RecordFailure(ctx, "Forward.Draw", "JOB_PANIC")
	metrics.RecordConfigChange(ctx, "Forward.Draw", "http")
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Aggregation {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Aggregation)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m.Data
		}
	}
	return out
}

func sumOf(t *testing.T, agg metricdata.Aggregation) int64 {
	t.Helper()
	sum, ok := agg.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected Sum[int64], got %T", agg)
	}
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestMetrics_RecordsFramesAndJobs(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer mp.Shutdown(context.Background())

	metrics, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	ctx := context.Background()
	metrics.RecordJob(ctx, "forward", "Forward.Prepare", "completed", time.Millisecond)
	metrics.RecordJob(ctx, "forward", "Forward.Draw", "skipped", 0)
	metrics.RecordJob(ctx, "forward", "Forward.Blit", "failed", time.Millisecond)
	metrics.RecordFailure(ctx, "Forward.Blit", "RESOURCE_MISSING")
	metrics.RecordFrame(ctx, "forward", 10*time.Millisecond, 1)
	metrics.RecordFrame(ctx, "forward", 10*time.Millisecond, 0)

	data := collect(t, reader)
	if got := sumOf(t, data["job.total"]); got != 3 {
		t.Errorf("job.total = %d, want 3", got)
	}
	if got := sumOf(t, data["job.failures"]); got != 1 {
		t.Errorf("job.failures = %d, want 1", got)
	}
	if got := sumOf(t, data["frame.total"]); got != 2 {
		t.Errorf("frame.total = %d, want 2", got)
	}

	hist, ok := data["job.duration"].(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected histogram, got %T", data["job.duration"])
	}
	var count uint64
	for _, dp := range hist.DataPoints {
		count += dp.Count
	}
	if count != 2 {
		t.Errorf("job.duration samples = %d, want 2 (skipped is not timed)", count)
	}
}

func TestNewServiceHealth(t *testing.T) {
	sh := NewServiceHealth("framegraph", "1.0.0")
	if sh.Status != HealthStatusUp {
		t.Errorf("expected status up, got %s", sh.Status)
	}
	if sh.CheckedAt.IsZero() {
		t.Error("expected CheckedAt to be set")
	}
}

type staticChecker Health

func (c staticChecker) CheckHealth(context.Context) Health { return Health(c) }

func TestServiceHealth_Check(t *testing.T) {
	sh := NewServiceHealth("framegraph", "").Check(context.Background(),
		staticChecker{Name: "a", Status: HealthStatusDegraded},
		staticChecker{Name: "b", Status: HealthStatusUp},
	)
	if sh.Status != HealthStatusDegraded || len(sh.Components) != 2 {
		t.Errorf("unexpected report %+v", sh)
	}
}

func TestHealthStatus_Worse(t *testing.T) {
	if got := HealthStatusUp.Worse(HealthStatusDown); got != HealthStatusDown {
		t.Errorf("up.Worse(down) = %s", got)
	}
	if got := HealthStatusDown.Worse(HealthStatusDegraded); got != HealthStatusDown {
		t.Errorf("down.Worse(degraded) = %s", got)
	}
}

func TestServiceHealth_AddComponent(t *testing.T) {
	tests := []struct {
		name  string
		comps []HealthStatus
		want  HealthStatus
	}{
		{"all up", []HealthStatus{HealthStatusUp, HealthStatusUp}, HealthStatusUp},
		{"one degraded", []HealthStatus{HealthStatusUp, HealthStatusDegraded}, HealthStatusDegraded},
		{"down wins", []HealthStatus{HealthStatusDegraded, HealthStatusDown}, HealthStatusDown},
		{"degraded does not override down", []HealthStatus{HealthStatusDown, HealthStatusDegraded}, HealthStatusDown},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			sh := NewServiceHealth("framegraph", "")
			for i, s := range tc.comps {
				sh.AddComponent(Health{Name: fmt.Sprintf("c%d", i), Status: s})
			}
			if sh.Status != tc.want {
				t.Errorf("status = %s, want %s", sh.Status, tc.want)
			}
			if len(sh.Components) != len(tc.comps) {
				t.Errorf("expected %d components, got %d", len(tc.comps), len(sh.Components))
			}
		})
	}
}

func withRecorder(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	rec := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(rec))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})
	return rec
}

func TestStartSpan_RecordsAttributes(t *testing.T) {
	rec := withRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanNode)
	SetSpanAttribute(ctx, AttrNodePath, "Forward.Draw")
	SetSpanAttribute(ctx, AttrFrame, uint64(9))
	SetSpanAttribute(ctx, AttrDurationMs, 1500*time.Microsecond)
	SetSpanAttribute(ctx, "ignored", struct{}{})
	SetSpanError(ctx, fmt.Errorf("lost device"))
	span.End()

	ended := rec.Ended()
	if len(ended) != 1 {
		t.Fatalf("expected 1 span, got %d", len(ended))
	}
	s := ended[0]
	if s.Name() != SpanNode {
		t.Errorf("span name = %q", s.Name())
	}
	attrs := map[string]string{}
	for _, kv := range s.Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	if attrs[AttrNodePath] != "Forward.Draw" || attrs[AttrFrame] != "9" || attrs[AttrDurationMs] != "1.5" {
		t.Errorf("unexpected attributes: %v", attrs)
	}
	if _, ok := attrs["ignored"]; ok {
		t.Error("unsupported attribute types must be dropped")
	}
	if len(s.Events()) != 1 {
		t.Errorf("expected the error event, got %d events", len(s.Events()))
	}
	if s.Status().Code != codes.Error {
		t.Errorf("expected error status, got %v", s.Status())
	}
}

func TestContextFromHeaders(t *testing.T) {
	prev := otel.GetTextMapPropagator()
	otel.SetTextMapPropagator(propagation.TraceContext{})
	defer otel.SetTextMapPropagator(prev)

	h := http.Header{}
	h.Set("traceparent", "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01")
	sc := trace.SpanContextFromContext(ContextFromHeaders(context.Background(), h))
	if !sc.IsRemote() || sc.TraceID().String() != "4bf92f3577b34da6a3ce929d0e0e4736" {
		t.Errorf("expected the remote trace to be continued, got %v", sc)
	}
}

func TestSpanHelpers_NoSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, fmt.Errorf("no span"))
	if trace.SpanFromContext(ctx).IsRecording() {
		t.Fatal("expected the noop span")
	}
}

func TestSamplerFor(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, "AlwaysOnSampler"},
		{2.0, "AlwaysOnSampler"},
		{0, "AlwaysOffSampler"},
		{-1, "AlwaysOffSampler"},
	}
	for _, tc := range tests {
		if got := samplerFor(tc.rate).Description(); got != tc.want {
			t.Errorf("samplerFor(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}

func TestNewResource(t *testing.T) {
	res, err := newResource(Settings{ServiceName: "framegraph", ServiceVersion: "1.2.3", Environment: "test"})
	if err != nil {
		t.Fatalf("newResource: %v", err)
	}
	found := false
	for _, kv := range res.Attributes() {
		if string(kv.Key) == AttrServiceName && kv.Value.AsString() == "framegraph" {
			found = true
		}
	}
	if !found {
		t.Error("expected service.name attribute")
	}
}

func TestSetup(t *testing.T) {
	prevT, prevM := otel.GetTracerProvider(), otel.GetMeterProvider()
	defer func() {
		otel.SetTracerProvider(prevT)
		otel.SetMeterProvider(prevM)
	}()

	shutdown, err := Setup(context.Background(), Settings{
		ServiceName: "framegraph",
		Endpoint:    "localhost:4318",
		Insecure:    true,
	})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	// Nothing listens on the endpoint; only shutdown must not hang.
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_ = shutdown(ctx)
}
