package render

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/framegraph/errors"
	"github.com/kbukum/framegraph/logger"
	"github.com/kbukum/framegraph/observability"
)

// Observer is notified as the engine walks a frame. Calls arrive on the
// render goroutine. Skipped nodes get NodeFinished without NodeStarted.
type Observer interface {
	FrameStarted(rc *Context)
	NodeStarted(rc *Context, path string)
	NodeFinished(rc *Context, r NodeResult)
	FrameFinished(rc *Context, r *FrameResult)
}

// NopObserver implements Observer with no-ops, for embedding.
type NopObserver struct{}

func (NopObserver) FrameStarted(*Context)                {}
func (NopObserver) NodeStarted(*Context, string)         {}
func (NopObserver) NodeFinished(*Context, NodeResult)    {}
func (NopObserver) FrameFinished(*Context, *FrameResult) {}

// LoggingObserver reports soft failures at warn level and node timings at
// debug level.
type LoggingObserver struct {
	NopObserver
	log *logger.Logger
}

// NewLoggingObserver creates a logging observer for pipeline.
func NewLoggingObserver(log *logger.Logger, pipeline string) *LoggingObserver {
	return &LoggingObserver{log: log.WithFields(logger.Fields(logger.FieldPipeline, pipeline))}
}

func (o *LoggingObserver) NodeFinished(rc *Context, r NodeResult) {
	if r.Status == StatusFailed {
		fields := logger.MergeWithDuration(logger.NodeFields(r.Path, rc.Args.FrameIndex), r.Duration)
		fields[logger.FieldError] = r.Err.Error()
		if appErr, ok := errors.AsAppError(r.Err); ok {
			fields["code"] = string(appErr.Code)
		}
		o.log.Warn("node failed, outputs follow skip policy", fields)
		return
	}
	if !o.log.Enabled(zerolog.DebugLevel) {
		return
	}
	fields := logger.MergeWithDuration(logger.NodeFields(r.Path, rc.Args.FrameIndex), r.Duration)
	fields[logger.FieldStatus] = string(r.Status)
	o.log.Debug("node finished", fields)
}

func (o *LoggingObserver) FrameFinished(_ *Context, r *FrameResult) {
	if !o.log.Enabled(zerolog.DebugLevel) {
		return
	}
	fields := logger.MergeWithDuration(logger.Fields(
		logger.FieldFrame, r.Frame,
		"run", r.Stats.JobsRun,
		"skipped", r.Stats.JobsSkipped,
		"failed", r.Stats.JobsFailed,
	), r.Duration)
	o.log.Debug("frame finished", fields)
}

// MetricsObserver records frame and job instruments.
type MetricsObserver struct {
	NopObserver
	metrics  *observability.Metrics
	pipeline string
}

// NewMetricsObserver creates a metrics observer for pipeline.
func NewMetricsObserver(m *observability.Metrics, pipeline string) *MetricsObserver {
	return &MetricsObserver{metrics: m, pipeline: pipeline}
}

func (o *MetricsObserver) NodeFinished(rc *Context, r NodeResult) {
	if r.Kind != KindJob {
		return
	}
	ctx := rc.Context()
	o.metrics.RecordJob(ctx, o.pipeline, r.Path, string(r.Status), r.Duration)
	if r.Status == StatusFailed {
		code := string(errors.ErrCodeInternal)
		if appErr, ok := errors.AsAppError(r.Err); ok {
			code = string(appErr.Code)
		}
		o.metrics.RecordFailure(ctx, r.Path, code)
	}
}

func (o *MetricsObserver) FrameFinished(rc *Context, r *FrameResult) {
	o.metrics.RecordFrame(rc.Context(), o.pipeline, r.Duration, r.Stats.JobsFailed)
}

type openSpan struct {
	span   trace.Span
	parent context.Context
}

// TracingObserver opens one span per frame and one per executed node, so
// spans nest like the task tree.
type TracingObserver struct {
	pipeline string
	stack    []openSpan
}

// NewTracingObserver creates a tracing observer for pipeline.
func NewTracingObserver(pipeline string) *TracingObserver {
	return &TracingObserver{pipeline: pipeline}
}

func (o *TracingObserver) push(rc *Context, name string, attrs map[string]any) {
	parent := rc.Context()
	ctx, span := observability.StartSpan(parent, name)
	for k, v := range attrs {
		observability.SetSpanAttribute(ctx, k, v)
	}
	o.stack = append(o.stack, openSpan{span: span, parent: parent})
	rc.setContext(ctx)
}

func (o *TracingObserver) pop(rc *Context) trace.Span {
	if len(o.stack) == 0 {
		return nil
	}
	top := o.stack[len(o.stack)-1]
	o.stack = o.stack[:len(o.stack)-1]
	rc.setContext(top.parent)
	return top.span
}

func (o *TracingObserver) FrameStarted(rc *Context) {
	o.push(rc, observability.SpanFrame, map[string]any{
		observability.AttrPipeline: o.pipeline,
		observability.AttrFrame:    rc.Args.FrameIndex,
	})
}

func (o *TracingObserver) NodeStarted(rc *Context, path string) {
	o.push(rc, observability.SpanNode, map[string]any{
		observability.AttrNodePath: path,
	})
}

func (o *TracingObserver) NodeFinished(rc *Context, r NodeResult) {
	if r.Status == StatusSkipped {
		return
	}
	ctx := rc.Context()
	observability.SetSpanAttribute(ctx, observability.AttrStatus, string(r.Status))
	if r.Err != nil {
		observability.SetSpanError(ctx, r.Err)
		observability.SetSpanAttribute(ctx, observability.AttrErrorMessage, r.Err.Error())
	}
	if span := o.pop(rc); span != nil {
		span.End()
	}
}

func (o *TracingObserver) FrameFinished(rc *Context, r *FrameResult) {
	observability.SetSpanAttribute(rc.Context(), observability.AttrDurationMs, r.Duration)
	if span := o.pop(rc); span != nil {
		span.End()
	}
}
