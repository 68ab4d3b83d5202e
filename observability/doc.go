// Package observability provides OpenTelemetry tracing and metrics for
// frame rendering.
//
// Setup installs OTLP/HTTP exporters for both signals and returns one
// shutdown function:
//
//	shutdown, err := observability.Setup(ctx, observability.Settings{
//	    ServiceName: "framegraph",
//	    Endpoint:    "localhost:4318",
//	    Insecure:    true,
//	})
//	defer shutdown(context.Background())
//
// Frame and job instruments:
//
//	metrics, err := observability.NewMetrics(observability.Meter(observability.InstrumentationName))
//	metrics.RecordJob(ctx, "forward", "Forward.Draw", "completed", d)
//	metrics.RecordFrame(ctx, "forward", d, failed)
//
// Health:
//
//	health := observability.NewServiceHealth("framegraph", version).Check(ctx, pipeline)
package observability
