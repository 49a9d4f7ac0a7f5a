// Package observability wires OpenTelemetry tracing and metrics.
//
// Setup installs OTLP/HTTP exporting providers from a Config:
//
//	shutdown, err := observability.Setup(ctx, cfg, observability.Service{Name: "tilctl"})
//	defer shutdown(ctx)
//
// Spans and metrics go through the global providers, so tests can swap in
// in-memory ones:
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanDispatch)
//	defer span.End()
//
//	metrics, err := observability.NewMetrics(observability.Meter("tilctl"))
//	metrics.RecordDispatchEnd(ctx, "GET", "success", duration)
package observability
