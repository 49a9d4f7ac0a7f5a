package provider

import (
	"context"
	"time"

	"github.com/kbukum/resourcekit/observability"
)

// WithMetrics returns a Middleware that records a transport round trip
// (count and duration by status) for each Execute call, plus an error count
// on failure.
func WithMetrics[I, O any](metrics *observability.Metrics) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &metricsRR[I, O]{inner: inner, metrics: metrics}
	}
}

type metricsRR[I, O any] struct {
	inner   RequestResponse[I, O]
	metrics *observability.Metrics
}

func (m *metricsRR[I, O]) Name() string                         { return m.inner.Name() }
func (m *metricsRR[I, O]) IsAvailable(ctx context.Context) bool { return m.inner.IsAvailable(ctx) }
func (m *metricsRR[I, O]) Close(ctx context.Context) error      { return CloseIfCloseable(ctx, m.inner) }

func (m *metricsRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := m.inner.Execute(ctx, input)
	duration := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
		m.metrics.RecordError(ctx, "transport", m.inner.Name())
	}
	m.metrics.RecordTransport(ctx, m.inner.Name(), status, duration)

	return output, err
}
