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
	"go.opentelemetry.io/otel/sdk/resource"
)

func newMeterProvider(ctx context.Context, cfg Config, res *resource.Resource) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("observability: metric exporter: %w", err)
	}
	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(cfg.MetricInterval))
	return sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader), sdkmetric.WithResource(res)), nil
}

// Meter returns a meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics holds the instruments recorded by the loader and its transport.
type Metrics struct {
	dispatchTotal     metric.Int64Counter
	dispatchDuration  metric.Float64Histogram
	dispatchActive    metric.Int64UpDownCounter
	transportTotal    metric.Int64Counter
	transportDuration metric.Float64Histogram
	errorTotal        metric.Int64Counter
}

// NewMetrics registers the loader and transport instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	dispatchTotal, err := meter.Int64Counter("dispatch.total",
		metric.WithDescription("Completed dispatches by method and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatch.total counter: %w", err)
	}

	dispatchDuration, err := meter.Float64Histogram("dispatch.duration",
		metric.WithDescription("Time from dispatch to completion callback"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatch.duration histogram: %w", err)
	}

	dispatchActive, err := meter.Int64UpDownCounter("dispatch.active",
		metric.WithDescription("Dispatches currently in flight"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dispatch.active counter: %w", err)
	}

	transportTotal, err := meter.Int64Counter("transport.total",
		metric.WithDescription("Transport round trips by provider and status"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transport.total counter: %w", err)
	}

	transportDuration, err := meter.Float64Histogram("transport.duration",
		metric.WithDescription("Duration of transport round trips"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating transport.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Errors by type and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &Metrics{
		dispatchTotal:     dispatchTotal,
		dispatchDuration:  dispatchDuration,
		dispatchActive:    dispatchActive,
		transportTotal:    transportTotal,
		transportDuration: transportDuration,
		errorTotal:        errorTotal,
	}, nil
}

// RecordDispatchStart increments the in-flight dispatch count.
func (m *Metrics) RecordDispatchStart(ctx context.Context) {
	m.dispatchActive.Add(ctx, 1)
}

// RecordDispatchEnd decrements in-flight dispatches and records the outcome.
func (m *Metrics) RecordDispatchEnd(ctx context.Context, method, outcome string, duration time.Duration) {
	m.dispatchActive.Add(ctx, -1)
	m.dispatchTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("method", method),
		attribute.String("outcome", outcome),
	))
	m.dispatchDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("method", method),
	))
}

// RecordTransport records one transport round trip.
func (m *Metrics) RecordTransport(ctx context.Context, provider, status string, duration time.Duration) {
	m.transportTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", provider),
		attribute.String("status", status),
	))
	m.transportDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("provider", provider),
	))
}

// RecordError counts a failed dispatch or round trip. errType is the
// outcome or failure class; component names the loader or transport.
func (m *Metrics) RecordError(ctx context.Context, errType, component string) {
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("type", errType),
		attribute.String("component", component),
	))
}
