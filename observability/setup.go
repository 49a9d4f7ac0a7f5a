package observability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/kbukum/resourcekit/logger"
)

// Config enables OTLP export of traces and metrics.
type Config struct {
	Enabled  bool   `yaml:"enabled" mapstructure:"enabled"`
	Endpoint string `yaml:"endpoint" mapstructure:"endpoint"`
	Insecure bool   `yaml:"insecure" mapstructure:"insecure"`

	// SampleRate is the fraction of traces kept, within [0, 1].
	// Unset keeps every trace; 0 keeps none.
	SampleRate *float64 `yaml:"sample_rate,omitempty" mapstructure:"sample_rate"`

	MetricInterval time.Duration `yaml:"metric_interval" mapstructure:"metric_interval"`
}

// ApplyDefaults fills in zero-value fields. SampleRate is left unset.
func (c *Config) ApplyDefaults() {
	if c.Endpoint == "" {
		c.Endpoint = "localhost:4318"
	}
	if c.MetricInterval <= 0 {
		c.MetricInterval = 15 * time.Second
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if r := c.SampleRate; r != nil && (*r < 0 || *r > 1) {
		return fmt.Errorf("observability.sample_rate must be within [0, 1] (got: %v)", *r)
	}
	return nil
}

func (c *Config) sampleRate() float64 {
	if c.SampleRate == nil {
		return 1
	}
	return *c.SampleRate
}

// Service identifies the process in exported telemetry.
type Service struct {
	Name        string
	Version     string
	Environment string
}

func (s Service) resource() (*resource.Resource, error) {
	return resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String(AttrServiceName, s.Name),
			attribute.String("service.version", s.Version),
			attribute.String("deployment.environment", s.Environment),
		),
	)
}

// Setup installs global tracer and meter providers exporting to cfg.Endpoint
// when cfg is enabled. The returned shutdown function flushes both providers
// and is never nil.
func Setup(ctx context.Context, cfg Config, svc Service) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }
	if !cfg.Enabled {
		return noop, nil
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return noop, err
	}

	res, err := svc.resource()
	if err != nil {
		return noop, fmt.Errorf("observability: resource: %w", err)
	}
	tp, err := newTracerProvider(ctx, cfg, res)
	if err != nil {
		return noop, err
	}
	mp, err := newMeterProvider(ctx, cfg, res)
	if err != nil {
		_ = tp.Shutdown(ctx)
		return noop, err
	}

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	otel.SetMeterProvider(mp)

	logger.Get("observability").Info("telemetry export enabled", logger.Fields(
		"endpoint", cfg.Endpoint,
		"sample_rate", cfg.sampleRate(),
		"metric_interval", cfg.MetricInterval.String(),
	))

	return func(ctx context.Context) error {
		return errors.Join(tp.Shutdown(ctx), mp.Shutdown(ctx))
	}, nil
}
