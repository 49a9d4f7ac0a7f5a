package main

import (
	"context"
	"fmt"
	"io"

	"github.com/kbukum/resourcekit/component"
	"github.com/kbukum/resourcekit/httpclient"
	"github.com/kbukum/resourcekit/loader"
	"github.com/kbukum/resourcekit/logger"
	"github.com/kbukum/resourcekit/observability"
	"github.com/kbukum/resourcekit/resource"
	"github.com/kbukum/resourcekit/til"
)

// app is the runtime behind every API command.
type app struct {
	cfg      *Config
	log      *logger.Logger
	api      til.API
	loader   *loader.Component
	registry *component.Registry
	printer  *printer
}

func newApp(ctx context.Context, cfg *Config, out io.Writer, format string) (*app, error) {
	p, err := newPrinter(out, format)
	if err != nil {
		return nil, err
	}

	logger.Init(cfg.Logging)
	log := logger.WithComponent(serviceName)

	shutdown, err := observability.Setup(ctx, cfg.Telemetry, observability.Service{
		Name:        cfg.Name,
		Version:     cfg.Version,
		Environment: cfg.Environment,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry: %w", err)
	}

	opts := []loader.Option{loader.WithLogger(log.WithComponent("loader"))}
	if cfg.Telemetry.Enabled {
		metrics, err := observability.NewMetrics(observability.Meter(serviceName))
		if err != nil {
			_ = shutdown(ctx)
			return nil, err
		}
		opts = append(opts, loader.WithMetrics(metrics))
	}

	a := &app{
		cfg:      cfg,
		log:      log,
		api:      cfg.TIL,
		loader:   loader.NewComponent(cfg.Loader, opts...),
		registry: component.NewRegistry(),
		printer:  p,
	}
	// Telemetry is registered first so it is flushed after the loader drains.
	if err := a.registry.Register(component.Func("telemetry", nil, shutdown)); err != nil {
		return nil, err
	}
	if err := a.registry.Register(a.loader); err != nil {
		return nil, err
	}
	if err := a.registry.StartAll(ctx); err != nil {
		_ = a.registry.StopAll(context.WithoutCancel(ctx))
		return nil, err
	}

	log.Debug("tilctl ready", logger.Fields(
		"base_url", cfg.TIL.BaseURL,
		"components", a.registry.Describe(),
	))
	return a, nil
}

func (a *app) close(ctx context.Context) error {
	return a.registry.StopAll(context.WithoutCancel(ctx))
}

// fetch builds a resource, awaits its result and prints the model.
func fetch[M any](ctx context.Context, a *app, build func() (*resource.Resource[M], error)) error {
	res, err := build()
	if err != nil {
		return err
	}
	model, err := loader.Await(ctx, a.loader.Loader(), res).Get()
	if err != nil {
		return describeFailure(err)
	}
	return a.printer.print(model)
}

// describeFailure adds a hint naming the kind of failure.
func describeFailure(err error) error {
	switch {
	case httpclient.IsTimeout(err):
		return fmt.Errorf("request timed out: %w", err)
	case httpclient.IsConnection(err):
		return fmt.Errorf("cannot reach server: %w", err)
	case loader.IsTransportError(err):
		if code := loader.StatusCode(err); code != 0 {
			return fmt.Errorf("server answered %d: %w", code, err)
		}
		return fmt.Errorf("request failed: %w", err)
	default:
		return fmt.Errorf("unexpected response: %w", err)
	}
}
