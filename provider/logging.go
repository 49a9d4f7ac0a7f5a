package provider

import (
	"context"
	"fmt"
	"time"

	"github.com/kbukum/resourcekit/logger"
)

// WithLogging returns a Middleware that logs each Execute call with the
// provider name and duration. Inputs implementing fmt.Stringer are logged
// as the "input" field. Failures log at error level, successes at debug.
func WithLogging[I, O any](log *logger.Logger) Middleware[I, O] {
	return func(inner RequestResponse[I, O]) RequestResponse[I, O] {
		return &loggingRR[I, O]{inner: inner, log: log}
	}
}

type loggingRR[I, O any] struct {
	inner RequestResponse[I, O]
	log   *logger.Logger
}

func (l *loggingRR[I, O]) Name() string                         { return l.inner.Name() }
func (l *loggingRR[I, O]) IsAvailable(ctx context.Context) bool { return l.inner.IsAvailable(ctx) }
func (l *loggingRR[I, O]) Close(ctx context.Context) error      { return CloseIfCloseable(ctx, l.inner) }

func (l *loggingRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	start := time.Now()
	output, err := l.inner.Execute(ctx, input)
	duration := time.Since(start)

	fields := map[string]interface{}{
		"provider":           l.inner.Name(),
		logger.FieldDuration: duration.Milliseconds(),
	}
	if s, ok := any(input).(fmt.Stringer); ok {
		fields["input"] = s.String()
	}

	log := l.log.WithContext(ctx)
	if err != nil {
		fields[logger.FieldError] = err.Error()
		log.Error("provider execute failed", fields)
	} else {
		log.Debug("provider execute ok", fields)
	}

	return output, err
}
