package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/kbukum/resourcekit/provider"
)

var (
	ErrBulkheadFull    = errors.New("bulkhead is full")
	ErrBulkheadTimeout = errors.New("bulkhead wait timeout")
)

// BulkheadConfig configures a bulkhead.
type BulkheadConfig struct {
	// Name identifies this bulkhead in errors and logs.
	Name string `yaml:"name" mapstructure:"name"`
	// MaxConcurrent is the maximum number of concurrent calls.
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
	// MaxWait bounds the wait for a slot. Negative fails immediately when
	// full; zero waits until a slot frees up.
	MaxWait time.Duration `yaml:"max_wait" mapstructure:"max_wait"`
}

// Bulkhead limits the number of calls running at once.
type Bulkhead struct {
	config BulkheadConfig
	sem    chan struct{}
}

// NewBulkhead creates a bulkhead. MaxConcurrent below one is treated as one.
func NewBulkhead(config BulkheadConfig) *Bulkhead {
	if config.MaxConcurrent < 1 {
		config.MaxConcurrent = 1
	}
	return &Bulkhead{
		config: config,
		sem:    make(chan struct{}, config.MaxConcurrent),
	}
}

// Acquire takes a slot. Every successful Acquire must be paired with Release.
func (b *Bulkhead) Acquire(ctx context.Context) error {
	select {
	case b.sem <- struct{}{}:
		return nil
	default:
	}

	switch {
	case b.config.MaxWait < 0:
		return ErrBulkheadFull
	case b.config.MaxWait == 0:
		select {
		case b.sem <- struct{}{}:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	timer := time.NewTimer(b.config.MaxWait)
	defer timer.Stop()
	select {
	case b.sem <- struct{}{}:
		return nil
	case <-timer.C:
		return ErrBulkheadTimeout
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees a slot taken by Acquire.
func (b *Bulkhead) Release() {
	<-b.sem
}

// InUse returns the number of slots currently taken.
func (b *Bulkhead) InUse() int {
	return len(b.sem)
}

// MaxConcurrent returns the slot count.
func (b *Bulkhead) MaxConcurrent() int {
	return b.config.MaxConcurrent
}

// WithBulkhead returns a Middleware that runs each Execute inside b.
// A call that cannot get a slot fails without reaching the provider.
func WithBulkhead[I, O any](b *Bulkhead) provider.Middleware[I, O] {
	return func(inner provider.RequestResponse[I, O]) provider.RequestResponse[I, O] {
		return &bulkheadRR[I, O]{inner: inner, bulkhead: b}
	}
}

type bulkheadRR[I, O any] struct {
	inner    provider.RequestResponse[I, O]
	bulkhead *Bulkhead
}

func (r *bulkheadRR[I, O]) Name() string                         { return r.inner.Name() }
func (r *bulkheadRR[I, O]) IsAvailable(ctx context.Context) bool { return r.inner.IsAvailable(ctx) }
func (r *bulkheadRR[I, O]) Close(ctx context.Context) error {
	return provider.CloseIfCloseable(ctx, r.inner)
}

func (r *bulkheadRR[I, O]) Execute(ctx context.Context, input I) (O, error) {
	if err := r.bulkhead.Acquire(ctx); err != nil {
		var zero O
		return zero, err
	}
	defer r.bulkhead.Release()
	return r.inner.Execute(ctx, input)
}
