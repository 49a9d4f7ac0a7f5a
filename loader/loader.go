package loader

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/resourcekit/httpclient"
	"github.com/kbukum/resourcekit/logger"
	"github.com/kbukum/resourcekit/observability"
	"github.com/kbukum/resourcekit/provider"
	"github.com/kbukum/resourcekit/resilience"
	"github.com/kbukum/resourcekit/resource"
)

// Config configures a Loader.
type Config struct {
	// Name identifies the loader in logs and span names. Defaults to "loader".
	Name string `yaml:"name" mapstructure:"name"`

	// HTTP configures the default transport.
	HTTP httpclient.Config `yaml:"http" mapstructure:"http"`

	// MaxInFlight caps concurrent round trips. Dispatches beyond the cap
	// wait for a slot. Zero means unlimited.
	MaxInFlight int `yaml:"max_in_flight" mapstructure:"max_in_flight"`
}

// ApplyDefaults fills in zero-value fields.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = "loader"
	}
	c.HTTP.ApplyDefaults()
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.MaxInFlight < 0 {
		return fmt.Errorf("loader.max_in_flight must not be negative (got: %d)", c.MaxInFlight)
	}
	if err := c.HTTP.Validate(); err != nil {
		return fmt.Errorf("loader.http: %w", err)
	}
	return nil
}

// Option configures a Loader.
type Option func(*Loader)

// WithTransport replaces the default HTTP transport. The loader does not
// close a transport it did not create.
func WithTransport(t Transport) Option {
	return func(l *Loader) { l.transport = t }
}

// WithExecutor replaces the default serial callback executor. The loader
// closes it on Close.
func WithExecutor(e Executor) Option {
	return func(l *Loader) { l.executor = e }
}

// WithLogger sets the logger for dispatch and transport logging.
func WithLogger(log *logger.Logger) Option {
	return func(l *Loader) { l.log = log }
}

// WithMetrics records dispatch and transport metrics on m.
func WithMetrics(m *observability.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithMiddleware wraps the transport with additional middleware, applied
// inside the built-in logging, tracing and metrics layers.
func WithMiddleware(mw ...provider.Middleware[resource.Request, []byte]) Option {
	return func(l *Loader) { l.middleware = append(l.middleware, mw...) }
}

// Loader dispatches resources and delivers each result to a callback
// exactly once.
type Loader struct {
	name          string
	transport     Transport
	ownsTransport bool
	executor      Executor
	log           *logger.Logger
	metrics       *observability.Metrics
	middleware    []provider.Middleware[resource.Request, []byte]

	mu       sync.RWMutex
	closed   bool
	inflight sync.WaitGroup
}

// New creates a Loader. Without WithTransport it sends requests through an
// httpclient.Adapter built from cfg.HTTP.
func New(cfg Config, opts ...Option) (*Loader, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	l := &Loader{name: cfg.Name}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = logger.Get("loader")
	}

	if l.transport == nil {
		adapter, err := httpclient.New(cfg.HTTP)
		if err != nil {
			return nil, fmt.Errorf("loader: %w", err)
		}
		l.transport = HTTPTransport(adapter)
		l.ownsTransport = true
	}

	chain := []provider.Middleware[resource.Request, []byte]{
		provider.WithLogging[resource.Request, []byte](l.log),
		provider.WithTracing[resource.Request, []byte](l.name),
	}
	if l.metrics != nil {
		chain = append(chain, provider.WithMetrics[resource.Request, []byte](l.metrics))
	}
	if cfg.MaxInFlight > 0 {
		chain = append(chain, resilience.WithBulkhead[resource.Request, []byte](resilience.NewBulkhead(resilience.BulkheadConfig{
			Name:          cfg.Name,
			MaxConcurrent: cfg.MaxInFlight,
		})))
	}
	chain = append(chain, l.middleware...)
	l.transport = provider.Chain(chain...)(l.transport)

	if l.executor == nil {
		l.executor = NewSerialExecutor()
	}
	return l, nil
}

// Name returns the loader name.
func (l *Loader) Name() string {
	return l.name
}

// Close waits for in-flight dispatches to deliver their callbacks, stops the
// callback executor and releases idle connections. Dispatches made after
// Close resolve with ErrClosed. Close must not be called from a callback.
func (l *Loader) Close(ctx context.Context) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	l.mu.Unlock()

	l.inflight.Wait()
	l.executor.Close()

	if l.ownsTransport {
		return provider.CloseIfCloseable(ctx, l.transport)
	}
	return nil
}

// acquire registers an in-flight dispatch. It returns false after Close.
func (l *Loader) acquire() bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if l.closed {
		return false
	}
	l.inflight.Add(1)
	return true
}

// Dispatch performs one round trip for res on a new goroutine and calls
// onComplete exactly once with the result. onComplete runs on the loader's
// callback executor, never on the calling goroutine.
//
// ctx contributes values such as the active span; its cancellation and
// deadline are ignored.
func Dispatch[M any](ctx context.Context, l *Loader, res *resource.Resource[M], onComplete func(Result[M])) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx = context.WithoutCancel(ctx)
	if onComplete == nil {
		onComplete = func(Result[M]) {}
	}

	if !l.acquire() {
		go onComplete(Failure[M](ErrClosed))
		return
	}

	go func() {
		defer l.inflight.Done()
		result := roundTrip(ctx, l, res)
		l.executor.Submit(func() { onComplete(result) })
	}()
}

// Load dispatches res and returns a channel that receives the result once.
// The channel is buffered, so the result is never lost if nobody reads it.
func Load[M any](ctx context.Context, l *Loader, res *resource.Resource[M]) <-chan Result[M] {
	ch := make(chan Result[M], 1)
	Dispatch(ctx, l, res, func(r Result[M]) {
		ch <- r
		close(ch)
	})
	return ch
}

// Await dispatches res and blocks until its result is delivered. The
// round trip is not cancelled when ctx is done; Await merely stops waiting
// and returns ctx's error. With the serial executor, calling Await from a
// callback of the same loader deadlocks.
func Await[M any](ctx context.Context, l *Loader, res *resource.Resource[M]) Result[M] {
	if ctx == nil {
		ctx = context.Background()
	}
	ch := Load(ctx, l, res)
	select {
	case r := <-ch:
		return r
	case <-ctx.Done():
		return Failure[M](ctx.Err())
	}
}

func roundTrip[M any](ctx context.Context, l *Loader, res *resource.Resource[M]) Result[M] {
	if res == nil {
		return Failure[M](&TransportError{Err: fmt.Errorf("nil resource")})
	}
	req := res.Request()
	requestID := uuid.NewString()

	ctx, span := observability.StartSpan(ctx, observability.SpanDispatch)
	defer span.End()
	observability.SetSpanAttribute(ctx, observability.AttrRequestID, requestID)
	observability.SetSpanAttribute(ctx, observability.AttrHTTPMethod, req.Method)
	observability.SetSpanAttribute(ctx, observability.AttrURL, req.URL)

	if l.metrics != nil {
		l.metrics.RecordDispatchStart(ctx)
	}
	start := time.Now()

	result := execute(ctx, l.transport, res, req)

	duration := time.Since(start)
	outcome := result.Outcome()
	observability.SetSpanAttribute(ctx, observability.AttrOutcome, string(outcome))
	if err := result.Err(); err != nil {
		observability.SetSpanError(ctx, err)
	}
	if l.metrics != nil {
		l.metrics.RecordDispatchEnd(ctx, req.Method, string(outcome), duration)
		if outcome == OutcomeDecodeError {
			l.metrics.RecordError(ctx, string(outcome), l.name)
		}
	}

	fields := logger.Fields(
		logger.FieldRequestID, requestID,
		logger.FieldMethod, req.Method,
		logger.FieldURL, req.URL,
		logger.FieldOutcome, string(outcome),
		logger.FieldDuration, duration.Milliseconds(),
	)
	if err := result.Err(); err != nil {
		fields[logger.FieldError] = err.Error()
	}
	l.log.WithContext(ctx).Debug("dispatch complete", fields)

	return result
}

func execute[M any](ctx context.Context, t Transport, res *resource.Resource[M], req resource.Request) Result[M] {
	body, err := t.Execute(ctx, req)
	switch {
	case err != nil:
		return Failure[M](&TransportError{Method: req.Method, URL: req.URL, Err: err})
	case body == nil:
		return Failure[M](&TransportError{Method: req.Method, URL: req.URL, Err: ErrNoResponse})
	}

	model, err := res.Decode(body)
	if err != nil {
		return Failure[M](err)
	}
	return Success(model)
}
