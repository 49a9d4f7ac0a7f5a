package component

import "context"

// HealthStatus represents the health state of a component.
type HealthStatus string

const (
	StatusHealthy   HealthStatus = "healthy"
	StatusUnhealthy HealthStatus = "unhealthy"
	StatusDegraded  HealthStatus = "degraded"
)

// Health holds health information for a component.
type Health struct {
	Name    string       `json:"name" yaml:"name"`
	Status  HealthStatus `json:"status" yaml:"status"`
	Message string       `json:"message,omitempty" yaml:"message,omitempty"`
}

// Component is a lifecycle-managed piece of the client runtime, such as a
// Loader or the telemetry exporters.
type Component interface {
	// Name returns the unique registration name.
	Name() string

	// Start prepares the component for use.
	Start(ctx context.Context) error

	// Stop releases everything the component holds. Stop on a component
	// that was never started must be safe.
	Stop(ctx context.Context) error

	// Health returns the current health status of the component.
	Health(ctx context.Context) Health
}

// Description summarises a component for the CLI's verbose output.
type Description struct {
	// Name is the display name. If empty, the component's Name() is used.
	Name string `json:"name" yaml:"name"`
	// Type categorizes the component: "loader", "telemetry".
	Type string `json:"type" yaml:"type"`
	// Details is a one-liner such as "timeout=30s executor=serial".
	Details string `json:"details,omitempty" yaml:"details,omitempty"`
}

// Describable is optionally implemented by components that can describe
// their configuration.
type Describable interface {
	Describe() Description
}

// Func adapts start and stop functions to a Component with a fixed name.
// Either function may be nil.
func Func(name string, start, stop func(ctx context.Context) error) Component {
	return &funcComponent{name: name, start: start, stop: stop}
}

type funcComponent struct {
	name    string
	start   func(ctx context.Context) error
	stop    func(ctx context.Context) error
	started bool
}

func (f *funcComponent) Name() string { return f.name }

func (f *funcComponent) Start(ctx context.Context) error {
	if f.start != nil {
		if err := f.start(ctx); err != nil {
			return err
		}
	}
	f.started = true
	return nil
}

func (f *funcComponent) Stop(ctx context.Context) error {
	if !f.started || f.stop == nil {
		return nil
	}
	f.started = false
	return f.stop(ctx)
}

func (f *funcComponent) Health(_ context.Context) Health {
	if !f.started {
		return Health{Name: f.name, Status: StatusUnhealthy, Message: "not started"}
	}
	return Health{Name: f.name, Status: StatusHealthy}
}
