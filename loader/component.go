package loader

import (
	"context"
	"fmt"

	"github.com/kbukum/resourcekit/component"
)

var _ component.Component = (*Component)(nil)
var _ component.Describable = (*Component)(nil)

// Component manages a Loader's lifecycle. The Loader is created in Start.
type Component struct {
	config Config
	opts   []Option
	loader *Loader
}

// NewComponent creates a loader component.
func NewComponent(cfg Config, opts ...Option) *Component {
	cfg.ApplyDefaults()
	return &Component{config: cfg, opts: opts}
}

func (c *Component) Name() string {
	return c.config.Name
}

// Start creates the Loader.
func (c *Component) Start(_ context.Context) error {
	if c.loader != nil {
		return nil
	}
	l, err := New(c.config, c.opts...)
	if err != nil {
		return err
	}
	c.loader = l
	return nil
}

// Stop closes the Loader after in-flight dispatches complete.
func (c *Component) Stop(ctx context.Context) error {
	if c.loader == nil {
		return nil
	}
	err := c.loader.Close(ctx)
	c.loader = nil
	return err
}

func (c *Component) Health(_ context.Context) component.Health {
	if c.loader == nil {
		return component.Health{Name: c.Name(), Status: component.StatusUnhealthy, Message: "not started"}
	}
	return component.Health{Name: c.Name(), Status: component.StatusHealthy}
}

func (c *Component) Describe() component.Description {
	return component.Description{
		Type:    "loader",
		Details: fmt.Sprintf("timeout=%s accept_any_status=%t", c.config.HTTP.Timeout, c.config.HTTP.AcceptAnyStatus),
	}
}

// Loader returns the running Loader, or nil before Start.
func (c *Component) Loader() *Loader {
	return c.loader
}
