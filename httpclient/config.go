package httpclient

import (
	"fmt"
	"time"
)

const (
	defaultTimeout = 30 * time.Second
	defaultName    = "http"
)

// Config configures the HTTP adapter.
type Config struct {
	// Name identifies the adapter in logs, spans and metrics. Defaults to "http".
	Name string `yaml:"name" mapstructure:"name"`

	// Timeout bounds a whole request including reading the body. Defaults to 30s.
	Timeout time.Duration `yaml:"timeout" mapstructure:"timeout"`

	// Headers are default headers applied to all requests.
	Headers map[string]string `yaml:"headers" mapstructure:"headers"`

	// UserAgent, when set, is sent as the User-Agent header.
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`

	// AcceptAnyStatus hands every response body back to the caller
	// regardless of status code instead of failing non-2xx responses.
	AcceptAnyStatus bool `yaml:"accept_any_status" mapstructure:"accept_any_status"`
}

// ApplyDefaults fills in zero-value fields with sensible defaults.
func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = defaultName
	}
	if c.Timeout <= 0 {
		c.Timeout = defaultTimeout
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Timeout <= 0 {
		return fmt.Errorf("httpclient: timeout must be positive")
	}
	for k := range c.Headers {
		if k == "" {
			return fmt.Errorf("httpclient: empty header name")
		}
	}
	return nil
}
