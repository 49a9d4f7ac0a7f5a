package main

import (
	"fmt"

	"github.com/kbukum/resourcekit/config"
	"github.com/kbukum/resourcekit/loader"
	"github.com/kbukum/resourcekit/observability"
	"github.com/kbukum/resourcekit/til"
	"github.com/kbukum/resourcekit/version"
)

const serviceName = "tilctl"

// Config is the tilctl configuration file layout.
type Config struct {
	config.ServiceConfig `yaml:",inline" mapstructure:",squash"`

	TIL       til.API              `yaml:"til" mapstructure:"til"`
	Loader    loader.Config        `yaml:"loader" mapstructure:"loader"`
	Telemetry observability.Config `yaml:"telemetry" mapstructure:"telemetry"`
}

func (c *Config) ApplyDefaults() {
	if c.Name == "" {
		c.Name = serviceName
	}
	if c.Version == "" {
		c.Version = version.Get().Version
	}
	c.ServiceConfig.ApplyDefaults()

	if c.TIL.BaseURL == "" {
		c.TIL.BaseURL = til.DefaultBaseURL
	}
	if c.Loader.Name == "" {
		c.Loader.Name = "til"
	}
	if c.Loader.HTTP.UserAgent == "" {
		c.Loader.HTTP.UserAgent = version.UserAgent(serviceName)
	}
	c.Loader.ApplyDefaults()
	c.Telemetry.ApplyDefaults()
}

func (c *Config) Validate() error {
	if err := c.ServiceConfig.Validate(); err != nil {
		return err
	}
	if err := c.Loader.Validate(); err != nil {
		return fmt.Errorf("config.%w", err)
	}
	if err := c.Telemetry.Validate(); err != nil {
		return fmt.Errorf("config.telemetry: %w", err)
	}
	return nil
}

// loadConfig reads the config file and environment, then applies
// command-line overrides.
func loadConfig(flags *rootFlags) (*Config, error) {
	var cfg Config
	var opts []config.LoaderOption
	if flags.configFile != "" {
		opts = append(opts, config.WithConfigFile(flags.configFile))
	}
	if flags.envFile != "" {
		opts = append(opts, config.WithEnvFile(flags.envFile))
	}
	if err := config.Load(serviceName, &cfg, opts...); err != nil {
		return nil, err
	}

	if flags.baseURL != "" {
		cfg.TIL.BaseURL = flags.baseURL
	}
	if flags.debug {
		cfg.Debug = true
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
