// Package config loads program configuration with Viper.
//
// Load merges a YAML file, an optional .env file (via godotenv) and
// prefixed environment variables into a struct with mapstructure tags:
//
//	var cfg Config
//	err := config.Load("tilctl", &cfg, config.WithConfigFile(path))
//
// ServiceConfig carries the name, environment and logging settings and is
// meant to be embedded with `mapstructure:",squash"`.
package config
