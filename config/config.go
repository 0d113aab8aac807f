// Package config loads host settings from SWM_* environment variables.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/hupe1980/swm/core"
	"github.com/hupe1980/swm/engine"
	"github.com/hupe1980/swm/logging"
	swmotel "github.com/hupe1980/swm/tracing/otel"
)

// Config holds every environment-driven setting of a messaging host.
type Config struct {
	MessagingHandle string        `env:"SWM_MESSAGING_HANDLE" envDefault:"smart-web-messaging"`
	RequestTimeout  time.Duration `env:"SWM_REQUEST_TIMEOUT" envDefault:"30s"`

	LogLevel  string `env:"SWM_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"SWM_LOG_FORMAT" envDefault:"json"`

	OTelEnabled  bool   `env:"SWM_OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint string `env:"SWM_OTEL_ENDPOINT"`
	ServiceName  string `env:"SWM_SERVICE_NAME" envDefault:"swm-host"`

	ListenAddr string `env:"SWM_LISTEN_ADDR" envDefault:"127.0.0.1:8080"`
}

// Load parses the environment into a Config and validates it.
func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate rejects settings the engine cannot run with.
func (c Config) Validate() error {
	if c.RequestTimeout < 0 {
		return fmt.Errorf("SWM_REQUEST_TIMEOUT must not be negative, got %s", c.RequestTimeout)
	}
	if _, ok := logging.ParseLevel(c.LogLevel); !ok {
		return fmt.Errorf("SWM_LOG_LEVEL: unknown level %q", c.LogLevel)
	}
	switch strings.ToLower(c.LogFormat) {
	case "json", "text":
	default:
		return fmt.Errorf("SWM_LOG_FORMAT: unknown format %q", c.LogFormat)
	}
	return nil
}

// Engine returns the engine tuning parameters.
func (c Config) Engine() engine.Config {
	handle := c.MessagingHandle
	if handle == "" {
		handle = core.DefaultMessagingHandle
	}
	return engine.Config{MessagingHandle: handle, RequestTimeout: c.RequestTimeout}
}

// Logger builds the structured logger described by the config.
func (c Config) Logger() *logging.MessagingLogger {
	level, _ := logging.ParseLevel(c.LogLevel)
	return logging.NewSlogLogger(level, strings.ToLower(c.LogFormat), false).WithComponent(c.ServiceName)
}

// Tracing returns the exporter settings for tracing/otel.Setup.
func (c Config) Tracing() swmotel.ProviderConfig {
	return swmotel.ProviderConfig{Enabled: c.OTelEnabled, Endpoint: c.OTelEndpoint, ServiceName: c.ServiceName}
}
