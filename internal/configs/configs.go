/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters from operating system environment variables, including the
running environment, port, CORS allowed origins, the websocket handshake timeout, and the
connection rate limits applied to the websocket endpoint.
*/
package configs

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Port        int    `env:"PORT" envDefault:"8080"`

	// Security Settings
	AllowedOrigins []string `env:"ALLOWED_ORIGINS"`

	// HandshakeTimeout bounds how long a newly opened websocket connection may
	// sit without submitting its resume token before it is dropped.
	HandshakeTimeout time.Duration `env:"HANDSHAKE_TIMEOUT" envDefault:"30s"`

	// Rate limiting for websocket connection attempts, per client IP.
	JoinRate  float64 `env:"WS_JOIN_RATE" envDefault:"0.2"`
	JoinBurst int     `env:"WS_JOIN_BURST" envDefault:"5"`
}

// LoadConfig reads and parses the application configuration from environment variables.
// It applies default values, performs validation, and returns a pointer to the
// AppConfig struct and any error encountered.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment configuration: %w", err)
	}

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	if cfg.HandshakeTimeout <= 0 {
		return nil, fmt.Errorf("handshake timeout must be positive, got %s", cfg.HandshakeTimeout)
	}

	if cfg.JoinRate <= 0 || cfg.JoinBurst < 1 {
		return nil, fmt.Errorf("invalid websocket rate limit settings (rate=%f, burst=%d)", cfg.JoinRate, cfg.JoinBurst)
	}

	// Drop empty entries left behind by trailing commas in ALLOWED_ORIGINS.
	origins := cfg.AllowedOrigins[:0]
	for _, origin := range cfg.AllowedOrigins {
		trimmed := strings.TrimSpace(origin)
		if trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	cfg.AllowedOrigins = origins

	return cfg, nil
}
