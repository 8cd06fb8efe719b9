package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/config"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Supported SESSION_BACKEND values.
const (
	BackendMemory   = "memory"
	BackendRedis    = "redis"
	BackendPostgres = "postgres"
	BackendMongo    = "mongo"
)

var (
	ErrUnknownBackend   = errors.New("unknown session backend")
	ErrInvalidLogFormat = errors.New("invalid log format")
)

// AppConfig is the process-level configuration. Session and backend settings
// are loaded separately by their own packages.
type AppConfig struct {
	Backend   string `env:"SESSION_BACKEND" envDefault:"memory"` // Backend selects the durable store.
	LogFormat string `env:"LOG_FORMAT" envDefault:"json"`        // LogFormat is "json" or "text".
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`         // LogLevel is debug, info, warn or error.

	HTTP HTTPConfig
}

// HTTPConfig holds the listener settings.
type HTTPConfig struct {
	Addr            string        `env:"HTTP_ADDR" envDefault:":8080"`           // Addr is the address the server listens on.
	ReadTimeout     time.Duration `env:"HTTP_READ_TIMEOUT" envDefault:"30s"`     // ReadTimeout bounds reading the entire request.
	WriteTimeout    time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`    // WriteTimeout bounds writing the response.
	IdleTimeout     time.Duration `env:"HTTP_IDLE_TIMEOUT" envDefault:"120s"`    // IdleTimeout bounds keep-alive waits.
	ShutdownTimeout time.Duration `env:"HTTP_SHUTDOWN_TIMEOUT" envDefault:"10s"` // ShutdownTimeout is the time allowed for graceful shutdown.
}

func loadAppConfig() (AppConfig, error) {
	var cfg AppConfig
	if err := config.Load(&cfg); err != nil {
		return AppConfig{}, err
	}
	if err := cfg.Validate(); err != nil {
		return AppConfig{}, err
	}
	return cfg, nil
}

// Validate rejects values that would otherwise fail late or panic.
func (c AppConfig) Validate() error {
	switch c.Backend {
	case BackendMemory, BackendRedis, BackendPostgres, BackendMongo:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownBackend, c.Backend)
	}
	switch logger.Format(c.LogFormat) {
	case logger.FormatJSON, logger.FormatText:
	default:
		return fmt.Errorf("%w: %q", ErrInvalidLogFormat, c.LogFormat)
	}
	return nil
}
