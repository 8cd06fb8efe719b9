package session

import (
	"fmt"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/config"
)

// Config holds session configuration
type Config struct {
	// CookieName is the name of the session cookie (default: "sid")
	CookieName string `env:"SESSION_COOKIE_NAME" envDefault:"sid"`

	// ExpiryMode is one of "never", "inactivity" or "fixed"
	ExpiryMode string `env:"SESSION_EXPIRY_MODE" envDefault:"inactivity"`

	// InactivityTimeout is the sliding window for the "inactivity" mode
	InactivityTimeout time.Duration `env:"SESSION_INACTIVITY_TIMEOUT" envDefault:"2h"`

	// FixedExpiry is the absolute expiry (RFC 3339) for the "fixed" mode
	FixedExpiry time.Time `env:"SESSION_FIXED_EXPIRY"`

	// TouchInterval is the minimum expiry advance worth a store write on read-only requests.
	// Zero refreshes on every access; a positive value trades expiry precision for fewer writes.
	TouchInterval time.Duration `env:"SESSION_TOUCH_INTERVAL" envDefault:"0"`

	// SweepInterval for expired sessions (0 disables the background sweeper)
	SweepInterval time.Duration `env:"SESSION_SWEEP_INTERVAL" envDefault:"5m"`

	MaxCreateAttempts int `env:"SESSION_MAX_CREATE_ATTEMPTS" envDefault:"3"`

	// SecureCookies enables the Secure flag on session cookies (recommended for production)
	SecureCookies bool `env:"SESSION_SECURE_COOKIES" envDefault:"false"`

	// CookieMode is one of "plain", "signed" or "private"
	CookieMode    string   `env:"SESSION_COOKIE_MODE" envDefault:"plain"`
	CookieSecrets []string `env:"SESSION_COOKIE_SECRETS" envSeparator:","`

	// CacheCapacity sizes the in-process LRU placed in front of a remote store (0 disables)
	CacheCapacity int `env:"SESSION_CACHE_CAPACITY" envDefault:"0"`
}

// DefaultConfig returns default session configuration
func DefaultConfig() Config {
	return Config{
		CookieName:        "sid",
		ExpiryMode:        ExpiryOnInactivity.String(),
		InactivityTimeout: 2 * time.Hour,
		SweepInterval:     5 * time.Minute,
		MaxCreateAttempts: DefaultMaxCreateAttempts,
		CookieMode:        "plain",
	}
}

// LoadConfig reads Config from the environment (and an optional .env file).
func LoadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Expiry builds the expiry policy described by the config.
func (c Config) Expiry() (Expiry, error) {
	mode, err := ParseExpiryMode(c.ExpiryMode)
	if err != nil {
		return Expiry{}, err
	}

	switch mode {
	case ExpiryOnInactivity:
		if c.InactivityTimeout <= 0 {
			return Expiry{}, fmt.Errorf("session: inactivity timeout must be positive, got %s", c.InactivityTimeout)
		}
		return OnInactivity(c.InactivityTimeout), nil
	case ExpiryAtDateTime:
		if c.FixedExpiry.IsZero() {
			return Expiry{}, fmt.Errorf("session: fixed expiry mode requires SESSION_FIXED_EXPIRY")
		}
		return AtDateTime(c.FixedExpiry), nil
	default:
		return Never(), nil
	}
}

// NewFromConfig creates a new Manager from the provided Config.
// Options passed after the config override it.
func NewFromConfig(cfg Config, opts ...Option) (*Manager, error) {
	expiry, err := cfg.Expiry()
	if err != nil {
		return nil, err
	}

	configOpts := []Option{
		WithConfig(cfg),
		WithExpiryPolicy(expiry),
	}
	configOpts = append(configOpts, opts...)

	return New(configOpts...)
}
