package session

import (
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
)

// Option is a functional option for configuring the Manager
type Option func(*Manager)

// WithStore sets the session store. Default: a fresh MemoryStore.
func WithStore(store Store) Option {
	return func(m *Manager) {
		m.store = store
	}
}

// WithTransport sets a custom session transport
func WithTransport(transport Transport) Option {
	return func(m *Manager) {
		m.transport = transport
	}
}

// WithConfig sets custom configuration
func WithConfig(config Config) Option {
	return func(m *Manager) {
		m.config = config
	}
}

// WithCookieName sets the session cookie name
func WithCookieName(name string) Option {
	return func(m *Manager) {
		m.config.CookieName = name
	}
}

// WithExpiryPolicy sets the expiry policy applied to every session
func WithExpiryPolicy(e Expiry) Option {
	return func(m *Manager) {
		m.expiry = e
	}
}

// WithTouchThreshold sets the minimum expiry advance that triggers a refresh write
func WithTouchThreshold(d time.Duration) Option {
	return func(m *Manager) {
		m.config.TouchInterval = d
	}
}

// WithLogger sets the logger for malformed tokens and commit failures
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithManagerClock overrides the time source handed to every session
func WithManagerClock(c Clock) Option {
	return func(m *Manager) {
		if c != nil {
			m.clock = c
		}
	}
}

// WithCookieManager sets the cookie manager for the default cookie transport
func WithCookieManager(cookieMgr *cookie.Manager, opts ...cookie.Option) Option {
	return func(m *Manager) {
		m.cookieManager = cookieMgr
		m.cookieOptions = opts
	}
}
