package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/sessionkit/pkg/cookie"
	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// Manager connects a Store and a Transport: it turns inbound tokens into
// session handles and finalized handles into outbound tokens.
type Manager struct {
	store         Store
	transport     Transport
	config        Config
	expiry        Expiry
	clock         Clock
	logger        *slog.Logger
	cookieManager *cookie.Manager
	cookieOptions []cookie.Option
}

// New creates a session manager.
// Without WithStore sessions live in a MemoryStore; without WithTransport
// a cookie transport is built from the config (or WithCookieManager).
func New(opts ...Option) (*Manager, error) {
	m := &Manager{
		config: DefaultConfig(),
		expiry: Never(),
		clock:  systemClock,
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(m)
	}

	if m.store == nil {
		m.store = NewMemoryStore(WithMemoryClock(m.clock))
	}

	if m.transport == nil {
		if m.cookieManager == nil {
			mode, err := cookie.ParseMode(m.config.CookieMode)
			if err != nil {
				return nil, err
			}
			m.cookieManager, err = cookie.New(mode, m.config.CookieSecrets)
			if err != nil {
				return nil, fmt.Errorf("session: cookie transport: %w", err)
			}
		}
		m.transport = NewCookieTransportWithSecurity(m.cookieManager, m.config.CookieName, m.config.SecureCookies, m.cookieOptions...)
	}

	return m, nil
}

// Store returns the store sessions are persisted to.
func (m *Manager) Store() Store {
	return m.store
}

// Config returns the effective configuration.
func (m *Manager) Config() Config {
	return m.config
}

// Load builds an unresolved session handle for the request. It never touches
// the store. Malformed tokens are logged and treated as absent.
func (m *Manager) Load(r *http.Request) *Session {
	var inbound *ID

	token, err := m.transport.GetToken(r)
	switch {
	case err == nil:
		id, perr := ParseID(token)
		if perr != nil {
			m.warnMalformed(r.Context(), perr)
			break
		}
		inbound = &id
	case errors.Is(err, ErrMalformedID):
		m.warnMalformed(r.Context(), err)
	}

	return NewSession(m.store, inbound,
		WithExpiry(m.expiry),
		WithClock(m.clock),
		WithTouchInterval(m.config.TouchInterval),
		WithMaxCreateAttempts(m.config.MaxCreateAttempts),
		WithSessionLogger(m.logger),
	)
}

// Commit finalizes the session and writes the outcome to the transport.
func (m *Manager) Commit(ctx context.Context, w http.ResponseWriter, s *Session) (FinalizeOutcome, error) {
	out, err := s.Finalize(ctx)
	if err != nil {
		return out, err
	}

	switch out.Kind {
	case Persisted:
		err = m.transport.SetToken(w, out.ID.String(), out.Expiry)
	case Deleted:
		err = m.transport.ClearToken(w)
	}
	return out, err
}

func (m *Manager) warnMalformed(ctx context.Context, err error) {
	m.logger.WarnContext(ctx, "possibly suspicious activity: malformed session id",
		logger.Component("session_manager"),
		logger.Error(err),
	)
}
