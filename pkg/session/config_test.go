package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := session.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, session.DefaultConfig(), cfg)
}

func TestLoadConfig_FromEnv(t *testing.T) {
	t.Setenv("SESSION_COOKIE_NAME", "app_sid")
	t.Setenv("SESSION_EXPIRY_MODE", "fixed")
	t.Setenv("SESSION_FIXED_EXPIRY", "2030-01-02T03:04:05Z")
	t.Setenv("SESSION_COOKIE_SECRETS", "a,b")
	t.Setenv("SESSION_CACHE_CAPACITY", "1000")

	cfg, err := session.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "app_sid", cfg.CookieName)
	assert.Equal(t, []string{"a", "b"}, cfg.CookieSecrets)
	assert.Equal(t, 1000, cfg.CacheCapacity)

	e, err := cfg.Expiry()
	require.NoError(t, err)
	assert.Equal(t, session.ExpiryAtDateTime, e.Mode())
	assert.Equal(t, time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC), e.ExpiresAt(time.Now()).UTC())
}

func TestConfig_Expiry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(*session.Config)
		want    session.ExpiryMode
		wantErr bool
	}{
		{name: "default is inactivity", mutate: func(*session.Config) {}, want: session.ExpiryOnInactivity},
		{name: "never", mutate: func(c *session.Config) { c.ExpiryMode = "never" }, want: session.ExpiryNever},
		{name: "fixed without time", mutate: func(c *session.Config) { c.ExpiryMode = "fixed" }, wantErr: true},
		{name: "inactivity without timeout", mutate: func(c *session.Config) { c.InactivityTimeout = 0 }, wantErr: true},
		{name: "unknown", mutate: func(c *session.Config) { c.ExpiryMode = "sometimes" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := session.DefaultConfig()
			tt.mutate(&cfg)

			e, err := cfg.Expiry()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, e.Mode())
		})
	}
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()
	cfg := session.DefaultConfig()
	cfg.CookieName = "custom"

	m, err := session.NewFromConfig(cfg, session.WithStore(session.NewMemoryStore()))
	require.NoError(t, err)
	assert.Equal(t, "custom", m.Config().CookieName)

	cfg.ExpiryMode = "bogus"
	_, err = session.NewFromConfig(cfg)
	assert.Error(t, err)
}
