package session_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func TestExpiry_ExpiresAt(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	fixed := now.Add(48 * time.Hour)

	assert.True(t, session.Never().ExpiresAt(now).IsZero())
	assert.Equal(t, fixed, session.AtDateTime(fixed).ExpiresAt(now))
	assert.Equal(t, now.Add(time.Hour), session.OnInactivity(time.Hour).ExpiresAt(now))
	assert.Equal(t, now, session.OnInactivity(-time.Hour).ExpiresAt(now), "negative windows clamp to zero")

	var zero session.Expiry
	assert.Equal(t, session.ExpiryNever, zero.Mode())
}

func TestExpiry_Descriptor(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	d := session.OnInactivity(time.Minute).Descriptor(now)
	assert.True(t, d.Persistent)
	assert.Equal(t, time.Minute, d.MaxAge)
	assert.Equal(t, now.Add(time.Minute), d.ExpiresAt)

	past := session.AtDateTime(now.Add(-time.Hour)).Descriptor(now)
	assert.True(t, past.Persistent)
	assert.Equal(t, time.Duration(0), past.MaxAge, "max age is never negative")

	assert.Equal(t, session.ExpiryDescriptor{}, session.Never().Descriptor(now))
}

func TestExpiry_SlidingIsMonotonic(t *testing.T) {
	t.Parallel()
	e := session.OnInactivity(10 * time.Minute)
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	prev := e.ExpiresAt(now)
	for range 10 {
		now = now.Add(time.Minute)
		next := e.ExpiresAt(now)
		assert.False(t, next.Before(prev))
		prev = next
	}
}

func TestParseExpiryMode(t *testing.T) {
	t.Parallel()
	for _, mode := range []session.ExpiryMode{session.ExpiryNever, session.ExpiryAtDateTime, session.ExpiryOnInactivity} {
		got, err := session.ParseExpiryMode(mode.String())
		require.NoError(t, err)
		assert.Equal(t, mode, got)
	}
	_, err := session.ParseExpiryMode("later")
	assert.Error(t, err)
}
