package session_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func TestID_RoundTrip(t *testing.T) {
	t.Parallel()
	id, err := session.NewID()
	require.NoError(t, err)

	s := id.String()
	assert.Len(t, s, session.EncodedIDLength)

	parsed, err := session.ParseID(s)
	require.NoError(t, err)
	assert.Equal(t, id, parsed)
}

func TestID_Unique(t *testing.T) {
	t.Parallel()
	seen := make(map[session.ID]struct{}, 1000)
	for range 1000 {
		id := session.MustNewID()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}

func TestParseID_Malformed(t *testing.T) {
	t.Parallel()
	valid := session.MustNewID().String()

	tests := map[string]string{
		"empty":         "",
		"too short":     valid[:21],
		"too long":      valid + "A",
		"bad charset":   valid[:21] + "=",
		"sql injection": "' OR 1=1 --xxxxxxxxxxx",
		"padding":       strings.Repeat("A", 20) + "==",
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := session.ParseID(in)
			assert.ErrorIs(t, err, session.ErrMalformedID)
		})
	}
}

func TestID_Text(t *testing.T) {
	t.Parallel()
	id := session.MustNewID()

	b, err := id.MarshalText()
	require.NoError(t, err)

	var back session.ID
	require.NoError(t, back.UnmarshalText(b))
	assert.Equal(t, id, back)
	assert.False(t, back.IsZero())
	assert.True(t, session.ID{}.IsZero())
}
