package logger_test

import (
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

type stringer string

func (s stringer) String() string { return string(s) }

func TestGroup(t *testing.T) {
	attr := logger.Group("req", slog.String("id", "1"), slog.Int("n", 2))
	require.Equal(t, "req", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, "id", g[0].Key)
	assert.Equal(t, "n", g[1].Key)
}

func TestErrors(t *testing.T) {
	err1 := errors.New("first")
	err2 := errors.New("second")

	attr := logger.Errors(err1, nil, err2)
	require.Equal(t, "errors", attr.Key)
	require.Equal(t, slog.KindGroup, attr.Value.Kind())
	g := attr.Value.Group()
	require.Len(t, g, 2)
	assert.Equal(t, err1, g[0].Value.Any())
	assert.Equal(t, err2, g[1].Value.Any())

	empty := logger.Errors(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestError(t *testing.T) {
	err := errors.New("boom")
	attr := logger.Error(err)
	require.Equal(t, "error", attr.Key)
	assert.Equal(t, err, attr.Value.Any())

	empty := logger.Error(nil)
	assert.True(t, empty.Equal(slog.Attr{}))
}

func TestSessionID(t *testing.T) {
	t.Run("stringer", func(t *testing.T) {
		attr := logger.SessionID(stringer("abc"))
		require.Equal(t, "session_id", attr.Key)
		assert.Equal(t, "abc", attr.Value.String())
	})

	t.Run("plain value", func(t *testing.T) {
		attr := logger.SessionID(42)
		require.Equal(t, "session_id", attr.Key)
		assert.Equal(t, int64(42), attr.Value.Int64())
	})

	t.Run("nil", func(t *testing.T) {
		assert.True(t, logger.SessionID(nil).Equal(slog.Attr{}))
	})
}

func TestRequestID(t *testing.T) {
	attr := logger.RequestID("req-1")
	require.Equal(t, "request_id", attr.Key)
	assert.Equal(t, "req-1", attr.Value.Any())
	assert.True(t, logger.RequestID(nil).Equal(slog.Attr{}))
}

func TestScalarAttrs(t *testing.T) {
	tests := []struct {
		name string
		attr slog.Attr
		key  string
	}{
		{name: "store", attr: logger.Store("redis"), key: "store"},
		{name: "outcome", attr: logger.Outcome("persisted"), key: "outcome"},
		{name: "attempt", attr: logger.Attempt(2), key: "attempt"},
		{name: "duration", attr: logger.Duration(time.Second), key: "duration"},
		{name: "component", attr: logger.Component("sweeper"), key: "component"},
		{name: "status", attr: logger.Status(503), key: "status"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.key, tt.attr.Key)
		})
	}
}
