// Package sessiontest provides a behavioural test suite for session.Store
// implementations.
package sessiontest

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// Factory returns a fresh, empty store for one subtest.
type Factory func(t *testing.T) session.Store

// NewRecord builds a record with one key and an expiry truncated to whole
// seconds, so it survives backends with coarse timestamps.
func NewRecord(t *testing.T, ttl time.Duration) *session.Record {
	t.Helper()

	id, err := session.NewID()
	require.NoError(t, err)

	var expiresAt time.Time
	if ttl != 0 {
		expiresAt = time.Now().Add(ttl).Truncate(time.Second)
	}
	r := session.NewRecord(id, expiresAt)
	r.Data["user"] = json.RawMessage(`"alice"`)
	return r
}

// AssertRecord compares records field by field with time.Time.Equal semantics.
func AssertRecord(t *testing.T, want, got *session.Record) {
	t.Helper()

	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt), "expiry: want %s, got %s", want.ExpiresAt, got.ExpiresAt)
	require.Len(t, got.Data, len(want.Data))
	for k, v := range want.Data {
		assert.JSONEq(t, string(v), string(got.Data[k]), "key %q", k)
	}
}

// Run exercises the Store contract. Subtests that wait for real expiry are
// skipped in -short mode.
func Run(t *testing.T, newStore Factory) {
	t.Helper()

	t.Run("load missing", func(t *testing.T) {
		store := newStore(t)
		id, err := session.NewID()
		require.NoError(t, err)

		_, err = store.Load(context.Background(), id)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("save and load", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		want := NewRecord(t, time.Hour)

		require.NoError(t, store.Save(ctx, want))
		got, err := store.Load(ctx, want.ID)
		require.NoError(t, err)
		AssertRecord(t, want, got)
	})

	t.Run("save without expiry", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		want := NewRecord(t, 0)

		require.NoError(t, store.Save(ctx, want))
		got, err := store.Load(ctx, want.ID)
		require.NoError(t, err)
		AssertRecord(t, want, got)
		assert.False(t, got.HasExpiry())
	})

	t.Run("save overwrites", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		first := NewRecord(t, time.Hour)
		require.NoError(t, store.Save(ctx, first))

		second := first.Clone()
		second.Data["user"] = json.RawMessage(`"bob"`)
		second.Data["role"] = json.RawMessage(`"admin"`)
		require.NoError(t, store.Save(ctx, second))

		got, err := store.Load(ctx, first.ID)
		require.NoError(t, err)
		AssertRecord(t, second, got)
	})

	t.Run("create then collide", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		record := NewRecord(t, time.Hour)

		require.NoError(t, store.Create(ctx, record))
		err := store.Create(ctx, record)
		assert.ErrorIs(t, err, session.ErrIDCollision)

		got, err := store.Load(ctx, record.ID)
		require.NoError(t, err)
		AssertRecord(t, record, got)
	})

	t.Run("concurrent create has one winner", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		base := NewRecord(t, time.Hour)

		const writers = 8
		var (
			wg         sync.WaitGroup
			mu         sync.Mutex
			wins       int
			collisions int
		)
		for i := range writers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				r := base.Clone()
				r.Data["writer"] = json.RawMessage([]byte{'0' + byte(i)})
				err := store.Create(ctx, r)

				mu.Lock()
				defer mu.Unlock()
				switch {
				case err == nil:
					wins++
				case errors.Is(err, session.ErrIDCollision):
					collisions++
				default:
					t.Errorf("unexpected create error: %v", err)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, wins)
		assert.Equal(t, writers-1, collisions)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		record := NewRecord(t, time.Hour)
		require.NoError(t, store.Save(ctx, record))

		require.NoError(t, store.Delete(ctx, record.ID))
		require.NoError(t, store.Delete(ctx, record.ID))

		_, err := store.Load(ctx, record.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)
	})

	t.Run("delete expired keeps live records", func(t *testing.T) {
		store := newStore(t)
		ctx := context.Background()
		live := NewRecord(t, time.Hour)
		forever := NewRecord(t, 0)
		require.NoError(t, store.Save(ctx, live))
		require.NoError(t, store.Save(ctx, forever))

		require.NoError(t, store.DeleteExpired(ctx))

		_, err := store.Load(ctx, live.ID)
		assert.NoError(t, err)
		_, err = store.Load(ctx, forever.ID)
		assert.NoError(t, err)
	})

	t.Run("cancelled context", func(t *testing.T) {
		store := newStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Error(t, store.Save(ctx, NewRecord(t, time.Hour)))
	})

	t.Run("soft expiry", func(t *testing.T) {
		if testing.Short() {
			t.Skip("waits for real expiry")
		}
		store := newStore(t)
		ctx := context.Background()

		record := NewRecord(t, 0)
		record.ExpiresAt = time.Now().Add(time.Second).Truncate(time.Second).Add(time.Second)
		require.NoError(t, store.Create(ctx, record))

		_, err := store.Load(ctx, record.ID)
		require.NoError(t, err)

		time.Sleep(time.Until(record.ExpiresAt) + 100*time.Millisecond)

		_, err = store.Load(ctx, record.ID)
		assert.ErrorIs(t, err, session.ErrNotFound)

		// An expired record does not block a new one with the same identifier.
		fresh := record.Clone()
		fresh.ExpiresAt = time.Now().Add(time.Hour).Truncate(time.Second)
		require.NoError(t, store.Create(ctx, fresh))

		require.NoError(t, store.DeleteExpired(ctx))
		got, err := store.Load(ctx, fresh.ID)
		require.NoError(t, err)
		AssertRecord(t, fresh, got)
	})
}
