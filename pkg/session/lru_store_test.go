package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/session/sessiontest"
)

func TestLRUStore_Contract(t *testing.T) {
	sessiontest.Run(t, func(t *testing.T) session.Store {
		return session.NewLRUStore(128)
	})
}

func TestLRUStore_EvictsLeastRecentlyUsed(t *testing.T) {
	t.Parallel()
	store := session.NewLRUStore(2)
	ctx := context.Background()

	a := session.NewRecord(session.MustNewID(), time.Time{})
	b := session.NewRecord(session.MustNewID(), time.Time{})
	c := session.NewRecord(session.MustNewID(), time.Time{})

	require.NoError(t, store.Save(ctx, a))
	require.NoError(t, store.Save(ctx, b))

	// Touch a so b becomes the eviction candidate.
	_, err := store.Load(ctx, a.ID)
	require.NoError(t, err)

	require.NoError(t, store.Save(ctx, c))
	assert.Equal(t, 2, store.Len())

	_, err = store.Load(ctx, b.ID)
	assert.ErrorIs(t, err, session.ErrNotFound)
	_, err = store.Load(ctx, a.ID)
	assert.NoError(t, err)
	_, err = store.Load(ctx, c.ID)
	assert.NoError(t, err)
}

func TestLRUStore_ExpiredEntriesDropped(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	store := session.NewLRUStore(10, session.WithLRUClock(clock.Now))
	ctx := context.Background()

	short := session.NewRecord(session.MustNewID(), clock.Now().Add(time.Second))
	long := session.NewRecord(session.MustNewID(), clock.Now().Add(time.Hour))
	require.NoError(t, store.Save(ctx, short))
	require.NoError(t, store.Save(ctx, long))

	clock.Advance(2 * time.Second)

	require.NoError(t, store.DeleteExpired(ctx))
	assert.Equal(t, 1, store.Len())

	_, err := store.Load(ctx, long.ID)
	assert.NoError(t, err)
}

func TestLRUStore_CreateCollidesOnlyWithLive(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	store := session.NewLRUStore(10, session.WithLRUClock(clock.Now))
	ctx := context.Background()

	id := session.MustNewID()
	require.NoError(t, store.Create(ctx, session.NewRecord(id, clock.Now().Add(time.Second))))
	assert.ErrorIs(t, store.Create(ctx, session.NewRecord(id, time.Time{})), session.ErrIDCollision)

	clock.Advance(time.Second)
	assert.NoError(t, store.Create(ctx, session.NewRecord(id, time.Time{})))
}

func TestNewLRUStore_PanicsOnZeroCapacity(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { session.NewLRUStore(0) })
}
