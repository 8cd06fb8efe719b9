package session_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func TestSweeper_SweepRemovesExpired(t *testing.T) {
	t.Parallel()
	clock := newFakeClock()
	mem := session.NewMemoryStore(session.WithMemoryClock(clock.Now))
	ctx := context.Background()

	require.NoError(t, mem.Save(ctx, session.NewRecord(session.MustNewID(), clock.Now().Add(time.Second))))
	require.NoError(t, mem.Save(ctx, session.NewRecord(session.MustNewID(), time.Time{})))
	clock.Advance(time.Minute)

	sw := session.NewSweeper(mem, time.Hour, session.WithSweeperLogger(logger.Discard()))
	assert.True(t, sw.Sweep(ctx))
	assert.Equal(t, 1, mem.Len())
}

func TestSweeper_RunSurvivesFailuresAndStopsOnCancel(t *testing.T) {
	t.Parallel()
	store := newFaultStore(session.NewMemoryStore())
	store.fail("delete_expired", session.Unavailable(errBackendDown))

	sw := session.NewSweeper(store, 5*time.Millisecond,
		session.WithSweeperLogger(logger.Discard()),
		session.WithSweepTimeout(time.Second),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- sw.Run(ctx) }()

	require.Eventually(t, func() bool { return store.count("delete_expired") >= 3 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("sweeper did not stop after cancellation")
	}
}

func TestSweeper_NilStore(t *testing.T) {
	t.Parallel()
	err := session.NewSweeper(nil, time.Second).Run(context.Background())
	assert.ErrorIs(t, err, session.ErrNoStore)
}

// cancellingStore cancels the sweeper's context from inside a slow sweep so
// the next tick is already pending when Run observes the cancellation.
type cancellingStore struct {
	session.Store
	cancel context.CancelFunc
	sweeps atomic.Int32
}

func (s *cancellingStore) DeleteExpired(ctx context.Context) error {
	s.sweeps.Add(1)
	time.Sleep(20 * time.Millisecond)
	s.cancel()
	return nil
}

func TestSweeper_NoSweepAfterCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	store := &cancellingStore{Store: session.NewMemoryStore(), cancel: cancel}

	sw := session.NewSweeper(store, time.Millisecond, session.WithSweeperLogger(logger.Discard()))
	err := sw.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), store.sweeps.Load())
}
