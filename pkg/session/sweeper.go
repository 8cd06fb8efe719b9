package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// DefaultSweepInterval is used when a Sweeper is created with a non-positive interval.
const DefaultSweepInterval = 5 * time.Minute

// Sweeper periodically removes expired records from a store.
type Sweeper struct {
	store    Store
	interval time.Duration
	timeout  time.Duration
	logger   *slog.Logger
}

// SweeperOption configures a Sweeper.
type SweeperOption func(*Sweeper)

// WithSweeperLogger sets the logger for sweep failures.
func WithSweeperLogger(l *slog.Logger) SweeperOption {
	return func(s *Sweeper) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithSweepTimeout bounds a single DeleteExpired call. Zero means no bound.
func WithSweepTimeout(d time.Duration) SweeperOption {
	return func(s *Sweeper) {
		if d >= 0 {
			s.timeout = d
		}
	}
}

// NewSweeper creates a sweeper for store.
func NewSweeper(store Store, interval time.Duration, opts ...SweeperOption) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	s := &Sweeper{
		store:    store,
		interval: interval,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run sweeps on every tick until ctx is cancelled, then returns ctx.Err().
// A failed sweep is logged and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) error {
	if s.store == nil {
		return ErrNoStore
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "session sweeper started",
		logger.Component("sweeper"),
		slog.Duration("interval", s.interval),
	)

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "session sweeper shutting down", logger.Component("sweeper"))
			return ctx.Err()
		case <-ticker.C:
			if ctx.Err() != nil {
				continue
			}
			s.Sweep(ctx)
		}
	}
}

// Sweep runs a single DeleteExpired pass and reports whether it succeeded.
func (s *Sweeper) Sweep(ctx context.Context) bool {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	if err := s.store.DeleteExpired(ctx); err != nil {
		s.logger.ErrorContext(ctx, "failed to delete expired sessions",
			logger.Component("sweeper"),
			logger.Error(err),
		)
		return false
	}

	s.logger.DebugContext(ctx, "expired sessions deleted",
		logger.Component("sweeper"),
		logger.Duration(time.Since(start)),
	)
	return true
}

// RunSweeper is shorthand for NewSweeper(store, interval).Run(ctx).
func RunSweeper(ctx context.Context, store Store, interval time.Duration) error {
	return NewSweeper(store, interval).Run(ctx)
}
