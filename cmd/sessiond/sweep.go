package main

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// runSweeper removes expired sessions until ctx is cancelled.
// A non-positive interval disables sweeping and returns immediately.
func runSweeper(ctx context.Context, store session.Store, interval time.Duration, log *slog.Logger) error {
	if interval <= 0 {
		log.InfoContext(ctx, "session sweeper disabled", logger.Component("sweeper"))
		return nil
	}

	sweeper := session.NewSweeper(store, interval, session.WithSweeperLogger(log))
	if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
