// Command sessiond serves a small HTTP API backed by the session engine.
//
// Configuration comes from the environment (and an optional .env file):
// SESSION_BACKEND picks memory, redis, postgres or mongo; SESSION_* tune the
// session manager; REDIS_*, PG_* and MONGODB_* configure the chosen backend.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		slog.Error("sessiond exited", logger.Error(err))
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := loadAppConfig()
	if err != nil {
		return err
	}
	sessionCfg, err := session.LoadConfig()
	if err != nil {
		return err
	}

	log := logger.New(
		logger.WithFormat(logger.Format(cfg.LogFormat)),
		logger.WithLevelName(cfg.LogLevel),
		logger.WithService("sessiond"),
		logger.WithContextExtractors(requestIDExtractor),
	)
	logger.SetAsDefault(log)

	b, err := openBackend(ctx, cfg.Backend, log)
	if err != nil {
		return err
	}
	defer b.close()

	store := withCache(b.store, sessionCfg.CacheCapacity, log)
	mgr, err := session.NewFromConfig(sessionCfg,
		session.WithStore(store),
		session.WithLogger(log),
	)
	if err != nil {
		return err
	}

	log.InfoContext(ctx, "sessiond starting",
		logger.Store(b.name),
		slog.Int("cache_capacity", sessionCfg.CacheCapacity),
		slog.String("expiry_mode", sessionCfg.ExpiryMode),
	)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return runServer(ctx, cfg.HTTP, newRouter(mgr, b.ready, log), log)
	})
	g.Go(func() error {
		return runSweeper(ctx, store, sessionCfg.SweepInterval, log)
	})
	return g.Wait()
}
