package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/session/mongostore"
	"github.com/dmitrymomot/sessionkit/pkg/session/pgstore"
	"github.com/dmitrymomot/sessionkit/pkg/session/redisstore"
)

// backend is an opened durable store with its readiness probe.
type backend struct {
	name  string
	store session.Store
	ready func(context.Context) error
	close func()
}

// openBackend connects the store named by kind, running migrations or index
// creation where the backend needs them.
func openBackend(ctx context.Context, kind string, log *slog.Logger) (*backend, error) {
	log = log.With(logger.Store(kind))

	switch kind {
	case BackendMemory:
		return &backend{
			name:  kind,
			store: session.NewMemoryStore(),
			ready: func(context.Context) error { return nil },
			close: func() {},
		}, nil

	case BackendRedis:
		cfg, err := redisstore.LoadConfig()
		if err != nil {
			return nil, err
		}
		client, err := redisstore.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "connected to redis")
		return &backend{
			name:  kind,
			store: redisstore.New(client, redisstore.WithKeyPrefix(cfg.KeyPrefix)),
			ready: redisstore.Healthcheck(client),
			close: func() { _ = client.Close() },
		}, nil

	case BackendPostgres:
		cfg, err := pgstore.LoadConfig()
		if err != nil {
			return nil, err
		}
		pool, err := pgstore.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
			pool.Close()
			return nil, err
		}
		log.InfoContext(ctx, "connected to postgres")
		return &backend{
			name:  kind,
			store: pgstore.New(pool),
			ready: pgstore.Healthcheck(pool),
			close: pool.Close,
		}, nil

	case BackendMongo:
		cfg, err := mongostore.LoadConfig()
		if err != nil {
			return nil, err
		}
		client, err := mongostore.Connect(ctx, cfg)
		if err != nil {
			return nil, err
		}
		store := mongostore.New(client.Database(cfg.Database).Collection(cfg.Collection))
		if err := store.EnsureIndexes(ctx); err != nil {
			_ = client.Disconnect(context.WithoutCancel(ctx))
			return nil, err
		}
		log.InfoContext(ctx, "connected to mongo")
		return &backend{
			name:  kind,
			store: store,
			ready: mongostore.Healthcheck(client),
			close: func() { _ = client.Disconnect(context.Background()) },
		}, nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, kind)
}

// withCache fronts store with a bounded in-process LRU when capacity is positive.
func withCache(store session.Store, capacity int, log *slog.Logger) session.Store {
	if capacity <= 0 {
		return store
	}
	return session.NewCachingStore(session.NewLRUStore(capacity), store, session.WithCachingLogger(log))
}
