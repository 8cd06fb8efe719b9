package session

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

const invalidateTimeout = 5 * time.Second

// CachingStore layers a fast Store (cache) in front of a durable Store.
//
// Reads hit the cache first and fall back to the durable store, backfilling
// the cache on the way out. Writes go to both stores concurrently; the durable
// store decides the outcome. A cache entry that may not match what the durable
// store committed is invalidated so the next read falls through.
type CachingStore struct {
	cache  Store
	store  Store
	logger *slog.Logger
}

// CachingOption configures a CachingStore.
type CachingOption func(*CachingStore)

// WithCachingLogger sets the logger used for cache-side failures.
func WithCachingLogger(l *slog.Logger) CachingOption {
	return func(c *CachingStore) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewCachingStore composes cache (fast, best-effort) and store (system of record).
func NewCachingStore(cache, store Store, opts ...CachingOption) *CachingStore {
	c := &CachingStore{
		cache:  cache,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load returns the cached record when present, otherwise loads it from the
// durable store and backfills the cache.
func (c *CachingStore) Load(ctx context.Context, id ID) (*Record, error) {
	record, err := c.cache.Load(ctx, id)
	switch {
	case err == nil:
		return record, nil
	case errors.Is(err, ErrNotFound):
	case ctx.Err() != nil:
		return nil, ctx.Err()
	default:
		c.warn(ctx, "cache load failed, reading through", id, err)
	}

	record, err = c.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}

	// Create rather than Save: a concurrent write may already have cached newer data.
	if err := c.cache.Create(ctx, record); err != nil && !errors.Is(err, ErrIDCollision) {
		c.warn(ctx, "cache backfill failed", id, err)
	}
	return record, nil
}

// Save writes to both stores concurrently. A durable failure fails the call.
func (c *CachingStore) Save(ctx context.Context, record *Record) error {
	if record == nil {
		return ErrInvalidRecord
	}

	stored := dispatch(ctx, func(ctx context.Context) error { return c.store.Save(ctx, record) })
	cached := dispatch(ctx, func(ctx context.Context) error { return c.cache.Save(ctx, record) })
	storeErr, cacheErr := stored.await(), cached.await()

	if storeErr != nil {
		c.invalidate(ctx, record.ID)
		return storeErr
	}
	if cacheErr != nil {
		c.warn(ctx, "cache save failed", record.ID, cacheErr)
		c.invalidate(ctx, record.ID)
	}
	return nil
}

// Create inserts into both stores concurrently. Collision detection belongs
// to the durable store; the cache entry is dropped whenever it may disagree.
func (c *CachingStore) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return ErrInvalidRecord
	}

	stored := dispatch(ctx, func(ctx context.Context) error { return c.store.Create(ctx, record) })
	cached := dispatch(ctx, func(ctx context.Context) error { return c.cache.Create(ctx, record) })
	storeErr, cacheErr := stored.await(), cached.await()

	if storeErr != nil {
		// Only our own insert is removed; a cache collision means the entry belongs to someone else.
		if cacheErr == nil {
			c.invalidate(ctx, record.ID)
		}
		return storeErr
	}
	if cacheErr != nil {
		c.warn(ctx, "cache create failed", record.ID, cacheErr)
		c.invalidate(ctx, record.ID)
	}
	return nil
}

// Delete removes the record from both stores concurrently.
// Only the durable delete can fail the call.
func (c *CachingStore) Delete(ctx context.Context, id ID) error {
	stored := dispatch(ctx, func(ctx context.Context) error { return c.store.Delete(ctx, id) })
	cached := dispatch(ctx, func(ctx context.Context) error { return c.cache.Delete(ctx, id) })
	storeErr, cacheErr := stored.await(), cached.await()

	if cacheErr != nil {
		c.warn(ctx, "cache delete failed", id, cacheErr)
	}
	return storeErr
}

// DeleteExpired sweeps the durable store only; cache entries expire on their own.
func (c *CachingStore) DeleteExpired(ctx context.Context) error {
	return c.store.DeleteExpired(ctx)
}

// invalidate drops a cache entry after a failed or partial write.
// It runs even if the caller's context is already cancelled.
func (c *CachingStore) invalidate(ctx context.Context, id ID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), invalidateTimeout)
	defer cancel()

	if err := c.cache.Delete(ctx, id); err != nil {
		c.warn(ctx, "cache invalidation failed", id, err)
	}
}

func (c *CachingStore) warn(ctx context.Context, msg string, id ID, err error) {
	c.logger.WarnContext(ctx, msg,
		logger.Component("caching_store"),
		logger.SessionID(id),
		logger.Error(err),
	)
}
