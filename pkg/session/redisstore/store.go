package redisstore

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// DefaultKeyPrefix namespaces session keys when no prefix is configured.
const DefaultKeyPrefix = "session:"

// Store implements session.Store on Redis. Each record is one string key
// holding the JSON-encoded record, with a native TTL matching its expiry.
type Store struct {
	client redis.UniversalClient
	prefix string
	now    session.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithKeyPrefix overrides DefaultKeyPrefix.
func WithKeyPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// WithClock overrides the time source used to compute TTLs and soft expiry.
func WithClock(clock session.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// New creates a Store on top of an existing client.
func New(client redis.UniversalClient, opts ...Option) *Store {
	s := &Store{
		client: client,
		prefix: DefaultKeyPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Key returns the Redis key that holds the record for id.
func (s *Store) Key(id session.ID) string {
	return s.prefix + id.String()
}

func (s *Store) Load(ctx context.Context, id session.ID) (*session.Record, error) {
	b, err := s.client.Get(ctx, s.Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, session.Unavailable(err)
	}

	r, err := session.DecodeRecord(b)
	if err != nil {
		return nil, err
	}
	// The key TTL may lag the record expiry slightly.
	if !r.IsActive(s.now()) {
		return nil, session.ErrNotFound
	}
	return r, nil
}

func (s *Store) Save(ctx context.Context, r *session.Record) error {
	if r == nil {
		return session.ErrInvalidRecord
	}

	ttl, live := s.ttl(r)
	if !live {
		return s.Delete(ctx, r.ID)
	}

	b, err := session.EncodeRecord(r)
	if err != nil {
		return err
	}
	// A zero TTL clears any previous expiry on the key.
	if err := s.client.Set(ctx, s.Key(r.ID), b, ttl).Err(); err != nil {
		return session.Unavailable(err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, r *session.Record) error {
	if r == nil {
		return session.ErrInvalidRecord
	}

	ttl, live := s.ttl(r)
	if !live {
		// Nothing a reader could ever see.
		return nil
	}

	b, err := session.EncodeRecord(r)
	if err != nil {
		return err
	}
	ok, err := s.client.SetNX(ctx, s.Key(r.ID), b, ttl).Result()
	if err != nil {
		return session.Unavailable(err)
	}
	if !ok {
		return session.ErrIDCollision
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id session.ID) error {
	if err := s.client.Del(ctx, s.Key(id)).Err(); err != nil {
		return session.Unavailable(err)
	}
	return nil
}

// DeleteExpired is a no-op: Redis evicts keys when their TTL elapses.
func (s *Store) DeleteExpired(ctx context.Context) error {
	return ctx.Err()
}

// ttl converts the record expiry into a key TTL. A zero TTL means no expiry;
// live is false when the record has already expired.
func (s *Store) ttl(r *session.Record) (ttl time.Duration, live bool) {
	if !r.HasExpiry() {
		return 0, true
	}
	ttl = r.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return 0, false
	}
	// Redis rounds sub-millisecond TTLs down to zero, which it rejects.
	return max(ttl, time.Millisecond), true
}

var _ session.Store = (*Store)(nil)
