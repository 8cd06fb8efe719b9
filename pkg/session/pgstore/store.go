package pgstore

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

const (
	loadQuery = `SELECT data, expires_at FROM sessions
WHERE id = $1 AND (expires_at IS NULL OR expires_at > $2)`

	saveQuery = `INSERT INTO sessions (id, data, expires_at) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at`

	// An expired row does not block a new record with the same id.
	createQuery = `INSERT INTO sessions (id, data, expires_at) VALUES ($1, $2, $3)
ON CONFLICT (id) DO UPDATE SET data = EXCLUDED.data, expires_at = EXCLUDED.expires_at
WHERE sessions.expires_at IS NOT NULL AND sessions.expires_at <= $4`

	deleteQuery        = `DELETE FROM sessions WHERE id = $1`
	deleteExpiredQuery = `DELETE FROM sessions WHERE expires_at IS NOT NULL AND expires_at <= $1`
)

// DB is the subset of pgxpool.Pool the store needs. *pgxpool.Pool, *pgx.Conn
// and pgx.Tx all satisfy it.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements session.Store on a PostgreSQL "sessions" table.
type Store struct {
	db  DB
	now session.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry comparisons.
func WithClock(clock session.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// New creates a Store. Run Migrate first.
func New(db DB, opts ...Option) *Store {
	s := &Store{db: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Load(ctx context.Context, id session.ID) (*session.Record, error) {
	var (
		data      []byte
		expiresAt *time.Time
	)
	err := s.db.QueryRow(ctx, loadQuery, id.String(), s.now()).Scan(&data, &expiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, session.Unavailable(err)
	}

	decoded, err := session.DecodeData(data)
	if err != nil {
		return nil, err
	}
	r := session.NewRecord(id, time.Time{})
	r.Data = decoded
	if expiresAt != nil {
		r.ExpiresAt = *expiresAt
	}
	return r, nil
}

func (s *Store) Save(ctx context.Context, r *session.Record) error {
	if r == nil {
		return session.ErrInvalidRecord
	}
	data, err := r.EncodeData()
	if err != nil {
		return err
	}
	if _, err := s.db.Exec(ctx, saveQuery, r.ID.String(), data, expiryParam(r)); err != nil {
		return session.Unavailable(err)
	}
	return nil
}

func (s *Store) Create(ctx context.Context, r *session.Record) error {
	if r == nil {
		return session.ErrInvalidRecord
	}
	data, err := r.EncodeData()
	if err != nil {
		return err
	}
	tag, err := s.db.Exec(ctx, createQuery, r.ID.String(), data, expiryParam(r), s.now())
	if err != nil {
		return session.Unavailable(err)
	}
	if tag.RowsAffected() == 0 {
		return session.ErrIDCollision
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id session.ID) error {
	if _, err := s.db.Exec(ctx, deleteQuery, id.String()); err != nil {
		return session.Unavailable(err)
	}
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, deleteExpiredQuery, s.now()); err != nil {
		return session.Unavailable(err)
	}
	return nil
}

func expiryParam(r *session.Record) *time.Time {
	if !r.HasExpiry() {
		return nil
	}
	return &r.ExpiresAt
}

var _ session.Store = (*Store)(nil)
