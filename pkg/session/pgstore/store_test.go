package pgstore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/session/pgstore"
	"github.com/dmitrymomot/sessionkit/pkg/session/sessiontest"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("PG_CONN_URL", "postgres://app:secret@db:5432/app")
	t.Setenv("PG_MAX_OPEN_CONNS", "20")

	cfg, err := pgstore.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "postgres://app:secret@db:5432/app", cfg.ConnectionString)
	assert.EqualValues(t, 20, cfg.MaxOpenConns)
	assert.EqualValues(t, 5, cfg.MaxIdleConns)
	assert.Equal(t, "session_schema_migrations", cfg.MigrationsTable)
}

func TestConnect_InvalidConnectionString(t *testing.T) {
	t.Parallel()
	_, err := pgstore.Connect(context.Background(), pgstore.Config{ConnectionString: "://"})
	assert.ErrorIs(t, err, pgstore.ErrFailedToParseDBConfig)
}

func connect(t *testing.T) *pgxpool.Pool {
	t.Helper()
	url := os.Getenv("SESSION_TEST_PG_URL")
	if url == "" {
		t.Skip("SESSION_TEST_PG_URL not set")
	}

	cfg := pgstore.Config{
		ConnectionString:  url,
		MaxOpenConns:      10,
		MaxIdleConns:      1,
		HealthCheckPeriod: time.Minute,
		MaxConnIdleTime:   time.Minute,
		MaxConnLifetime:   time.Hour,
		RetryAttempts:     1,
		MigrationsTable:   "session_schema_migrations",
	}
	ctx := context.Background()
	pool, err := pgstore.Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, pgstore.Healthcheck(pool)(ctx))
	require.NoError(t, pgstore.Migrate(ctx, pool, cfg, logger.Discard()))
	// Migrations are idempotent.
	require.NoError(t, pgstore.Migrate(ctx, pool, cfg, logger.Discard()))
	return pool
}

func TestStore_Contract(t *testing.T) {
	pool := connect(t)
	sessiontest.Run(t, func(t *testing.T) session.Store {
		return pgstore.New(pool)
	})
}

func TestStore_DeleteExpired(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()

	now := time.Now()
	clock := func() time.Time { return now }
	store := pgstore.New(pool, pgstore.WithClock(clock))

	r := sessiontest.NewRecord(t, time.Minute)
	require.NoError(t, store.Create(ctx, r))

	now = now.Add(2 * time.Minute)
	_, err := store.Load(ctx, r.ID)
	require.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, store.DeleteExpired(ctx))
	var n int
	require.NoError(t, pool.QueryRow(ctx, `SELECT count(*) FROM sessions WHERE id = $1`, r.ID.String()).Scan(&n))
	assert.Zero(t, n)
}

func TestStore_CorruptPayload(t *testing.T) {
	pool := connect(t)
	ctx := context.Background()

	id := session.MustNewID()
	_, err := pool.Exec(ctx, `INSERT INTO sessions (id, data) VALUES ($1, $2)`, id.String(), []byte("not json"))
	require.NoError(t, err)

	_, err = pgstore.New(pool).Load(ctx, id)
	assert.ErrorIs(t, err, session.ErrCorrupt)
}
