package mongostore_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/dmitrymomot/sessionkit/pkg/session"
	"github.com/dmitrymomot/sessionkit/pkg/session/mongostore"
	"github.com/dmitrymomot/sessionkit/pkg/session/sessiontest"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("MONGODB_URL", "mongodb://mongo:27017")

	cfg, err := mongostore.LoadConfig()
	require.NoError(t, err)
	assert.Equal(t, "mongodb://mongo:27017", cfg.ConnectionURL)
	assert.Equal(t, "app", cfg.Database)
	assert.Equal(t, "sessions", cfg.Collection)
	assert.EqualValues(t, 100, cfg.MaxPoolSize)
	assert.True(t, cfg.RetryWrites)
}

func database(t *testing.T) *mongo.Database {
	t.Helper()
	url := os.Getenv("SESSION_TEST_MONGODB_URL")
	if url == "" {
		t.Skip("SESSION_TEST_MONGODB_URL not set")
	}

	ctx := context.Background()
	client, err := mongostore.Connect(ctx, mongostore.Config{
		ConnectionURL:  url,
		ConnectTimeout: 5 * time.Second,
		MaxPoolSize:    10,
		RetryAttempts:  1,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })
	require.NoError(t, mongostore.Healthcheck(client)(ctx))

	db := client.Database("sessiontest_" + session.MustNewID().String()[:8])
	t.Cleanup(func() { _ = db.Drop(context.Background()) })
	return db
}

func TestStore_Contract(t *testing.T) {
	db := database(t)
	sessiontest.Run(t, func(t *testing.T) session.Store {
		store := mongostore.New(db.Collection("sessions_" + session.MustNewID().String()[:8]))
		require.NoError(t, store.EnsureIndexes(context.Background()))
		return store
	})
}

func TestStore_ExpiredDocumentIsInvisibleAndSwept(t *testing.T) {
	db := database(t)
	ctx := context.Background()

	now := time.Now()
	store := mongostore.New(db.Collection("expiry"), mongostore.WithClock(func() time.Time { return now }))
	require.NoError(t, store.EnsureIndexes(ctx))
	// Idempotent.
	require.NoError(t, store.EnsureIndexes(ctx))

	r := sessiontest.NewRecord(t, time.Minute)
	require.NoError(t, store.Create(ctx, r))

	now = now.Add(2 * time.Minute)
	_, err := store.Load(ctx, r.ID)
	require.ErrorIs(t, err, session.ErrNotFound)

	require.NoError(t, store.DeleteExpired(ctx))
	n, err := db.Collection("expiry").CountDocuments(ctx, map[string]any{"_id": r.ID.String()})
	require.NoError(t, err)
	assert.Zero(t, n)
}
