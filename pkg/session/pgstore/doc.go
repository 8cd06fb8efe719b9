// Package pgstore implements session.Store on PostgreSQL using pgx v5.
//
// Records live in a "sessions" table (id TEXT, data BYTEA, expires_at
// TIMESTAMPTZ) created by Migrate from embedded goose migrations. Data is
// kept as the exact JSON bytes the session wrote. Create is a single
// INSERT ... ON CONFLICT statement that only replaces an expired row, so the
// existence check and the write are atomic.
//
//	cfg, err := pgstore.LoadConfig()
//	if err != nil {
//		return err
//	}
//	pool, err := pgstore.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	if err := pgstore.Migrate(ctx, pool, cfg, log); err != nil {
//		return err
//	}
//	store := pgstore.New(pool)
package pgstore
