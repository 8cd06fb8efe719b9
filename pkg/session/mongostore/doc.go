// Package mongostore implements session.Store on MongoDB using the v2 driver.
//
// Each session is one document {_id, data, expireAt}. EnsureIndexes adds a
// TTL index on expireAt so the server drops expired sessions by itself;
// DeleteExpired is still available for immediate cleanup. Load filters on
// expireAt, so expired documents are never returned even before the TTL
// monitor removes them.
//
//	client, err := mongostore.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := mongostore.New(client.Database(cfg.Database).Collection(cfg.Collection))
//	if err := store.EnsureIndexes(ctx); err != nil {
//		return err
//	}
package mongostore
