// Package redisstore implements session.Store on Redis using go-redis v9.
//
// Records are stored as JSON under "<prefix><id>" with a native TTL derived
// from the record expiry, so DeleteExpired has nothing to do. Create uses
// SET NX, which is atomic on the server; Save is a plain SET.
//
//	cfg, err := redisstore.LoadConfig()
//	if err != nil {
//		return err
//	}
//	client, err := redisstore.Connect(ctx, cfg)
//	if err != nil {
//		return err
//	}
//	store := redisstore.New(client, redisstore.WithKeyPrefix(cfg.KeyPrefix))
//
// Driver failures are reported as session.ErrUnavailable and undecodable
// payloads as session.ErrCorrupt.
package redisstore
