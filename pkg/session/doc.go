// Package session manages per-visitor key-value state identified by an
// opaque token.
//
// # Model
//
// A Record holds an ID (128 random bits, 22 characters on the wire), a map of
// JSON-encoded values and an optional absolute expiry. Records past their
// expiry are invisible to readers even before the Sweeper removes them.
//
// Stores implement Load, Save (last write wins), Create (atomic insert that
// reports ErrIDCollision), Delete and DeleteExpired. MemoryStore and LRUStore
// live here; Redis, PostgreSQL and MongoDB backends live in subpackages.
// CachingStore puts a fast store in front of a durable one: writes go to both
// concurrently and the durable store decides the result.
//
// # Request lifecycle
//
// A Session is a lazy handle created per request. It reads from the store on
// first data access and tracks modifications. Finalize is the only commit
// point: it creates, saves or deletes the record, or does nothing, and
// returns a FinalizeOutcome telling the transport whether to emit or clear
// the token.
//
// Manager wires a Store to a Transport (cookie, header or composite) and
// provides HTTP middleware that commits the session just before the response
// headers are written. Handlers reach the handle with FromContext.
//
// # Usage
//
//	mgr, err := session.NewFromConfig(cfg, session.WithStore(store))
//	if err != nil {
//	    return err
//	}
//
//	mux.Handle("/", mgr.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
//	    s := session.MustFromContext(r.Context())
//	    n, _ := s.GetInt(r.Context(), "visits")
//	    _ = s.Insert(r.Context(), "visits", n+1)
//	})))
//
//	go session.NewSweeper(store, cfg.SweepInterval).Run(ctx)
//
// # Errors
//
// ErrMalformedID is raised before any store call. ErrNotFound and ErrCorrupt
// both mean "no usable session" and start a fresh one. ErrUnavailable wraps
// backend failures and is surfaced from Finalize; the middleware logs it and
// leaves the response alone.
package session
