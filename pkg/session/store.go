package session

import (
	"context"
)

// Store defines the interface for session persistence.
// Implementations must be safe for concurrent use, and must serialize
// concurrent operations on the same identifier.
type Store interface {
	// Load returns the live record for id.
	// It returns ErrNotFound if the record is absent or its expiry has passed,
	// and ErrCorrupt if the stored payload cannot be decoded.
	Load(ctx context.Context, id ID) (*Record, error)

	// Save upserts the record, overwriting any existing one (last write wins).
	Save(ctx context.Context, record *Record) error

	// Create inserts the record only if no live record with its identifier exists.
	// It returns ErrIDCollision otherwise. The check and the insert are atomic.
	Create(ctx context.Context, record *Record) error

	// Delete removes the record. Deleting an absent record is not an error.
	Delete(ctx context.Context, id ID) error

	// DeleteExpired removes every record whose expiry has passed.
	DeleteExpired(ctx context.Context) error
}
