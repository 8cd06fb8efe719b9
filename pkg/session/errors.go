package session

import "errors"

var (
	// ErrMalformedID indicates an inbound token is not a valid session identifier
	ErrMalformedID = errors.New("session.malformed_id")

	// ErrNotFound indicates no live record exists for the identifier
	ErrNotFound = errors.New("session.not_found")

	// ErrCorrupt indicates a stored payload could not be decoded
	ErrCorrupt = errors.New("session.corrupt")

	// ErrUnavailable indicates the backend could not be reached or failed the operation
	ErrUnavailable = errors.New("session.unavailable")

	// ErrIDCollision indicates a live record with the same identifier already exists
	ErrIDCollision = errors.New("session.id_collision")

	// ErrCollisionRetriesExhausted indicates every generated identifier collided
	ErrCollisionRetriesExhausted = errors.New("session.collision_retries_exhausted")

	// ErrInvalidRecord indicates a nil record was passed to a store
	ErrInvalidRecord = errors.New("session.invalid_record")

	// ErrFinalized indicates the session handle was already finalized
	ErrFinalized = errors.New("session.finalized")

	// ErrIDGeneration indicates the secure random source failed
	ErrIDGeneration = errors.New("session.id_generation_failed")

	// ErrNoTransport indicates no transport is configured
	ErrNoTransport = errors.New("session.no_transport")

	// ErrNoStore indicates no store is configured
	ErrNoStore = errors.New("session.no_store")

	// ErrNoToken indicates the request carried no session token
	ErrNoToken = errors.New("session.no_token")
)

// Unavailable wraps a backend error so callers can match it with ErrUnavailable.
func Unavailable(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrUnavailable, err)
}

// Corrupt wraps a decode error so callers can match it with ErrCorrupt.
func Corrupt(err error) error {
	if err == nil {
		return nil
	}
	return errors.Join(ErrCorrupt, err)
}

// IsAbsent reports whether err means "no usable record": missing, expired or undecodable.
func IsAbsent(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrCorrupt)
}
