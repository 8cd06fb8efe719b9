package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
)

const (
	idSize = 16

	// EncodedIDLength is the length of an identifier in its textual form.
	EncodedIDLength = 22
)

// ID is an opaque 128-bit session identifier.
type ID [idSize]byte

// NewID draws a fresh identifier from the cryptographically secure random source.
func NewID() (ID, error) {
	var id ID
	if _, err := rand.Read(id[:]); err != nil {
		return ID{}, errors.Join(ErrIDGeneration, err)
	}
	return id, nil
}

// MustNewID is like NewID but panics if the random source fails.
func MustNewID() ID {
	id, err := NewID()
	if err != nil {
		panic(err)
	}
	return id
}

// ParseID decodes the textual form produced by ID.String.
// It validates length and alphabet before decoding so malformed tokens never reach a store.
func ParseID(s string) (ID, error) {
	if len(s) != EncodedIDLength {
		return ID{}, ErrMalformedID
	}
	for i := 0; i < len(s); i++ {
		if !isURLSafe(s[i]) {
			return ID{}, ErrMalformedID
		}
	}

	var id ID
	n, err := base64.RawURLEncoding.Strict().Decode(id[:], []byte(s))
	if err != nil || n != idSize {
		return ID{}, ErrMalformedID
	}
	return id, nil
}

// String returns the fixed-length base64url form without padding.
func (id ID) String() string {
	return base64.RawURLEncoding.EncodeToString(id[:])
}

// IsZero reports whether id is the zero value.
func (id ID) IsZero() bool {
	return id == ID{}
}

// MarshalText implements encoding.TextMarshaler.
func (id ID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ID) UnmarshalText(b []byte) error {
	parsed, err := ParseID(string(b))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func isURLSafe(c byte) bool {
	return c >= 'A' && c <= 'Z' ||
		c >= 'a' && c <= 'z' ||
		c >= '0' && c <= '9' ||
		c == '-' || c == '_'
}
