package session

import (
	"bytes"
	"encoding/json"
	"maps"
	"time"
)

// Record is the persisted unit of session state.
type Record struct {
	ID   ID                         `json:"id"`
	Data map[string]json.RawMessage `json:"data,omitempty"`
	// ExpiresAt is the absolute expiry; the zero value means the record never expires.
	ExpiresAt time.Time `json:"expires_at,omitzero"`
}

// NewRecord creates an empty record with the given identifier and expiry.
func NewRecord(id ID, expiresAt time.Time) *Record {
	return &Record{
		ID:        id,
		Data:      make(map[string]json.RawMessage),
		ExpiresAt: expiresAt,
	}
}

// IsActive reports whether the record is still readable at now.
func (r *Record) IsActive(now time.Time) bool {
	if r == nil {
		return false
	}
	return r.ExpiresAt.IsZero() || r.ExpiresAt.After(now)
}

// HasExpiry reports whether the record carries an absolute expiry.
func (r *Record) HasExpiry() bool {
	return r != nil && !r.ExpiresAt.IsZero()
}

// Clone returns a deep copy so stores never share mutable state with callers.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	c := &Record{
		ID:        r.ID,
		ExpiresAt: r.ExpiresAt,
		Data:      make(map[string]json.RawMessage, len(r.Data)),
	}
	for k, v := range r.Data {
		c.Data[k] = bytes.Clone(v)
	}
	return c
}

// Equal reports whether two records hold the same identifier, data and expiry.
func (r *Record) Equal(other *Record) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.ID != other.ID || !r.ExpiresAt.Equal(other.ExpiresAt) {
		return false
	}
	return maps.EqualFunc(r.Data, other.Data, func(a, b json.RawMessage) bool {
		return bytes.Equal(a, b)
	})
}

// EncodeData serializes the key-value payload for backends that store it as a blob.
func (r *Record) EncodeData() ([]byte, error) {
	if len(r.Data) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(r.Data)
}

// DecodeData parses a payload produced by EncodeData.
// Failures are reported as ErrCorrupt.
func DecodeData(b []byte) (map[string]json.RawMessage, error) {
	data := make(map[string]json.RawMessage)
	if len(b) == 0 {
		return data, nil
	}
	if err := json.Unmarshal(b, &data); err != nil {
		return nil, Corrupt(err)
	}
	return data, nil
}

// EncodeRecord serializes the whole record for key-value backends.
func EncodeRecord(r *Record) ([]byte, error) {
	return json.Marshal(r)
}

// DecodeRecord parses a record produced by EncodeRecord.
// Failures are reported as ErrCorrupt.
func DecodeRecord(b []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(b, &r); err != nil {
		return nil, Corrupt(err)
	}
	if r.Data == nil {
		r.Data = make(map[string]json.RawMessage)
	}
	return &r, nil
}
