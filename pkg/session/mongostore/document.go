package mongostore

import (
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

// document is the stored shape of a session record. Data keeps the exact
// JSON bytes; a missing expireAt means the record never expires and is
// ignored by the TTL index.
type document struct {
	ID       string     `bson:"_id"`
	Data     []byte     `bson:"data"`
	ExpireAt *time.Time `bson:"expireAt,omitempty"`
}

func toDocument(r *session.Record) (document, error) {
	data, err := r.EncodeData()
	if err != nil {
		return document{}, err
	}
	doc := document{ID: r.ID.String(), Data: data}
	if r.HasExpiry() {
		t := r.ExpiresAt.UTC()
		doc.ExpireAt = &t
	}
	return doc, nil
}

func (d document) record() (*session.Record, error) {
	id, err := session.ParseID(d.ID)
	if err != nil {
		return nil, session.Corrupt(err)
	}
	data, err := session.DecodeData(d.Data)
	if err != nil {
		return nil, err
	}
	r := session.NewRecord(id, time.Time{})
	r.Data = data
	if d.ExpireAt != nil {
		r.ExpiresAt = *d.ExpireAt
	}
	return r, nil
}
