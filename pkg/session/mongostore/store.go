package mongostore

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

const ttlIndexName = "session_expire_at_ttl"

// Store implements session.Store on a MongoDB collection.
type Store struct {
	coll *mongo.Collection
	now  session.Clock
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the time source used for expiry comparisons.
func WithClock(clock session.Clock) Option {
	return func(s *Store) {
		if clock != nil {
			s.now = clock
		}
	}
}

// New creates a Store on coll. Call EnsureIndexes once at startup.
func New(coll *mongo.Collection, opts ...Option) *Store {
	s := &Store{coll: coll, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureIndexes creates the TTL index that lets the server purge expired
// sessions on its own schedule.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "expireAt", Value: 1}},
		Options: options.Index().SetName(ttlIndexName).SetExpireAfterSeconds(0),
	})
	if err != nil {
		return errors.Join(ErrFailedToCreateIndexes, err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context, id session.ID) (*session.Record, error) {
	filter := bson.D{
		{Key: "_id", Value: id.String()},
		{Key: "$or", Value: bson.A{
			bson.D{{Key: "expireAt", Value: nil}},
			bson.D{{Key: "expireAt", Value: bson.D{{Key: "$gt", Value: s.now()}}}},
		}},
	}

	var doc document
	err := s.coll.FindOne(ctx, filter).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, session.ErrNotFound
	}
	if err != nil {
		return nil, session.Unavailable(err)
	}
	return doc.record()
}

func (s *Store) Save(ctx context.Context, r *session.Record) error {
	if r == nil {
		return session.ErrInvalidRecord
	}
	doc, err := toDocument(r)
	if err != nil {
		return err
	}

	_, err = s.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return session.Unavailable(err)
	}
	return nil
}

// Create upserts with a filter that only matches an expired document. A live
// document makes the upsert attempt an insert that fails on the _id index,
// so the check and the write happen in one server-side operation.
func (s *Store) Create(ctx context.Context, r *session.Record) error {
	if r == nil {
		return session.ErrInvalidRecord
	}
	doc, err := toDocument(r)
	if err != nil {
		return err
	}

	filter := bson.D{
		{Key: "_id", Value: doc.ID},
		{Key: "expireAt", Value: bson.D{{Key: "$lte", Value: s.now()}}},
	}
	_, err = s.coll.ReplaceOne(ctx, filter, doc, options.Replace().SetUpsert(true))
	if mongo.IsDuplicateKeyError(err) {
		return session.ErrIDCollision
	}
	if err != nil {
		return session.Unavailable(err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, id session.ID) error {
	if _, err := s.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: id.String()}}); err != nil {
		return session.Unavailable(err)
	}
	return nil
}

// DeleteExpired removes expired documents immediately; the TTL monitor only
// runs about once a minute.
func (s *Store) DeleteExpired(ctx context.Context) error {
	filter := bson.D{{Key: "expireAt", Value: bson.D{{Key: "$lte", Value: s.now()}}}}
	if _, err := s.coll.DeleteMany(ctx, filter); err != nil {
		return session.Unavailable(err)
	}
	return nil
}

var _ session.Store = (*Store)(nil)
