package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/logger"
)

// DefaultMaxCreateAttempts bounds identifier regeneration on collision.
const DefaultMaxCreateAttempts = 3

// OutcomeKind describes what Finalize did with the session.
type OutcomeKind uint8

const (
	// Unchanged means no store write happened and no token should be emitted.
	Unchanged OutcomeKind = iota
	// Persisted means the record was created or saved; the token should be (re)emitted.
	Persisted
	// Deleted means the record was removed; the token should be cleared.
	Deleted
)

func (k OutcomeKind) String() string {
	switch k {
	case Unchanged:
		return "unchanged"
	case Persisted:
		return "persisted"
	case Deleted:
		return "deleted"
	default:
		return fmt.Sprintf("OutcomeKind(%d)", k)
	}
}

// FinalizeOutcome is the result handed to the transport layer.
// ID and Expiry are set only for Persisted.
type FinalizeOutcome struct {
	Kind   OutcomeKind
	ID     ID
	Expiry ExpiryDescriptor
}

type handleState uint8

const (
	stateUnresolved handleState = iota
	stateLoaded
	stateFinalized
)

// SessionOption configures a Session handle.
type SessionOption func(*Session)

// WithExpiry sets the expiry policy for the handle. Default: Never.
func WithExpiry(e Expiry) SessionOption {
	return func(s *Session) {
		s.expiry = e
	}
}

// WithClock overrides the time source.
func WithClock(c Clock) SessionOption {
	return func(s *Session) {
		if c != nil {
			s.clock = c
		}
	}
}

// WithIDGenerator overrides the identifier source.
func WithIDGenerator(fn func() (ID, error)) SessionOption {
	return func(s *Session) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithMaxCreateAttempts bounds how many identifiers Finalize tries before giving up.
func WithMaxCreateAttempts(n int) SessionOption {
	return func(s *Session) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithTouchInterval skips sliding-expiry refreshes that would move the expiry
// forward by less than d.
func WithTouchInterval(d time.Duration) SessionOption {
	return func(s *Session) {
		if d >= 0 {
			s.touchInterval = d
		}
	}
}

// WithSessionLogger sets the logger for collision retries and corrupt payloads.
func WithSessionLogger(l *slog.Logger) SessionOption {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// Session is the per-request handle to session state.
//
// Nothing is read from the store until the first data access. Mutations are
// tracked so Finalize can decide between create, save, delete, or nothing.
// All methods are safe for concurrent use, but the handle belongs to a single
// request and must not outlive it.
type Session struct {
	mu sync.Mutex

	store         Store
	inbound       *ID
	expiry        Expiry
	clock         Clock
	newID         func() (ID, error)
	maxAttempts   int
	touchInterval time.Duration
	logger        *slog.Logger

	state    handleState
	record   *Record
	exists   bool // record is known to be in the store under record.ID
	modified bool
	touched  bool // sliding expiry advanced on load
	deleted  bool
	cycled   *ID // persisted identifier replaced by CycleID
}

// NewSession creates an unresolved handle. A nil inbound means the request
// carried no token.
func NewSession(store Store, inbound *ID, opts ...SessionOption) *Session {
	s := &Session{
		store:       store,
		expiry:      Never(),
		clock:       systemClock,
		newID:       NewID,
		maxAttempts: DefaultMaxCreateAttempts,
		logger:      slog.Default(),
	}
	if inbound != nil {
		id := *inbound
		s.inbound = &id
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// resolve performs the lazy load. Callers hold s.mu.
func (s *Session) resolve(ctx context.Context) error {
	switch s.state {
	case stateFinalized:
		return ErrFinalized
	case stateLoaded:
		return nil
	}

	now := s.clock()

	if s.inbound != nil {
		record, err := s.store.Load(ctx, *s.inbound)
		switch {
		case err == nil:
			if record.Data == nil {
				record.Data = make(map[string]json.RawMessage)
			}
			s.record = record
			s.exists = true
			s.state = stateLoaded
			s.touch(now)
			return nil
		case errors.Is(err, ErrCorrupt):
			s.logger.WarnContext(ctx, "discarding undecodable session",
				logger.Component("session"),
				logger.SessionID(*s.inbound),
				logger.Error(err),
			)
		case !errors.Is(err, ErrNotFound):
			return err
		}
	}

	id, err := s.newID()
	if err != nil {
		return err
	}
	s.record = NewRecord(id, s.expiry.ExpiresAt(now))
	s.exists = false
	s.state = stateLoaded
	return nil
}

// touch advances a sliding expiry after a successful load.
func (s *Session) touch(now time.Time) {
	if !s.expiry.IsSliding() {
		return
	}
	next := s.expiry.ExpiresAt(now)
	if !next.After(s.record.ExpiresAt) || next.Sub(s.record.ExpiresAt) < s.touchInterval {
		return
	}
	s.record.ExpiresAt = next
	s.touched = true
}

// Get decodes the value stored under key into dst.
// It reports false when the key is absent. A decode error concerns only this key.
func (s *Session) Get(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := s.GetValue(ctx, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("session: decode %q: %w", key, err)
	}
	return true, nil
}

// GetValue returns the raw encoded value stored under key.
func (s *Session) GetValue(ctx context.Context, key string) (json.RawMessage, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolve(ctx); err != nil {
		return nil, false, err
	}
	raw, ok := s.record.Data[key]
	if !ok {
		return nil, false, nil
	}
	return bytes.Clone(raw), true, nil
}

// GetString returns the string under key. Missing keys, type mismatches and
// load errors all report false.
func (s *Session) GetString(ctx context.Context, key string) (string, bool) {
	var v string
	ok, err := s.Get(ctx, key, &v)
	return v, ok && err == nil
}

// GetInt returns the int under key.
func (s *Session) GetInt(ctx context.Context, key string) (int, bool) {
	var v int
	ok, err := s.Get(ctx, key, &v)
	return v, ok && err == nil
}

// GetBool returns the bool under key.
func (s *Session) GetBool(ctx context.Context, key string) (bool, bool) {
	var v bool
	ok, err := s.Get(ctx, key, &v)
	return v, ok && err == nil
}

// Insert stores value under key. Writing a value identical to the current one
// leaves the session unmodified.
func (s *Session) Insert(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("session: encode %q: %w", key, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolve(ctx); err != nil {
		return err
	}
	if current, ok := s.record.Data[key]; ok && bytes.Equal(current, raw) {
		return nil
	}
	s.record.Data[key] = raw
	s.modified = true
	s.deleted = false
	return nil
}

// Remove deletes key. Removing a missing key is a no-op.
func (s *Session) Remove(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolve(ctx); err != nil {
		return err
	}
	if _, ok := s.record.Data[key]; !ok {
		return nil
	}
	delete(s.record.Data, key)
	s.modified = true
	return nil
}

// Clear drops all data and marks the session for deletion.
// A later Insert revives it.
func (s *Session) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolve(ctx); err != nil {
		return err
	}
	clear(s.record.Data)
	s.modified = true
	s.deleted = true
	return nil
}

// CycleID assigns a fresh identifier while keeping the data.
// Finalize creates the record under the new identifier and deletes the old one.
func (s *Session) CycleID(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolve(ctx); err != nil {
		return err
	}
	id, err := s.newID()
	if err != nil {
		return err
	}
	if s.exists {
		old := s.record.ID
		s.cycled = &old
	}
	s.record.ID = id
	s.exists = false
	s.modified = true
	return nil
}

// SetExpiry replaces the expiry policy for this session.
func (s *Session) SetExpiry(ctx context.Context, e Expiry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.resolve(ctx); err != nil {
		return err
	}
	s.expiry = e
	s.record.ExpiresAt = e.ExpiresAt(s.clock())
	s.modified = true
	return nil
}

// ID returns the current identifier. Before loading it is the inbound
// identifier, which may not name a live record.
func (s *Session) ID() (ID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch {
	case s.deleted:
		return ID{}, false
	case s.record != nil:
		return s.record.ID, true
	case s.inbound != nil:
		return *s.inbound, true
	default:
		return ID{}, false
	}
}

// Expiry returns the lifetime hint for the current record, or for the
// policy if nothing has been loaded.
func (s *Session) Expiry() ExpiryDescriptor {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if s.record != nil {
		return describe(s.record.ExpiresAt, now)
	}
	return s.expiry.Descriptor(now)
}

// IsLoaded reports whether the store has been consulted.
func (s *Session) IsLoaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state != stateUnresolved
}

// IsModified reports whether Finalize would write to the store.
func (s *Session) IsModified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.modified || s.touched
}

// IsEmpty reports whether the session holds no data.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record == nil || len(s.record.Data) == 0
}

// Finalize commits the session and reports what the transport should do.
//
// It is the only place the handle writes to the store. On error the handle
// is not committed and Finalize may be retried.
func (s *Session) Finalize(ctx context.Context) (FinalizeOutcome, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case stateFinalized:
		return FinalizeOutcome{}, ErrFinalized
	case stateUnresolved:
		s.state = stateFinalized
		return FinalizeOutcome{Kind: Unchanged}, nil
	}

	if s.deleted {
		if err := s.remove(ctx, s.record.ID); err != nil {
			return FinalizeOutcome{}, err
		}
		s.state = stateFinalized
		return FinalizeOutcome{Kind: Deleted}, nil
	}

	if len(s.record.Data) == 0 {
		if !s.modified && s.cycled == nil {
			s.state = stateFinalized
			return FinalizeOutcome{Kind: Unchanged}, nil
		}
		if !s.exists && s.cycled == nil {
			s.state = stateFinalized
			return FinalizeOutcome{Kind: Unchanged}, nil
		}
		var ids []ID
		if s.exists {
			ids = append(ids, s.record.ID)
		}
		if err := s.remove(ctx, ids...); err != nil {
			return FinalizeOutcome{}, err
		}
		s.exists = false
		s.state = stateFinalized
		return FinalizeOutcome{Kind: Deleted}, nil
	}

	if !s.modified && !s.touched {
		s.state = stateFinalized
		return FinalizeOutcome{Kind: Unchanged}, nil
	}

	now := s.clock()
	s.record.ExpiresAt = s.expiry.ExpiresAt(now)

	if s.exists {
		if err := s.store.Save(ctx, s.record); err != nil {
			return FinalizeOutcome{}, err
		}
	} else {
		if err := s.create(ctx); err != nil {
			return FinalizeOutcome{}, err
		}
		s.exists = true
	}

	if err := s.remove(ctx); err != nil {
		return FinalizeOutcome{}, err
	}

	s.modified = false
	s.touched = false
	s.state = stateFinalized
	return FinalizeOutcome{
		Kind:   Persisted,
		ID:     s.record.ID,
		Expiry: describe(s.record.ExpiresAt, now),
	}, nil
}

// create inserts a new record, regenerating the identifier on collision.
func (s *Session) create(ctx context.Context) error {
	for attempt := 1; ; attempt++ {
		err := s.store.Create(ctx, s.record)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrIDCollision) {
			return err
		}

		s.logger.DebugContext(ctx, "session id collision, regenerating",
			logger.Component("session"),
			logger.Attempt(attempt),
		)
		if attempt >= s.maxAttempts {
			return errors.Join(ErrUnavailable, ErrCollisionRetriesExhausted)
		}

		id, err := s.newID()
		if err != nil {
			return err
		}
		s.record.ID = id
	}
}

// remove deletes the given identifiers plus any identifier replaced by CycleID.
func (s *Session) remove(ctx context.Context, ids ...ID) error {
	for _, id := range ids {
		if err := s.store.Delete(ctx, id); err != nil {
			return err
		}
	}
	if s.cycled != nil {
		if err := s.store.Delete(ctx, *s.cycled); err != nil {
			return err
		}
		s.cycled = nil
	}
	return nil
}
