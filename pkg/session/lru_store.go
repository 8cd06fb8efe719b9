package session

import (
	"container/list"
	"context"
	"sync"
)

type lruEntry struct {
	id     ID
	record *Record
}

// LRUStore is a capacity-bounded in-memory Store intended as the fast tier of a CachingStore.
// When the store reaches its capacity, the least recently used record is evicted.
// Expired records are dropped lazily on access and by DeleteExpired.
type LRUStore struct {
	capacity int
	items    map[ID]*list.Element
	eviction *list.List
	mu       sync.Mutex
	now      Clock
}

// LRUStoreOption configures an LRUStore.
type LRUStoreOption func(*LRUStore)

// WithLRUClock overrides the time source used for soft expiry.
func WithLRUClock(clock Clock) LRUStoreOption {
	return func(s *LRUStore) {
		if clock != nil {
			s.now = clock
		}
	}
}

// NewLRUStore creates a store holding at most capacity records.
// The capacity must be positive, otherwise it panics.
func NewLRUStore(capacity int, opts ...LRUStoreOption) *LRUStore {
	if capacity <= 0 {
		panic("session: LRU store capacity must be positive")
	}
	s := &LRUStore{
		capacity: capacity,
		items:    make(map[ID]*list.Element),
		eviction: list.New(),
		now:      systemClock,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Load returns a copy of the live record and marks it as recently used.
func (s *LRUStore) Load(ctx context.Context, id ID) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.items[id]
	if !ok {
		return nil, ErrNotFound
	}
	entry := elem.Value.(*lruEntry)
	if !entry.record.IsActive(s.now()) {
		s.removeElement(elem)
		return nil, ErrNotFound
	}
	s.eviction.MoveToFront(elem)
	return entry.record.Clone(), nil
}

// Save adds or replaces the record, evicting the least recently used one when full.
func (s *LRUStore) Save(ctx context.Context, record *Record) error {
	if record == nil {
		return ErrInvalidRecord
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.put(record.Clone())
	return nil
}

// Create adds the record unless a live record with the same identifier is cached.
func (s *LRUStore) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return ErrInvalidRecord
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[record.ID]; ok && elem.Value.(*lruEntry).record.IsActive(s.now()) {
		return ErrIDCollision
	}
	s.put(record.Clone())
	return nil
}

// Delete removes the record if cached.
func (s *LRUStore) Delete(ctx context.Context, id ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if elem, ok := s.items[id]; ok {
		s.removeElement(elem)
	}
	return nil
}

// DeleteExpired drops every expired record.
func (s *LRUStore) DeleteExpired(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	for elem := s.eviction.Back(); elem != nil; {
		prev := elem.Prev()
		if !elem.Value.(*lruEntry).record.IsActive(now) {
			s.removeElement(elem)
		}
		elem = prev
	}
	return nil
}

// Len returns the number of cached records.
func (s *LRUStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eviction.Len()
}

// Must be called with lock held.
func (s *LRUStore) put(record *Record) {
	if elem, ok := s.items[record.ID]; ok {
		elem.Value.(*lruEntry).record = record
		s.eviction.MoveToFront(elem)
		return
	}

	s.items[record.ID] = s.eviction.PushFront(&lruEntry{id: record.ID, record: record})
	if s.eviction.Len() > s.capacity {
		if oldest := s.eviction.Back(); oldest != nil {
			s.removeElement(oldest)
		}
	}
}

// Must be called with lock held.
func (s *LRUStore) removeElement(elem *list.Element) {
	s.eviction.Remove(elem)
	delete(s.items, elem.Value.(*lruEntry).id)
}
