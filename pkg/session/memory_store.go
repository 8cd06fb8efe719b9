package session

import (
	"context"
	"sync"
)

const defaultMemoryShards = 32

// MemoryStore implements Store using in-memory storage.
// Records are spread over independently locked shards, so operations on
// different identifiers rarely contend while operations on the same
// identifier always serialize on one shard lock.
// Contents do not survive a process restart.
type MemoryStore struct {
	shards []*memoryShard
	now    Clock
}

type memoryShard struct {
	mu      sync.RWMutex
	records map[ID]*Record
}

// MemoryStoreOption configures a MemoryStore.
type MemoryStoreOption func(*MemoryStore)

// WithMemoryClock overrides the time source used for soft expiry.
func WithMemoryClock(clock Clock) MemoryStoreOption {
	return func(m *MemoryStore) {
		if clock != nil {
			m.now = clock
		}
	}
}

// WithMemoryShards sets the number of lock shards (default 32).
func WithMemoryShards(n int) MemoryStoreOption {
	return func(m *MemoryStore) {
		if n > 0 {
			m.shards = newMemoryShards(n)
		}
	}
}

// NewMemoryStore creates a new in-memory session store
func NewMemoryStore(opts ...MemoryStoreOption) *MemoryStore {
	m := &MemoryStore{
		shards: newMemoryShards(defaultMemoryShards),
		now:    systemClock,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func newMemoryShards(n int) []*memoryShard {
	shards := make([]*memoryShard, n)
	for i := range shards {
		shards[i] = &memoryShard{records: make(map[ID]*Record)}
	}
	return shards
}

func (m *MemoryStore) shard(id ID) *memoryShard {
	h := uint32(id[0]) | uint32(id[1])<<8 | uint32(id[2])<<16 | uint32(id[3])<<24
	return m.shards[h%uint32(len(m.shards))]
}

// Load returns a copy of the live record for id.
func (m *MemoryStore) Load(ctx context.Context, id ID) (*Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s := m.shard(id)
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[id]
	if !ok || !record.IsActive(m.now()) {
		return nil, ErrNotFound
	}
	return record.Clone(), nil
}

// Save stores a copy of the record, replacing any existing one.
func (m *MemoryStore) Save(ctx context.Context, record *Record) error {
	if record == nil {
		return ErrInvalidRecord
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s := m.shard(record.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records[record.ID] = record.Clone()
	return nil
}

// Create stores a copy of the record unless a live record with the same identifier exists.
// An expired record occupying the identifier is replaced.
func (m *MemoryStore) Create(ctx context.Context, record *Record) error {
	if record == nil {
		return ErrInvalidRecord
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s := m.shard(record.ID)
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.ID]; ok && existing.IsActive(m.now()) {
		return ErrIDCollision
	}
	s.records[record.ID] = record.Clone()
	return nil
}

// Delete removes a record by identifier
func (m *MemoryStore) Delete(ctx context.Context, id ID) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s := m.shard(id)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, id)
	return nil
}

// DeleteExpired removes all expired records, one shard at a time.
func (m *MemoryStore) DeleteExpired(ctx context.Context) error {
	for _, s := range m.shards {
		if err := ctx.Err(); err != nil {
			return err
		}

		now := m.now()
		s.mu.Lock()
		for id, record := range s.records {
			if !record.IsActive(now) {
				delete(s.records, id)
			}
		}
		s.mu.Unlock()
	}
	return nil
}

// Len returns the number of physically stored records, expired ones included.
func (m *MemoryStore) Len() int {
	total := 0
	for _, s := range m.shards {
		s.mu.RLock()
		total += len(s.records)
		s.mu.RUnlock()
	}
	return total
}
