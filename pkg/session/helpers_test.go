package session_test

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrymomot/sessionkit/pkg/session"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// faultStore wraps a Store, counts calls and injects errors per operation.
type faultStore struct {
	next session.Store

	mu        sync.Mutex
	calls     map[string]int
	loadErr   error
	saveErr   error
	createErr error
	deleteErr error
	sweepErr  error
}

func newFaultStore(next session.Store) *faultStore {
	return &faultStore{next: next, calls: make(map[string]int)}
}

func (f *faultStore) hit(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *faultStore) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *faultStore) total() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		n += c
	}
	return n
}

func (f *faultStore) fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch op {
	case "load":
		f.loadErr = err
	case "save":
		f.saveErr = err
	case "create":
		f.createErr = err
	case "delete":
		f.deleteErr = err
	case "delete_expired":
		f.sweepErr = err
	}
}

func (f *faultStore) injected(op string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch op {
	case "load":
		return f.loadErr
	case "save":
		return f.saveErr
	case "create":
		return f.createErr
	case "delete":
		return f.deleteErr
	default:
		return f.sweepErr
	}
}

func (f *faultStore) Load(ctx context.Context, id session.ID) (*session.Record, error) {
	f.hit("load")
	if err := f.injected("load"); err != nil {
		return nil, err
	}
	return f.next.Load(ctx, id)
}

func (f *faultStore) Save(ctx context.Context, record *session.Record) error {
	f.hit("save")
	if err := f.injected("save"); err != nil {
		return err
	}
	return f.next.Save(ctx, record)
}

func (f *faultStore) Create(ctx context.Context, record *session.Record) error {
	f.hit("create")
	if err := f.injected("create"); err != nil {
		return err
	}
	return f.next.Create(ctx, record)
}

func (f *faultStore) Delete(ctx context.Context, id session.ID) error {
	f.hit("delete")
	if err := f.injected("delete"); err != nil {
		return err
	}
	return f.next.Delete(ctx, id)
}

func (f *faultStore) DeleteExpired(ctx context.Context) error {
	f.hit("delete_expired")
	if err := f.injected("delete_expired"); err != nil {
		return err
	}
	return f.next.DeleteExpired(ctx)
}

// sequenceIDs returns an ID generator yielding ids in order, then fresh random ones.
func sequenceIDs(ids ...session.ID) func() (session.ID, error) {
	var mu sync.Mutex
	return func() (session.ID, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(ids) == 0 {
			return session.NewID()
		}
		id := ids[0]
		ids = ids[1:]
		return id, nil
	}
}
