package recycler

import (
	"context"
	"sync"
	"time"
)

// UnlockFunc releases a held list lease.
type UnlockFunc func(ctx context.Context) error

// ListMutex serializes recycle runs per contact list. The automatic sweep
// and the manual recycler both take the lease before touching a list, so a
// bulk reset never interleaves with a sweep of the same list. Holders are
// TTL-bounded: a crashed holder does not wedge the list forever.
type ListMutex interface {
	// TryLock attempts the lease without blocking. ok=false means another
	// recycle run currently owns the list.
	TryLock(ctx context.Context, listID string, ttl time.Duration) (UnlockFunc, bool, error)
}

// MemoryListMutex is an in-process ListMutex for tests and single-node runs.
type MemoryListMutex struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

func NewMemoryListMutex() *MemoryListMutex {
	return &MemoryListMutex{held: make(map[string]time.Time), clock: time.Now}
}

func (m *MemoryListMutex) TryLock(ctx context.Context, listID string, ttl time.Duration) (UnlockFunc, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.clock()
	if until, ok := m.held[listID]; ok && now.Before(until) {
		return nil, false, nil
	}
	m.held[listID] = now.Add(ttl)

	unlock := func(ctx context.Context) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.held, listID)
		return nil
	}
	return unlock, true, nil
}
