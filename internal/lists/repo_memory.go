package lists

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is an in-memory Store useful for tests.
// It is not intended for production use.
type MemoryStore struct {
	mu sync.Mutex
	m  map[string]ContactList
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{m: make(map[string]ContactList)}
}

func (r *MemoryStore) Get(ctx context.Context, id string) (ContactList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.m[id]
	if !ok {
		return ContactList{}, ErrNotFound
	}
	return l, nil
}

func (r *MemoryStore) Insert(ctx context.Context, l ContactList) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.m[l.ID] = l
	return nil
}

func (r *MemoryStore) UpdatePolicy(ctx context.Context, listID string, p RecyclePolicy, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.m[listID]
	if !ok {
		return ErrNotFound
	}
	l.Policy = p
	l.UpdatedAt = now
	r.m[listID] = l
	return nil
}

func (r *MemoryStore) ListActive(ctx context.Context) ([]ContactList, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []ContactList
	for _, l := range r.m {
		if l.Active {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ImportedAt.Before(out[j].ImportedAt) })
	return out, nil
}
