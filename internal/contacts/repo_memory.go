package contacts

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryLedger is an in-memory Ledger useful for tests and early development.
// It honors the same conditional-update semantics as the Postgres ledger:
// every mutation happens under one mutex, so concurrent callers observe
// exactly one winning write per contact.
//
// NOTE: not intended for production; replace with PostgresLedger.
type MemoryLedger struct {
	mu sync.Mutex
	m  map[string]Contact

	// FailResetList simulates a transient store error during ResetList.
	// When set, the reset fails before mutating anything.
	FailResetList error

	// FailListCandidates simulates a transient store error during a sweep
	// scan for the given list.
	FailListCandidates map[string]error
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{m: make(map[string]Contact)}
}

func (r *MemoryLedger) Get(ctx context.Context, id string) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.m[id]
	if !ok {
		return Contact{}, ErrNotFound
	}
	return c, nil
}

func (r *MemoryLedger) InsertBatch(ctx context.Context, cs []Contact) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range cs {
		r.m[c.ID] = c
	}
	return nil
}

func (r *MemoryLedger) ListByList(ctx context.Context, listID string) ([]Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Contact
	for _, c := range r.m {
		if c.ListID == listID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryLedger) ListCandidates(ctx context.Context, listID string, in []Disposition, now time.Time, limit int) ([]Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err, ok := r.FailListCandidates[listID]; ok && err != nil {
		return nil, err
	}

	set := make(map[Disposition]struct{}, len(in))
	for _, d := range in {
		set[d] = struct{}{}
	}

	var out []Contact
	for _, c := range r.m {
		if c.ListID != listID {
			continue
		}
		if _, ok := set[c.Disposition]; !ok {
			continue
		}
		if c.Locked(now) {
			continue
		}
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].LastDispositionAt.Before(out[j].LastDispositionAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryLedger) Recycle(ctx context.Context, id string, from Disposition, now time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.m[id]
	if !ok {
		return ErrNotFound
	}
	if c.Disposition != from || c.Locked(now) {
		return ErrConflict
	}
	c.Disposition = DispositionNew
	c.LastDispositionAt = now
	c.UpdatedAt = now
	r.m[id] = c
	return nil
}

func (r *MemoryLedger) SetOutcome(ctx context.Context, id string, outcome Disposition, agentID string, at time.Time) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.m[id]
	if !ok {
		return Contact{}, ErrNotFound
	}
	c.Disposition = outcome
	c.LastDispositionAt = at
	c.UpdatedAt = at
	if c.LockedBy == agentID {
		c.LockedBy = ""
		c.LockExpiresAt = time.Time{}
	}
	r.m[id] = c
	return c, nil
}

func (r *MemoryLedger) Acquire(ctx context.Context, id, agentID string, now time.Time, ttl time.Duration) (Contact, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.m[id]
	if !ok {
		return Contact{}, ErrNotFound
	}
	if c.Locked(now) && c.LockedBy != agentID {
		return Contact{}, ErrLockHeld
	}
	c.LockedBy = agentID
	c.LockExpiresAt = now.Add(ttl)
	c.UpdatedAt = now
	r.m[id] = c
	return c, nil
}

func (r *MemoryLedger) Release(ctx context.Context, id, agentID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.m[id]
	if !ok {
		return nil
	}
	if c.LockedBy != agentID {
		return nil
	}
	c.LockedBy = ""
	c.LockExpiresAt = time.Time{}
	r.m[id] = c
	return nil
}

func (r *MemoryLedger) ResetList(ctx context.Context, listID string, now time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.FailResetList != nil {
		// All-or-nothing: fail before touching any row.
		return 0, r.FailResetList
	}

	count := 0
	for id, c := range r.m {
		if c.ListID != listID {
			continue
		}
		if c.Disposition == DispositionNew || c.Disposition.TerminalForRecycling() {
			continue
		}
		if c.Locked(now) {
			continue
		}
		c.Disposition = DispositionNew
		c.LastDispositionAt = now
		c.UpdatedAt = now
		r.m[id] = c
		count++
	}
	return count, nil
}
