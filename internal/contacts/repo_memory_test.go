package contacts

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"
)

func seedContact(t *testing.T, r *MemoryLedger, id, listID string, d Disposition, lastAt time.Time) Contact {
	t.Helper()
	c := Contact{
		ID:                id,
		ListID:            listID,
		Phone:             "+33600000000",
		Disposition:       d,
		LastDispositionAt: lastAt,
		CreatedAt:         lastAt,
		UpdatedAt:         lastAt,
	}
	if err := r.InsertBatch(context.Background(), []Contact{c}); err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	return c
}

func TestMemoryLedger_RecycleCAS(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryLedger()
	now := time.Now()

	seedContact(t, r, "c1", "l1", DispositionNRP, now.Add(-time.Hour))

	if err := r.Recycle(ctx, "c1", DispositionNRP, now); err != nil {
		t.Fatalf("expected recycle to succeed, got %v", err)
	}
	got, _ := r.Get(ctx, "c1")
	if got.Disposition != DispositionNew {
		t.Fatalf("expected new, got %q", got.Disposition)
	}
	if !got.LastDispositionAt.Equal(now) {
		t.Fatalf("expected last_disposition_at refreshed")
	}

	// Stale expectation: the disposition already changed.
	if err := r.Recycle(ctx, "c1", DispositionNRP, now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	if err := r.Recycle(ctx, "missing", DispositionNRP, now); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryLedger_RecycleSkipsValidLock(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryLedger()
	now := time.Now()

	seedContact(t, r, "c1", "l1", DispositionAbsent, now.Add(-time.Hour))
	if _, err := r.Acquire(ctx, "c1", "agent-7", now, 10*time.Minute); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	if err := r.Recycle(ctx, "c1", DispositionAbsent, now); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for locked contact, got %v", err)
	}

	// Expired lock no longer protects the row.
	later := now.Add(11 * time.Minute)
	if err := r.Recycle(ctx, "c1", DispositionAbsent, later); err != nil {
		t.Fatalf("expected recycle after lock expiry, got %v", err)
	}
}

func TestMemoryLedger_AcquireReleaseExpiry(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryLedger()
	now := time.Now()

	seedContact(t, r, "c1", "l1", DispositionNew, now)

	if _, err := r.Acquire(ctx, "c1", "agent-1", now, time.Minute); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}
	if _, err := r.Acquire(ctx, "c1", "agent-2", now, time.Minute); !errors.Is(err, ErrLockHeld) {
		t.Fatalf("expected ErrLockHeld, got %v", err)
	}
	// Owner re-acquire refreshes the expiry.
	c, err := r.Acquire(ctx, "c1", "agent-1", now.Add(30*time.Second), time.Minute)
	if err != nil {
		t.Fatalf("owner re-acquire failed: %v", err)
	}
	if !c.LockExpiresAt.Equal(now.Add(90 * time.Second)) {
		t.Fatalf("expected refreshed expiry")
	}

	// Expired lock is re-acquirable by someone else.
	if _, err := r.Acquire(ctx, "c1", "agent-2", now.Add(2*time.Minute), time.Minute); err != nil {
		t.Fatalf("expected acquire after expiry, got %v", err)
	}

	// Release by a non-owner is a no-op.
	if err := r.Release(ctx, "c1", "agent-1"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	c, _ = r.Get(ctx, "c1")
	if c.LockedBy != "agent-2" {
		t.Fatalf("expected agent-2 to keep the lock, got %q", c.LockedBy)
	}

	if err := r.Release(ctx, "c1", "agent-2"); err != nil {
		t.Fatalf("release failed: %v", err)
	}
	c, _ = r.Get(ctx, "c1")
	if c.LockedBy != "" {
		t.Fatalf("expected lock released")
	}
}

func TestMemoryLedger_SetOutcomeReleasesOwnLock(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryLedger()
	now := time.Now()

	seedContact(t, r, "c1", "l1", DispositionNew, now.Add(-time.Hour))
	if _, err := r.Acquire(ctx, "c1", "agent-1", now, time.Minute); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	c, err := r.SetOutcome(ctx, "c1", DispositionRefusal, "agent-1", now)
	if err != nil {
		t.Fatalf("set outcome failed: %v", err)
	}
	if c.Disposition != DispositionRefusal {
		t.Fatalf("expected refusal, got %q", c.Disposition)
	}
	if c.LockedBy != "" {
		t.Fatalf("expected lock released on outcome write")
	}
	if !c.LastDispositionAt.Equal(now) {
		t.Fatalf("expected last_disposition_at updated")
	}
}

func TestMemoryLedger_ResetList(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryLedger()
	now := time.Now()

	seedContact(t, r, "c1", "l1", DispositionNRP, now.Add(-10*time.Minute))
	seedContact(t, r, "c2", "l1", DispositionAppointmentTaken, now.Add(-5*time.Hour))
	seedContact(t, r, "c3", "l1", DispositionAbsent, now.Add(-time.Minute))
	seedContact(t, r, "c4", "l1", DispositionNew, now)
	seedContact(t, r, "c5", "l2", DispositionNRP, now.Add(-time.Hour))
	if _, err := r.Acquire(ctx, "c3", "agent-1", now, 10*time.Minute); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	n, err := r.ResetList(ctx, "l1", now)
	if err != nil {
		t.Fatalf("reset failed: %v", err)
	}
	// c1 only: c2 terminal, c3 locked, c4 already new, c5 other list.
	if n != 1 {
		t.Fatalf("expected 1 reset, got %d", n)
	}
	c1, _ := r.Get(ctx, "c1")
	if c1.Disposition != DispositionNew {
		t.Fatalf("expected c1 reset to new")
	}
	c2, _ := r.Get(ctx, "c2")
	if c2.Disposition != DispositionAppointmentTaken {
		t.Fatalf("expected c2 untouched")
	}
	c5, _ := r.Get(ctx, "c5")
	if c5.Disposition != DispositionNRP {
		t.Fatalf("expected other list untouched")
	}
}

func TestMemoryLedger_ResetListFailureLeavesStateIntact(t *testing.T) {
	ctx := context.Background()
	r := NewMemoryLedger()
	now := time.Now()

	seedContact(t, r, "c1", "l1", DispositionNRP, now.Add(-time.Hour))
	seedContact(t, r, "c2", "l1", DispositionAbsent, now.Add(-time.Hour))

	boom := errors.New("store unavailable")
	r.FailResetList = boom

	if _, err := r.ResetList(ctx, "l1", now); !errors.Is(err, boom) {
		t.Fatalf("expected injected error, got %v", err)
	}
	c1, _ := r.Get(ctx, "c1")
	c2, _ := r.Get(ctx, "c2")
	if c1.Disposition != DispositionNRP || c2.Disposition != DispositionAbsent {
		t.Fatalf("expected no partial reset on failure")
	}
}

// Race safety: a disposition write and a recycle attempt for the same contact
// issued concurrently must leave the row consistent with exactly one winner.
func TestMemoryLedger_ConcurrentOutcomeVsRecycle(t *testing.T) {
	ctx := context.Background()

	for trial := 0; trial < 200; trial++ {
		r := NewMemoryLedger()
		now := time.Now()
		seedContact(t, r, "c1", "l1", DispositionNRP, now.Add(-time.Hour))

		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			if rand.Intn(2) == 0 {
				time.Sleep(time.Microsecond)
			}
			_, _ = r.SetOutcome(ctx, "c1", DispositionRefusal, "agent-1", now)
		}()
		go func() {
			defer wg.Done()
			if rand.Intn(2) == 0 {
				time.Sleep(time.Microsecond)
			}
			_ = r.Recycle(ctx, "c1", DispositionNRP, now)
		}()
		wg.Wait()

		c, _ := r.Get(ctx, "c1")
		// The outcome write always lands. If the recycle ran first it was
		// overwritten; if it ran second its CAS lost. Either way the final
		// state is the agent's disposition, never a half-applied mix.
		if c.Disposition != DispositionRefusal {
			t.Fatalf("trial %d: recycle overwrote a disposition write, got %q", trial, c.Disposition)
		}
		if !c.LastDispositionAt.Equal(now) {
			t.Fatalf("trial %d: timestamp does not match the winning write", trial)
		}
	}
}
