package recycler

import (
	"context"
	"errors"
	"testing"
	"time"

	"callcenter-platform/internal/audit"
	"callcenter-platform/internal/contacts"
	"callcenter-platform/internal/lists"
)

type sweepFixture struct {
	store  *lists.MemoryStore
	ledger *contacts.MemoryLedger
	mutex  *MemoryListMutex
	audit  *audit.Service
	events *audit.MemoryRepo
	sw     *Sweeper
	now    time.Time
}

func newSweepFixture(t *testing.T) *sweepFixture {
	t.Helper()
	f := &sweepFixture{
		store:  lists.NewMemoryStore(),
		ledger: contacts.NewMemoryLedger(),
		mutex:  NewMemoryListMutex(),
		events: audit.NewMemoryRepo(),
		now:    time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC),
	}
	f.audit = audit.NewService(f.events)
	f.sw = NewSweeper(f.store, f.ledger, f.mutex, f.audit, time.Minute, 500, nil)
	f.sw.clock = func() time.Time { return f.now }
	return f
}

func (f *sweepFixture) addList(t *testing.T, id string, p lists.RecyclePolicy) {
	t.Helper()
	err := f.store.Insert(context.Background(), lists.ContactList{
		ID: id, Name: id, Active: true, Policy: p,
		ImportedAt: f.now.Add(-24 * time.Hour), UpdatedAt: f.now,
	})
	if err != nil {
		t.Fatalf("insert list failed: %v", err)
	}
}

func (f *sweepFixture) addContact(t *testing.T, id, listID string, d contacts.Disposition, age time.Duration) {
	t.Helper()
	err := f.ledger.InsertBatch(context.Background(), []contacts.Contact{{
		ID: id, ListID: listID, Phone: "+33600000000",
		Disposition:       d,
		LastDispositionAt: f.now.Add(-age),
		CreatedAt:         f.now.Add(-age),
		UpdatedAt:         f.now.Add(-age),
	}})
	if err != nil {
		t.Fatalf("insert contact failed: %v", err)
	}
}

func (f *sweepFixture) disposition(t *testing.T, id string) contacts.Disposition {
	t.Helper()
	c, err := f.ledger.Get(context.Background(), id)
	if err != nil {
		t.Fatalf("get contact failed: %v", err)
	}
	return c.Disposition
}

// Scenario from the product rules: NRP past the delay recycles, NRP inside
// the delay waits, an appointment never recycles no matter how old.
func TestSweep_RecyclesElapsedCandidatesOnly(t *testing.T) {
	f := newSweepFixture(t)
	f.addList(t, "l1", lists.RecyclePolicy{
		Enabled:          true,
		EligibleOutcomes: []contacts.Disposition{contacts.DispositionNRP, contacts.DispositionAbsent},
		DelayMinutes:     30,
	})
	f.addContact(t, "c1", "l1", contacts.DispositionNRP, 31*time.Minute)
	f.addContact(t, "c2", "l1", contacts.DispositionNRP, 10*time.Minute)
	f.addContact(t, "c3", "l1", contacts.DispositionAppointmentTaken, 5*time.Hour)

	stats := f.sw.Sweep(context.Background())

	if stats.Recycled != 1 {
		t.Fatalf("expected 1 recycled, got %+v", stats)
	}
	if got := f.disposition(t, "c1"); got != contacts.DispositionNew {
		t.Fatalf("expected c1 recycled, got %q", got)
	}
	if got := f.disposition(t, "c2"); got != contacts.DispositionNRP {
		t.Fatalf("expected c2 untouched inside delay, got %q", got)
	}
	if got := f.disposition(t, "c3"); got != contacts.DispositionAppointmentTaken {
		t.Fatalf("expected c3 never recycled, got %q", got)
	}
}

func TestSweep_IsIdempotentBackToBack(t *testing.T) {
	f := newSweepFixture(t)
	f.addList(t, "l1", lists.RecyclePolicy{
		Enabled:          true,
		EligibleOutcomes: []contacts.Disposition{contacts.DispositionNRP},
		DelayMinutes:     30,
	})
	f.addContact(t, "c1", "l1", contacts.DispositionNRP, time.Hour)

	first := f.sw.Sweep(context.Background())
	if first.Recycled != 1 {
		t.Fatalf("expected first sweep to recycle, got %+v", first)
	}

	// Immediately after, the contact is NEW with a fresh timestamp; the
	// second pass must find nothing.
	second := f.sw.Sweep(context.Background())
	if second.Recycled != 0 || second.Conflicts != 0 {
		t.Fatalf("expected second sweep to be a no-op, got %+v", second)
	}
}

func TestSweep_SkipsDisabledAndNoOpPolicies(t *testing.T) {
	f := newSweepFixture(t)
	f.addList(t, "off", lists.RecyclePolicy{
		Enabled:          false,
		EligibleOutcomes: []contacts.Disposition{contacts.DispositionNRP},
		DelayMinutes:     30,
	})
	f.addList(t, "empty", lists.RecyclePolicy{Enabled: true, DelayMinutes: 30})
	f.addContact(t, "c1", "off", contacts.DispositionNRP, time.Hour)
	f.addContact(t, "c2", "empty", contacts.DispositionNRP, time.Hour)

	stats := f.sw.Sweep(context.Background())
	if stats.ListsScanned != 0 || stats.Recycled != 0 {
		t.Fatalf("expected nothing scanned, got %+v", stats)
	}
}

func TestSweep_SkipsLockedContacts(t *testing.T) {
	f := newSweepFixture(t)
	f.addList(t, "l1", lists.RecyclePolicy{
		Enabled:          true,
		EligibleOutcomes: []contacts.Disposition{contacts.DispositionNRP},
		DelayMinutes:     30,
	})
	f.addContact(t, "c1", "l1", contacts.DispositionNRP, time.Hour)
	if _, err := f.ledger.Acquire(context.Background(), "c1", "agent-1", f.now, 10*time.Minute); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	stats := f.sw.Sweep(context.Background())
	if stats.Recycled != 0 {
		t.Fatalf("expected locked contact skipped, got %+v", stats)
	}

	// Lock expires; the next cycle picks it up.
	f.now = f.now.Add(11 * time.Minute)
	stats = f.sw.Sweep(context.Background())
	if stats.Recycled != 1 {
		t.Fatalf("expected expired-lock contact recycled, got %+v", stats)
	}
}

func TestSweep_OneFailedListDoesNotAbortOthers(t *testing.T) {
	f := newSweepFixture(t)
	p := lists.RecyclePolicy{
		Enabled:          true,
		EligibleOutcomes: []contacts.Disposition{contacts.DispositionNRP},
		DelayMinutes:     30,
	}
	f.addList(t, "bad", p)
	f.addList(t, "good", p)
	f.addContact(t, "c1", "good", contacts.DispositionNRP, time.Hour)
	f.ledger.FailListCandidates = map[string]error{"bad": errors.New("transient store error")}

	stats := f.sw.Sweep(context.Background())
	if stats.ListsFailed != 1 {
		t.Fatalf("expected 1 failed list, got %+v", stats)
	}
	if stats.Recycled != 1 {
		t.Fatalf("expected healthy list still swept, got %+v", stats)
	}

	// Transient error clears; the list recovers on the next cycle.
	f.ledger.FailListCandidates = nil
	f.addContact(t, "c2", "bad", contacts.DispositionNRP, time.Hour)
	stats = f.sw.Sweep(context.Background())
	if stats.ListsFailed != 0 || stats.Recycled != 1 {
		t.Fatalf("expected recovery next cycle, got %+v", stats)
	}
}

func TestSweep_SkipsListHeldByManualRecycle(t *testing.T) {
	f := newSweepFixture(t)
	f.addList(t, "l1", lists.RecyclePolicy{
		Enabled:          true,
		EligibleOutcomes: []contacts.Disposition{contacts.DispositionNRP},
		DelayMinutes:     30,
	})
	f.addContact(t, "c1", "l1", contacts.DispositionNRP, time.Hour)

	unlock, ok, err := f.mutex.TryLock(context.Background(), "l1", time.Minute)
	if err != nil || !ok {
		t.Fatalf("lease setup failed: ok=%v err=%v", ok, err)
	}

	stats := f.sw.Sweep(context.Background())
	if stats.ListsSkipped != 1 || stats.Recycled != 0 {
		t.Fatalf("expected busy list skipped, got %+v", stats)
	}

	if err := unlock(context.Background()); err != nil {
		t.Fatalf("unlock failed: %v", err)
	}
	stats = f.sw.Sweep(context.Background())
	if stats.Recycled != 1 {
		t.Fatalf("expected sweep after lease release, got %+v", stats)
	}
}

func TestSweep_EmitsAuditSummaryOnlyWhenRecycled(t *testing.T) {
	f := newSweepFixture(t)
	f.addList(t, "l1", lists.RecyclePolicy{
		Enabled:          true,
		EligibleOutcomes: []contacts.Disposition{contacts.DispositionNRP},
		DelayMinutes:     30,
	})
	f.addContact(t, "c1", "l1", contacts.DispositionNRP, time.Hour)

	f.sw.Sweep(context.Background())
	evs := f.events.Events()
	if len(evs) != 1 || evs[0].Type != audit.EventTypeSweepSummary || evs[0].RecycledCount != 1 {
		t.Fatalf("expected one sweep summary event, got %+v", evs)
	}

	// No-op cycle adds nothing.
	f.sw.Sweep(context.Background())
	if len(f.events.Events()) != 1 {
		t.Fatalf("expected no summary for a no-op cycle")
	}
}
