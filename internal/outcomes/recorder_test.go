package outcomes

import (
	"context"
	"errors"
	"testing"
	"time"

	"callcenter-platform/internal/contacts"
)

func newTestRecorder(t *testing.T, now time.Time) (*Recorder, *contacts.MemoryLedger) {
	t.Helper()
	ledger := contacts.NewMemoryLedger()
	err := ledger.InsertBatch(context.Background(), []contacts.Contact{{
		ID: "c1", ListID: "l1", Phone: "+33600000000",
		Disposition:       contacts.DispositionNew,
		LastDispositionAt: now.Add(-time.Hour),
		CreatedAt:         now.Add(-time.Hour),
		UpdatedAt:         now.Add(-time.Hour),
	}})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	r := NewRecorder(ledger)
	r.clock = func() time.Time { return now }
	return r, ledger
}

func TestRecordOutcome_WritesDispositionAndReleasesLock(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	r, ledger := newTestRecorder(t, now)

	if _, err := ledger.Acquire(ctx, "c1", "agent-1", now, 15*time.Minute); err != nil {
		t.Fatalf("acquire failed: %v", err)
	}

	c, err := r.RecordOutcome(ctx, CallResult{
		ContactID: "c1",
		Outcome:   contacts.DispositionNRP,
		AgentID:   "agent-1",
		CalledAt:  now,
	})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if c.Disposition != contacts.DispositionNRP {
		t.Fatalf("expected nrp, got %q", c.Disposition)
	}
	if !c.LastDispositionAt.Equal(now) {
		t.Fatalf("expected last_disposition_at = called_at")
	}
	if c.LockedBy != "" {
		t.Fatalf("expected lock released with the write")
	}
}

func TestRecordOutcome_DefaultsCalledAtToNow(t *testing.T) {
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Second)
	r, _ := newTestRecorder(t, now)

	c, err := r.RecordOutcome(ctx, CallResult{ContactID: "c1", Outcome: contacts.DispositionAbsent, AgentID: "agent-1"})
	if err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if !c.LastDispositionAt.Equal(now) {
		t.Fatalf("expected clock fallback, got %v", c.LastDispositionAt)
	}
}

func TestRecordOutcome_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	r, _ := newTestRecorder(t, time.Now())

	if _, err := r.RecordOutcome(ctx, CallResult{ContactID: "", Outcome: contacts.DispositionNRP, AgentID: "a"}); !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome, got %v", err)
	}
	if _, err := r.RecordOutcome(ctx, CallResult{ContactID: "c1", Outcome: "busy_signal", AgentID: "a"}); !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome for unknown value, got %v", err)
	}
	if _, err := r.RecordOutcome(ctx, CallResult{ContactID: "c1", Outcome: contacts.DispositionNew, AgentID: "a"}); !errors.Is(err, ErrInvalidOutcome) {
		t.Fatalf("expected ErrInvalidOutcome for NEW, got %v", err)
	}
	if _, err := r.RecordOutcome(ctx, CallResult{ContactID: "missing", Outcome: contacts.DispositionNRP, AgentID: "a"}); !errors.Is(err, contacts.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
