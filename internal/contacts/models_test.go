package contacts

import (
	"errors"
	"testing"
	"time"
)

func TestParseDisposition(t *testing.T) {
	d, err := ParseDisposition("nrp")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if d != DispositionNRP {
		t.Fatalf("expected nrp, got %q", d)
	}

	if _, err := ParseDisposition("busy_signal"); err == nil {
		t.Fatalf("expected error for unknown disposition")
	}
	if _, err := ParseDisposition(""); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestTerminalPartition(t *testing.T) {
	terminal := []Disposition{
		DispositionAppointmentTaken,
		DispositionRefusal,
		DispositionWrongNumber,
		DispositionOutOfTarget,
		DispositionAlreadyClient,
		DispositionCallbackLater,
		DispositionNotInterested,
		DispositionFollowUp,
	}
	for _, d := range terminal {
		if !d.TerminalForRecycling() {
			t.Fatalf("expected %q terminal", d)
		}
		if d.Recyclable() {
			t.Fatalf("expected %q not recyclable", d)
		}
	}

	recyclable := []Disposition{
		DispositionNRP,
		DispositionAnsweringMachine,
		DispositionAbsent,
		DispositionUnreachable,
		DispositionOther,
	}
	for _, d := range recyclable {
		if d.TerminalForRecycling() {
			t.Fatalf("expected %q non-terminal", d)
		}
		if !d.Recyclable() {
			t.Fatalf("expected %q recyclable", d)
		}
	}

	// NEW is callable, not a recycle candidate.
	if DispositionNew.Recyclable() {
		t.Fatalf("expected new not recyclable")
	}
	if DispositionNew.TerminalForRecycling() {
		t.Fatalf("expected new non-terminal")
	}
}

func TestContactLocked(t *testing.T) {
	now := time.Now()

	c := Contact{}
	if c.Locked(now) {
		t.Fatalf("expected unlocked contact")
	}

	c = Contact{LockedBy: "agent-1", LockExpiresAt: now.Add(time.Minute)}
	if !c.Locked(now) {
		t.Fatalf("expected valid lock")
	}

	c = Contact{LockedBy: "agent-1", LockExpiresAt: now.Add(-time.Second)}
	if c.Locked(now) {
		t.Fatalf("expected expired lock to count as released")
	}
}
