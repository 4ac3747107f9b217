// Package outcomes is the write path the call flow uses when an agent
// finishes a call. The engine never originates a contact's first
// disposition; it only consumes these writes as the trigger for
// re-evaluating recycle eligibility.
package outcomes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"callcenter-platform/internal/contacts"
)

var ErrInvalidOutcome = errors.New("outcomes: invalid outcome")

// CallResult is what the dialing flow reports at call completion.
type CallResult struct {
	ContactID string               `json:"contact_id"`
	Outcome   contacts.Disposition `json:"outcome"`
	AgentID   string               `json:"agent_id"`
	CalledAt  time.Time            `json:"called_at"`
}

type Recorder struct {
	ledger contacts.Ledger
	clock  func() time.Time
}

func NewRecorder(ledger contacts.Ledger) *Recorder {
	return &Recorder{ledger: ledger, clock: time.Now}
}

// RecordOutcome writes the call's disposition into the ledger. The write
// always wins over a concurrent recycle decision for the same contact, and
// it releases the reporting agent's assignment lock in the same atomic
// update.
func (r *Recorder) RecordOutcome(ctx context.Context, res CallResult) (contacts.Contact, error) {
	if res.ContactID == "" || res.AgentID == "" {
		return contacts.Contact{}, fmt.Errorf("%w: contact id and agent id required", ErrInvalidOutcome)
	}
	if !res.Outcome.Valid() {
		return contacts.Contact{}, fmt.Errorf("%w: unknown disposition %q", ErrInvalidOutcome, res.Outcome)
	}
	if res.Outcome == contacts.DispositionNew {
		// NEW is the engine's own transition; a call attempt cannot
		// produce it.
		return contacts.Contact{}, fmt.Errorf("%w: a call cannot set %q", ErrInvalidOutcome, res.Outcome)
	}

	at := res.CalledAt
	if at.IsZero() {
		at = r.clock()
	}
	return r.ledger.SetOutcome(ctx, res.ContactID, res.Outcome, res.AgentID, at.UTC())
}
