package contacts

import (
	"fmt"
	"time"
)

// Disposition is the closed set of call outcome codes a contact can carry.
// Unknown values are rejected at the boundary; nothing downstream should
// ever see a disposition outside this enumeration.
type Disposition string

const (
	// DispositionNew marks a contact as callable (fresh import or recycled).
	DispositionNew Disposition = "new"

	DispositionNRP              Disposition = "nrp" // no answer
	DispositionAnsweringMachine Disposition = "answering_machine"
	DispositionAbsent           Disposition = "absent"
	DispositionUnreachable      Disposition = "unreachable"
	DispositionCallbackLater    Disposition = "callback_later"
	DispositionFollowUp         Disposition = "follow_up"
	DispositionAppointmentTaken Disposition = "appointment_taken"
	DispositionNotInterested    Disposition = "not_interested"
	DispositionRefusal          Disposition = "refusal"
	DispositionWrongNumber      Disposition = "wrong_number"
	DispositionOutOfTarget      Disposition = "out_of_target"
	DispositionAlreadyClient    Disposition = "already_client"
	DispositionOther            Disposition = "other"
)

// AllDispositions lists every valid disposition. Keep stable; these values
// are part of the storage and API contracts.
var AllDispositions = []Disposition{
	DispositionNew,
	DispositionNRP,
	DispositionAnsweringMachine,
	DispositionAbsent,
	DispositionUnreachable,
	DispositionCallbackLater,
	DispositionFollowUp,
	DispositionAppointmentTaken,
	DispositionNotInterested,
	DispositionRefusal,
	DispositionWrongNumber,
	DispositionOutOfTarget,
	DispositionAlreadyClient,
	DispositionOther,
}

var validDispositions = func() map[Disposition]struct{} {
	m := make(map[Disposition]struct{}, len(AllDispositions))
	for _, d := range AllDispositions {
		m[d] = struct{}{}
	}
	return m
}()

// terminalForRecycling holds outcomes that must never be auto- or manually
// recycled: success, explicit refusal, or an agent-scheduled future action.
var terminalForRecycling = map[Disposition]struct{}{
	DispositionAppointmentTaken: {},
	DispositionRefusal:          {},
	DispositionWrongNumber:      {},
	DispositionOutOfTarget:      {},
	DispositionAlreadyClient:    {},
	DispositionCallbackLater:    {},
	DispositionNotInterested:    {},
	DispositionFollowUp:         {},
}

func (d Disposition) Valid() bool {
	_, ok := validDispositions[d]
	return ok
}

// TerminalForRecycling reports whether the engine must leave this outcome
// alone regardless of policy.
func (d Disposition) TerminalForRecycling() bool {
	_, ok := terminalForRecycling[d]
	return ok
}

// Recyclable reports whether this outcome may ever return to NEW.
// NEW itself is already callable and is not a recycle candidate.
func (d Disposition) Recyclable() bool {
	return d.Valid() && !d.TerminalForRecycling() && d != DispositionNew
}

// ParseDisposition converts a raw string (API input, call-flow write) into a
// Disposition, rejecting anything outside the enumeration.
func ParseDisposition(s string) (Disposition, error) {
	d := Disposition(s)
	if !d.Valid() {
		return "", fmt.Errorf("%w: unknown disposition %q", ErrValidation, s)
	}
	return d, nil
}

// Contact is a single lead record belonging to an imported list.
//
// Invariants:
// - Disposition is always a member of the enumeration.
// - LastDispositionAt moves forward on every disposition write, including
//   the recycle transition back to NEW.
// - LockedBy + LockExpiresAt form the assignment lock: non-empty owner with
//   a future expiry means an agent is working the contact and no recycle
//   path may touch it.
type Contact struct {
	ID     string `json:"id" db:"id"`
	ListID string `json:"list_id" db:"list_id"`

	Phone    string `json:"phone" db:"phone"`
	FullName string `json:"full_name,omitempty" db:"full_name"`

	Disposition       Disposition `json:"disposition" db:"disposition"`
	LastDispositionAt time.Time   `json:"last_disposition_at" db:"last_disposition_at"`

	// Assignment lock. Empty LockedBy means unlocked. An expired lock is
	// treated as released for recycling purposes.
	LockedBy      string    `json:"locked_by,omitempty" db:"locked_by"`
	LockExpiresAt time.Time `json:"lock_expires_at,omitempty" db:"lock_expires_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Locked reports whether the assignment lock is currently valid.
func (c Contact) Locked(now time.Time) bool {
	return c.LockedBy != "" && now.Before(c.LockExpiresAt)
}
