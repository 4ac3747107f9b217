package contacts

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("contacts: not found")
	ErrValidation = errors.New("contacts: validation failed")

	// ErrConflict means a conditional update lost its race: the row's
	// disposition or lock state changed since it was read. Recycle paths
	// treat this as "already handled", never as a failure.
	ErrConflict = errors.New("contacts: concurrent update conflict")

	// ErrLockHeld means another agent currently holds a valid assignment lock.
	ErrLockHeld = errors.New("contacts: lock held by another agent")
)

// Ledger is the authoritative store for contact state.
//
// Shared-resource contract: the dialing flow, the automatic recycler and the
// manual recycler all mutate contacts exclusively through the conditional
// primitives below. No implementation may expose a blind overwrite of
// disposition or lock fields.
type Ledger interface {
	Get(ctx context.Context, id string) (Contact, error)

	// InsertBatch creates contacts at import time (disposition NEW).
	InsertBatch(ctx context.Context, cs []Contact) error

	// ListByList returns every contact in a list, for the read model.
	ListByList(ctx context.Context, listID string) ([]Contact, error)

	// ListCandidates returns up to limit unlocked contacts in the list whose
	// disposition is in the given set. Used by the automatic sweep; results
	// are a snapshot and must be re-checked via the Recycle CAS.
	ListCandidates(ctx context.Context, listID string, in []Disposition, now time.Time, limit int) ([]Contact, error)

	// Recycle transitions a contact back to NEW, refreshing
	// LastDispositionAt, guarded by a compare-and-swap on the disposition
	// read earlier and on lock validity. Returns ErrConflict if the row
	// changed or is validly locked.
	Recycle(ctx context.Context, id string, from Disposition, now time.Time) error

	// SetOutcome records a call result. Disposition writes always win over a
	// concurrent recycle attempt; the write also releases the agent's lock
	// if they hold it.
	SetOutcome(ctx context.Context, id string, outcome Disposition, agentID string, at time.Time) (Contact, error)

	// Acquire checks the contact out to an agent until now+ttl. An existing
	// valid lock by another agent yields ErrLockHeld; an expired lock is
	// re-acquirable. Acquire is idempotent for the owning agent (refreshes
	// the expiry).
	Acquire(ctx context.Context, id, agentID string, now time.Time, ttl time.Duration) (Contact, error)

	// Release clears the lock if held by agentID. Releasing a lock you do
	// not hold is a no-op.
	Release(ctx context.Context, id, agentID string) error

	// ResetList performs the bulk manual recycle: every contact in the list
	// whose disposition is non-terminal (and not already NEW) and whose lock
	// is not currently valid returns to NEW with a refreshed
	// LastDispositionAt. Executes as a single atomic unit per list:
	// either every qualifying row is reset or none is.
	ResetList(ctx context.Context, listID string, now time.Time) (int, error)
}
