package lists

import (
	"errors"
	"fmt"
	"time"

	"callcenter-platform/internal/contacts"
)

var (
	ErrNotFound = errors.New("lists: not found")

	// ErrValidation covers malformed policy or import input. Surfaced
	// synchronously to the caller; nothing is mutated.
	ErrValidation = errors.New("lists: validation failed")
)

const (
	// Operational bounds for the recycle delay. Values below the floor cause
	// pathological sweep churn; values above the ceiling effectively disable
	// recycling while pretending not to.
	MinDelayMinutes = 5
	MaxDelayMinutes = 1440
)

// RecyclePolicy is the per-list recycling configuration.
//
// An enabled policy with an empty EligibleOutcomes set is legal: it recycles
// nothing (a no-op policy), it is not an error.
type RecyclePolicy struct {
	Enabled          bool                   `json:"enabled" db:"recycle_enabled"`
	EligibleOutcomes []contacts.Disposition `json:"eligible_outcomes" db:"recycle_outcomes"`
	DelayMinutes     int                    `json:"delay_minutes" db:"recycle_delay_minutes"`
}

// DefaultPolicy returns the policy a freshly imported list starts with:
// recycling off, the customary retry outcomes preselected, 30 minute delay.
func DefaultPolicy() RecyclePolicy {
	return RecyclePolicy{
		Enabled: false,
		EligibleOutcomes: []contacts.Disposition{
			contacts.DispositionNRP,
			contacts.DispositionAnsweringMachine,
			contacts.DispositionAbsent,
			contacts.DispositionUnreachable,
		},
		DelayMinutes: 30,
	}
}

// Validate rejects out-of-range delays and outcomes outside the recyclable
// (non-terminal) set. It never silently coerces.
func (p RecyclePolicy) Validate() error {
	if p.DelayMinutes < MinDelayMinutes || p.DelayMinutes > MaxDelayMinutes {
		return fmt.Errorf("%w: delay_minutes must be in [%d, %d], got %d",
			ErrValidation, MinDelayMinutes, MaxDelayMinutes, p.DelayMinutes)
	}
	seen := make(map[contacts.Disposition]struct{}, len(p.EligibleOutcomes))
	for _, d := range p.EligibleOutcomes {
		if !d.Valid() {
			return fmt.Errorf("%w: unknown outcome %q", ErrValidation, d)
		}
		if !d.Recyclable() {
			return fmt.Errorf("%w: outcome %q is not recyclable", ErrValidation, d)
		}
		if _, dup := seen[d]; dup {
			return fmt.Errorf("%w: duplicate outcome %q", ErrValidation, d)
		}
		seen[d] = struct{}{}
	}
	return nil
}

// Delay returns the configured delay as a duration.
func (p RecyclePolicy) Delay() time.Duration {
	return time.Duration(p.DelayMinutes) * time.Minute
}

// Eligible reports whether the policy names d as a recycle candidate.
func (p RecyclePolicy) Eligible(d contacts.Disposition) bool {
	for _, e := range p.EligibleOutcomes {
		if e == d {
			return true
		}
	}
	return false
}

// ContactList is an imported batch of contacts sharing one recycling policy.
type ContactList struct {
	ID         string `json:"id" db:"id"`
	Name       string `json:"name" db:"name"`
	SourceFile string `json:"source_file,omitempty" db:"source_file"`
	ImportedBy string `json:"imported_by" db:"imported_by"`

	Active bool `json:"active" db:"active"`

	Policy RecyclePolicy `json:"policy"`

	ImportedAt time.Time `json:"imported_at" db:"imported_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
