package reporting

import (
	"time"

	"callcenter-platform/internal/contacts"
)

// ContactView is the display projection of one contact: current state, lock
// status and the auto-recycle countdown. It is derived from the same inputs
// the eligibility evaluator uses, so the presentation layer never re-derives
// business rules.
type ContactView struct {
	ID       string `json:"id"`
	ListID   string `json:"list_id"`
	Phone    string `json:"phone"`
	FullName string `json:"full_name,omitempty"`

	Disposition       contacts.Disposition `json:"disposition"`
	LastDispositionAt time.Time            `json:"last_disposition_at"`

	Locked   bool   `json:"locked"`
	LockedBy string `json:"locked_by,omitempty"`

	// AutoRecycleInMinutes is the indicator feeding the "auto-recycle in N
	// minutes" display; nil when the contact is not on a recycle trajectory.
	AutoRecycleInMinutes *int `json:"auto_recycle_in_minutes,omitempty"`
}

// ListReport aggregates one list's contact states.
type ListReport struct {
	ListID   string `json:"list_id"`
	ListName string `json:"list_name"`

	Total          int `json:"total"`
	Callable       int `json:"callable"`        // at NEW
	RecyclePending int `json:"recycle_pending"` // non-terminal, waiting on delay or policy
	Terminal       int `json:"terminal"`
	Locked         int `json:"locked"`

	ByDisposition map[contacts.Disposition]int `json:"by_disposition"`
}
