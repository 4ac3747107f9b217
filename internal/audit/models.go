package audit

import "time"

// Event is an immutable, append-only audit log record.
//
// Invariants:
// - Events are never updated or deleted.
// - Actor and ip capture are best-effort; do not block critical flows on
//   audit failures.
//
// Storage recommendation (Postgres):
// - Table audit_events with an INSERT-only policy.
// - Optional: trigger to prevent UPDATE/DELETE.
// - Optional: partition by time for retention.

type Event struct {
	ID string `json:"id" db:"id"`

	// Type indicates the business category of the audit record.
	Type EventType `json:"type" db:"type"`

	// ActorUserID is the authenticated user causing the event (if applicable).
	// Empty for system-originated events such as sweep summaries.
	ActorUserID string `json:"actor_user_id,omitempty" db:"actor_user_id"`
	ActorRole   string `json:"actor_role,omitempty" db:"actor_role"`

	// IPAddress should capture the original client IP when available.
	IPAddress string `json:"ip_address,omitempty" db:"ip_address"`

	// ListID is the contact list the event concerns.
	ListID string `json:"list_id,omitempty" db:"list_id"`

	// RecycledCount is the number of contacts reset by the recorded action.
	RecycledCount int `json:"recycled_count" db:"recycled_count"`

	// Message is a short human-readable description for internal ops.
	Message string `json:"message,omitempty" db:"message"`

	// Metadata is optional JSON for full details.
	Metadata string `json:"metadata,omitempty" db:"metadata"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

type EventType string

const (
	// EventTypeManualRecycle records one administrator-triggered bulk reset.
	EventTypeManualRecycle EventType = "manual_recycle"
	// EventTypeSweepSummary records one automatic sweep's per-list result.
	EventTypeSweepSummary EventType = "sweep_summary"
	// EventTypePolicyChange records an administrator editing a list policy.
	EventTypePolicyChange EventType = "policy_change"
)
