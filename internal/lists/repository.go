package lists

import (
	"context"
	"time"
)

// Store is the persistence contract for contact lists and their policies.
type Store interface {
	Get(ctx context.Context, id string) (ContactList, error)
	Insert(ctx context.Context, l ContactList) error
	UpdatePolicy(ctx context.Context, listID string, p RecyclePolicy, now time.Time) error

	// ListActive returns lists still in rotation; the sweep iterates these.
	ListActive(ctx context.Context) ([]ContactList, error)
}
