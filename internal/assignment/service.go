// Package assignment guarantees a contact is checked out to at most one
// agent at a time. Locks carry a TTL so a crashed softphone or browser never
// strands a contact: once expired, the lock counts as released for recycling
// and the contact is re-acquirable, while the original call flow remains
// responsible for eventually writing its disposition.
package assignment

import (
	"context"
	"fmt"
	"time"

	"callcenter-platform/internal/contacts"
)

// ErrLockHeld mirrors the ledger sentinel for callers that only import this
// package.
var ErrLockHeld = contacts.ErrLockHeld

var errInvalidArgument = fmt.Errorf("%w: contact id and agent id required", contacts.ErrValidation)

type Service struct {
	ledger contacts.Ledger
	ttl    time.Duration
	clock  func() time.Time
}

func NewService(ledger contacts.Ledger, ttl time.Duration) *Service {
	return &Service{ledger: ledger, ttl: ttl, clock: time.Now}
}

// Acquire checks the contact out to the agent until now+TTL. Re-acquiring
// your own lock refreshes the expiry (heartbeat for long calls).
func (s *Service) Acquire(ctx context.Context, contactID, agentID string) (contacts.Contact, error) {
	if contactID == "" || agentID == "" {
		return contacts.Contact{}, errInvalidArgument
	}
	return s.ledger.Acquire(ctx, contactID, agentID, s.clock().UTC(), s.ttl)
}

// Release gives the contact back without a disposition write (agent skipped
// it, wrong assignment, etc.). Releasing a lock you no longer hold is a
// no-op, not an error.
func (s *Service) Release(ctx context.Context, contactID, agentID string) error {
	if contactID == "" || agentID == "" {
		return errInvalidArgument
	}
	return s.ledger.Release(ctx, contactID, agentID)
}
