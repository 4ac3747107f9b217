package recycler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"callcenter-platform/internal/contacts"
	"callcenter-platform/internal/lists"
	"callcenter-platform/internal/metrics"
)

// ErrListBusy means another recycle run (manual or sweep) currently owns the
// list; the administrator should retry shortly.
var ErrListBusy = errors.New("recycler: another recycle is running for this list")

// ManualRecycler performs the administrator-triggered bulk reset of a list.
//
// Unlike the sweep it ignores the configured delay and runs even when the
// policy is disabled: it is an explicit, audited action, not a policy
// decision. Terminal outcomes and validly locked contacts are still
// preserved, and the whole reset is all-or-nothing.
type ManualRecycler struct {
	store  lists.Store
	ledger contacts.Ledger
	mutex  ListMutex
	audit  Auditor

	timeout time.Duration

	log   *slog.Logger
	clock func() time.Time
}

func NewManualRecycler(store lists.Store, ledger contacts.Ledger, mutex ListMutex, audit Auditor, timeout time.Duration, log *slog.Logger) *ManualRecycler {
	if log == nil {
		log = slog.Default()
	}
	return &ManualRecycler{
		store:   store,
		ledger:  ledger,
		mutex:   mutex,
		audit:   audit,
		timeout: timeout,
		log:     log,
		clock:   time.Now,
	}
}

// RecycleList resets every non-terminal, unlocked contact in the list to NEW
// and returns how many were reset. On any failure the ledger is left exactly
// as it was and no count is reported.
func (m *ManualRecycler) RecycleList(ctx context.Context, listID, actorID, actorRole, actorIP string) (int, error) {
	if listID == "" {
		return 0, fmt.Errorf("%w: list id required", lists.ErrValidation)
	}
	if actorID == "" {
		return 0, fmt.Errorf("%w: actor identity required", lists.ErrValidation)
	}
	if _, err := m.store.Get(ctx, listID); err != nil {
		return 0, err
	}

	// Bulk work is bounded: past the deadline we report failure rather than
	// hang; the reset itself commits fully or not at all.
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	unlock, ok, err := m.mutex.TryLock(ctx, listID, m.timeout)
	if err != nil {
		return 0, err
	}
	if !ok {
		metrics.ManualRecycles.WithLabelValues("busy").Inc()
		return 0, ErrListBusy
	}
	defer func() {
		if uerr := unlock(context.WithoutCancel(ctx)); uerr != nil {
			m.log.Warn("manual recycle: lease release failed", "list_id", listID, "err", uerr)
		}
	}()

	n, err := m.ledger.ResetList(ctx, listID, m.clock().UTC())
	if err != nil {
		metrics.ManualRecycles.WithLabelValues("error").Inc()
		return 0, err
	}

	metrics.ManualRecycles.WithLabelValues("ok").Inc()
	metrics.ContactsRecycled.WithLabelValues("manual").Add(float64(n))
	m.log.Info("manual recycle done", "list_id", listID, "actor", actorID, "recycled", n)

	if m.audit != nil {
		if aerr := m.audit.LogManualRecycle(ctx, actorID, actorRole, actorIP, listID, n); aerr != nil {
			m.log.Warn("manual recycle: audit failed", "list_id", listID, "err", aerr)
		}
	}
	return n, nil
}
