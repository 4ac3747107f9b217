package recycler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"callcenter-platform/internal/contacts"
	"callcenter-platform/internal/lists"
	"callcenter-platform/internal/metrics"
)

// Auditor receives engine audit events. Implementations must be best-effort;
// the recycle paths never fail because auditing failed.
type Auditor interface {
	LogManualRecycle(ctx context.Context, actorUserID, actorRole, ip, listID string, recycled int) error
	LogSweepSummary(ctx context.Context, listID string, recycled int) error
}

// SweepStats summarizes one automatic sweep cycle.
type SweepStats struct {
	ListsScanned int
	ListsSkipped int
	ListsFailed  int
	Recycled     int
	Conflicts    int
}

// Sweeper is the Automatic Recycler: a periodic background task that returns
// delay-elapsed contacts to the callable pool, list by list.
//
// One cycle never aborts because a single list failed; the failed list is
// retried on the next cycle. Each transition is an optimistic conditional
// update, so sweeps are idempotent and never race an agent mid-call.
type Sweeper struct {
	store  lists.Store
	ledger contacts.Ledger
	mutex  ListMutex
	audit  Auditor

	interval  time.Duration
	batchSize int

	log   *slog.Logger
	clock func() time.Time
}

func NewSweeper(store lists.Store, ledger contacts.Ledger, mutex ListMutex, audit Auditor, interval time.Duration, batchSize int, log *slog.Logger) *Sweeper {
	if log == nil {
		log = slog.Default()
	}
	return &Sweeper{
		store:     store,
		ledger:    ledger,
		mutex:     mutex,
		audit:     audit,
		interval:  interval,
		batchSize: batchSize,
		log:       log,
		clock:     time.Now,
	}
}

// Run executes sweep cycles on a fixed cadence until ctx is canceled.
// Intended to be started as a goroutine from main; shutdown is ctx-driven.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("sweeper started", "interval", s.interval.String())
	for {
		select {
		case <-ctx.Done():
			s.log.Info("sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep executes one full cycle across all active, policy-enabled lists.
// Exposed separately from Run so tests drive cycles directly instead of
// waiting on the wall clock.
func (s *Sweeper) Sweep(ctx context.Context) SweepStats {
	start := s.clock()
	var stats SweepStats

	ls, err := s.store.ListActive(ctx)
	if err != nil {
		// Nothing recycled this cycle; try again on the next tick.
		s.log.Error("sweep: listing active lists failed", "err", err)
		stats.ListsFailed++
		metrics.SweepListFailures.Inc()
		return stats
	}

	for _, l := range ls {
		if !l.Policy.Enabled || len(l.Policy.EligibleOutcomes) == 0 {
			continue
		}
		stats.ListsScanned++

		recycled, conflicts, err := s.sweepList(ctx, l)
		stats.Recycled += recycled
		stats.Conflicts += conflicts
		if err != nil {
			if errors.Is(err, errListBusy) {
				// A manual recycle owns the list right now; this cycle
				// simply moves on.
				stats.ListsScanned--
				stats.ListsSkipped++
				continue
			}
			stats.ListsFailed++
			metrics.SweepListFailures.Inc()
			s.log.Error("sweep: list failed, will retry next cycle", "list_id", l.ID, "err", err)
			continue
		}
		if recycled > 0 && s.audit != nil {
			if aerr := s.audit.LogSweepSummary(ctx, l.ID, recycled); aerr != nil {
				s.log.Warn("sweep: audit summary failed", "list_id", l.ID, "err", aerr)
			}
		}
	}

	metrics.SweepCycles.Inc()
	metrics.ContactsRecycled.WithLabelValues("auto").Add(float64(stats.Recycled))
	metrics.SweepConflicts.Add(float64(stats.Conflicts))
	metrics.SweepDuration.Observe(s.clock().Sub(start).Seconds())

	if stats.Recycled > 0 || stats.ListsFailed > 0 {
		s.log.Info("sweep cycle done",
			"lists_scanned", stats.ListsScanned,
			"lists_failed", stats.ListsFailed,
			"recycled", stats.Recycled,
			"conflicts", stats.Conflicts,
		)
	}
	return stats
}

var errListBusy = errors.New("recycler: list busy")

func (s *Sweeper) sweepList(ctx context.Context, l lists.ContactList) (recycled, conflicts int, err error) {
	// Hold the per-list lease for the duration of the scan so a concurrent
	// manual recycle cannot interleave with these transitions.
	unlock, ok, err := s.mutex.TryLock(ctx, l.ID, s.interval)
	if err != nil {
		return 0, 0, err
	}
	if !ok {
		return 0, 0, errListBusy
	}
	defer func() {
		if uerr := unlock(ctx); uerr != nil {
			s.log.Warn("sweep: lease release failed", "list_id", l.ID, "err", uerr)
		}
	}()

	now := s.clock().UTC()
	candidates, err := s.ledger.ListCandidates(ctx, l.ID, l.Policy.EligibleOutcomes, now, s.batchSize)
	if err != nil {
		return 0, 0, err
	}

	for _, c := range candidates {
		if !IsEligible(c, l.Policy, now) {
			continue
		}
		switch err := s.ledger.Recycle(ctx, c.ID, c.Disposition, now); {
		case err == nil:
			recycled++
		case errors.Is(err, contacts.ErrConflict):
			// Lost the race to an agent or another writer: already handled.
			conflicts++
		case errors.Is(err, contacts.ErrNotFound):
			// Deleted underneath the scan; nothing to do.
		default:
			return recycled, conflicts, err
		}
	}
	return recycled, conflicts, nil
}
