package reporting

import (
	"context"
	"math"
	"time"

	"callcenter-platform/internal/contacts"
	"callcenter-platform/internal/lists"
	"callcenter-platform/internal/recycler"
)

// Service builds read-only projections over the contact ledger.
// No mutation paths here; recycling rules come from the recycler package.
type Service struct {
	store  lists.Store
	ledger contacts.Ledger
	clock  func() time.Time
}

func NewService(store lists.Store, ledger contacts.Ledger) *Service {
	return &Service{store: store, ledger: ledger, clock: time.Now}
}

// ContactViews returns the display projection for every contact in a list.
func (s *Service) ContactViews(ctx context.Context, listID string) ([]ContactView, error) {
	l, err := s.store.Get(ctx, listID)
	if err != nil {
		return nil, err
	}
	cs, err := s.ledger.ListByList(ctx, listID)
	if err != nil {
		return nil, err
	}

	now := s.clock().UTC()
	out := make([]ContactView, 0, len(cs))
	for _, c := range cs {
		v := ContactView{
			ID:                c.ID,
			ListID:            c.ListID,
			Phone:             c.Phone,
			FullName:          c.FullName,
			Disposition:       c.Disposition,
			LastDispositionAt: c.LastDispositionAt,
			Locked:            c.Locked(now),
		}
		if v.Locked {
			v.LockedBy = c.LockedBy
		}
		if eta, ok := recycler.RecycleETA(c, l.Policy, now); ok {
			mins := int(math.Ceil(eta.Minutes()))
			v.AutoRecycleInMinutes = &mins
		}
		out = append(out, v)
	}
	return out, nil
}

// ListReport aggregates disposition counts for one list.
func (s *Service) ListReport(ctx context.Context, listID string) (ListReport, error) {
	l, err := s.store.Get(ctx, listID)
	if err != nil {
		return ListReport{}, err
	}
	cs, err := s.ledger.ListByList(ctx, listID)
	if err != nil {
		return ListReport{}, err
	}

	now := s.clock().UTC()
	rep := ListReport{
		ListID:        l.ID,
		ListName:      l.Name,
		ByDisposition: make(map[contacts.Disposition]int),
	}
	for _, c := range cs {
		rep.Total++
		rep.ByDisposition[c.Disposition]++
		if c.Locked(now) {
			rep.Locked++
		}
		switch {
		case c.Disposition == contacts.DispositionNew:
			rep.Callable++
		case c.Disposition.TerminalForRecycling():
			rep.Terminal++
		default:
			rep.RecyclePending++
		}
	}
	return rep, nil
}
