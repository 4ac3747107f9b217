package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for audit events.
//
// It MUST be append-only.
// No Update/Delete methods are provided by design.

type Repository interface {
	Append(ctx context.Context, e Event) error
}

// Service logs internal audit information.
//
// IMPORTANT:
// - Audit is internal-only. Do not expose these records to agents by default.
// - Callers should treat audit logging as best-effort.

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("audit: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("audit: repository not configured")
	}
	if e.Type == "" {
		return ErrInvalidEvent
	}
	if e.ListID == "" {
		return ErrInvalidEvent
	}

	now := s.clock().UTC()
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = now
	}
	return s.repo.Append(ctx, e)
}

// LogManualRecycle records one administrator-triggered bulk reset of a list.
func (s *Service) LogManualRecycle(ctx context.Context, actorUserID, actorRole, ip, listID string, recycled int) error {
	return s.Append(ctx, Event{
		Type:          EventTypeManualRecycle,
		ActorUserID:   actorUserID,
		ActorRole:     actorRole,
		IPAddress:     ip,
		ListID:        listID,
		RecycledCount: recycled,
		Message:       "manual recycle executed",
	})
}

// LogSweepSummary records one automatic sweep cycle's outcome for one list.
// Only called when the sweep actually recycled something, to keep the audit
// trail signal-dense.
func (s *Service) LogSweepSummary(ctx context.Context, listID string, recycled int) error {
	return s.Append(ctx, Event{
		Type:          EventTypeSweepSummary,
		ListID:        listID,
		RecycledCount: recycled,
		Message:       "automatic sweep recycled contacts",
	})
}

// LogPolicyChange records an administrator editing a list's recycle policy.
func (s *Service) LogPolicyChange(ctx context.Context, actorUserID, actorRole, ip, listID, metadata string) error {
	return s.Append(ctx, Event{
		Type:        EventTypePolicyChange,
		ActorUserID: actorUserID,
		ActorRole:   actorRole,
		IPAddress:   ip,
		ListID:      listID,
		Message:     "recycle policy updated",
		Metadata:    metadata,
	})
}
