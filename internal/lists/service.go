package lists

import (
	"context"
	"fmt"
	"strings"
	"time"

	"callcenter-platform/internal/contacts"

	"github.com/google/uuid"
)

// Service owns list lifecycle and the Policy Store contract.
//
// Policy changes take effect on the next sweep cycle; no retroactive action
// is taken on contacts whose delay already elapsed, they are simply picked
// up by the following sweep.
type Service struct {
	store  Store
	ledger contacts.Ledger
	clock  func() time.Time
}

func NewService(store Store, ledger contacts.Ledger) *Service {
	return &Service{store: store, ledger: ledger, clock: time.Now}
}

func (s *Service) GetList(ctx context.Context, listID string) (ContactList, error) {
	if listID == "" {
		return ContactList{}, fmt.Errorf("%w: list id required", ErrValidation)
	}
	return s.store.Get(ctx, listID)
}

func (s *Service) ListActive(ctx context.Context) ([]ContactList, error) {
	return s.store.ListActive(ctx)
}

func (s *Service) GetPolicy(ctx context.Context, listID string) (RecyclePolicy, error) {
	l, err := s.GetList(ctx, listID)
	if err != nil {
		return RecyclePolicy{}, err
	}
	return l.Policy, nil
}

// SetPolicy validates and persists a list's recycling policy.
// Validation failures are reported synchronously; nothing is coerced.
func (s *Service) SetPolicy(ctx context.Context, listID string, p RecyclePolicy) error {
	if listID == "" {
		return fmt.Errorf("%w: list id required", ErrValidation)
	}
	if err := p.Validate(); err != nil {
		return err
	}
	return s.store.UpdatePolicy(ctx, listID, p, s.clock().UTC())
}

// ContactInput is one lead row from an import file.
type ContactInput struct {
	Phone    string `json:"phone"`
	FullName string `json:"full_name,omitempty"`
}

type CreateListRequest struct {
	Name       string         `json:"name"`
	SourceFile string         `json:"source_file,omitempty"`
	Contacts   []ContactInput `json:"contacts"`
}

// CreateList imports a batch: the list record with its default policy plus
// every contact at disposition NEW.
func (s *Service) CreateList(ctx context.Context, req CreateListRequest, importerID string) (ContactList, error) {
	if strings.TrimSpace(req.Name) == "" {
		return ContactList{}, fmt.Errorf("%w: name required", ErrValidation)
	}
	if importerID == "" {
		return ContactList{}, fmt.Errorf("%w: importer identity required", ErrValidation)
	}
	if len(req.Contacts) == 0 {
		return ContactList{}, fmt.Errorf("%w: at least one contact required", ErrValidation)
	}
	for i, c := range req.Contacts {
		if strings.TrimSpace(c.Phone) == "" {
			return ContactList{}, fmt.Errorf("%w: contact %d has no phone", ErrValidation, i)
		}
	}

	now := s.clock().UTC()
	l := ContactList{
		ID:         uuid.NewString(),
		Name:       strings.TrimSpace(req.Name),
		SourceFile: req.SourceFile,
		ImportedBy: importerID,
		Active:     true,
		Policy:     DefaultPolicy(),
		ImportedAt: now,
		UpdatedAt:  now,
	}
	if err := s.store.Insert(ctx, l); err != nil {
		return ContactList{}, err
	}

	batch := make([]contacts.Contact, 0, len(req.Contacts))
	for _, in := range req.Contacts {
		batch = append(batch, contacts.Contact{
			ID:                uuid.NewString(),
			ListID:            l.ID,
			Phone:             strings.TrimSpace(in.Phone),
			FullName:          strings.TrimSpace(in.FullName),
			Disposition:       contacts.DispositionNew,
			LastDispositionAt: now,
			CreatedAt:         now,
			UpdatedAt:         now,
		})
	}
	if err := s.ledger.InsertBatch(ctx, batch); err != nil {
		return ContactList{}, err
	}
	return l, nil
}
