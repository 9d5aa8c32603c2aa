// Package service exposes the user-facing case note operations: create,
// amend, retrieve, search and soft-delete. Mutations run transactionally and
// publish a domain event only after commit.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/store"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/types"
	"github.com/ministryofjustice/offender-case-notes/internal/events"
	"github.com/ministryofjustice/offender-case-notes/pkg/platform/sentinel"
)

// Service coordinates the note store, type registry and event publisher.
type Service struct {
	store     store.Store
	registry  types.Registry
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

type Option func(*Service)

// WithClock overrides the service clock. Tests only.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

func New(s store.Store, registry types.Registry, publisher events.Publisher, logger *slog.Logger, opts ...Option) (*Service, error) {
	if s == nil {
		return nil, fmt.Errorf("case note store is required")
	}
	if registry == nil {
		return nil, fmt.Errorf("type registry is required")
	}

	svc := &Service{
		store:     s,
		registry:  registry,
		publisher: publisher,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// CreateRequest carries a new user- or system-authored note.
type CreateRequest struct {
	PersonIdentifier string
	Type             string
	SubType          string
	OccurredAt       time.Time
	LocationID       string
	Author           models.Author
	Text             string
	// SystemGenerated bypasses the user-selectable check; system sources may
	// write to sub-types users cannot pick.
	SystemGenerated bool
}

// Create persists a new note and publishes the created event.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*models.CaseNote, error) {
	key := models.TypeKey{Type: req.Type, SubType: req.SubType}
	subType, err := s.registry.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("resolve sub-type %s: %w", key, err)
	}
	if !subType.Active {
		return nil, fmt.Errorf("sub-type %s is not active: %w", key, sentinel.ErrInvalidState)
	}
	if !req.SystemGenerated && !subType.DPSUserSelectable {
		return nil, fmt.Errorf("sub-type %s is not user selectable: %w", key, sentinel.ErrInvalidState)
	}

	note := &models.CaseNote{
		ID:               uuid.New(),
		PersonIdentifier: req.PersonIdentifier,
		SubType:          *subType,
		OccurredAt:       req.OccurredAt,
		LocationID:       req.LocationID,
		Author:           req.Author,
		Text:             req.Text,
		SystemGenerated:  req.SystemGenerated,
	}
	note.Audit.Stamp(req.Author.Username, s.now())

	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.CreateBatch(ctx, []*models.CaseNote{note})
	})
	if err != nil {
		return nil, fmt.Errorf("create case note: %w", err)
	}

	s.publish(ctx, events.TypeCaseNoteCreated, note)
	return note, nil
}

// Amend appends an addendum to an existing note.
func (s *Service) Amend(ctx context.Context, noteID uuid.UUID, author models.Author, text string) (*models.CaseNote, error) {
	amendment := models.Amendment{
		ID:        uuid.New(),
		Author:    author,
		Text:      text,
		CreatedAt: s.now(),
	}

	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.AddAmendment(ctx, noteID, amendment)
	})
	if err != nil {
		return nil, fmt.Errorf("amend case note %s: %w", noteID, err)
	}

	note, err := s.store.Get(ctx, noteID)
	if err != nil {
		return nil, fmt.Errorf("reload amended note: %w", err)
	}

	s.publish(ctx, events.TypeCaseNoteUpdated, note)
	return note, nil
}

// Get returns one note.
func (s *Service) Get(ctx context.Context, noteID uuid.UUID) (*models.CaseNote, error) {
	return s.store.Get(ctx, noteID)
}

// Find searches notes by filter.
func (s *Service) Find(ctx context.Context, filter models.NoteFilter) ([]*models.CaseNote, error) {
	return s.store.Find(ctx, filter)
}

// Delete soft-deletes a note: the full note and amendments are archived,
// the live record removed, and a deleted event published. Not reversible.
func (s *Service) Delete(ctx context.Context, noteID uuid.UUID, deletedBy string, cause models.DeletionCause) error {
	var deleted *models.CaseNote
	err := s.store.RunInTx(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = s.store.SoftDelete(ctx, noteID, deletedBy, cause)
		return err
	})
	if err != nil {
		return fmt.Errorf("delete case note %s: %w", noteID, err)
	}

	s.publish(ctx, events.TypeCaseNoteDeleted, deleted)
	return nil
}

// publish runs strictly after the owning transaction has committed. Failures
// are logged, never propagated: the write is durable, and reconciliation
// covers consumers that miss an event.
func (s *Service) publish(ctx context.Context, eventType string, note *models.CaseNote) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, events.NewDomainEvent(eventType, note)); err != nil {
		s.logger.Error("publish event failed", "eventType", eventType, "noteId", note.ID, "err", err)
	}
}
