package nomissync

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/store"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/types"
	"github.com/ministryofjustice/offender-case-notes/internal/events"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/metrics"
	"github.com/ministryofjustice/offender-case-notes/pkg/platform/dedupe"
)

// Service is the sync/migration pipeline.
type Service struct {
	store     store.Store
	registry  types.Registry
	publisher events.Publisher
	metrics   *metrics.Metrics
	logger    *slog.Logger
	tracer    trace.Tracer
}

func New(s store.Store, registry types.Registry, publisher events.Publisher, m *metrics.Metrics, logger *slog.Logger) *Service {
	return &Service{
		store:     s,
		registry:  registry,
		publisher: publisher,
		metrics:   m,
		logger:    logger,
		tracer:    otel.Tracer("nomissync"),
	}
}

// SyncBatch ingests a batch of legacy case notes. All-or-nothing: any
// validation or type resolution failure rejects the whole batch and persists
// zero notes. Results come back in request order.
func (s *Service) SyncBatch(ctx context.Context, reqs []SyncRequest) ([]SyncResult, error) {
	ctx, span := s.tracer.Start(ctx, "nomissync.SyncBatch")
	defer span.End()

	if len(reqs) == 0 {
		return nil, nil
	}

	for i, r := range reqs {
		if err := r.Validate(); err != nil {
			s.countBatch("rejected")
			return nil, fmt.Errorf("sync request %d (legacy id %d): %w", i, r.LegacyID, err)
		}
		if r.ID != nil {
			s.countBatch("rejected")
			return nil, fmt.Errorf("sync request %d (legacy id %d): updates to migrated notes are not supported", i, r.LegacyID)
		}
	}

	subTypes, err := s.resolveTypes(ctx, reqs)
	if err != nil {
		s.countBatch("rejected")
		return nil, err
	}

	notes := make([]*models.CaseNote, 0, len(reqs))
	results := make([]SyncResult, 0, len(reqs))
	for _, r := range reqs {
		legacyID := r.LegacyID
		note := &models.CaseNote{
			ID:               uuid.New(),
			PersonIdentifier: r.PersonIdentifier,
			SubType:          *subTypes[r.Key()],
			OccurredAt:       r.OccurredAt,
			LocationID:       r.LocationID,
			Author: models.Author{
				Username: r.AuthorUsername,
				UserID:   r.AuthorUserID,
				Name:     r.AuthorName,
			},
			Text:            r.Text,
			SystemGenerated: r.SystemGenerated,
			LegacyID:        &legacyID,
		}
		// Original legacy stamps, not the request time.
		note.Audit.Stamp(r.CreatedBy, r.CreatedAt)

		for _, a := range r.Amendments {
			note.Amendments = append(note.Amendments, models.Amendment{
				ID: uuid.New(),
				Author: models.Author{
					Username: a.AuthorUsername,
					UserID:   a.AuthorUserID,
					Name:     a.AuthorName,
				},
				Text:      a.Text,
				CreatedAt: a.CreatedAt,
			})
		}

		notes = append(notes, note)
		results = append(results, SyncResult{ID: note.ID, LegacyID: legacyID})
	}

	err = s.store.RunInTx(ctx, func(ctx context.Context) error {
		return s.store.CreateBatch(ctx, notes)
	})
	if err != nil {
		s.countBatch("failed")
		return nil, fmt.Errorf("persist sync batch: %w", err)
	}

	for _, n := range notes {
		if err := s.publisher.Publish(ctx, events.NewDomainEvent(events.TypeCaseNoteCreated, n)); err != nil {
			s.logger.Error("publish created event failed", "noteId", n.ID, "err", err)
		}
	}

	s.countBatch("success")
	s.logger.Info("sync batch processed", "notes", len(notes))
	return results, nil
}

// MigrationResults reports which of the legacy ids already migrated.
func (s *Service) MigrationResults(ctx context.Context, legacyIDs []int64) ([]MigrationResult, error) {
	migrated, err := s.store.MigratedLegacyIDs(ctx, dedupe.Values(legacyIDs))
	if err != nil {
		return nil, fmt.Errorf("look up migrated legacy ids: %w", err)
	}

	results := make([]MigrationResult, 0, len(migrated))
	for _, legacyID := range dedupe.Values(legacyIDs) {
		if id, ok := migrated[legacyID]; ok {
			results = append(results, MigrationResult{LegacyID: legacyID, ID: id})
		}
	}
	return results, nil
}

// resolveTypes resolves every distinct (type, sub-type) pair in one lookup
// and enforces sync eligibility. Both failure modes enumerate all offending
// pairs.
func (s *Service) resolveTypes(ctx context.Context, reqs []SyncRequest) (map[models.TypeKey]*models.SubType, error) {
	keys := make([]models.TypeKey, 0, len(reqs))
	for _, r := range reqs {
		keys = append(keys, r.Key())
	}
	keys = dedupe.Values(keys)

	subTypes, err := s.registry.GetAll(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("resolve sync types: %w", err)
	}

	var missing, ineligible []models.TypeKey
	for _, k := range keys {
		st, ok := subTypes[k]
		switch {
		case !ok:
			missing = append(missing, k)
		case !st.SyncToNomis:
			ineligible = append(ineligible, k)
		}
	}
	if len(missing) > 0 {
		return nil, &TypeError{Reason: "unknown case note types", Keys: missing}
	}
	if len(ineligible) > 0 {
		return nil, &TypeError{Reason: "case note types not sync eligible", Keys: ineligible}
	}
	return subTypes, nil
}

func (s *Service) countBatch(outcome string) {
	if s.metrics != nil {
		s.metrics.SyncBatches.WithLabelValues(outcome).Inc()
	}
}
