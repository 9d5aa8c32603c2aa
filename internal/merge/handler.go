// Package merge re-homes case notes when two person identifiers are found
// to refer to the same person and one is retired.
package merge

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/store"
	"github.com/ministryofjustice/offender-case-notes/internal/events"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/metrics"
)

// Handler processes person-identifiers-merged events.
type Handler struct {
	store   store.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
	tracer  trace.Tracer
}

func NewHandler(s store.Store, m *metrics.Metrics, logger *slog.Logger) *Handler {
	return &Handler{store: s, metrics: m, logger: logger, tracer: otel.Tracer("merge")}
}

// Handle moves every note (any type, unfiltered) from the removed identifier
// onto the surviving one. The move is delete-then-recreate: each note is
// re-keyed but keeps its id, legacy id, amendments, audit stamps and version
// exactly. One transaction covers the whole merge, so a failure re-homes
// nothing.
func (h *Handler) Handle(ctx context.Context, ev events.MergeEvent) error {
	ctx, span := h.tracer.Start(ctx, "merge.Handle")
	defer span.End()

	if ev.NomsNumber == "" || ev.RemovedNomsNumber == "" {
		return fmt.Errorf("merge event missing identifiers: surviving=%q removed=%q",
			ev.NomsNumber, ev.RemovedNomsNumber)
	}

	notes, err := h.store.ListByPerson(ctx, ev.RemovedNomsNumber)
	if err != nil {
		return fmt.Errorf("list notes for %s: %w", ev.RemovedNomsNumber, err)
	}
	if len(notes) == 0 {
		return nil
	}

	err = h.store.RunInTx(ctx, func(ctx context.Context) error {
		for _, original := range notes {
			rekeyed := *original
			rekeyed.PersonIdentifier = ev.NomsNumber
			rekeyed.Amendments = append([]models.Amendment(nil), original.Amendments...)

			if err := h.store.HardDelete(ctx, original.ID); err != nil {
				return fmt.Errorf("delete note %s: %w", original.ID, err)
			}
			if err := h.store.CreateBatch(ctx, []*models.CaseNote{&rekeyed}); err != nil {
				return fmt.Errorf("recreate note %s: %w", original.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("merge %s into %s: %w", ev.RemovedNomsNumber, ev.NomsNumber, err)
	}

	h.metrics.MergedNotes.Add(float64(len(notes)))
	h.logger.Info("re-homed case notes after identifier merge",
		"surviving", ev.NomsNumber,
		"removed", ev.RemovedNomsNumber,
		"notes", len(notes),
	)
	return nil
}
