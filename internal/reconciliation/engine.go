// Package reconciliation ensures every qualifying alert in a date window has
// its matching case notes, synthesizing any that are missing. Safe to run
// repeatedly over the same window: matching is exact (text, instant)
// equality so a second run after synthesis is a no-op.
package reconciliation

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/ministryofjustice/offender-case-notes/internal/alertnotes"
	"github.com/ministryofjustice/offender-case-notes/internal/alerts"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/store"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/types"
	"github.com/ministryofjustice/offender-case-notes/internal/events"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/metrics"
	"github.com/ministryofjustice/offender-case-notes/internal/users"
)

// AlertSource fetches alerts of interest for a person and window.
type AlertSource interface {
	CaseNoteAlerts(ctx context.Context, personIdentifier string, from, to time.Time) ([]alerts.Alert, error)
}

// Engine is the batch reconciliation engine.
type Engine struct {
	alerts     AlertSource
	store      store.Store
	registry   types.Registry
	publisher  events.Publisher
	systemUser *users.SystemUserCache
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer

	// writesEnabled gates synthesis. When false the engine reports missing
	// notes through telemetry but never writes.
	writesEnabled bool
}

func New(
	alertSource AlertSource,
	s store.Store,
	registry types.Registry,
	publisher events.Publisher,
	systemUser *users.SystemUserCache,
	m *metrics.Metrics,
	logger *slog.Logger,
	writesEnabled bool,
) *Engine {
	return &Engine{
		alerts:        alertSource,
		store:         s,
		registry:      registry,
		publisher:     publisher,
		systemUser:    systemUser,
		metrics:       m,
		logger:        logger,
		tracer:        otel.Tracer("reconciliation"),
		writesEnabled: writesEnabled,
	}
}

// missingNote is one alert transition with no matching case note.
type missingNote struct {
	alert alerts.Alert
	state string // ACTIVE or INACTIVE
	text  string
	at    time.Time
}

// Run reconciles one person over an inclusive date window.
func (e *Engine) Run(ctx context.Context, personIdentifier string, from, to time.Time) error {
	ctx, span := e.tracer.Start(ctx, "reconciliation.Run")
	defer span.End()

	fetched, err := e.alerts.CaseNoteAlerts(ctx, personIdentifier, from, to)
	if err != nil {
		return fmt.Errorf("reconcile %s: %w", personIdentifier, err)
	}
	if len(fetched) == 0 {
		return nil
	}

	spanFrom, spanTo := alertSpan(fetched)
	existing, err := e.store.Find(ctx, models.NoteFilter{
		PersonIdentifier: personIdentifier,
		TypeKeys:         []models.TypeKey{{Type: types.AlertTypeCode}},
		OccurredFrom:     &spanFrom,
		OccurredTo:       &spanTo,
	})
	if err != nil {
		return fmt.Errorf("reconcile %s: query existing notes: %w", personIdentifier, err)
	}

	missing := e.findMissing(fetched, existing)
	e.report(personIdentifier, from, to, missing)

	if !e.writesEnabled || len(missing) == 0 {
		return nil
	}
	return e.synthesize(ctx, personIdentifier, missing)
}

// findMissing matches every alert transition against existing notes.
func (e *Engine) findMissing(fetched []alerts.Alert, existing []*models.CaseNote) []missingNote {
	var missing []missingNote
	for _, a := range fetched {
		activeText := alertnotes.ActiveText(a)
		if !hasMatch(existing, activeText, a.CreatedAt) {
			missing = append(missing, missingNote{
				alert: a, state: types.AlertActiveSubType, text: activeText, at: a.CreatedAt,
			})
		}

		if a.MadeInactiveAt == nil {
			continue
		}
		inactiveText := alertnotes.InactiveText(a)
		if !hasMatch(existing, inactiveText, *a.MadeInactiveAt) {
			missing = append(missing, missingNote{
				alert: a, state: types.AlertInactiveSubType, text: inactiveText, at: *a.MadeInactiveAt,
			})
		}
	}
	return missing
}

// report emits the telemetry summary whether or not synthesis will happen.
func (e *Engine) report(personIdentifier string, from, to time.Time, missing []missingNote) {
	byType := make(map[string]int)
	for _, m := range missing {
		byType[m.alert.Type.Code]++
		e.metrics.MissingAlertNotes.WithLabelValues(m.alert.Type.Code, m.state).Inc()
	}
	e.logger.Info("alert reconciliation completed",
		"personIdentifier", personIdentifier,
		"from", from,
		"to", to,
		"missing", len(missing),
		"missingByType", byType,
		"writesEnabled", e.writesEnabled,
	)
}

func (e *Engine) synthesize(ctx context.Context, personIdentifier string, missing []missingNote) error {
	subTypes, err := e.registry.GetAll(ctx, []models.TypeKey{types.AlertActiveKey, types.AlertInactiveKey})
	if err != nil {
		return fmt.Errorf("resolve alert sub-types: %w", err)
	}
	activeSub, ok := subTypes[types.AlertActiveKey]
	if !ok {
		return fmt.Errorf("required sub-type %s missing from registry", types.AlertActiveKey)
	}
	inactiveSub, ok := subTypes[types.AlertInactiveKey]
	if !ok {
		return fmt.Errorf("required sub-type %s missing from registry", types.AlertInactiveKey)
	}

	author := e.systemUser.Author(ctx)

	notes := make([]*models.CaseNote, 0, len(missing))
	for _, m := range missing {
		sub := activeSub
		if m.state == types.AlertInactiveSubType {
			sub = inactiveSub
		}

		// Sequence reads deliberately sit outside the transaction; ids must
		// stay unique across concurrent runs even when a run rolls back.
		legacyID, err := e.store.NextLegacyID(ctx)
		if err != nil {
			return fmt.Errorf("allocate legacy id: %w", err)
		}
		notes = append(notes, alertnotes.BuildNote(
			personIdentifier, *sub, author, m.text, m.at, m.alert.PrisonCode, legacyID,
		))
	}

	err = e.store.RunInTx(ctx, func(ctx context.Context) error {
		return e.store.CreateBatch(ctx, notes)
	})
	if err != nil {
		return fmt.Errorf("persist synthesized notes: %w", err)
	}

	for _, n := range notes {
		e.metrics.NotesSynthesized.WithLabelValues(n.SubType.Code).Inc()
		if err := e.publisher.Publish(ctx, events.NewDomainEvent(events.TypeCaseNoteCreated, n)); err != nil {
			// The note is committed; the event can only be logged. Consumers
			// recover through the next reconciliation pass.
			e.logger.Error("publish created event failed", "noteId", n.ID, "err", err)
		}
	}
	return nil
}

// hasMatch looks for a note recording the transition already.
func hasMatch(existing []*models.CaseNote, text string, at time.Time) bool {
	for _, n := range existing {
		if alertnotes.MatchesNote(n, text, at) {
			return true
		}
	}
	return false
}

// alertSpan computes the overall date span covering every fetched alert's
// created, made-inactive, active-from and active-to instants. Synthesized
// notes carry second-precision instants, so the bounds truncate the same way
// or a fractional-second earliest instant would exclude its own note.
func alertSpan(fetched []alerts.Alert) (time.Time, time.Time) {
	var from, to time.Time
	consider := func(t time.Time) {
		if from.IsZero() || t.Before(from) {
			from = t
		}
		if to.IsZero() || t.After(to) {
			to = t
		}
	}
	for _, a := range fetched {
		consider(a.CreatedAt)
		consider(a.ActiveFrom)
		if a.ActiveTo != nil {
			consider(*a.ActiveTo)
		}
		if a.MadeInactiveAt != nil {
			consider(*a.MadeInactiveAt)
		}
	}
	return from.Truncate(time.Second), to.Truncate(time.Second)
}
