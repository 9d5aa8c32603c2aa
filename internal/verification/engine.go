// Package verification is the event-driven sibling of reconciliation: it
// checks a single alert's case notes on demand rather than sweeping a
// person's window. Activity state is computed live from activeTo instead of
// trusting the madeInactive flag, and the note wording is date-sensitive for
// two historical sub-types.
package verification

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

// Engine verifies one alert's derived notes and synthesizes what is missing.
type Engine struct {
	store      store.Store
	registry   types.Registry
	publisher  events.Publisher
	systemUser *users.SystemUserCache
	metrics    *metrics.Metrics
	logger     *slog.Logger
	tracer     trace.Tracer
	now        func() time.Time

	writesEnabled bool
}

func New(
	s store.Store,
	registry types.Registry,
	publisher events.Publisher,
	systemUser *users.SystemUserCache,
	m *metrics.Metrics,
	logger *slog.Logger,
	writesEnabled bool,
) *Engine {
	return &Engine{
		store:         s,
		registry:      registry,
		publisher:     publisher,
		systemUser:    systemUser,
		metrics:       m,
		logger:        logger,
		tracer:        otel.Tracer("verification"),
		now:           time.Now,
		writesEnabled: writesEnabled,
	}
}

// WithClock overrides the activity clock. Tests only.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

// Verify checks the alert's ACTIVE note, and its INACTIVE note when the
// alert is no longer live, creating whichever is absent.
func (e *Engine) Verify(ctx context.Context, personIdentifier string, alert alerts.Alert) error {
	ctx, span := e.tracer.Start(ctx, "verification.Verify")
	defer span.End()

	from, to := alertInstants(alert)
	existing, err := e.store.Find(ctx, models.NoteFilter{
		PersonIdentifier: personIdentifier,
		TypeKeys:         []models.TypeKey{{Type: types.AlertTypeCode}},
		OccurredFrom:     &from,
		OccurredTo:       &to,
	})
	if err != nil {
		return fmt.Errorf("verify alert %s: query existing notes: %w", alert.AlertUUID, err)
	}

	type candidate struct {
		state string
		text  string
		at    time.Time
	}

	var needed []candidate
	if !matched(existing, activeText(alert), alert.CreatedAt) {
		needed = append(needed, candidate{types.AlertActiveSubType, activeText(alert), alert.CreatedAt})
	}
	if !alert.IsActive(e.now()) && alert.MadeInactiveAt != nil {
		if !matched(existing, inactiveText(alert), *alert.MadeInactiveAt) {
			needed = append(needed, candidate{types.AlertInactiveSubType, inactiveText(alert), *alert.MadeInactiveAt})
		}
	}

	for _, c := range needed {
		e.metrics.MissingAlertNotes.WithLabelValues(alert.Type.Code, c.state).Inc()
	}
	e.logger.Info("alert verification completed",
		"personIdentifier", personIdentifier,
		"alertUuid", alert.AlertUUID,
		"missing", len(needed),
		"writesEnabled", e.writesEnabled,
	)

	if !e.writesEnabled || len(needed) == 0 {
		return nil
	}

	subTypes, err := e.registry.GetAll(ctx, []models.TypeKey{types.AlertActiveKey, types.AlertInactiveKey})
	if err != nil {
		return fmt.Errorf("resolve alert sub-types: %w", err)
	}
	author := e.systemUser.Author(ctx)

	notes := make([]*models.CaseNote, 0, len(needed))
	for _, c := range needed {
		sub, ok := subTypes[models.TypeKey{Type: types.AlertTypeCode, SubType: c.state}]
		if !ok {
			return fmt.Errorf("required sub-type %s:%s missing from registry", types.AlertTypeCode, c.state)
		}
		legacyID, err := e.store.NextLegacyID(ctx)
		if err != nil {
			return fmt.Errorf("allocate legacy id: %w", err)
		}
		notes = append(notes, alertnotes.BuildNote(
			personIdentifier, *sub, author, c.text, c.at, alert.PrisonCode, legacyID,
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
			e.logger.Error("publish created event failed", "noteId", n.ID, "err", err)
		}
	}
	return nil
}

func matched(existing []*models.CaseNote, text string, at time.Time) bool {
	for _, n := range existing {
		if alertnotes.MatchesNote(n, text, at) {
			return true
		}
	}
	return false
}

// alertInstants is the span of instants this alert could have produced notes
// at. Bounds truncate to seconds to line up with the second-precision
// instants synthesized notes are stored with.
func alertInstants(a alerts.Alert) (time.Time, time.Time) {
	from, to := a.CreatedAt, a.CreatedAt
	consider := func(t time.Time) {
		if t.Before(from) {
			from = t
		}
		if t.After(to) {
			to = t
		}
	}
	consider(a.ActiveFrom)
	if a.ActiveTo != nil {
		consider(*a.ActiveTo)
	}
	if a.MadeInactiveAt != nil {
		consider(*a.MadeInactiveAt)
	}
	return from.Truncate(time.Second), to.Truncate(time.Second)
}
