package alertnotes

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/ministryofjustice/offender-case-notes/internal/alerts"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/store"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/types"
	"github.com/ministryofjustice/offender-case-notes/internal/events"
	"github.com/ministryofjustice/offender-case-notes/internal/users"
)

//go:generate mockgen -source=handler.go -destination=mocks/mocks.go -package=mocks

// AlertsAPI fetches a single alert.
type AlertsAPI interface {
	Alert(ctx context.Context, alertUUID uuid.UUID) (*alerts.Alert, error)
}

// PrisonLookup resolves a person's current prison code.
type PrisonLookup interface {
	PrisonCode(ctx context.Context, personIdentifier string) (string, error)
}

// Gate answers whether a prison receives alert case notes.
type Gate interface {
	Enabled(ctx context.Context, prisonCode string) (bool, error)
}

// UserLookup resolves a username to display details.
type UserLookup interface {
	Details(ctx context.Context, username string) (*users.Details, error)
}

// Handler reacts to individual alert lifecycle events by creating exactly
// one note per event. It never deduplicates: delivery is assumed
// at-most-once, and the reconciliation/verification engines correct any
// drift when that assumption is violated.
type Handler struct {
	alerts     AlertsAPI
	prisons    PrisonLookup
	gate       Gate
	userLookup UserLookup
	store      store.Store
	registry   types.Registry
	publisher  events.Publisher
	systemUser *users.SystemUserCache
	logger     *slog.Logger
}

func NewHandler(
	alertsAPI AlertsAPI,
	prisons PrisonLookup,
	gate Gate,
	userLookup UserLookup,
	s store.Store,
	registry types.Registry,
	publisher events.Publisher,
	systemUser *users.SystemUserCache,
	logger *slog.Logger,
) *Handler {
	return &Handler{
		alerts:     alertsAPI,
		prisons:    prisons,
		gate:       gate,
		userLookup: userLookup,
		store:      s,
		registry:   registry,
		publisher:  publisher,
		systemUser: systemUser,
		logger:     logger,
	}
}

// HandleCreated records an "alert became active" note dated at the alert's
// creation time.
func (h *Handler) HandleCreated(ctx context.Context, ev events.AlertEvent) error {
	alert, proceed, err := h.gatedAlert(ctx, ev)
	if err != nil || !proceed {
		return err
	}

	author := h.resolveAuthor(ctx, alert.CreatedBy)
	return h.createNote(ctx, ev.PersonIdentifier, *alert,
		types.AlertActiveKey, ActiveText(*alert), alert.CreatedAt, author)
}

// HandleInactive records an "alert became inactive" note dated at the
// event's occurred-at time. The inactivation is attributed to the user who
// last set activeTo only when that edit is the inactivation itself; a later
// unrelated editor must not be credited.
func (h *Handler) HandleInactive(ctx context.Context, ev events.AlertEvent) error {
	alert, proceed, err := h.gatedAlert(ctx, ev)
	if err != nil || !proceed {
		return err
	}

	author := h.systemUser.Author(ctx)
	if alert.MadeInactiveAt != nil && alert.ActiveToLastSetAt != nil &&
		alert.MadeInactiveAt.Equal(*alert.ActiveToLastSetAt) && alert.ActiveToLastSetBy != "" {
		author = h.resolveAuthor(ctx, alert.ActiveToLastSetBy)
	}

	return h.createNote(ctx, ev.PersonIdentifier, *alert,
		types.AlertInactiveKey, InactiveText(*alert), ev.OccurredAt, author)
}

// gatedAlert fetches the alert and applies prison gating. proceed is false
// for the silent skips: alert gone, or prison not configured.
func (h *Handler) gatedAlert(ctx context.Context, ev events.AlertEvent) (*alerts.Alert, bool, error) {
	alert, err := h.alerts.Alert(ctx, ev.AlertUUID)
	if err != nil {
		return nil, false, fmt.Errorf("fetch alert %s: %w", ev.AlertUUID, err)
	}
	if alert == nil {
		h.logger.Warn("alert not found, skipping", "alertUuid", ev.AlertUUID)
		return nil, false, nil
	}

	prison, err := h.prisons.PrisonCode(ctx, ev.PersonIdentifier)
	if err != nil {
		return nil, false, fmt.Errorf("resolve prison for %s: %w", ev.PersonIdentifier, err)
	}
	enabled, err := h.gate.Enabled(ctx, prison)
	if err != nil {
		return nil, false, fmt.Errorf("check alert gating for %s: %w", prison, err)
	}
	if !enabled {
		// Not an error: the prison simply has not been switched on.
		h.logger.Debug("prison not configured for alert notes, skipping",
			"prison", prison, "alertUuid", ev.AlertUUID)
		return nil, false, nil
	}
	return alert, true, nil
}

func (h *Handler) resolveAuthor(ctx context.Context, username string) models.Author {
	if username == "" {
		return h.systemUser.Author(ctx)
	}
	details, err := h.userLookup.Details(ctx, username)
	if err != nil || details == nil {
		if err != nil {
			h.logger.Warn("user lookup failed, using username only", "username", username, "err", err)
		}
		return models.Author{Username: username, Name: username}
	}
	return models.Author{Username: details.Username, UserID: details.UserID, Name: details.Name}
}

func (h *Handler) createNote(
	ctx context.Context,
	personIdentifier string,
	alert alerts.Alert,
	key models.TypeKey,
	text string,
	at time.Time,
	author models.Author,
) error {
	subType, err := h.registry.Get(ctx, key)
	if err != nil {
		return fmt.Errorf("resolve sub-type %s: %w", key, err)
	}
	legacyID, err := h.store.NextLegacyID(ctx)
	if err != nil {
		return fmt.Errorf("allocate legacy id: %w", err)
	}

	note := BuildNote(personIdentifier, *subType, author, text, at, alert.PrisonCode, legacyID)
	err = h.store.RunInTx(ctx, func(ctx context.Context) error {
		return h.store.CreateBatch(ctx, []*models.CaseNote{note})
	})
	if err != nil {
		return fmt.Errorf("persist alert note: %w", err)
	}

	if err := h.publisher.Publish(ctx, events.NewDomainEvent(events.TypeCaseNoteCreated, note)); err != nil {
		h.logger.Error("publish created event failed", "noteId", note.ID, "err", err)
	}
	return nil
}
