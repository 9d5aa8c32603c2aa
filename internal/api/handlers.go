package api

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/service"
	"github.com/ministryofjustice/offender-case-notes/internal/events"
	"github.com/ministryofjustice/offender-case-notes/internal/nomissync"
	"github.com/ministryofjustice/offender-case-notes/pkg/platform/sentinel"
)

// HealthChecker pings one backing resource.
type HealthChecker func(ctx context.Context) error

// TriggerPublisher fans reconciliation triggers out to the work queue.
type TriggerPublisher interface {
	PublishTriggers(ctx context.Context, triggers []events.ReconciliationTrigger) error
}

// Handler is the thin HTTP layer.
type Handler struct {
	notes    *service.Service
	sync     *nomissync.Service
	triggers TriggerPublisher
	checks   map[string]HealthChecker
	logger   *slog.Logger
}

func NewHandler(notes *service.Service, sync *nomissync.Service, triggers TriggerPublisher, checks map[string]HealthChecker, logger *slog.Logger) *Handler {
	return &Handler{notes: notes, sync: sync, triggers: triggers, checks: checks, logger: logger}
}

// Health reports per-dependency status.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	components := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			components[name] = "DOWN"
			status = http.StatusServiceUnavailable
		} else {
			components[name] = "UP"
		}
	}
	writeJSON(w, status, map[string]any{"components": components})
}

type createNoteRequest struct {
	Type       string    `json:"type"`
	SubType    string    `json:"subType"`
	OccurredAt time.Time `json:"occurrenceDateTime"`
	LocationID string    `json:"locationId"`
	Text       string    `json:"text"`
}

func (r createNoteRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Type, validation.Required),
		validation.Field(&r.SubType, validation.Required),
		validation.Field(&r.OccurredAt, validation.Required),
		validation.Field(&r.Text, validation.Required, validation.Length(1, 30000)),
	)
}

// CreateCaseNote persists a user-authored note.
func (h *Handler) CreateCaseNote(w http.ResponseWriter, r *http.Request) {
	var req createNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	username := Username(r.Context())
	note, err := h.notes.Create(r.Context(), service.CreateRequest{
		PersonIdentifier: chi.URLParam(r, "personIdentifier"),
		Type:             req.Type,
		SubType:          req.SubType,
		OccurredAt:       req.OccurredAt,
		LocationID:       req.LocationID,
		Author:           models.Author{Username: username, Name: username},
		Text:             req.Text,
	})
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toCaseNoteResponse(note))
}

// SearchCaseNotes filters a person's notes.
func (h *Handler) SearchCaseNotes(w http.ResponseWriter, r *http.Request) {
	filter := models.NoteFilter{
		PersonIdentifier: chi.URLParam(r, "personIdentifier"),
	}
	q := r.URL.Query()
	if t := q.Get("type"); t != "" {
		filter.TypeKeys = []models.TypeKey{{Type: t, SubType: q.Get("subType")}}
	}
	if from, ok := parseDate(q.Get("from")); ok {
		filter.OccurredFrom = &from
	}
	if to, ok := parseDate(q.Get("to")); ok {
		filter.OccurredTo = &to
	}

	notes, err := h.notes.Find(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}

	responses := make([]CaseNoteResponse, 0, len(notes))
	for _, n := range notes {
		responses = append(responses, toCaseNoteResponse(n))
	}
	writeJSON(w, http.StatusOK, map[string]any{"content": responses})
}

// GetCaseNote returns one note.
func (h *Handler) GetCaseNote(w http.ResponseWriter, r *http.Request) {
	noteID, err := uuid.Parse(chi.URLParam(r, "noteId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return
	}
	note, err := h.notes.Get(r.Context(), noteID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseNoteResponse(note))
}

type amendNoteRequest struct {
	Text string `json:"text"`
}

// AmendCaseNote appends an amendment.
func (h *Handler) AmendCaseNote(w http.ResponseWriter, r *http.Request) {
	noteID, err := uuid.Parse(chi.URLParam(r, "noteId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return
	}
	var req amendNoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	username := Username(r.Context())
	note, err := h.notes.Amend(r.Context(), noteID, models.Author{Username: username, Name: username}, req.Text)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toCaseNoteResponse(note))
}

// DeleteCaseNote soft-deletes a note.
func (h *Handler) DeleteCaseNote(w http.ResponseWriter, r *http.Request) {
	noteID, err := uuid.Parse(chi.URLParam(r, "noteId"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid note id")
		return
	}
	err = h.notes.Delete(r.Context(), noteID, Username(r.Context()), models.DeletionCauseUser)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SyncCaseNotes ingests a legacy batch. All-or-nothing.
func (h *Handler) SyncCaseNotes(w http.ResponseWriter, r *http.Request) {
	var reqs []nomissync.SyncRequest
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	results, err := h.sync.SyncBatch(r.Context(), reqs)
	if err != nil {
		var typeErr *nomissync.TypeError
		if errors.As(err, &typeErr) {
			writeError(w, http.StatusBadRequest, typeErr.Error())
			return
		}
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type migratedRequest struct {
	LegacyIDs []int64 `json:"legacyIds"`
}

// MigratedCaseNotes reports which legacy ids already migrated.
func (h *Handler) MigratedCaseNotes(w http.ResponseWriter, r *http.Request) {
	var req migratedRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	results, err := h.sync.MigrationResults(r.Context(), req.LegacyIDs)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, results)
}

type reconciliationRequest struct {
	PersonIdentifiers []string `json:"personIdentifiers"`
	From              string   `json:"from"`
	To                string   `json:"to"`
}

func (r reconciliationRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.PersonIdentifiers, validation.Required),
		validation.Field(&r.From, validation.Required, validation.Date("2006-01-02")),
		validation.Field(&r.To, validation.Required, validation.Date("2006-01-02")),
	)
}

// TriggerReconciliation queues a reconciliation run per person over the
// requested window. The runs happen asynchronously via the work queue.
func (h *Handler) TriggerReconciliation(w http.ResponseWriter, r *http.Request) {
	var req reconciliationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if err := req.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	from, _ := parseDate(req.From)
	to, _ := parseDate(req.To)
	if to.Before(from) {
		writeError(w, http.StatusBadRequest, "to must not be before from")
		return
	}

	triggers := make([]events.ReconciliationTrigger, 0, len(req.PersonIdentifiers))
	for _, p := range req.PersonIdentifiers {
		triggers = append(triggers, events.ReconciliationTrigger{
			PersonIdentifier: p,
			From:             from,
			To:               to,
		})
	}
	if err := h.triggers.PublishTriggers(r.Context(), triggers); err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]int{"queued": len(triggers)})
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sentinel.ErrNotFound):
		writeError(w, http.StatusNotFound, "case note not found")
	case errors.Is(err, sentinel.ErrInvalidState):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, sentinel.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error("request failed", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func parseDate(v string) (time.Time, bool) {
	if v == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
