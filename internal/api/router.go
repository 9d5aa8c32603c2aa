// Package api is the thin HTTP layer over the case note and sync services.
// Handlers decode, delegate and encode; business rules live in the services.
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Roles accepted on the API surface.
const (
	RoleCaseNotes = "ROLE_CASE_NOTES"
	RoleNomisSync = "ROLE_CASE_NOTES_SYNC"
)

// NewRouter wires all endpoints.
func NewRouter(h *Handler, verifyingKey string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", h.Health)
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(RequireRole(verifyingKey, RoleCaseNotes, logger))
		r.Get("/case-notes/{personIdentifier}", h.SearchCaseNotes)
		r.Get("/case-notes/{personIdentifier}/{noteId}", h.GetCaseNote)
		r.Post("/case-notes/{personIdentifier}", h.CreateCaseNote)
		r.Put("/case-notes/{personIdentifier}/{noteId}", h.AmendCaseNote)
		r.Delete("/case-notes/{personIdentifier}/{noteId}", h.DeleteCaseNote)
	})

	r.Group(func(r chi.Router) {
		r.Use(RequireRole(verifyingKey, RoleNomisSync, logger))
		r.Put("/sync/case-notes", h.SyncCaseNotes)
		r.Post("/sync/case-notes/migrated", h.MigratedCaseNotes)
		r.Post("/reconciliation", h.TriggerReconciliation)
	})

	return r
}
