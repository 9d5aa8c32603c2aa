package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	// MissingAlertNotes counts notes reconciliation found absent, labelled by
	// alert type code and state (ACTIVE/INACTIVE). Incremented whether or not
	// synthesis is enabled so drift is visible in report-only mode.
	MissingAlertNotes *prometheus.CounterVec

	NotesSynthesized *prometheus.CounterVec
	EventsPublished  *prometheus.CounterVec
	SyncBatches      *prometheus.CounterVec
	AlertClientRetry prometheus.Counter
	MergedNotes      prometheus.Counter
}

// New creates all metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates all metrics on the given registerer. Tests pass a fresh
// registry so repeated construction never collides.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MissingAlertNotes: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "case_notes_missing_alert_notes_total",
			Help: "Alert case notes found missing during reconciliation or verification",
		}, []string{"type", "state"}),
		NotesSynthesized: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "case_notes_synthesized_total",
			Help: "Alert case notes created by reconciliation or verification",
		}, []string{"state"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "case_notes_events_published_total",
			Help: "Outbound domain events published, by event type",
		}, []string{"event_type"}),
		SyncBatches: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "case_notes_sync_batches_total",
			Help: "Legacy sync batches processed, by outcome",
		}, []string{"outcome"}),
		AlertClientRetry: factory.NewCounter(prometheus.CounterOpts{
			Name: "case_notes_alert_client_retries_total",
			Help: "Transient alert service failures that were retried",
		}),
		MergedNotes: factory.NewCounter(prometheus.CounterOpts{
			Name: "case_notes_merged_total",
			Help: "Case notes re-homed by identifier merge events",
		}),
	}
}
