// Package events defines the domain event contracts this service produces
// and consumes, the outbound publisher, the inbound router, and the
// reconciliation trigger republisher.
package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
)

// Outbound event types.
const (
	TypeCaseNoteCreated = "person.case-note.created"
	TypeCaseNoteUpdated = "person.case-note.updated"
	TypeCaseNoteDeleted = "person.case-note.deleted"
)

// Inbound event types.
const (
	TypeAlertCreated          = "person.alert.created"
	TypeAlertInactive         = "person.alert.inactive"
	TypePrisonerMerged        = "prison-offender-events.prisoner.merged"
	TypeReconciliationTrigger = "case-notes.reconciliation"
)

// DomainEvent is the outbound notification for a case note change.
type DomainEvent struct {
	EventType        string        `json:"eventType"`
	NoteID           uuid.UUID     `json:"id"`
	LegacyID         *int64        `json:"legacyId,omitempty"`
	Type             string        `json:"type"`
	SubType          string        `json:"subType"`
	Source           models.Source `json:"source"`
	SyncToNomis      bool          `json:"syncToNomis"`
	SystemGenerated  bool          `json:"systemGenerated"`
	PersonIdentifier string        `json:"personIdentifier"`
	OccurredAt       time.Time     `json:"occurredAt"`
}

// NewDomainEvent builds the outbound payload for a note.
func NewDomainEvent(eventType string, n *models.CaseNote) DomainEvent {
	return DomainEvent{
		EventType:        eventType,
		NoteID:           n.ID,
		LegacyID:         n.LegacyID,
		Type:             n.SubType.TypeCode,
		SubType:          n.SubType.Code,
		Source:           n.Source(),
		SyncToNomis:      n.SubType.SyncToNomis,
		SystemGenerated:  n.SystemGenerated,
		PersonIdentifier: n.PersonIdentifier,
		OccurredAt:       n.OccurredAt,
	}
}

// Envelope wraps every inbound event. Detail stays raw until the registered
// handler decodes it, so unknown types cost nothing to skip.
type Envelope struct {
	EventType string          `json:"eventType"`
	Detail    json.RawMessage `json:"detail"`
}

// AlertEvent is the payload of alert created/inactive events.
type AlertEvent struct {
	AlertUUID        uuid.UUID `json:"alertUuid"`
	PersonIdentifier string    `json:"personIdentifier"`
	OccurredAt       time.Time `json:"occurredAt"`
}

// MergeEvent announces that two person identifiers were found to refer to
// the same person. NomsNumber survives; RemovedNomsNumber is retired.
type MergeEvent struct {
	NomsNumber        string `json:"nomsNumber"`
	RemovedNomsNumber string `json:"removedNomsNumber"`
}

// ReconciliationTrigger asks for a person/window reconciliation run.
type ReconciliationTrigger struct {
	PersonIdentifier string    `json:"personIdentifier"`
	From             time.Time `json:"from"`
	To               time.Time `json:"to"`
}
