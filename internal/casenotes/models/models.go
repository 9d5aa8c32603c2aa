// Package models holds the case note entity graph shared by stores, services
// and the sync/reconciliation engines.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Source identifies which system authored a note.
type Source string

const (
	SourceDPS   Source = "DPS"
	SourceNOMIS Source = "NOMIS"
)

// Author identifies who wrote a note or amendment.
type Author struct {
	Username string
	UserID   string
	Name     string
}

// AuditFields records who created an entity and when. Embedded rather than
// inherited; Stamp is the only mutation path.
type AuditFields struct {
	CreatedAt time.Time
	CreatedBy string
}

// Stamp sets the audit fields. For migrated and synthesized notes the caller
// passes the original timestamp, not the request time, so historical ordering
// survives backfill.
func (a *AuditFields) Stamp(username string, at time.Time) {
	a.CreatedBy = username
	a.CreatedAt = at
}

// CaseNote is a free-text record about a person in custody. Core fields are
// immutable after creation; content changes arrive as Amendments.
type CaseNote struct {
	ID               uuid.UUID
	PersonIdentifier string
	SubType          SubType
	OccurredAt       time.Time
	LocationID       string
	Author           Author
	Text             string
	SystemGenerated  bool
	// LegacyID correlates this note to its origin record in NOMIS.
	// Once set it maps to at most one legacy record.
	LegacyID *int64
	Audit    AuditFields
	Version  int64

	// Amendments are owned by the note and ordered by CreatedAt ascending.
	Amendments []Amendment
}

// Source reports which system the note originated in.
func (n *CaseNote) Source() Source {
	if n.LegacyID != nil && !n.SystemGenerated {
		return SourceNOMIS
	}
	return SourceDPS
}

// Amendment is an append-only addendum to a note. Immutable once created.
type Amendment struct {
	ID        uuid.UUID
	Author    Author
	Text      string
	CreatedAt time.Time
}

// DeletionCause tags why a note was soft-deleted.
type DeletionCause string

const (
	DeletionCauseUser  DeletionCause = "USER"
	DeletionCauseAdmin DeletionCause = "ADMIN"
	DeletionCauseMerge DeletionCause = "MERGE"
)

// DeletedCaseNote snapshots a full note and its amendments at deletion time.
// Write-once; the live row is gone after this exists.
type DeletedCaseNote struct {
	ID        uuid.UUID
	Note      CaseNote
	DeletedAt time.Time
	DeletedBy string
	Cause     DeletionCause
}
