// Package nomissync ingests case notes originating in the legacy NOMIS
// system: bulk create with legacy correlation, plus the read-back lookup that
// lets externally-driven migrations resume idempotently.
package nomissync

import (
	"fmt"
	"sort"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
)

// SyncAmendment carries a legacy amendment with its original audit stamps.
type SyncAmendment struct {
	AuthorUsername string    `json:"authorUsername"`
	AuthorUserID   string    `json:"authorUserId"`
	AuthorName     string    `json:"authorName"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdDateTime"`
}

// SyncRequest is one legacy case note to ingest. ID present means the legacy
// system believes the note already migrated; the pipeline currently handles
// brand-new records only.
type SyncRequest struct {
	LegacyID         int64      `json:"legacyId"`
	ID               *uuid.UUID `json:"id,omitempty"`
	PersonIdentifier string     `json:"personIdentifier"`
	Type             string     `json:"type"`
	SubType          string     `json:"subType"`
	OccurredAt       time.Time  `json:"occurrenceDateTime"`
	LocationID       string     `json:"locationId"`
	AuthorUsername   string     `json:"authorUsername"`
	AuthorUserID     string     `json:"authorUserId"`
	AuthorName       string     `json:"authorName"`
	Text             string     `json:"text"`
	SystemGenerated  bool       `json:"systemGenerated"`
	// CreatedAt/CreatedBy are the legacy audit stamps, preserved verbatim so
	// migrated notes keep their original provenance.
	CreatedAt  time.Time       `json:"createdDateTime"`
	CreatedBy  string          `json:"createdBy"`
	Amendments []SyncAmendment `json:"amendments"`
}

// Validate enforces the per-request required fields.
func (r SyncRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.LegacyID, validation.Required),
		validation.Field(&r.PersonIdentifier, validation.Required),
		validation.Field(&r.Type, validation.Required),
		validation.Field(&r.SubType, validation.Required),
		validation.Field(&r.OccurredAt, validation.Required),
		validation.Field(&r.Text, validation.Required),
		validation.Field(&r.CreatedAt, validation.Required),
		validation.Field(&r.CreatedBy, validation.Required),
	)
}

// Key returns the composite type identity of the request.
func (r SyncRequest) Key() models.TypeKey {
	return models.TypeKey{Type: r.Type, SubType: r.SubType}
}

// SyncResult correlates a newly assigned internal id with its legacy id.
type SyncResult struct {
	ID       uuid.UUID `json:"id"`
	LegacyID int64     `json:"legacyId"`
}

// MigrationResult reports an already-migrated legacy id and its internal id.
type MigrationResult struct {
	LegacyID int64     `json:"legacyId"`
	ID       uuid.UUID `json:"id"`
}

// TypeError fails a whole batch over type reference data. Offending pairs
// are grouped by parent type so the legacy caller can see every problem in
// one round trip.
type TypeError struct {
	Reason string
	Keys   []models.TypeKey
}

func (e *TypeError) Error() string {
	grouped := make(map[string][]string)
	for _, k := range e.Keys {
		grouped[k.Type] = append(grouped[k.Type], k.SubType)
	}
	parents := make([]string, 0, len(grouped))
	for p := range grouped {
		parents = append(parents, p)
	}
	sort.Strings(parents)

	parts := make([]string, 0, len(parents))
	for _, p := range parents {
		subs := grouped[p]
		sort.Strings(subs)
		parts = append(parts, fmt.Sprintf("%s:[%s]", p, strings.Join(subs, ",")))
	}
	return fmt.Sprintf("%s: { %s }", e.Reason, strings.Join(parts, ", "))
}
