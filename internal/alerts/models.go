// Package alerts is the client for the external alerts service. Alert
// records are fetched, never persisted; they exist only to drive synthesized
// case notes.
package alerts

import (
	"time"

	"github.com/google/uuid"
)

// CodedDescription pairs a reference code with its display description.
type CodedDescription struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// Alert is an alert lifecycle record as served by the alerts service.
type Alert struct {
	AlertUUID  uuid.UUID        `json:"alertUuid"`
	Type       CodedDescription `json:"type"`
	SubType    CodedDescription `json:"subType"`
	ActiveFrom time.Time        `json:"activeFrom"`
	ActiveTo   *time.Time       `json:"activeTo,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
	CreatedBy  string           `json:"createdBy"`
	// MadeInactiveAt is recorded when the alert's inactive transition was
	// processed. Batch reconciliation trusts this flag.
	MadeInactiveAt *time.Time `json:"madeInactiveAt,omitempty"`
	// ActiveToLastSetAt/By identify the last edit to the activeTo date. The
	// inactivation is attributed to that user only when the timestamps agree.
	ActiveToLastSetAt *time.Time `json:"activeToLastSetAt,omitempty"`
	ActiveToLastSetBy string     `json:"activeToLastSetBy,omitempty"`
	PrisonCode        string     `json:"prisonCodeWhenCreated"`
}

// IsActive computes live activity: no activeTo date, or activeTo in the
// future. The verification engine uses this instead of MadeInactiveAt.
func (a Alert) IsActive(now time.Time) bool {
	return a.ActiveTo == nil || a.ActiveTo.After(now)
}
