// Package alertnotes converts alert lifecycle events into case notes: the
// canonical note wording, the synthesized-note builder, and the handler that
// reacts to individual alert events. The reconciliation and verification
// engines reuse the wording and builder so their match predicates line up
// with what was originally written.
package alertnotes

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/ministryofjustice/offender-case-notes/internal/alerts"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
)

// ActiveText is the canonical wording for an alert's "became active" note.
// Matching during reconciliation is exact text equality, so this wording must
// never drift without a compatibility plan.
func ActiveText(a alerts.Alert) string {
	return fmt.Sprintf("Alert %s and %s made active.", a.Type.Description, a.SubType.Description)
}

// InactiveText is the canonical wording for an alert's "became inactive" note.
func InactiveText(a alerts.Alert) string {
	return fmt.Sprintf("Alert %s and %s made inactive.", a.Type.Description, a.SubType.Description)
}

// BuildNote constructs a synthesized alert note dated at the alert
// transition instant rather than the request time, preserving historical
// ordering for backfilled notes. The instant is truncated to seconds to keep
// the reconciliation match predicate stable across round-trips.
func BuildNote(personIdentifier string, subType models.SubType, author models.Author, text string, at time.Time, prisonCode string, legacyID int64) *models.CaseNote {
	ts := at.Truncate(time.Second)
	note := &models.CaseNote{
		ID:               uuid.New(),
		PersonIdentifier: personIdentifier,
		SubType:          subType,
		OccurredAt:       ts,
		LocationID:       prisonCode,
		Author:           author,
		Text:             text,
		SystemGenerated:  true,
		LegacyID:         &legacyID,
	}
	note.Audit.Stamp(author.Username, ts)
	return note
}

// MatchesNote reports whether an existing note already records the given
// transition: exact text equality and the same second-precision instant.
// This predicate is what makes reconciliation idempotent.
func MatchesNote(n *models.CaseNote, text string, at time.Time) bool {
	return n.Text == text && n.OccurredAt.Equal(at.Truncate(time.Second))
}
