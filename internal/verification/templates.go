package verification

import (
	"fmt"
	"time"

	"github.com/ministryofjustice/offender-case-notes/internal/alerts"
)

// Two alert sub-types were re-described on 2024-11-25; notes synthesized
// before that carry the old wording. Alerts created before the cutover keep
// producing (and matching) the old text so re-verification of historical
// alerts stays idempotent. This is a one-off compatibility rule: new
// sub-types never get an entry here.
var descriptionCutover = time.Date(2024, time.November, 25, 9, 54, 57, 0, time.UTC)

var legacyDescriptions = map[string]string{
	"CPC":  "PPRC",
	"ONCR": "No-contact request",
}

// subTypeDescription picks the wording in force when the alert was created.
func subTypeDescription(a alerts.Alert) string {
	if a.CreatedAt.Before(descriptionCutover) {
		if old, ok := legacyDescriptions[a.SubType.Code]; ok {
			return old
		}
	}
	return a.SubType.Description
}

// activeText and inactiveText mirror the reconciliation wording but with the
// date-sensitive sub-type description.
func activeText(a alerts.Alert) string {
	return fmt.Sprintf("Alert %s and %s made active.", a.Type.Description, subTypeDescription(a))
}

func inactiveText(a alerts.Alert) string {
	return fmt.Sprintf("Alert %s and %s made inactive.", a.Type.Description, subTypeDescription(a))
}
