package types

import "github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"

// Alert taxonomy constants. The ACTIVE and INACTIVE sub-types under the ALERT
// parent type back every synthesized alert note; synthesis fails hard if
// either is missing from the registry.
const (
	AlertTypeCode        = "ALERT"
	AlertActiveSubType   = "ACTIVE"
	AlertInactiveSubType = "INACTIVE"
)

// AlertActiveKey and AlertInactiveKey are the registry keys for synthesized
// alert notes.
var (
	AlertActiveKey   = models.TypeKey{Type: AlertTypeCode, SubType: AlertActiveSubType}
	AlertInactiveKey = models.TypeKey{Type: AlertTypeCode, SubType: AlertInactiveSubType}
)

// SeedAlertTaxonomy returns the minimal reference data the alert pipelines
// need. Used by unit tests and local bootstrap.
func SeedAlertTaxonomy() []models.SubType {
	return []models.SubType{
		{
			Code:            AlertActiveSubType,
			Description:     "Active",
			TypeCode:        AlertTypeCode,
			TypeDescription: "Alert",
			Active:          true,
			SyncToNomis:     false,
			// Synthesized notes only; not offered to users in the UI.
			DPSUserSelectable: false,
		},
		{
			Code:              AlertInactiveSubType,
			Description:       "Inactive",
			TypeCode:          AlertTypeCode,
			TypeDescription:   "Alert",
			Active:            true,
			SyncToNomis:       false,
			DPSUserSelectable: false,
		},
	}
}
