package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
)

// CaseNoteResponse is the wire form of a note.
type CaseNoteResponse struct {
	ID                 uuid.UUID           `json:"id"`
	PersonIdentifier   string              `json:"personIdentifier"`
	Type               string              `json:"type"`
	TypeDescription    string              `json:"typeDescription"`
	SubType            string              `json:"subType"`
	SubTypeDescription string              `json:"subTypeDescription"`
	Source             models.Source       `json:"source"`
	OccurredAt         time.Time           `json:"occurrenceDateTime"`
	LocationID         string              `json:"locationId"`
	AuthorUsername     string              `json:"authorUsername"`
	AuthorName         string              `json:"authorName"`
	Text               string              `json:"text"`
	SystemGenerated    bool                `json:"systemGenerated"`
	LegacyID           *int64              `json:"legacyId,omitempty"`
	CreatedAt          time.Time           `json:"createdAt"`
	CreatedBy          string              `json:"createdBy"`
	Amendments         []AmendmentResponse `json:"amendments"`
}

// AmendmentResponse is the wire form of an amendment.
type AmendmentResponse struct {
	ID             uuid.UUID `json:"id"`
	AuthorUsername string    `json:"authorUsername"`
	AuthorName     string    `json:"authorName"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"createdAt"`
}

func toCaseNoteResponse(n *models.CaseNote) CaseNoteResponse {
	resp := CaseNoteResponse{
		ID:                 n.ID,
		PersonIdentifier:   n.PersonIdentifier,
		Type:               n.SubType.TypeCode,
		TypeDescription:    n.SubType.TypeDescription,
		SubType:            n.SubType.Code,
		SubTypeDescription: n.SubType.Description,
		Source:             n.Source(),
		OccurredAt:         n.OccurredAt,
		LocationID:         n.LocationID,
		AuthorUsername:     n.Author.Username,
		AuthorName:         n.Author.Name,
		Text:               n.Text,
		SystemGenerated:    n.SystemGenerated,
		LegacyID:           n.LegacyID,
		CreatedAt:          n.Audit.CreatedAt,
		CreatedBy:          n.Audit.CreatedBy,
		Amendments:         make([]AmendmentResponse, 0, len(n.Amendments)),
	}
	for _, a := range n.Amendments {
		resp.Amendments = append(resp.Amendments, AmendmentResponse{
			ID:             a.ID,
			AuthorUsername: a.Author.Username,
			AuthorName:     a.Author.Name,
			Text:           a.Text,
			CreatedAt:      a.CreatedAt,
		})
	}
	return resp
}
