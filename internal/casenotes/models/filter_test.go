package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNoteFilterMatches(t *testing.T) {
	occurred := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	note := &CaseNote{
		PersonIdentifier: "A1234BC",
		SubType:          SubType{Code: "GEN", TypeCode: "OBS"},
		OccurredAt:       occurred,
	}
	sensitive := &CaseNote{
		PersonIdentifier: "A1234BC",
		SubType:          SubType{Code: "SEC", TypeCode: "OMIC", Sensitive: true},
		OccurredAt:       occurred,
	}

	before := occurred.Add(-time.Hour)
	after := occurred.Add(time.Hour)

	tests := []struct {
		name   string
		filter NoteFilter
		note   *CaseNote
		want   bool
	}{
		{"zero filter matches everything", NoteFilter{}, note, true},
		{"person match is case-insensitive", NoteFilter{PersonIdentifier: "a1234bc"}, note, true},
		{"different person does not match", NoteFilter{PersonIdentifier: "B2345CD"}, note, false},
		{"exact type pair matches", NoteFilter{TypeKeys: []TypeKey{{Type: "OBS", SubType: "GEN"}}}, note, true},
		{"parent type alone matches any sub-type", NoteFilter{TypeKeys: []TypeKey{{Type: "OBS"}}}, note, true},
		{"wrong sub-type does not match", NoteFilter{TypeKeys: []TypeKey{{Type: "OBS", SubType: "SEC"}}}, note, false},
		{"any of several pairs matches", NoteFilter{TypeKeys: []TypeKey{{Type: "ACP"}, {Type: "OBS", SubType: "GEN"}}}, note, true},
		{"from bound is inclusive", NoteFilter{OccurredFrom: &occurred}, note, true},
		{"to bound is inclusive", NoteFilter{OccurredTo: &occurred}, note, true},
		{"before the window does not match", NoteFilter{OccurredFrom: &after}, note, false},
		{"after the window does not match", NoteFilter{OccurredTo: &before}, note, false},
		{"sensitive notes included by default", NoteFilter{}, sensitive, true},
		{"sensitive notes dropped on request", NoteFilter{ExcludeSensitive: true}, sensitive, false},
		{"exclusion leaves normal notes alone", NoteFilter{ExcludeSensitive: true}, note, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.filter.Matches(tt.note))
		})
	}
}
