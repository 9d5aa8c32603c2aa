package models

import (
	"strings"
	"time"
)

// NoteFilter is a composable query filter over stored notes. The zero value
// matches everything; stores translate populated fields into predicates.
type NoteFilter struct {
	// PersonIdentifier matches case-insensitively.
	PersonIdentifier string
	// TypeKeys is an OR of (type AND sub-type) pairs. An entry with an empty
	// SubType matches every sub-type of that parent type.
	TypeKeys []TypeKey
	// OccurredFrom/OccurredTo bound OccurredAt inclusively when non-nil.
	OccurredFrom *time.Time
	OccurredTo   *time.Time
	// ExcludeSensitive drops notes whose sub-type is flagged sensitive.
	// Internal engines leave this unset so they see the full record.
	ExcludeSensitive bool
}

// Matches reports whether a note satisfies the filter. The postgres store
// compiles the same semantics to SQL; this form serves the memory store and
// keeps the predicate testable in isolation.
func (f NoteFilter) Matches(n *CaseNote) bool {
	if f.PersonIdentifier != "" && !strings.EqualFold(f.PersonIdentifier, n.PersonIdentifier) {
		return false
	}
	if len(f.TypeKeys) > 0 && !f.matchesType(n.SubType) {
		return false
	}
	if f.OccurredFrom != nil && n.OccurredAt.Before(*f.OccurredFrom) {
		return false
	}
	if f.OccurredTo != nil && n.OccurredAt.After(*f.OccurredTo) {
		return false
	}
	if f.ExcludeSensitive && n.SubType.Sensitive {
		return false
	}
	return true
}

func (f NoteFilter) matchesType(s SubType) bool {
	for _, k := range f.TypeKeys {
		if k.Type == s.TypeCode && (k.SubType == "" || k.SubType == s.Code) {
			return true
		}
	}
	return false
}
