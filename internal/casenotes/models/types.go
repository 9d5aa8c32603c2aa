package models

// TypeKey is the stable external identity of a note category: the composite
// of parent type code and sub-type code. Sync and reconciliation address
// reference data exclusively by this key.
type TypeKey struct {
	Type    string
	SubType string
}

func (k TypeKey) String() string {
	return k.Type + ":" + k.SubType
}

// SubType is immutable reference data describing one note category, carried
// with its parent type's code and description for display and event payloads.
type SubType struct {
	Code            string
	Description     string
	TypeCode        string
	TypeDescription string

	Active        bool
	Sensitive     bool
	RestrictedUse bool
	// SyncToNomis marks the sub-type eligible for legacy-system sync.
	SyncToNomis       bool
	DPSUserSelectable bool
}

// Key returns the composite (type, sub-type) identity.
func (s SubType) Key() TypeKey {
	return TypeKey{Type: s.TypeCode, SubType: s.Code}
}
