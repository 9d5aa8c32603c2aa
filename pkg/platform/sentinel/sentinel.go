package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores and clients return these
// (optionally wrapped) so services can translate them into caller-facing errors.
//
// These represent factual states about resources, not validation failures:
// - ErrNotFound: entity does not exist in store (or upstream returned 404)
// - ErrConflict: a uniqueness constraint (note id, legacy id) was violated
// - ErrInvalidState: entity in wrong state for requested operation
// - ErrUnavailable: upstream service or resource temporarily unavailable
//
// For validation errors (unknown type codes, bad input), packages define their
// own typed errors carrying the offending values.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrInvalidState = errors.New("invalid state")
	ErrUnavailable  = errors.New("unavailable")
)
