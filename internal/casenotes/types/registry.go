// Package types looks up the immutable (type, sub-type) reference taxonomy.
// The registry is read-only from the core subsystem's point of view.
package types

import (
	"context"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
)

// Registry resolves composite type keys to sub-type reference records.
type Registry interface {
	// Get returns the sub-type for a key, or sentinel.ErrNotFound.
	Get(ctx context.Context, key models.TypeKey) (*models.SubType, error)

	// GetAll resolves a set of keys in one lookup. Keys absent from the
	// registry are simply missing from the result; callers decide whether
	// that is an error.
	GetAll(ctx context.Context, keys []models.TypeKey) (map[models.TypeKey]*models.SubType, error)
}
