// Package store persists the case note entity graph. Two implementations:
// Postgres for production, InMemory for unit tests. Both honour the same
// contract, including transactional all-or-nothing semantics via RunInTx.
package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
)

// Store is the authoritative persistence boundary for notes, amendments and
// the deleted-note archive.
type Store interface {
	// CreateBatch inserts notes and their amendments. Fails on id or
	// legacy-id collision with sentinel.ErrConflict.
	CreateBatch(ctx context.Context, notes []*models.CaseNote) error

	// Get returns a note with its amendments ordered by CreatedAt ascending,
	// or sentinel.ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*models.CaseNote, error)

	// Find returns notes matching the filter, amendments included.
	Find(ctx context.Context, filter models.NoteFilter) ([]*models.CaseNote, error)

	// ListByPerson returns every live note filed under the identifier,
	// unfiltered. Used by the merge handler.
	ListByPerson(ctx context.Context, personIdentifier string) ([]*models.CaseNote, error)

	// AddAmendment appends an amendment to an existing note and bumps the
	// note's version.
	AddAmendment(ctx context.Context, noteID uuid.UUID, a models.Amendment) error

	// SoftDelete snapshots the note into the deleted archive and removes the
	// live row. Not reversible through this subsystem.
	SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, cause models.DeletionCause) (*models.CaseNote, error)

	// HardDelete removes a note without archiving. Only the merge handler
	// uses this; the note is immediately recreated under the surviving
	// identifier inside the same transaction.
	HardDelete(ctx context.Context, id uuid.UUID) error

	// NextLegacyID allocates from the shared monotonic sequence. Runs
	// outside any transaction so ids stay unique across concurrent
	// instances.
	NextLegacyID(ctx context.Context) (int64, error)

	// MigratedLegacyIDs reports which of the given legacy ids already
	// correlate to a stored note, mapped to its internal id.
	MigratedLegacyIDs(ctx context.Context, legacyIDs []int64) (map[int64]uuid.UUID, error)

	// RunInTx executes fn atomically. Every write fn performs through this
	// store commits together or not at all.
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}
