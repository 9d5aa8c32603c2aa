package store

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
	"github.com/ministryofjustice/offender-case-notes/pkg/platform/sentinel"
)

// InMemoryStore is the test double for Store. RunInTx snapshots state and
// restores it when fn fails, mirroring the all-or-nothing behaviour of the
// postgres implementation.
type InMemoryStore struct {
	mu        sync.Mutex
	notes     map[uuid.UUID]*models.CaseNote
	deleted   map[uuid.UUID]*models.DeletedCaseNote
	legacySeq atomic.Int64
}

func NewInMemory() *InMemoryStore {
	s := &InMemoryStore{
		notes:   make(map[uuid.UUID]*models.CaseNote),
		deleted: make(map[uuid.UUID]*models.DeletedCaseNote),
	}
	s.legacySeq.Store(90000000)
	return s
}

type memTxKey struct{}

func (s *InMemoryStore) lock(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		// Already inside RunInTx, which holds the lock.
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

// RunInTx serializes the whole operation and rolls back state on error.
func (s *InMemoryStore) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshotNotes := make(map[uuid.UUID]*models.CaseNote, len(s.notes))
	for id, n := range s.notes {
		snapshotNotes[id] = copyNote(n)
	}
	snapshotDeleted := make(map[uuid.UUID]*models.DeletedCaseNote, len(s.deleted))
	for id, d := range s.deleted {
		snapshotDeleted[id] = d
	}

	if err := fn(context.WithValue(ctx, memTxKey{}, struct{}{})); err != nil {
		s.notes = snapshotNotes
		s.deleted = snapshotDeleted
		return err
	}
	return nil
}

func (s *InMemoryStore) CreateBatch(ctx context.Context, notes []*models.CaseNote) error {
	defer s.lock(ctx)()

	for _, n := range notes {
		if _, exists := s.notes[n.ID]; exists {
			return fmt.Errorf("case note %s: %w", n.ID, sentinel.ErrConflict)
		}
		if n.LegacyID != nil {
			for _, existing := range s.notes {
				if existing.LegacyID != nil && *existing.LegacyID == *n.LegacyID {
					return fmt.Errorf("legacy id %d: %w", *n.LegacyID, sentinel.ErrConflict)
				}
			}
		}
	}
	for _, n := range notes {
		s.notes[n.ID] = copyNote(n)
	}
	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id uuid.UUID) (*models.CaseNote, error) {
	defer s.lock(ctx)()

	n, ok := s.notes[id]
	if !ok {
		return nil, fmt.Errorf("case note %s: %w", id, sentinel.ErrNotFound)
	}
	return copyNote(n), nil
}

func (s *InMemoryStore) Find(ctx context.Context, filter models.NoteFilter) ([]*models.CaseNote, error) {
	defer s.lock(ctx)()

	var result []*models.CaseNote
	for _, n := range s.notes {
		if filter.Matches(n) {
			result = append(result, copyNote(n))
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].OccurredAt.Equal(result[j].OccurredAt) {
			return result[i].OccurredAt.Before(result[j].OccurredAt)
		}
		return result[i].ID.String() < result[j].ID.String()
	})
	return result, nil
}

func (s *InMemoryStore) ListByPerson(ctx context.Context, personIdentifier string) ([]*models.CaseNote, error) {
	defer s.lock(ctx)()

	var result []*models.CaseNote
	for _, n := range s.notes {
		if strings.EqualFold(n.PersonIdentifier, personIdentifier) {
			result = append(result, copyNote(n))
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID.String() < result[j].ID.String() })
	return result, nil
}

func (s *InMemoryStore) AddAmendment(ctx context.Context, noteID uuid.UUID, a models.Amendment) error {
	defer s.lock(ctx)()

	n, ok := s.notes[noteID]
	if !ok {
		return fmt.Errorf("case note %s: %w", noteID, sentinel.ErrNotFound)
	}
	n.Amendments = append(n.Amendments, a)
	sort.Slice(n.Amendments, func(i, j int) bool {
		return n.Amendments[i].CreatedAt.Before(n.Amendments[j].CreatedAt)
	})
	n.Version++
	return nil
}

func (s *InMemoryStore) SoftDelete(ctx context.Context, id uuid.UUID, deletedBy string, cause models.DeletionCause) (*models.CaseNote, error) {
	defer s.lock(ctx)()

	n, ok := s.notes[id]
	if !ok {
		return nil, fmt.Errorf("case note %s: %w", id, sentinel.ErrNotFound)
	}
	snapshot := copyNote(n)
	s.deleted[uuid.New()] = &models.DeletedCaseNote{
		ID:        uuid.New(),
		Note:      *snapshot,
		DeletedAt: time.Now().UTC(),
		DeletedBy: deletedBy,
		Cause:     cause,
	}
	delete(s.notes, id)
	return snapshot, nil
}

func (s *InMemoryStore) HardDelete(ctx context.Context, id uuid.UUID) error {
	defer s.lock(ctx)()

	if _, ok := s.notes[id]; !ok {
		return fmt.Errorf("case note %s: %w", id, sentinel.ErrNotFound)
	}
	delete(s.notes, id)
	return nil
}

func (s *InMemoryStore) NextLegacyID(_ context.Context) (int64, error) {
	return s.legacySeq.Add(1), nil
}

func (s *InMemoryStore) MigratedLegacyIDs(ctx context.Context, legacyIDs []int64) (map[int64]uuid.UUID, error) {
	defer s.lock(ctx)()

	wanted := make(map[int64]struct{}, len(legacyIDs))
	for _, id := range legacyIDs {
		wanted[id] = struct{}{}
	}

	result := make(map[int64]uuid.UUID)
	for _, n := range s.notes {
		if n.LegacyID == nil {
			continue
		}
		if _, ok := wanted[*n.LegacyID]; ok {
			result[*n.LegacyID] = n.ID
		}
	}
	return result, nil
}

// Deleted exposes the archive for assertions.
func (s *InMemoryStore) Deleted() []*models.DeletedCaseNote {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []*models.DeletedCaseNote
	for _, d := range s.deleted {
		result = append(result, d)
	}
	return result
}

func copyNote(n *models.CaseNote) *models.CaseNote {
	cp := *n
	if n.LegacyID != nil {
		v := *n.LegacyID
		cp.LegacyID = &v
	}
	cp.Amendments = append([]models.Amendment(nil), n.Amendments...)
	return &cp
}
