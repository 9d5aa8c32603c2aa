package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
	"github.com/ministryofjustice/offender-case-notes/pkg/platform/sentinel"
)

type MemoryStoreSuite struct {
	suite.Suite
	ctx   context.Context
	store *InMemoryStore
}

func TestMemoryStoreSuite(t *testing.T) {
	suite.Run(t, new(MemoryStoreSuite))
}

func (s *MemoryStoreSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = NewInMemory()
}

func (s *MemoryStoreSuite) newNote(person string, occurred time.Time) *models.CaseNote {
	n := &models.CaseNote{
		ID:               uuid.New(),
		PersonIdentifier: person,
		SubType:          models.SubType{Code: "GEN", TypeCode: "OBS"},
		OccurredAt:       occurred,
		Author:           models.Author{Username: "JSMITH"},
		Text:             "note text",
	}
	n.Audit.Stamp("JSMITH", occurred)
	return n
}

func (s *MemoryStoreSuite) TestCreateAndGet() {
	occurred := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	s.Run("round-trips a note", func() {
		note := s.newNote("A1234BC", occurred)
		s.Require().NoError(s.store.CreateBatch(s.ctx, []*models.CaseNote{note}))

		found, err := s.store.Get(s.ctx, note.ID)
		s.Require().NoError(err)
		s.Equal(note.Text, found.Text)
	})

	s.Run("unknown id returns ErrNotFound", func() {
		_, err := s.store.Get(s.ctx, uuid.New())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("duplicate id returns ErrConflict", func() {
		note := s.newNote("A1234BC", occurred)
		s.Require().NoError(s.store.CreateBatch(s.ctx, []*models.CaseNote{note}))
		err := s.store.CreateBatch(s.ctx, []*models.CaseNote{note})
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("duplicate legacy id returns ErrConflict", func() {
		legacy := int64(90001111)
		first := s.newNote("A1234BC", occurred)
		first.LegacyID = &legacy
		second := s.newNote("B2345CD", occurred)
		second.LegacyID = &legacy

		s.Require().NoError(s.store.CreateBatch(s.ctx, []*models.CaseNote{first}))
		err := s.store.CreateBatch(s.ctx, []*models.CaseNote{second})
		s.Require().ErrorIs(err, sentinel.ErrConflict)
	})

	s.Run("returned notes are copies", func() {
		note := s.newNote("A1234BC", occurred)
		s.Require().NoError(s.store.CreateBatch(s.ctx, []*models.CaseNote{note}))

		found, err := s.store.Get(s.ctx, note.ID)
		s.Require().NoError(err)
		found.Text = "mutated"

		again, err := s.store.Get(s.ctx, note.ID)
		s.Require().NoError(err)
		s.Equal("note text", again.Text)
	})
}

func (s *MemoryStoreSuite) TestFindOrdering() {
	base := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	later := s.newNote("A1234BC", base.Add(2*time.Hour))
	earlier := s.newNote("A1234BC", base)
	s.Require().NoError(s.store.CreateBatch(s.ctx, []*models.CaseNote{later, earlier}))

	found, err := s.store.Find(s.ctx, models.NoteFilter{PersonIdentifier: "A1234BC"})
	s.Require().NoError(err)
	s.Require().Len(found, 2)
	s.Equal(earlier.ID, found[0].ID)
	s.Equal(later.ID, found[1].ID)
}

func (s *MemoryStoreSuite) TestAmendments() {
	occurred := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	note := s.newNote("A1234BC", occurred)
	s.Require().NoError(s.store.CreateBatch(s.ctx, []*models.CaseNote{note}))

	s.Run("appends in CreatedAt order and bumps version", func() {
		second := models.Amendment{ID: uuid.New(), Text: "second", CreatedAt: occurred.Add(2 * time.Hour)}
		first := models.Amendment{ID: uuid.New(), Text: "first", CreatedAt: occurred.Add(time.Hour)}

		s.Require().NoError(s.store.AddAmendment(s.ctx, note.ID, second))
		s.Require().NoError(s.store.AddAmendment(s.ctx, note.ID, first))

		found, err := s.store.Get(s.ctx, note.ID)
		s.Require().NoError(err)
		s.Require().Len(found.Amendments, 2)
		s.Equal("first", found.Amendments[0].Text)
		s.Equal("second", found.Amendments[1].Text)
		s.Equal(int64(2), found.Version)
	})

	s.Run("unknown note returns ErrNotFound", func() {
		err := s.store.AddAmendment(s.ctx, uuid.New(), models.Amendment{ID: uuid.New()})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *MemoryStoreSuite) TestSoftDelete() {
	occurred := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	note := s.newNote("A1234BC", occurred)
	note.Amendments = []models.Amendment{{ID: uuid.New(), Text: "addendum", CreatedAt: occurred.Add(time.Hour)}}
	s.Require().NoError(s.store.CreateBatch(s.ctx, []*models.CaseNote{note}))

	snapshot, err := s.store.SoftDelete(s.ctx, note.ID, "ADMIN_USER", models.DeletionCauseAdmin)
	s.Require().NoError(err)
	s.Equal(note.ID, snapshot.ID)
	s.Len(snapshot.Amendments, 1)

	_, err = s.store.Get(s.ctx, note.ID)
	s.Require().ErrorIs(err, sentinel.ErrNotFound)

	archived := s.store.Deleted()
	s.Require().Len(archived, 1)
	s.Equal("ADMIN_USER", archived[0].DeletedBy)
	s.Equal(models.DeletionCauseAdmin, archived[0].Cause)
	s.WithinDuration(time.Now().UTC(), archived[0].DeletedAt, time.Minute)
}

func (s *MemoryStoreSuite) TestRunInTxRollback() {
	occurred := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	existing := s.newNote("A1234BC", occurred)
	s.Require().NoError(s.store.CreateBatch(s.ctx, []*models.CaseNote{existing}))

	err := s.store.RunInTx(s.ctx, func(ctx context.Context) error {
		if err := s.store.CreateBatch(ctx, []*models.CaseNote{s.newNote("A1234BC", occurred)}); err != nil {
			return err
		}
		if err := s.store.HardDelete(ctx, existing.ID); err != nil {
			return err
		}
		return context.DeadlineExceeded
	})
	s.Require().Error(err)

	// Both the insert and the delete were undone.
	found, err := s.store.ListByPerson(s.ctx, "A1234BC")
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(existing.ID, found[0].ID)
}

func (s *MemoryStoreSuite) TestLegacyIDs() {
	s.Run("NextLegacyID is monotonic", func() {
		first, err := s.store.NextLegacyID(s.ctx)
		s.Require().NoError(err)
		second, err := s.store.NextLegacyID(s.ctx)
		s.Require().NoError(err)
		s.Greater(second, first)
	})

	s.Run("MigratedLegacyIDs returns only known ids", func() {
		legacy := int64(90002222)
		note := s.newNote("A1234BC", time.Now())
		note.LegacyID = &legacy
		s.Require().NoError(s.store.CreateBatch(s.ctx, []*models.CaseNote{note}))

		found, err := s.store.MigratedLegacyIDs(s.ctx, []int64{legacy, 123})
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal(note.ID, found[legacy])
	})
}
