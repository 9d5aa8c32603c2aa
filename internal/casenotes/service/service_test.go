package service

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"

	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/models"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/store"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/types"
	"github.com/ministryofjustice/offender-case-notes/internal/events"
	"github.com/ministryofjustice/offender-case-notes/pkg/platform/sentinel"
)

type ServiceSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.InMemoryStore
	publisher *events.Recorder
	service   *Service
	now       time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.publisher = events.NewRecorder()
	s.now = time.Date(2025, 8, 1, 10, 0, 0, 0, time.UTC)

	registry := types.NewInMemory(
		models.SubType{Code: "GEN", TypeCode: "OBS", Active: true, SyncToNomis: true, DPSUserSelectable: true},
		models.SubType{Code: "OLD", TypeCode: "OBS", Active: false, DPSUserSelectable: true},
		models.SubType{Code: "SYS", TypeCode: "OBS", Active: true, DPSUserSelectable: false},
	)

	var err error
	s.service, err = New(s.store, registry, s.publisher, slog.New(slog.DiscardHandler),
		WithClock(func() time.Time { return s.now }))
	s.Require().NoError(err)
}

func (s *ServiceSuite) createNote() *models.CaseNote {
	note, err := s.service.Create(s.ctx, CreateRequest{
		PersonIdentifier: "A1234BC",
		Type:             "OBS",
		SubType:          "GEN",
		OccurredAt:       s.now.Add(-time.Hour),
		LocationID:       "MDI",
		Author:           models.Author{Username: "JSMITH", Name: "John Smith"},
		Text:             "observed in the yard",
	})
	s.Require().NoError(err)
	return note
}

func (s *ServiceSuite) TestNew() {
	s.Run("nil store returns error", func() {
		_, err := New(nil, types.NewInMemory(), s.publisher, slog.New(slog.DiscardHandler))
		s.Require().Error(err)
	})

	s.Run("nil registry returns error", func() {
		_, err := New(s.store, nil, s.publisher, slog.New(slog.DiscardHandler))
		s.Require().Error(err)
	})
}

func (s *ServiceSuite) TestCreate() {
	s.Run("persists the note and publishes created event", func() {
		note := s.createNote()

		found, err := s.store.Get(s.ctx, note.ID)
		s.Require().NoError(err)
		s.Equal("observed in the yard", found.Text)
		s.Equal(s.now, found.Audit.CreatedAt)
		s.Equal("JSMITH", found.Audit.CreatedBy)
		s.Equal(models.SourceDPS, found.Source())

		published := s.publisher.Events()
		s.Require().Len(published, 1)
		s.Equal(events.TypeCaseNoteCreated, published[0].EventType)
		s.Equal(note.ID, published[0].NoteID)
	})

	s.Run("rejects unknown type pair", func() {
		_, err := s.service.Create(s.ctx, CreateRequest{
			PersonIdentifier: "A1234BC", Type: "OBS", SubType: "NOPE",
			OccurredAt: s.now, Text: "x",
			Author: models.Author{Username: "JSMITH"},
		})
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects inactive sub-type", func() {
		_, err := s.service.Create(s.ctx, CreateRequest{
			PersonIdentifier: "A1234BC", Type: "OBS", SubType: "OLD",
			OccurredAt: s.now, Text: "x",
			Author: models.Author{Username: "JSMITH"},
		})
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("rejects non-user-selectable sub-type for users", func() {
		_, err := s.service.Create(s.ctx, CreateRequest{
			PersonIdentifier: "A1234BC", Type: "OBS", SubType: "SYS",
			OccurredAt: s.now, Text: "x",
			Author: models.Author{Username: "JSMITH"},
		})
		s.Require().ErrorIs(err, sentinel.ErrInvalidState)
	})

	s.Run("allows non-user-selectable sub-type for system writes", func() {
		_, err := s.service.Create(s.ctx, CreateRequest{
			PersonIdentifier: "A1234BC", Type: "OBS", SubType: "SYS",
			OccurredAt: s.now, Text: "x",
			Author:          models.Author{Username: "PRISONER_MANAGER_API"},
			SystemGenerated: true,
		})
		s.Require().NoError(err)
	})
}

func (s *ServiceSuite) TestAmend() {
	s.Run("appends the amendment, bumps version, publishes updated event", func() {
		note := s.createNote()

		amended, err := s.service.Amend(s.ctx, note.ID,
			models.Author{Username: "TJONES", Name: "Terry Jones"}, "further detail")
		s.Require().NoError(err)
		s.Require().Len(amended.Amendments, 1)
		s.Equal("further detail", amended.Amendments[0].Text)
		s.Equal(s.now, amended.Amendments[0].CreatedAt)
		s.Equal(note.Version+1, amended.Version)

		published := s.publisher.Events()
		s.Require().Len(published, 2)
		s.Equal(events.TypeCaseNoteUpdated, published[1].EventType)
	})

	s.Run("unknown note returns ErrNotFound", func() {
		_, err := s.service.Amend(s.ctx, uuid.New(), models.Author{Username: "TJONES"}, "x")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ServiceSuite) TestFind() {
	note := s.createNote()

	found, err := s.service.Find(s.ctx, models.NoteFilter{PersonIdentifier: "a1234bc"})
	s.Require().NoError(err)
	s.Require().Len(found, 1)
	s.Equal(note.ID, found[0].ID)

	none, err := s.service.Find(s.ctx, models.NoteFilter{PersonIdentifier: "Z9999ZZ"})
	s.Require().NoError(err)
	s.Empty(none)
}

func (s *ServiceSuite) TestDelete() {
	s.Run("archives the note and publishes deleted event", func() {
		note := s.createNote()

		s.Require().NoError(s.service.Delete(s.ctx, note.ID, "ADMIN_USER", models.DeletionCauseAdmin))

		_, err := s.service.Get(s.ctx, note.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)

		archived := s.store.Deleted()
		s.Require().Len(archived, 1)
		s.Equal(note.ID, archived[0].Note.ID)
		s.Equal("ADMIN_USER", archived[0].DeletedBy)
		s.Equal(models.DeletionCauseAdmin, archived[0].Cause)

		published := s.publisher.Events()
		s.Require().Len(published, 2)
		s.Equal(events.TypeCaseNoteDeleted, published[1].EventType)
	})

	s.Run("unknown note returns ErrNotFound", func() {
		err := s.service.Delete(s.ctx, uuid.New(), "ADMIN_USER", models.DeletionCauseAdmin)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})
}

func (s *ServiceSuite) TestPublishFailureDoesNotFailWrites() {
	s.publisher.Err = context.DeadlineExceeded

	note, err := s.service.Create(s.ctx, CreateRequest{
		PersonIdentifier: "A1234BC", Type: "OBS", SubType: "GEN",
		OccurredAt: s.now, Text: "still persisted",
		Author: models.Author{Username: "JSMITH"},
	})
	s.Require().NoError(err)

	found, err := s.store.Get(s.ctx, note.ID)
	s.Require().NoError(err)
	s.Equal("still persisted", found.Text)
}
