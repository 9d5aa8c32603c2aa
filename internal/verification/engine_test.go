package verification

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"github.com/ministryofjustice/offender-case-notes/internal/alerts"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/store"
	"github.com/ministryofjustice/offender-case-notes/internal/casenotes/types"
	"github.com/ministryofjustice/offender-case-notes/internal/events"
	"github.com/ministryofjustice/offender-case-notes/internal/platform/metrics"
	"github.com/ministryofjustice/offender-case-notes/internal/users"
)

type VerificationSuite struct {
	suite.Suite
	ctx       context.Context
	store     *store.InMemoryStore
	publisher *events.Recorder
	now       time.Time
}

func TestVerificationSuite(t *testing.T) {
	suite.Run(t, new(VerificationSuite))
}

func (s *VerificationSuite) SetupTest() {
	s.ctx = context.Background()
	s.store = store.NewInMemory()
	s.publisher = events.NewRecorder()
	s.now = time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
}

func (s *VerificationSuite) newEngine(writesEnabled bool) *Engine {
	logger := slog.New(slog.DiscardHandler)
	return New(
		s.store,
		types.NewInMemory(types.SeedAlertTaxonomy()...),
		s.publisher,
		users.NewSystemUserCache(nil, logger),
		metrics.NewWith(prometheus.NewRegistry()),
		logger,
		writesEnabled,
	).WithClock(func() time.Time { return s.now })
}

func (s *VerificationSuite) newAlert(created time.Time) alerts.Alert {
	return alerts.Alert{
		AlertUUID:  uuid.New(),
		Type:       alerts.CodedDescription{Code: "X", Description: "Security"},
		SubType:    alerts.CodedDescription{Code: "XA", Description: "Arsonist"},
		ActiveFrom: created,
		CreatedAt:  created,
		PrisonCode: "MDI",
	}
}

func (s *VerificationSuite) TestVerify() {
	created := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)

	s.Run("creates the active note for a live alert", func() {
		engine := s.newEngine(true)

		s.Require().NoError(engine.Verify(s.ctx, "A1234BC", s.newAlert(created)))

		notes, err := s.store.ListByPerson(s.ctx, "A1234BC")
		s.Require().NoError(err)
		s.Require().Len(notes, 1)
		s.Equal("Alert Security and Arsonist made active.", notes[0].Text)
		s.Equal(types.AlertActiveSubType, notes[0].SubType.Code)
	})

	s.Run("re-verifying the same alert writes nothing new", func() {
		engine := s.newEngine(true)

		s.Require().NoError(engine.Verify(s.ctx, "A1234BC", s.newAlert(created)))

		notes, err := s.store.ListByPerson(s.ctx, "A1234BC")
		s.Require().NoError(err)
		s.Len(notes, 1)
	})
}

func (s *VerificationSuite) TestVerifySubSecondInstants() {
	created := time.Date(2025, 5, 1, 9, 0, 0, 500_000_000, time.UTC)
	alert := s.newAlert(created)
	engine := s.newEngine(true)

	s.Require().NoError(engine.Verify(s.ctx, "C3456DE", alert))

	notes, err := s.store.ListByPerson(s.ctx, "C3456DE")
	s.Require().NoError(err)
	s.Require().Len(notes, 1)
	s.Equal(created.Truncate(time.Second), notes[0].OccurredAt)

	// The note was stored at second precision; re-verifying must find it.
	s.Require().NoError(engine.Verify(s.ctx, "C3456DE", alert))

	notes, err = s.store.ListByPerson(s.ctx, "C3456DE")
	s.Require().NoError(err)
	s.Len(notes, 1)
}

func (s *VerificationSuite) TestVerifyInactive() {
	created := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	inactivated := time.Date(2025, 6, 1, 15, 0, 0, 0, time.UTC)

	s.Run("adds the inactive note when the alert is no longer live", func() {
		alert := s.newAlert(created)
		alert.ActiveTo = &inactivated
		alert.MadeInactiveAt = &inactivated
		engine := s.newEngine(true)

		s.Require().NoError(engine.Verify(s.ctx, "B2345CD", alert))

		notes, err := s.store.ListByPerson(s.ctx, "B2345CD")
		s.Require().NoError(err)
		s.Require().Len(notes, 2)
	})

	s.Run("skips the inactive note for a lapsed alert never marked inactive", func() {
		alert := s.newAlert(created)
		alert.ActiveTo = &inactivated
		// MadeInactiveAt nil: the inactive transition was never processed, so
		// there is no instant to date a note at.
		engine := s.newEngine(true)

		s.Require().NoError(engine.Verify(s.ctx, "C3456DE", alert))

		notes, err := s.store.ListByPerson(s.ctx, "C3456DE")
		s.Require().NoError(err)
		s.Require().Len(notes, 1)
		s.Equal(types.AlertActiveSubType, notes[0].SubType.Code)
	})

	s.Run("treats a future activeTo as still live", func() {
		future := s.now.Add(24 * time.Hour)
		alert := s.newAlert(created)
		alert.ActiveTo = &future
		alert.MadeInactiveAt = &inactivated
		engine := s.newEngine(true)

		s.Require().NoError(engine.Verify(s.ctx, "D4567EF", alert))

		notes, err := s.store.ListByPerson(s.ctx, "D4567EF")
		s.Require().NoError(err)
		s.Require().Len(notes, 1)
		s.Equal(types.AlertActiveSubType, notes[0].SubType.Code)
	})
}

func (s *VerificationSuite) TestVerifyLegacyWording() {
	// An alert created before the wording change must match, and produce,
	// the old text so historical notes keep suppressing synthesis.
	created := descriptionCutover.Add(-24 * time.Hour)
	alert := s.newAlert(created)
	alert.SubType = alerts.CodedDescription{Code: "CPC", Description: "CPC"}

	engine := s.newEngine(true)
	s.Require().NoError(engine.Verify(s.ctx, "E5678FG", alert))

	notes, err := s.store.ListByPerson(s.ctx, "E5678FG")
	s.Require().NoError(err)
	s.Require().Len(notes, 1)
	s.Equal("Alert Security and PPRC made active.", notes[0].Text)

	s.Require().NoError(engine.Verify(s.ctx, "E5678FG", alert))
	notes, err = s.store.ListByPerson(s.ctx, "E5678FG")
	s.Require().NoError(err)
	s.Len(notes, 1)
}

func (s *VerificationSuite) TestReportOnlyMode() {
	created := time.Date(2025, 5, 1, 9, 0, 0, 0, time.UTC)
	engine := s.newEngine(false)

	s.Require().NoError(engine.Verify(s.ctx, "F6789GH", s.newAlert(created)))

	notes, err := s.store.ListByPerson(s.ctx, "F6789GH")
	s.Require().NoError(err)
	s.Empty(notes)
	s.Empty(s.publisher.Events())
}
