package velocity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/requestcontext"
)

type VelocityServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	service *Service
	ctx     context.Context
	owner   id.OwnerID
}

func TestVelocityServiceSuite(t *testing.T) {
	suite.Run(t, new(VelocityServiceSuite))
}

func (s *VelocityServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.service = NewService(s.store)
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	s.owner = id.OwnerID("owner-a")
}

func (s *VelocityServiceSuite) TestCreateSession() {
	s.Run("valid session", func() {
		session, err := s.service.CreateSession(s.ctx, s.owner, "morning string", nil)
		s.Require().NoError(err)
		s.NotEmpty(session.ID)
		s.Equal(s.owner, session.OwnerID)
		s.Empty(session.Readings)
	})

	s.Run("empty label rejected", func() {
		_, err := s.service.CreateSession(s.ctx, s.owner, "", nil)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("non-positive bullet mass rejected", func() {
		mass := -10.0
		_, err := s.service.CreateSession(s.ctx, s.owner, "bad mass", &mass)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func (s *VelocityServiceSuite) TestAddReading() {
	mass := 10.9
	session, err := s.service.CreateSession(s.ctx, s.owner, "175gr string", &mass)
	s.Require().NoError(err)

	ts := time.Date(2026, 3, 14, 9, 5, 0, 0, time.UTC)

	s.Run("derives energy and power factor from bullet mass", func() {
		updated, err := s.service.AddReading(s.ctx, s.owner, session.ID, NewReading{
			Timestamp: ts,
			Speed:     800,
		})
		s.Require().NoError(err)
		s.Require().Len(updated.Readings, 1)

		r := updated.Readings[0]
		s.Equal(1, r.Shot)
		s.Require().NotNil(r.Energy)
		// 0.5 * 0.0109kg * 800^2
		s.InDelta(3488.0, *r.Energy, 0.01)
		s.Require().NotNil(r.PowerFactor)
		s.InDelta(8.72, *r.PowerFactor, 0.001)
	})

	s.Run("auto-increments shot numbers", func() {
		updated, err := s.service.AddReading(s.ctx, s.owner, session.ID, NewReading{
			Timestamp: ts.Add(time.Minute),
			Speed:     805,
		})
		s.Require().NoError(err)
		s.Require().Len(updated.Readings, 2)
		s.Equal(2, updated.Readings[1].Shot)
	})

	s.Run("recomputes cached stats", func() {
		got, err := s.service.Get(s.ctx, s.owner, session.ID)
		s.Require().NoError(err)
		s.Equal(2, got.Stats.Count)
		s.InDelta(802.5, got.Stats.Mean, 0.0001)
	})

	s.Run("rejects non-positive speed", func() {
		_, err := s.service.AddReading(s.ctx, s.owner, session.ID, NewReading{Timestamp: ts, Speed: 0})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects zero timestamp", func() {
		_, err := s.service.AddReading(s.ctx, s.owner, session.ID, NewReading{Speed: 800})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("rejects other owner", func() {
		_, err := s.service.AddReading(s.ctx, id.OwnerID("owner-b"), session.ID, NewReading{
			Timestamp: ts, Speed: 810,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})
}

func (s *VelocityServiceSuite) TestUpdateReading() {
	session, err := s.service.CreateSession(s.ctx, s.owner, "flags", nil)
	s.Require().NoError(err)
	ts := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)
	session, err = s.service.AddReading(s.ctx, s.owner, session.ID, NewReading{Timestamp: ts, Speed: 780})
	s.Require().NoError(err)
	readingID := session.Readings[0].ID

	s.Run("mutates flags and note only", func() {
		cold := true
		note := "first round through a cold barrel"
		updated, err := s.service.UpdateReading(s.ctx, s.owner, session.ID, readingID, ReadingUpdate{
			ColdBore: &cold,
			Note:     &note,
		})
		s.Require().NoError(err)
		r := updated.Readings[0]
		s.True(r.ColdBore)
		s.Equal(note, r.Note)
		s.Equal(780.0, r.Speed)
		s.Equal(ts, r.Timestamp)
	})

	s.Run("unknown reading", func() {
		_, err := s.service.UpdateReading(s.ctx, s.owner, session.ID, id.NewReadingID(), ReadingUpdate{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *VelocityServiceSuite) TestGet() {
	s.Run("absent session returns nil without error", func() {
		session, err := s.service.Get(s.ctx, s.owner, id.NewSessionID())
		s.NoError(err)
		s.Nil(session)
	})

	s.Run("other owner's session is denied, not hidden", func() {
		session, err := s.service.CreateSession(s.ctx, id.OwnerID("owner-b"), "theirs", nil)
		s.Require().NoError(err)
		_, err = s.service.Get(s.ctx, s.owner, session.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})
}

func (s *VelocityServiceSuite) TestSpan() {
	session := &Session{}
	_, _, ok := session.Span()
	s.False(ok)

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	session.Readings = []Reading{
		{Timestamp: base.Add(2 * time.Minute)},
		{Timestamp: base},
		{Timestamp: base.Add(5 * time.Minute)},
	}
	start, end, ok := session.Span()
	s.True(ok)
	s.Equal(base, start)
	s.Equal(base.Add(5*time.Minute), end)
}
