package environment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
)

type EnvironmentServiceSuite struct {
	suite.Suite
	store   *InMemoryStore
	service *Service
	ctx     context.Context
	owner   id.OwnerID
}

func TestEnvironmentServiceSuite(t *testing.T) {
	suite.Run(t, new(EnvironmentServiceSuite))
}

func (s *EnvironmentServiceSuite) SetupTest() {
	s.store = NewInMemoryStore()
	s.service = NewService(s.store)
	s.ctx = context.Background()
	s.owner = id.OwnerID("owner-a")
}

func ptr(v float64) *float64 { return &v }

func (s *EnvironmentServiceSuite) TestAppend() {
	source, err := s.service.CreateSource(s.ctx, s.owner, "kestrel")
	s.Require().NoError(err)
	ts := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	s.Run("valid observation", func() {
		err := s.service.Append(s.ctx, s.owner, Observation{
			SourceID:     source.ID,
			Timestamp:    ts,
			TemperatureC: ptr(18.5),
		})
		s.NoError(err)
	})

	s.Run("requires at least one field", func() {
		err := s.service.Append(s.ctx, s.owner, Observation{SourceID: source.ID, Timestamp: ts})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("humidity outside 0-100 rejected", func() {
		err := s.service.Append(s.ctx, s.owner, Observation{
			SourceID:    source.ID,
			Timestamp:   ts,
			HumidityPct: ptr(130),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("other owner's source denied", func() {
		err := s.service.Append(s.ctx, id.OwnerID("owner-b"), Observation{
			SourceID:     source.ID,
			Timestamp:    ts,
			TemperatureC: ptr(20),
		})
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})
}

func (s *EnvironmentServiceSuite) TestListBetween() {
	source, err := s.service.CreateSource(s.ctx, s.owner, "station")
	s.Require().NoError(err)

	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	for _, offset := range []time.Duration{0, 10 * time.Minute, 20 * time.Minute, 30 * time.Minute} {
		err := s.service.Append(s.ctx, s.owner, Observation{
			SourceID:     source.ID,
			Timestamp:    base.Add(offset),
			TemperatureC: ptr(15 + offset.Minutes()/10),
		})
		s.Require().NoError(err)
	}

	s.Run("bounds are inclusive on both ends", func() {
		obs, err := s.service.ListBetween(s.ctx, s.owner, source.ID, base.Add(10*time.Minute), base.Add(20*time.Minute))
		s.Require().NoError(err)
		s.Require().Len(obs, 2)
		s.Equal(base.Add(10*time.Minute), obs[0].Timestamp)
		s.Equal(base.Add(20*time.Minute), obs[1].Timestamp)
	})

	s.Run("ascending order", func() {
		obs, err := s.service.ListBetween(s.ctx, s.owner, source.ID, base, base.Add(time.Hour))
		s.Require().NoError(err)
		s.Require().Len(obs, 4)
		for i := 1; i < len(obs); i++ {
			s.False(obs[i].Timestamp.Before(obs[i-1].Timestamp))
		}
	})

	s.Run("empty window", func() {
		obs, err := s.service.ListBetween(s.ctx, s.owner, source.ID, base.Add(2*time.Hour), base.Add(3*time.Hour))
		s.Require().NoError(err)
		s.Empty(obs)
	})
}

func (s *EnvironmentServiceSuite) TestGetSource() {
	s.Run("absent source returns nil without error", func() {
		source, err := s.service.GetSource(s.ctx, s.owner, id.NewSourceID())
		s.NoError(err)
		s.Nil(source)
	})
}
