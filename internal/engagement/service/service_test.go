package service

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"rangelog/internal/engagement/adapters"
	"rangelog/internal/engagement/metrics"
	"rangelog/internal/engagement/models"
	"rangelog/internal/engagement/store"
	"rangelog/internal/environment"
	"rangelog/internal/equipment"
	"rangelog/internal/geo"
	"rangelog/internal/velocity"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/requestcontext"
)

type EngagementServiceSuite struct {
	suite.Suite
	ctx   context.Context
	owner id.OwnerID
	other id.OwnerID

	velocity    *velocity.Service
	environment *environment.Service
	equipment   *equipment.Service
	geo         *geo.Service
	service     *Service

	session  *velocity.Session
	load     *equipment.Load
	firearm  *equipment.Firearm
	location *geo.Location
	source   *environment.Source

	base time.Time
}

func TestEngagementServiceSuite(t *testing.T) {
	suite.Run(t, new(EngagementServiceSuite))
}

func (s *EngagementServiceSuite) SetupTest() {
	s.base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.base)
	s.owner = id.OwnerID("owner-a")
	s.other = id.OwnerID("owner-b")

	s.velocity = velocity.NewService(velocity.NewInMemoryStore())
	s.environment = environment.NewService(environment.NewInMemoryStore())
	s.equipment = equipment.NewService(equipment.NewInMemoryStore())
	s.geo = geo.NewService(geo.NewInMemoryStore())

	s.service = NewService(
		store.NewMemory(),
		adapters.NewSessionAdapter(s.velocity),
		adapters.NewEquipmentAdapter(s.equipment),
		adapters.NewLocationAdapter(s.geo),
		adapters.NewEnvironmentAdapter(s.environment),
	)

	s.seedSources()
}

func (s *EngagementServiceSuite) seedSources() {
	var err error
	s.session, err = s.velocity.CreateSession(s.ctx, s.owner, "morning string", nil)
	s.Require().NoError(err)
	for i, speed := range []float64{790, 792, 794} {
		s.session, err = s.velocity.AddReading(s.ctx, s.owner, s.session.ID, velocity.NewReading{
			Timestamp: s.base.Add(time.Duration(i) * time.Minute),
			Speed:     speed,
		})
		s.Require().NoError(err)
	}

	s.load, err = s.equipment.CreateLoad(s.ctx, s.owner, equipment.Load{
		Name:            "match load",
		Cartridge:       "308 Win",
		BulletName:      "175gr SMK",
		BulletMassGrams: 11.34,
	})
	s.Require().NoError(err)

	s.firearm, err = s.equipment.CreateFirearm(s.ctx, s.owner, equipment.Firearm{
		Name:    "work rifle",
		Caliber: "308 Win",
	})
	s.Require().NoError(err)

	s.location, err = s.geo.Create(s.ctx, s.owner, "hillside 600m",
		geo.Coordinates{Latitude: 47.0, Longitude: 19.0, ElevationM: 150},
		geo.Coordinates{Latitude: 47.0053959, Longitude: 19.0, ElevationM: 150},
	)
	s.Require().NoError(err)

	s.source, err = s.environment.CreateSource(s.ctx, s.owner, "kestrel")
	s.Require().NoError(err)
}

func (s *EngagementServiceSuite) composeRequest() ComposeRequest {
	return ComposeRequest{
		Label:      "qualification string",
		SessionID:  s.session.ID,
		LoadID:     s.load.ID,
		FirearmID:  s.firearm.ID,
		LocationID: s.location.ID,
	}
}

func (s *EngagementServiceSuite) appendObservation(ts time.Time, tempC float64) {
	temp := tempC
	s.Require().NoError(s.environment.Append(s.ctx, s.owner, environment.Observation{
		SourceID:     s.source.ID,
		Timestamp:    ts,
		TemperatureC: &temp,
	}))
}

func (s *EngagementServiceSuite) TestCompose() {
	record, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
	s.Require().NoError(err)

	s.Run("copies source data by value", func() {
		s.Equal("match load", record.Snapshot.LoadName)
		s.Equal("175gr SMK", record.Snapshot.BulletName)
		s.Equal("work rifle", record.Snapshot.FirearmName)
		s.Equal("hillside 600m", record.Snapshot.LocationName)
		s.InDelta(600, record.Snapshot.DistanceM, 1)
	})

	s.Run("derives spread statistics", func() {
		v := record.Snapshot.Velocity
		s.Equal(3, v.Count)
		s.Equal(792.0, v.Mean)
		s.InDelta(1.633, v.StdDev, 0.001)
		s.Equal(4.0, v.ExtremeSpread)
		s.InDelta(0.206, v.CoefficientOfVariation, 0.001)
	})

	s.Run("span bounds the reading timestamps", func() {
		s.Equal(s.base, record.StartTime)
		s.Equal(s.base.Add(2*time.Minute), record.EndTime)
	})

	s.Run("environment stays unset without a source", func() {
		s.Nil(record.EnvironmentSourceID)
		s.True(record.Snapshot.Environment.Unset())
	})

	s.Run("creates one measurement per reading", func() {
		measurements, err := s.service.Measurements(s.ctx, s.owner, record.ID)
		s.Require().NoError(err)
		s.Require().Len(measurements, 3)
		s.Equal(1, measurements[0].Shot)
		s.Equal(790.0, measurements[0].Speed)
		s.Nil(measurements[0].Environment)
	})
}

func (s *EngagementServiceSuite) TestComposeValidation() {
	s.Run("empty session rejected", func() {
		empty, err := s.velocity.CreateSession(s.ctx, s.owner, "no shots", nil)
		s.Require().NoError(err)
		req := s.composeRequest()
		req.SessionID = empty.ID
		_, err = s.service.Compose(s.ctx, s.owner, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("missing reference rejected", func() {
		req := s.composeRequest()
		req.LoadID = ""
		_, err := s.service.Compose(s.ctx, s.owner, req)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("unknown session rejected", func() {
		req := s.composeRequest()
		req.SessionID = id.NewSessionID()
		_, err := s.service.Compose(s.ctx, s.owner, req)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("another owner's session denied", func() {
		theirs, err := s.velocity.CreateSession(s.ctx, s.other, "theirs", nil)
		s.Require().NoError(err)
		req := s.composeRequest()
		req.SessionID = theirs.ID
		_, err = s.service.Compose(s.ctx, s.owner, req)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})

	s.Run("defaults label to the session label", func() {
		req := s.composeRequest()
		req.Label = ""
		record, err := s.service.Compose(s.ctx, s.owner, req)
		s.Require().NoError(err)
		s.Equal("morning string", record.Label)
	})
}

func (s *EngagementServiceSuite) TestComposeWithEnvironment() {
	s.appendObservation(s.base.Add(-10*time.Minute), 16)
	s.appendObservation(s.base.Add(1*time.Minute), 18)
	s.appendObservation(s.base.Add(2*time.Minute), 20)

	req := s.composeRequest()
	req.EnvironmentSourceID = &s.source.ID
	record, err := s.service.Compose(s.ctx, s.owner, req)
	s.Require().NoError(err)

	s.Run("medians cover observations inside the span only", func() {
		s.Require().NotNil(record.Snapshot.Environment.TemperatureC)
		// Observations at +1m (18) and +2m (20) fall inside [start, end].
		s.Equal(19.0, *record.Snapshot.Environment.TemperatureC)
		s.Nil(record.Snapshot.Environment.HumidityPct)
	})

	s.Run("measurements get initial bindings", func() {
		measurements, err := s.service.Measurements(s.ctx, s.owner, record.ID)
		s.Require().NoError(err)
		s.Require().Len(measurements, 3)
		for _, m := range measurements {
			s.Require().NotNil(m.Environment, "shot %d", m.Shot)
		}
		// Shot 1 at T+0 is closest to the T+1m observation.
		s.Equal(s.base.Add(1*time.Minute), measurements[0].Environment.ObservedAt)
	})
}

func (s *EngagementServiceSuite) TestAssociate() {
	req := s.composeRequest()
	req.EnvironmentSourceID = &s.source.ID
	record, err := s.service.Compose(s.ctx, s.owner, req)
	s.Require().NoError(err)

	s.Run("requires an environment source", func() {
		plain, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
		s.Require().NoError(err)
		_, err = s.service.Associate(s.ctx, s.owner, plain.ID, 0)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("no observation in range leaves measurements unset", func() {
		result, err := s.service.Associate(s.ctx, s.owner, record.ID, 0)
		s.Require().NoError(err)
		s.Equal(0, result.Succeeded)
		s.Len(result.Failed, 3)

		measurements, err := s.service.Measurements(s.ctx, s.owner, record.ID)
		s.Require().NoError(err)
		for _, m := range measurements {
			s.Nil(m.Environment)
		}
	})

	s.Run("picks the smallest absolute delta", func() {
		// Shot 1 fired at base. Observations 10 minutes before and 25
		// minutes after are both in tolerance; the earlier one is closer.
		s.appendObservation(s.base.Add(-10*time.Minute), 15)
		s.appendObservation(s.base.Add(25*time.Minute), 21)

		result, err := s.service.Associate(s.ctx, s.owner, record.ID, 0)
		s.Require().NoError(err)
		s.Equal(3, result.Succeeded)

		measurements, err := s.service.Measurements(s.ctx, s.owner, record.ID)
		s.Require().NoError(err)
		s.Equal(s.base.Add(-10*time.Minute), measurements[0].Environment.ObservedAt)
	})

	s.Run("idempotent re-run keeps existing bindings", func() {
		s.appendObservation(s.base.Add(30*time.Second), 17)

		result, err := s.service.Associate(s.ctx, s.owner, record.ID, 0)
		s.Require().NoError(err)
		s.Equal(3, result.Succeeded)
		s.Empty(result.Failed)

		measurements, err := s.service.Measurements(s.ctx, s.owner, record.ID)
		s.Require().NoError(err)
		// Still the observation matched on the first pass, not the closer
		// one appended afterwards.
		s.Equal(s.base.Add(-10*time.Minute), measurements[0].Environment.ObservedAt)
	})
}

func (s *EngagementServiceSuite) TestAssociateTieBreak() {
	// Equidistant observations five minutes either side of shot 1.
	s.appendObservation(s.base.Add(-5*time.Minute), 14)
	s.appendObservation(s.base.Add(5*time.Minute), 22)

	req := s.composeRequest()
	req.EnvironmentSourceID = &s.source.ID
	record, err := s.service.Compose(s.ctx, s.owner, req)
	s.Require().NoError(err)

	measurements, err := s.service.Measurements(s.ctx, s.owner, record.ID)
	s.Require().NoError(err)
	s.Require().NotNil(measurements[0].Environment)
	s.Equal(s.base.Add(-5*time.Minute), measurements[0].Environment.ObservedAt,
		"equal deltas resolve to the earlier observation")
}

func (s *EngagementServiceSuite) TestDenormalizationIsByValue() {
	record, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
	s.Require().NoError(err)

	// A new load on the source side must not leak into the stored record.
	newLoad, err := s.equipment.CreateLoad(s.ctx, s.owner, equipment.Load{
		Name:            "hotter load",
		Cartridge:       "308 Win",
		BulletName:      "168gr",
		BulletMassGrams: 10.89,
	})
	s.Require().NoError(err)

	got, err := s.service.Get(s.ctx, s.owner, record.ID)
	s.Require().NoError(err)
	s.Equal("match load", got.Snapshot.LoadName)

	s.Run("reference swap recomputes the affected section", func() {
		updated, err := s.service.Update(s.ctx, s.owner, record.ID, UpdateRequest{LoadID: &newLoad.ID})
		s.Require().NoError(err)
		s.Equal("hotter load", updated.Snapshot.LoadName)
		s.Equal(10.89, updated.Snapshot.BulletMassGrams)
		// Untouched sections keep their values.
		s.Equal("work rifle", updated.Snapshot.FirearmName)
	})

	s.Run("refresh re-reads every source", func() {
		s.session, err = s.velocity.AddReading(s.ctx, s.owner, s.session.ID, velocity.NewReading{
			Timestamp: s.base.Add(3 * time.Minute),
			Speed:     796,
		})
		s.Require().NoError(err)

		refreshed, err := s.service.Refresh(s.ctx, s.owner, record.ID)
		s.Require().NoError(err)
		s.Equal(4, refreshed.Snapshot.Velocity.Count)
		s.Equal(s.base.Add(3*time.Minute), refreshed.EndTime)
	})
}

func (s *EngagementServiceSuite) TestUpdate() {
	record, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
	s.Require().NoError(err)

	s.Run("label and notes", func() {
		label, notes := "renamed", "wind picked up at the end"
		updated, err := s.service.Update(s.ctx, s.owner, record.ID, UpdateRequest{
			Label: &label,
			Notes: &notes,
		})
		s.Require().NoError(err)
		s.Equal("renamed", updated.Label)
		s.Equal(notes, updated.Notes)
	})

	s.Run("empty label rejected", func() {
		empty := ""
		_, err := s.service.Update(s.ctx, s.owner, record.ID, UpdateRequest{Label: &empty})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("attaching an environment source computes medians", func() {
		s.appendObservation(s.base.Add(time.Minute), 18)
		updated, err := s.service.Update(s.ctx, s.owner, record.ID, UpdateRequest{
			SetEnvironmentSource: true,
			EnvironmentSourceID:  &s.source.ID,
		})
		s.Require().NoError(err)
		s.Require().NotNil(updated.EnvironmentSourceID)
		s.Require().NotNil(updated.Snapshot.Environment.TemperatureC)
		s.Equal(18.0, *updated.Snapshot.Environment.TemperatureC)
	})

	s.Run("clearing the environment source resets medians", func() {
		updated, err := s.service.Update(s.ctx, s.owner, record.ID, UpdateRequest{
			SetEnvironmentSource: true,
		})
		s.Require().NoError(err)
		s.Nil(updated.EnvironmentSourceID)
		s.True(updated.Snapshot.Environment.Unset())
	})

	s.Run("other owner denied", func() {
		label := "hijack"
		_, err := s.service.Update(s.ctx, s.other, record.ID, UpdateRequest{Label: &label})
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})
}

func (s *EngagementServiceSuite) TestUpdateMeasurement() {
	record, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
	s.Require().NoError(err)
	measurements, err := s.service.Measurements(s.ctx, s.owner, record.ID)
	s.Require().NoError(err)
	target := measurements[0]

	s.Run("mutates engagement fields only", func() {
		dist, note := 600.0, "held half a mil left"
		updated, err := s.service.UpdateMeasurement(s.ctx, s.owner, record.ID, target.ID, MeasurementUpdate{
			TargetDistanceM: &dist,
			Note:            &note,
		})
		s.Require().NoError(err)
		s.Equal(600.0, *updated.TargetDistanceM)
		s.Equal(note, updated.Note)
		s.Equal(target.Speed, updated.Speed)
		s.Equal(target.Timestamp, updated.Timestamp)
	})

	s.Run("rejects non-positive target distance", func() {
		bad := -5.0
		_, err := s.service.UpdateMeasurement(s.ctx, s.owner, record.ID, target.ID, MeasurementUpdate{
			TargetDistanceM: &bad,
		})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("measurement from another record reads as missing", func() {
		other, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
		s.Require().NoError(err)
		_, err = s.service.UpdateMeasurement(s.ctx, s.owner, other.ID, target.ID, MeasurementUpdate{})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *EngagementServiceSuite) TestQueries() {
	first, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
	s.Require().NoError(err)

	// A second record with different equipment.
	load2, err := s.equipment.CreateLoad(s.ctx, s.owner, equipment.Load{
		Name:            "practice load",
		Cartridge:       "308 Win",
		BulletName:      "150gr FMJ",
		BulletMassGrams: 9.72,
	})
	s.Require().NoError(err)
	req := s.composeRequest()
	req.Label = "practice session"
	req.LoadID = load2.ID
	second, err := s.service.Compose(s.ctx, s.owner, req)
	s.Require().NoError(err)

	s.Run("empty filter returns everything list-all returns", func() {
		all, err := s.service.List(s.ctx, s.owner)
		s.Require().NoError(err)
		filtered, err := s.service.Filter(s.ctx, s.owner, models.FilterSet{})
		s.Require().NoError(err)
		s.Equal(len(all), len(filtered))
		s.Len(filtered, 2)
	})

	s.Run("filter on load name", func() {
		name := "practice load"
		filtered, err := s.service.Filter(s.ctx, s.owner, models.FilterSet{LoadName: &name})
		s.Require().NoError(err)
		s.Require().Len(filtered, 1)
		s.Equal(second.ID, filtered[0].ID)
	})

	s.Run("filter on bullet mass range", func() {
		min, max := 11.0, 12.0
		filtered, err := s.service.Filter(s.ctx, s.owner, models.FilterSet{
			BulletMassGrams: models.NumericRange{Min: &min, Max: &max},
		})
		s.Require().NoError(err)
		s.Require().Len(filtered, 1)
		s.Equal(first.ID, filtered[0].ID)
	})

	s.Run("search is case-insensitive OR across text fields", func() {
		found, err := s.service.Search(s.ctx, s.owner, "PRACTICE")
		s.Require().NoError(err)
		s.Require().Len(found, 1)
		s.Equal(second.ID, found[0].ID)

		all, err := s.service.Search(s.ctx, s.owner, "  ")
		s.Require().NoError(err)
		s.Len(all, 2)
	})

	s.Run("unique values are sorted and distinct", func() {
		values, err := s.service.UniqueValues(s.ctx, s.owner, "load_name")
		s.Require().NoError(err)
		s.Equal([]string{"match load", "practice load"}, values)

		cartridges, err := s.service.UniqueValues(s.ctx, s.owner, "cartridge")
		s.Require().NoError(err)
		s.Equal([]string{"308 Win"}, cartridges)
	})

	s.Run("unsupported field rejected", func() {
		_, err := s.service.UniqueValues(s.ctx, s.owner, "notes")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("owners see only their own records", func() {
		records, err := s.service.List(s.ctx, s.other)
		s.Require().NoError(err)
		s.Empty(records)
	})
}

func (s *EngagementServiceSuite) TestDelete() {
	record, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
	s.Require().NoError(err)

	s.Run("removes the record and its measurements", func() {
		s.Require().NoError(s.service.Delete(s.ctx, s.owner, record.ID))
		got, err := s.service.Get(s.ctx, s.owner, record.ID)
		s.Require().NoError(err)
		s.Nil(got)
	})

	s.Run("deleting again succeeds", func() {
		s.NoError(s.service.Delete(s.ctx, s.owner, record.ID))
	})

	s.Run("another owner's record is denied", func() {
		mine, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
		s.Require().NoError(err)
		err = s.service.Delete(s.ctx, s.other, mine.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})
}

func (s *EngagementServiceSuite) TestDeleteAll() {
	first, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
	s.Require().NoError(err)
	second, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
	s.Require().NoError(err)

	result, err := s.service.DeleteAll(s.ctx, s.other, []id.RecordID{first.ID, second.ID, id.NewRecordID()})
	s.Require().NoError(err)
	s.Equal(1, result.Succeeded, "the unknown id deletes idempotently")
	s.Len(result.Failed, 2, "owned records fail for the wrong owner")

	result, err = s.service.DeleteAll(s.ctx, s.owner, []id.RecordID{first.ID, second.ID})
	s.Require().NoError(err)
	s.Equal(2, result.Succeeded)
	s.Empty(result.Failed)
}

func (s *EngagementServiceSuite) TestSummary() {
	s.Run("empty owner", func() {
		summary, err := s.service.Summary(s.ctx, s.owner)
		s.Require().NoError(err)
		s.Equal(0, summary.TotalRecords)
		s.Nil(summary.EarliestStart)
	})

	s.Run("aggregates across records", func() {
		_, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
		s.Require().NoError(err)
		_, err = s.service.Compose(s.ctx, s.owner, s.composeRequest())
		s.Require().NoError(err)

		summary, err := s.service.Summary(s.ctx, s.owner)
		s.Require().NoError(err)
		s.Equal(2, summary.TotalRecords)
		s.Equal(6, summary.TotalMeasurements)
		s.Equal(1, summary.DistinctLoads)
		s.Equal(1, summary.DistinctFirearms)
		s.Require().NotNil(summary.EarliestStart)
		s.Equal(s.base, *summary.EarliestStart)
	})
}

var engineMetrics = metrics.New()

func (s *EngagementServiceSuite) TestComposeErrorAccounting() {
	engine := NewService(
		store.NewMemory(),
		adapters.NewSessionAdapter(s.velocity),
		adapters.NewEquipmentAdapter(s.equipment),
		adapters.NewLocationAdapter(s.geo),
		adapters.NewEnvironmentAdapter(s.environment),
		WithMetrics(engineMetrics),
	)
	errorCounter := engineMetrics.RecordOps.WithLabelValues("compose", "error")
	okCounter := engineMetrics.RecordOps.WithLabelValues("compose", "ok")

	s.Run("empty session counts as an error", func() {
		empty, err := s.velocity.CreateSession(s.ctx, s.owner, "no shots", nil)
		s.Require().NoError(err)
		before := testutil.ToFloat64(errorCounter)

		req := s.composeRequest()
		req.SessionID = empty.ID
		_, err = engine.Compose(s.ctx, s.owner, req)
		s.Require().Error(err)
		s.InDelta(before+1, testutil.ToFloat64(errorCounter), 0.0001)
	})

	s.Run("unresolved reference counts as an error", func() {
		before := testutil.ToFloat64(errorCounter)

		req := s.composeRequest()
		req.SessionID = id.NewSessionID()
		_, err := engine.Compose(s.ctx, s.owner, req)
		s.Require().Error(err)
		s.InDelta(before+1, testutil.ToFloat64(errorCounter), 0.0001)
	})

	s.Run("success counts on the ok outcome only", func() {
		beforeErr := testutil.ToFloat64(errorCounter)
		beforeOK := testutil.ToFloat64(okCounter)

		_, err := engine.Compose(s.ctx, s.owner, s.composeRequest())
		s.Require().NoError(err)
		s.InDelta(beforeErr, testutil.ToFloat64(errorCounter), 0.0001)
		s.InDelta(beforeOK+1, testutil.ToFloat64(okCounter), 0.0001)
	})
}

func (s *EngagementServiceSuite) TestGet() {
	s.Run("absent record returns nil without error", func() {
		record, err := s.service.Get(s.ctx, s.owner, id.NewRecordID())
		s.NoError(err)
		s.Nil(record)
	})

	s.Run("another owner's record is denied, not hidden", func() {
		record, err := s.service.Compose(s.ctx, s.owner, s.composeRequest())
		s.Require().NoError(err)
		_, err = s.service.Get(s.ctx, s.other, record.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeAccessDenied))
	})
}
