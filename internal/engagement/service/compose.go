package service

import (
	"context"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"rangelog/internal/audit"
	"rangelog/internal/engagement/models"
	"rangelog/internal/engagement/ports"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/requestcontext"
)

// ComposeRequest names the sources a record joins. The environment source is
// the only optional reference.
type ComposeRequest struct {
	Label               string
	SessionID           id.SessionID
	LoadID              id.LoadID
	FirearmID           id.FirearmID
	LocationID          id.LocationID
	EnvironmentSourceID *id.SourceID
	Notes               string
}

func (r ComposeRequest) validate() error {
	if r.SessionID == "" {
		return dErrors.New(dErrors.CodeValidation, "session reference is required")
	}
	if r.LoadID == "" {
		return dErrors.New(dErrors.CodeValidation, "load reference is required")
	}
	if r.FirearmID == "" {
		return dErrors.New(dErrors.CodeValidation, "firearm reference is required")
	}
	if r.LocationID == "" {
		return dErrors.New(dErrors.CodeValidation, "location reference is required")
	}
	return nil
}

// gatheredSources holds the resolved views of every referenced component.
type gatheredSources struct {
	session  *ports.SessionData
	load     *ports.LoadData
	firearm  *ports.FirearmData
	location *ports.LocationData
}

// Compose resolves every referenced source, copies their data into a
// denormalized record, and creates one measurement per session reading. When
// an environment source is referenced, measurements get their initial
// observation binding during composition.
func (s *Service) Compose(ctx context.Context, owner id.OwnerID, req ComposeRequest) (*models.Record, error) {
	started := time.Now()
	if owner == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	gathered, err := s.gatherSources(ctx, owner, req)
	if err != nil {
		s.metrics.IncrementRecordOp("compose", "error")
		return nil, err
	}

	start, end, ok := readingSpan(gathered.session.Readings)
	if !ok {
		s.metrics.IncrementRecordOp("compose", "error")
		return nil, dErrors.New(dErrors.CodeValidation, "session has no readings")
	}

	now := requestcontext.Now(ctx)
	record := &models.Record{
		ID:                  id.NewRecordID(),
		OwnerID:             owner,
		Label:               req.Label,
		SessionID:           req.SessionID,
		LoadID:              req.LoadID,
		FirearmID:           req.FirearmID,
		LocationID:          req.LocationID,
		EnvironmentSourceID: req.EnvironmentSourceID,
		StartTime:           start,
		EndTime:             end,
		Notes:               req.Notes,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if record.Label == "" {
		record.Label = gathered.session.Label
	}
	record.Snapshot = buildSnapshot(gathered, nil)

	var observations []ports.ObservationData
	if req.EnvironmentSourceID != nil {
		observations, err = s.weather.ObservationsBetween(ctx, owner, *req.EnvironmentSourceID,
			start.Add(-s.tolerance), end.Add(s.tolerance))
		if err != nil {
			s.metrics.IncrementRecordOp("compose", "error")
			return nil, err
		}
		record.Snapshot.Environment = environmentMedians(observations, start, end)
	}

	if err := record.Validate(); err != nil {
		s.metrics.IncrementRecordOp("compose", "error")
		return nil, err
	}
	if err := s.store.CreateRecord(ctx, record); err != nil {
		s.metrics.IncrementRecordOp("compose", "error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create record")
	}

	measurements := make([]models.Measurement, 0, len(gathered.session.Readings))
	for _, r := range gathered.session.Readings {
		m := models.Measurement{
			ID:        id.NewMeasurementID(),
			RecordID:  record.ID,
			Shot:      r.Shot,
			Timestamp: r.Timestamp,
			Speed:     r.Speed,
		}
		if obs, ok := closestObservation(observations, r.Timestamp, s.tolerance); ok {
			m.Environment = snapshotObservation(obs)
			s.metrics.IncrementAssociation("matched")
		} else if req.EnvironmentSourceID != nil {
			s.metrics.IncrementAssociation("unmatched")
		}
		measurements = append(measurements, m)
	}
	if err := s.store.CreateMeasurements(ctx, measurements); err != nil {
		s.metrics.IncrementRecordOp("compose", "error")
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create measurements")
	}

	s.metrics.IncrementRecordOp("compose", "ok")
	s.metrics.ObserveComposeLatency(time.Since(started))
	s.audit.Emit(audit.Event{
		OwnerID:  owner,
		Entity:   "engagement_record",
		EntityID: string(record.ID),
		Action:   "compose",
		Detail:   record.Label,
	})
	if s.logger != nil {
		s.logger.InfoContext(ctx, "record composed",
			"record_id", record.ID,
			"session_id", req.SessionID,
			"measurements", len(measurements),
		)
	}
	s.invalidateSummary(ctx, owner)
	return record, nil
}

// gatherSources resolves all referenced components in parallel with shared
// context cancellation.
func (s *Service) gatherSources(ctx context.Context, owner id.OwnerID, req ComposeRequest) (*gatheredSources, error) {
	ctx, cancel := context.WithTimeout(ctx, sourceTimeout)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	gathered := &gatheredSources{}

	g.Go(func() error {
		start := time.Now()
		session, err := s.sessions.SessionForOwner(ctx, owner, req.SessionID)
		s.metrics.ObserveSourceLatency("session", time.Since(start))
		if err != nil {
			return err
		}
		gathered.session = session
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		load, err := s.equipment.LoadForOwner(ctx, owner, req.LoadID)
		s.metrics.ObserveSourceLatency("load", time.Since(start))
		if err != nil {
			return err
		}
		gathered.load = load
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		firearm, err := s.equipment.FirearmForOwner(ctx, owner, req.FirearmID)
		s.metrics.ObserveSourceLatency("firearm", time.Since(start))
		if err != nil {
			return err
		}
		gathered.firearm = firearm
		return nil
	})

	g.Go(func() error {
		start := time.Now()
		location, err := s.locations.LocationForOwner(ctx, owner, req.LocationID)
		s.metrics.ObserveSourceLatency("location", time.Since(start))
		if err != nil {
			return err
		}
		gathered.location = location
		return nil
	})

	if req.EnvironmentSourceID != nil {
		g.Go(func() error {
			start := time.Now()
			err := s.weather.VerifySource(ctx, owner, *req.EnvironmentSourceID)
			s.metrics.ObserveSourceLatency("environment", time.Since(start))
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return gathered, nil
}

// buildSnapshot copies source data by value into the record's cached view.
// An existing environment summary may be carried over when the caller
// recomputes it separately.
func buildSnapshot(g *gatheredSources, env *models.EnvironmentSummary) models.Snapshot {
	snap := models.Snapshot{
		LoadName:        g.load.Name,
		Cartridge:       g.load.Cartridge,
		BulletName:      g.load.BulletName,
		BulletMassGrams: g.load.BulletMassGrams,
		FirearmName:     g.firearm.Name,
		FirearmCaliber:  g.firearm.Caliber,
		LocationName:    g.location.Name,
		DistanceM:       g.location.DistanceM,
		Velocity:        velocityStats(g.session.Stats),
	}
	if env != nil {
		snap.Environment = *env
	}
	return snap
}

// velocityStats derives the spread figures the session does not cache
// itself.
func velocityStats(stats ports.SessionStatsData) models.VelocityStats {
	out := models.VelocityStats{
		Count:         stats.Count,
		Mean:          stats.Mean,
		StdDev:        stats.StdDev,
		Min:           stats.Min,
		Max:           stats.Max,
		ExtremeSpread: stats.Max - stats.Min,
	}
	if stats.Mean != 0 {
		out.CoefficientOfVariation = stats.StdDev / stats.Mean * 100
	}
	return out
}

func readingSpan(readings []ports.ReadingData) (time.Time, time.Time, bool) {
	if len(readings) == 0 {
		return time.Time{}, time.Time{}, false
	}
	start, end := readings[0].Timestamp, readings[0].Timestamp
	for _, r := range readings[1:] {
		if r.Timestamp.Before(start) {
			start = r.Timestamp
		}
		if r.Timestamp.After(end) {
			end = r.Timestamp
		}
	}
	return start, end, true
}

// environmentMedians computes per-field medians over observations inside the
// inclusive [start, end] window. A field with no data anywhere in the window
// stays nil.
func environmentMedians(observations []ports.ObservationData, start, end time.Time) models.EnvironmentSummary {
	var temp, hum, press, wind, windDir []float64
	for _, obs := range observations {
		if obs.Timestamp.Before(start) || obs.Timestamp.After(end) {
			continue
		}
		temp = appendValue(temp, obs.TemperatureC)
		hum = appendValue(hum, obs.HumidityPct)
		press = appendValue(press, obs.PressureHPa)
		wind = appendValue(wind, obs.WindSpeedMPS)
		windDir = appendValue(windDir, obs.WindDirectionDeg)
	}
	return models.EnvironmentSummary{
		TemperatureC:     median(temp),
		HumidityPct:      median(hum),
		PressureHPa:      median(press),
		WindSpeedMPS:     median(wind),
		WindDirectionDeg: median(windDir),
	}
}

func appendValue(values []float64, v *float64) []float64 {
	if v == nil {
		return values
	}
	return append(values, *v)
}

// median returns nil for an empty set; for an even count it averages the two
// middle values.
func median(values []float64) *float64 {
	if len(values) == 0 {
		return nil
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	var m float64
	if len(sorted)%2 == 1 {
		m = sorted[mid]
	} else {
		m = (sorted[mid-1] + sorted[mid]) / 2
	}
	return &m
}
