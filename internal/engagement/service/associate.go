package service

import (
	"context"
	"time"

	"rangelog/internal/engagement/models"
	"rangelog/internal/engagement/ports"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
)

// Associate binds each of a record's unassociated measurements to the
// closest environment observation within the tolerance window. The operation
// is idempotent: measurements that already carry a binding are left as they
// are, and measurements with no observation in range stay unset.
func (s *Service) Associate(ctx context.Context, owner id.OwnerID, recordID id.RecordID, tolerance time.Duration) (*models.BatchResult, error) {
	record, err := s.ownedRecord(ctx, owner, recordID)
	if err != nil {
		return nil, err
	}
	if record.EnvironmentSourceID == nil {
		return nil, dErrors.New(dErrors.CodeValidation, "record has no environment source")
	}
	if tolerance <= 0 {
		tolerance = s.tolerance
	}

	measurements, err := s.store.ListMeasurements(ctx, record.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list measurements")
	}

	observations, err := s.weather.ObservationsBetween(ctx, owner, *record.EnvironmentSourceID,
		record.StartTime.Add(-tolerance), record.EndTime.Add(tolerance))
	if err != nil {
		return nil, err
	}

	result := &models.BatchResult{}
	for i := range measurements {
		m := &measurements[i]
		if m.Associated() {
			s.metrics.IncrementAssociation("already")
			result.Succeeded++
			continue
		}
		obs, ok := closestObservation(observations, m.Timestamp, tolerance)
		if !ok {
			s.metrics.IncrementAssociation("unmatched")
			result.Failed = append(result.Failed, models.BatchError{
				ID:     string(m.ID),
				Reason: "no observation within tolerance",
			})
			continue
		}
		m.Environment = snapshotObservation(obs)
		if err := s.store.UpdateMeasurement(ctx, m); err != nil {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update measurement")
		}
		s.metrics.IncrementAssociation("matched")
		result.Succeeded++
	}

	if s.logger != nil {
		s.logger.InfoContext(ctx, "measurements associated",
			"record_id", record.ID,
			"succeeded", result.Succeeded,
			"unmatched", len(result.Failed),
		)
	}
	return result, nil
}

// closestObservation picks the observation with the smallest absolute time
// delta to ts within the tolerance. Observations arrive sorted ascending, so
// keeping the first of two equal deltas selects the earlier timestamp.
func closestObservation(observations []ports.ObservationData, ts time.Time, tolerance time.Duration) (ports.ObservationData, bool) {
	var (
		best      ports.ObservationData
		bestDelta time.Duration
		found     bool
	)
	for _, obs := range observations {
		delta := obs.Timestamp.Sub(ts)
		if delta < 0 {
			delta = -delta
		}
		if delta > tolerance {
			continue
		}
		if !found || delta < bestDelta {
			best = obs
			bestDelta = delta
			found = true
		}
	}
	return best, found
}

// snapshotObservation copies the matched observation by value onto the
// measurement.
func snapshotObservation(obs ports.ObservationData) *models.EnvironmentSnapshot {
	return &models.EnvironmentSnapshot{
		ObservedAt:       obs.Timestamp,
		TemperatureC:     obs.TemperatureC,
		HumidityPct:      obs.HumidityPct,
		PressureHPa:      obs.PressureHPa,
		WindSpeedMPS:     obs.WindSpeedMPS,
		WindDirectionDeg: obs.WindDirectionDeg,
	}
}
