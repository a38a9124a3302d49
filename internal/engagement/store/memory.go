package store

import (
	"context"
	"sort"
	"sync"

	"rangelog/internal/engagement/models"
	id "rangelog/pkg/domain"
	"rangelog/pkg/platform/sentinel"
)

// Memory keeps records and measurements in maps guarded by a RWMutex.
// Copies go in and out so callers never alias store-owned state.
type Memory struct {
	mu           sync.RWMutex
	records      map[id.RecordID]*models.Record
	measurements map[id.MeasurementID]*models.Measurement
}

func NewMemory() *Memory {
	return &Memory{
		records:      make(map[id.RecordID]*models.Record),
		measurements: make(map[id.MeasurementID]*models.Measurement),
	}
}

func (s *Memory) CreateRecord(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; exists {
		return sentinel.ErrConflict
	}
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *Memory) UpdateRecord(_ context.Context, record *models.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.records[record.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.records[record.ID] = cloneRecord(record)
	return nil
}

func (s *Memory) FindRecord(_ context.Context, recordID id.RecordID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, exists := s.records[recordID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return cloneRecord(record), nil
}

func (s *Memory) ListRecordsByOwner(_ context.Context, owner id.OwnerID) ([]*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Record
	for _, record := range s.records {
		if record.OwnerID == owner {
			out = append(out, cloneRecord(record))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].StartTime.After(out[j].StartTime)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Memory) DeleteRecord(_ context.Context, recordID id.RecordID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, recordID)
	for mID, m := range s.measurements {
		if m.RecordID == recordID {
			delete(s.measurements, mID)
		}
	}
	return nil
}

func (s *Memory) CreateMeasurements(_ context.Context, measurements []models.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range measurements {
		if _, exists := s.measurements[measurements[i].ID]; exists {
			return sentinel.ErrConflict
		}
	}
	for i := range measurements {
		s.measurements[measurements[i].ID] = cloneMeasurement(&measurements[i])
	}
	return nil
}

func (s *Memory) UpdateMeasurement(_ context.Context, measurement *models.Measurement) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.measurements[measurement.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.measurements[measurement.ID] = cloneMeasurement(measurement)
	return nil
}

func (s *Memory) FindMeasurement(_ context.Context, measurementID id.MeasurementID) (*models.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	m, exists := s.measurements[measurementID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return cloneMeasurement(m), nil
}

func (s *Memory) ListMeasurements(_ context.Context, recordID id.RecordID) ([]models.Measurement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []models.Measurement
	for _, m := range s.measurements {
		if m.RecordID == recordID {
			out = append(out, *cloneMeasurement(m))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Shot < out[j].Shot })
	return out, nil
}

func cloneRecord(r *models.Record) *models.Record {
	cp := *r
	if r.EnvironmentSourceID != nil {
		src := *r.EnvironmentSourceID
		cp.EnvironmentSourceID = &src
	}
	cp.Snapshot.Environment = cloneEnvironmentSummary(r.Snapshot.Environment)
	return &cp
}

func cloneEnvironmentSummary(e models.EnvironmentSummary) models.EnvironmentSummary {
	return models.EnvironmentSummary{
		TemperatureC:     cloneFloat(e.TemperatureC),
		HumidityPct:      cloneFloat(e.HumidityPct),
		PressureHPa:      cloneFloat(e.PressureHPa),
		WindSpeedMPS:     cloneFloat(e.WindSpeedMPS),
		WindDirectionDeg: cloneFloat(e.WindDirectionDeg),
	}
}

func cloneMeasurement(m *models.Measurement) *models.Measurement {
	cp := *m
	cp.TargetDistanceM = cloneFloat(m.TargetDistanceM)
	cp.SightElevationMRAD = cloneFloat(m.SightElevationMRAD)
	cp.SightWindageMRAD = cloneFloat(m.SightWindageMRAD)
	if m.Environment != nil {
		env := models.EnvironmentSnapshot{
			ObservedAt:       m.Environment.ObservedAt,
			TemperatureC:     cloneFloat(m.Environment.TemperatureC),
			HumidityPct:      cloneFloat(m.Environment.HumidityPct),
			PressureHPa:      cloneFloat(m.Environment.PressureHPa),
			WindSpeedMPS:     cloneFloat(m.Environment.WindSpeedMPS),
			WindDirectionDeg: cloneFloat(m.Environment.WindDirectionDeg),
		}
		cp.Environment = &env
	}
	return &cp
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}
