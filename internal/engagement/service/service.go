// Package service orchestrates the engagement engine: composing denormalized
// records from the four source components, associating measurements with
// environment observations, and answering queries over the cached snapshots.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"rangelog/internal/audit"
	"rangelog/internal/engagement/metrics"
	"rangelog/internal/engagement/models"
	"rangelog/internal/engagement/ports"
	"rangelog/internal/engagement/store"
	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/platform/sentinel"
)

// DefaultAssociationTolerance bounds how far an observation may sit from a
// shot timestamp and still be considered a match.
const DefaultAssociationTolerance = 30 * time.Minute

const sourceTimeout = 5 * time.Second

// Service is the engagement engine. It reads the source components through
// ports only; the persistence layer stores what the engine composes.
type Service struct {
	store     store.Store
	sessions  ports.SessionSource
	equipment ports.EquipmentSource
	locations ports.LocationSource
	weather   ports.EnvironmentSource

	tolerance time.Duration
	logger    *slog.Logger
	metrics   *metrics.Metrics
	cache     SummaryCache
	audit     *audit.Publisher
}

// Option configures optional service collaborators.
type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithSummaryCache(cache SummaryCache) Option {
	return func(s *Service) { s.cache = cache }
}

func WithAudit(publisher *audit.Publisher) Option {
	return func(s *Service) { s.audit = publisher }
}

// WithAssociationTolerance overrides the default association window.
func WithAssociationTolerance(tolerance time.Duration) Option {
	return func(s *Service) {
		if tolerance > 0 {
			s.tolerance = tolerance
		}
	}
}

func NewService(
	st store.Store,
	sessions ports.SessionSource,
	equipment ports.EquipmentSource,
	locations ports.LocationSource,
	weather ports.EnvironmentSource,
	opts ...Option,
) *Service {
	s := &Service{
		store:     st,
		sessions:  sessions,
		equipment: equipment,
		locations: locations,
		weather:   weather,
		tolerance: DefaultAssociationTolerance,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns an owner's record, or nil when it does not exist.
func (s *Service) Get(ctx context.Context, owner id.OwnerID, recordID id.RecordID) (*models.Record, error) {
	record, err := s.ownedRecord(ctx, owner, recordID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return record, nil
}

// List returns all of an owner's records, newest start time first.
func (s *Service) List(ctx context.Context, owner id.OwnerID) ([]*models.Record, error) {
	records, err := s.store.ListRecordsByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list records")
	}
	return records, nil
}

// Delete removes a record and its measurements. Deleting an absent record
// succeeds; only an ownership mismatch fails.
func (s *Service) Delete(ctx context.Context, owner id.OwnerID, recordID id.RecordID) error {
	record, err := s.ownedRecord(ctx, owner, recordID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil
		}
		return err
	}
	if err := s.store.DeleteRecord(ctx, record.ID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete record")
	}
	s.metrics.IncrementRecordOp("delete", "ok")
	s.audit.Emit(audit.Event{
		OwnerID:  owner,
		Entity:   "engagement_record",
		EntityID: string(record.ID),
		Action:   "delete",
	})
	s.invalidateSummary(ctx, owner)
	return nil
}

// DeleteAll removes a batch of records, reporting partial results instead of
// aborting on first failure.
func (s *Service) DeleteAll(ctx context.Context, owner id.OwnerID, recordIDs []id.RecordID) (*models.BatchResult, error) {
	result := &models.BatchResult{}
	for _, recordID := range recordIDs {
		if err := s.Delete(ctx, owner, recordID); err != nil {
			result.Failed = append(result.Failed, models.BatchError{
				ID:     string(recordID),
				Reason: err.Error(),
			})
			continue
		}
		result.Succeeded++
	}
	return result, nil
}

// Measurements returns a record's measurements ordered by shot number.
func (s *Service) Measurements(ctx context.Context, owner id.OwnerID, recordID id.RecordID) ([]models.Measurement, error) {
	record, err := s.ownedRecord(ctx, owner, recordID)
	if err != nil {
		return nil, err
	}
	measurements, err := s.store.ListMeasurements(ctx, record.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list measurements")
	}
	return measurements, nil
}

// MeasurementUpdate carries the mutable per-shot fields. Nil leaves a field
// untouched.
type MeasurementUpdate struct {
	TargetDistanceM    *float64
	SightElevationMRAD *float64
	SightWindageMRAD   *float64
	Note               *string
}

// UpdateMeasurement mutates a measurement's engagement-specific fields. The
// captured shot data and any environment binding stay untouched.
func (s *Service) UpdateMeasurement(ctx context.Context, owner id.OwnerID, recordID id.RecordID, measurementID id.MeasurementID, update MeasurementUpdate) (*models.Measurement, error) {
	record, err := s.ownedRecord(ctx, owner, recordID)
	if err != nil {
		return nil, err
	}

	m, err := s.store.FindMeasurement(ctx, measurementID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "measurement not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load measurement")
	}
	if m.RecordID != record.ID {
		return nil, dErrors.New(dErrors.CodeNotFound, "measurement not found")
	}

	if update.TargetDistanceM != nil && *update.TargetDistanceM <= 0 {
		return nil, dErrors.New(dErrors.CodeValidation, "target distance must be positive")
	}

	if update.TargetDistanceM != nil {
		m.TargetDistanceM = update.TargetDistanceM
	}
	if update.SightElevationMRAD != nil {
		m.SightElevationMRAD = update.SightElevationMRAD
	}
	if update.SightWindageMRAD != nil {
		m.SightWindageMRAD = update.SightWindageMRAD
	}
	if update.Note != nil {
		m.Note = *update.Note
	}

	if err := s.store.UpdateMeasurement(ctx, m); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to update measurement")
	}
	return m, nil
}

// ownedRecord loads a record and enforces ownership.
func (s *Service) ownedRecord(ctx context.Context, owner id.OwnerID, recordID id.RecordID) (*models.Record, error) {
	record, err := s.store.FindRecord(ctx, recordID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "record not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load record")
	}
	if record.OwnerID != owner {
		return nil, dErrors.New(dErrors.CodeAccessDenied, "record belongs to another owner")
	}
	return record, nil
}

func (s *Service) invalidateSummary(ctx context.Context, owner id.OwnerID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, owner); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to invalidate summary cache",
			"owner_id", owner,
			"error", err,
		)
	}
}
