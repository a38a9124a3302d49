// Package store persists engagement records and their measurements. It is a
// pure persistence layer: no cross-component reads happen here.
package store

import (
	"context"

	"rangelog/internal/engagement/models"
	id "rangelog/pkg/domain"
)

// Store is the engine's persistence contract. Implementations return
// sentinel.ErrNotFound / sentinel.ErrConflict; the service layer translates
// to domain errors.
type Store interface {
	CreateRecord(ctx context.Context, record *models.Record) error
	UpdateRecord(ctx context.Context, record *models.Record) error
	FindRecord(ctx context.Context, recordID id.RecordID) (*models.Record, error)
	ListRecordsByOwner(ctx context.Context, owner id.OwnerID) ([]*models.Record, error)
	// DeleteRecord removes the record and all of its measurements. Deleting
	// an absent record is not an error.
	DeleteRecord(ctx context.Context, recordID id.RecordID) error

	CreateMeasurements(ctx context.Context, measurements []models.Measurement) error
	UpdateMeasurement(ctx context.Context, measurement *models.Measurement) error
	FindMeasurement(ctx context.Context, measurementID id.MeasurementID) (*models.Measurement, error)
	// ListMeasurements returns a record's measurements ordered by shot number.
	ListMeasurements(ctx context.Context, recordID id.RecordID) ([]models.Measurement, error)
}
