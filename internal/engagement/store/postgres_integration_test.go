//go:build integration

package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"rangelog/internal/engagement/models"
	"rangelog/internal/engagement/store"
	id "rangelog/pkg/domain"
	"rangelog/pkg/platform/sentinel"
	"rangelog/pkg/testutil/containers"
)

type PostgresStoreSuite struct {
	suite.Suite
	postgres *containers.PostgresContainer
	store    *store.Postgres
}

func TestPostgresStoreSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	suite.Run(t, new(PostgresStoreSuite))
}

func (s *PostgresStoreSuite) SetupSuite() {
	s.postgres = containers.NewPostgresContainer(s.T(), "../../../migrations")
	s.store = store.NewPostgres(s.postgres.DB)
}

func (s *PostgresStoreSuite) SetupTest() {
	s.Require().NoError(s.postgres.TruncateAll(context.Background()))
}

func newStoredRecord(owner id.OwnerID, start time.Time) *models.Record {
	temp := 18.5
	sourceID := id.NewSourceID()
	return &models.Record{
		ID:                  id.NewRecordID(),
		OwnerID:             owner,
		Label:               "qualification string",
		SessionID:           id.NewSessionID(),
		LoadID:              id.NewLoadID(),
		FirearmID:           id.NewFirearmID(),
		LocationID:          id.NewLocationID(),
		EnvironmentSourceID: &sourceID,
		StartTime:           start,
		EndTime:             start.Add(2 * time.Minute),
		Snapshot: models.Snapshot{
			LoadName:        "match load",
			Cartridge:       "308 Win",
			BulletName:      "175gr SMK",
			BulletMassGrams: 11.34,
			FirearmName:     "work rifle",
			FirearmCaliber:  "308 Win",
			LocationName:    "hillside 600m",
			DistanceM:       600,
			Velocity: models.VelocityStats{
				Count: 3, Mean: 792, StdDev: 1.633, Min: 790, Max: 794,
				ExtremeSpread: 4, CoefficientOfVariation: 0.206,
			},
			Environment: models.EnvironmentSummary{TemperatureC: &temp},
		},
		Notes:     "light crosswind",
		CreatedAt: start,
		UpdatedAt: start,
	}
}

func (s *PostgresStoreSuite) TestRecordRoundTrip() {
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	record := newStoredRecord("owner-a", start)

	s.Require().NoError(s.store.CreateRecord(ctx, record))

	got, err := s.store.FindRecord(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal(record.Label, got.Label)
	s.Equal(record.Snapshot, got.Snapshot)
	s.Require().NotNil(got.EnvironmentSourceID)
	s.Equal(*record.EnvironmentSourceID, *got.EnvironmentSourceID)
	s.True(got.StartTime.Equal(start))
}

func (s *PostgresStoreSuite) TestNullableEnvironmentColumns() {
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	record := newStoredRecord("owner-a", start)
	record.EnvironmentSourceID = nil
	record.Snapshot.Environment = models.EnvironmentSummary{}

	s.Require().NoError(s.store.CreateRecord(ctx, record))

	got, err := s.store.FindRecord(ctx, record.ID)
	s.Require().NoError(err)
	s.Nil(got.EnvironmentSourceID)
	s.True(got.Snapshot.Environment.Unset())
}

func (s *PostgresStoreSuite) TestListOrder() {
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	older := newStoredRecord("owner-a", start)
	newer := newStoredRecord("owner-a", start.Add(time.Hour))
	theirs := newStoredRecord("owner-b", start)
	for _, r := range []*models.Record{older, newer, theirs} {
		s.Require().NoError(s.store.CreateRecord(ctx, r))
	}

	records, err := s.store.ListRecordsByOwner(ctx, "owner-a")
	s.Require().NoError(err)
	s.Require().Len(records, 2)
	s.Equal(newer.ID, records[0].ID)
	s.Equal(older.ID, records[1].ID)
}

func (s *PostgresStoreSuite) TestMeasurementsCascade() {
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	record := newStoredRecord("owner-a", start)
	s.Require().NoError(s.store.CreateRecord(ctx, record))

	temp := 18.5
	measurements := []models.Measurement{
		{ID: id.NewMeasurementID(), RecordID: record.ID, Shot: 1, Timestamp: start, Speed: 790,
			Environment: &models.EnvironmentSnapshot{ObservedAt: start, TemperatureC: &temp}},
		{ID: id.NewMeasurementID(), RecordID: record.ID, Shot: 2, Timestamp: start.Add(time.Minute), Speed: 792},
	}
	s.Require().NoError(s.store.CreateMeasurements(ctx, measurements))

	got, err := s.store.ListMeasurements(ctx, record.ID)
	s.Require().NoError(err)
	s.Require().Len(got, 2)
	s.Require().NotNil(got[0].Environment)
	s.Equal(18.5, *got[0].Environment.TemperatureC)
	s.Nil(got[1].Environment)

	s.Require().NoError(s.store.DeleteRecord(ctx, record.ID))
	_, err = s.store.FindMeasurement(ctx, measurements[0].ID)
	s.ErrorIs(err, sentinel.ErrNotFound)
}

func (s *PostgresStoreSuite) TestUpdateRoundTrip() {
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	record := newStoredRecord("owner-a", start)
	s.Require().NoError(s.store.CreateRecord(ctx, record))

	record.Label = "revised string"
	record.Notes = "wind picked up"
	record.Snapshot.LoadName = "backup load"
	record.EnvironmentSourceID = nil
	record.Snapshot.Environment = models.EnvironmentSummary{}
	record.UpdatedAt = start.Add(time.Hour)
	s.Require().NoError(s.store.UpdateRecord(ctx, record))

	got, err := s.store.FindRecord(ctx, record.ID)
	s.Require().NoError(err)
	s.Equal("revised string", got.Label)
	s.Equal("wind picked up", got.Notes)
	s.Equal("backup load", got.Snapshot.LoadName)
	s.Nil(got.EnvironmentSourceID)
	s.True(got.UpdatedAt.Equal(record.UpdatedAt))

	m := &models.Measurement{ID: id.NewMeasurementID(), RecordID: record.ID, Shot: 1, Timestamp: start, Speed: 790}
	s.Require().NoError(s.store.CreateMeasurements(ctx, []models.Measurement{*m}))

	temp := 21.0
	distance := 587.0
	m.TargetDistanceM = &distance
	m.Note = "called flyer"
	m.Environment = &models.EnvironmentSnapshot{ObservedAt: start.Add(time.Minute), TemperatureC: &temp}
	s.Require().NoError(s.store.UpdateMeasurement(ctx, m))

	gotM, err := s.store.FindMeasurement(ctx, m.ID)
	s.Require().NoError(err)
	s.Require().NotNil(gotM.TargetDistanceM)
	s.Equal(587.0, *gotM.TargetDistanceM)
	s.Equal("called flyer", gotM.Note)
	s.Require().NotNil(gotM.Environment)
	s.Equal(21.0, *gotM.Environment.TemperatureC)
}

func (s *PostgresStoreSuite) TestMeasurementBatchIsAtomic() {
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	record := newStoredRecord("owner-a", start)
	s.Require().NoError(s.store.CreateRecord(ctx, record))

	// The duplicated identity violates the primary key on the second row;
	// the first row must roll back with it.
	dup := id.NewMeasurementID()
	measurements := []models.Measurement{
		{ID: dup, RecordID: record.ID, Shot: 1, Timestamp: start, Speed: 790},
		{ID: dup, RecordID: record.ID, Shot: 2, Timestamp: start.Add(time.Minute), Speed: 792},
	}
	s.Require().Error(s.store.CreateMeasurements(ctx, measurements))

	got, err := s.store.ListMeasurements(ctx, record.ID)
	s.Require().NoError(err)
	s.Empty(got)
}

func (s *PostgresStoreSuite) TestUpdateMissing() {
	ctx := context.Background()
	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	s.ErrorIs(s.store.UpdateRecord(ctx, newStoredRecord("owner-a", start)), sentinel.ErrNotFound)

	m := &models.Measurement{ID: id.NewMeasurementID(), RecordID: id.NewRecordID(), Shot: 1, Timestamp: start, Speed: 790}
	s.ErrorIs(s.store.UpdateMeasurement(ctx, m), sentinel.ErrNotFound)
}
