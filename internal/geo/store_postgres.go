package geo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "rangelog/pkg/domain"
	"rangelog/pkg/platform/sentinel"
)

// PostgresStore persists locations in geo_locations.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, loc *Location) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO geo_locations (
			id, owner_id, name,
			firing_lat, firing_lon, firing_elevation_m,
			target_lat, target_lon, target_elevation_m,
			distance_m, bearing_deg, elevation_angle_deg, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`,
		string(loc.ID), string(loc.OwnerID), loc.Name,
		loc.FiringPoint.Latitude, loc.FiringPoint.Longitude, loc.FiringPoint.ElevationM,
		loc.Target.Latitude, loc.Target.Longitude, loc.Target.ElevationM,
		loc.DistanceM, loc.BearingDeg, loc.ElevationAngleDeg, loc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert location: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, locationID id.LocationID) (*Location, error) {
	var loc Location
	var locID, ownID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name,
		       firing_lat, firing_lon, firing_elevation_m,
		       target_lat, target_lon, target_elevation_m,
		       distance_m, bearing_deg, elevation_angle_deg, created_at
		FROM geo_locations
		WHERE id = $1
	`, string(locationID)).Scan(
		&locID, &ownID, &loc.Name,
		&loc.FiringPoint.Latitude, &loc.FiringPoint.Longitude, &loc.FiringPoint.ElevationM,
		&loc.Target.Latitude, &loc.Target.Longitude, &loc.Target.ElevationM,
		&loc.DistanceM, &loc.BearingDeg, &loc.ElevationAngleDeg, &loc.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan location: %w", err)
	}
	loc.ID = id.LocationID(locID)
	loc.OwnerID = id.OwnerID(ownID)
	return &loc, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.OwnerID) ([]*Location, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name,
		       firing_lat, firing_lon, firing_elevation_m,
		       target_lat, target_lon, target_elevation_m,
		       distance_m, bearing_deg, elevation_angle_deg, created_at
		FROM geo_locations
		WHERE owner_id = $1
		ORDER BY name ASC
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("query locations: %w", err)
	}
	defer rows.Close()

	var out []*Location
	for rows.Next() {
		var loc Location
		var locID, ownID string
		if err := rows.Scan(
			&locID, &ownID, &loc.Name,
			&loc.FiringPoint.Latitude, &loc.FiringPoint.Longitude, &loc.FiringPoint.ElevationM,
			&loc.Target.Latitude, &loc.Target.Longitude, &loc.Target.ElevationM,
			&loc.DistanceM, &loc.BearingDeg, &loc.ElevationAngleDeg, &loc.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		loc.ID = id.LocationID(locID)
		loc.OwnerID = id.OwnerID(ownID)
		out = append(out, &loc)
	}
	return out, rows.Err()
}
