package environment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	id "rangelog/pkg/domain"
	"rangelog/pkg/platform/sentinel"
)

// PostgresStore persists sources in environment_sources and observations in
// environment_observations. Observations are insert-only.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateSource(ctx context.Context, source *Source) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO environment_sources (id, owner_id, name, created_at)
		VALUES ($1, $2, $3, $4)
	`, string(source.ID), string(source.OwnerID), source.Name, source.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert environment source: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSource(ctx context.Context, sourceID id.SourceID) (*Source, error) {
	var source Source
	var srcID, ownID string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, name, created_at
		FROM environment_sources
		WHERE id = $1
	`, string(sourceID)).Scan(&srcID, &ownID, &source.Name, &source.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan environment source: %w", err)
	}
	source.ID = id.SourceID(srcID)
	source.OwnerID = id.OwnerID(ownID)
	return &source, nil
}

func (s *PostgresStore) ListSourcesByOwner(ctx context.Context, owner id.OwnerID) ([]*Source, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, name, created_at
		FROM environment_sources
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("query environment sources: %w", err)
	}
	defer rows.Close()

	var sources []*Source
	for rows.Next() {
		var source Source
		var srcID, ownID string
		if err := rows.Scan(&srcID, &ownID, &source.Name, &source.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan environment source: %w", err)
		}
		source.ID = id.SourceID(srcID)
		source.OwnerID = id.OwnerID(ownID)
		sources = append(sources, &source)
	}
	return sources, rows.Err()
}

func (s *PostgresStore) Append(ctx context.Context, obs Observation) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO environment_observations (
			source_id, timestamp, temperature_c, humidity_pct,
			pressure_hpa, wind_speed_mps, wind_direction_deg
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`,
		string(obs.SourceID), obs.Timestamp, obs.TemperatureC, obs.HumidityPct,
		obs.PressureHPa, obs.WindSpeedMPS, obs.WindDirectionDeg,
	)
	if err != nil {
		return fmt.Errorf("insert environment observation: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListBetween(ctx context.Context, sourceID id.SourceID, from, to time.Time) ([]Observation, error) {
	return s.queryObservations(ctx, `
		SELECT source_id, timestamp, temperature_c, humidity_pct,
		       pressure_hpa, wind_speed_mps, wind_direction_deg
		FROM environment_observations
		WHERE source_id = $1 AND timestamp >= $2 AND timestamp <= $3
		ORDER BY timestamp ASC
	`, string(sourceID), from, to)
}

func (s *PostgresStore) ListAll(ctx context.Context, sourceID id.SourceID) ([]Observation, error) {
	return s.queryObservations(ctx, `
		SELECT source_id, timestamp, temperature_c, humidity_pct,
		       pressure_hpa, wind_speed_mps, wind_direction_deg
		FROM environment_observations
		WHERE source_id = $1
		ORDER BY timestamp ASC
	`, string(sourceID))
}

func (s *PostgresStore) queryObservations(ctx context.Context, query string, args ...any) ([]Observation, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query environment observations: %w", err)
	}
	defer rows.Close()

	var observations []Observation
	for rows.Next() {
		var obs Observation
		var srcID string
		if err := rows.Scan(&srcID, &obs.Timestamp, &obs.TemperatureC, &obs.HumidityPct,
			&obs.PressureHPa, &obs.WindSpeedMPS, &obs.WindDirectionDeg); err != nil {
			return nil, fmt.Errorf("scan environment observation: %w", err)
		}
		obs.SourceID = id.SourceID(srcID)
		observations = append(observations, obs)
	}
	return observations, rows.Err()
}
