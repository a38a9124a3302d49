package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"rangelog/internal/engagement/models"
	id "rangelog/pkg/domain"
	"rangelog/pkg/platform/sentinel"
)

// Postgres persists records in engagement_records with the snapshot
// denormalized into columns, and measurements in engagement_measurements.
type Postgres struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const recordColumns = `
	id, owner_id, label,
	session_id, load_id, firearm_id, location_id, environment_source_id,
	start_time, end_time, notes,
	load_name, cartridge, bullet_name, bullet_mass_grams,
	firearm_name, firearm_caliber, location_name, distance_m,
	vel_count, vel_mean, vel_stddev, vel_min, vel_max, vel_extreme_spread, vel_cv,
	env_temperature_c, env_humidity_pct, env_pressure_hpa, env_wind_speed_mps, env_wind_direction_deg,
	created_at, updated_at`

func (s *Postgres) CreateRecord(ctx context.Context, r *models.Record) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO engagement_records (`+recordColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15,
		        $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27, $28,
		        $29, $30, $31, $32, $33)
	`, recordArgs(r)...)
	if err != nil {
		return fmt.Errorf("insert engagement record: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateRecord(ctx context.Context, r *models.Record) error {
	var envSource sql.NullString
	if r.EnvironmentSourceID != nil {
		envSource = sql.NullString{String: string(*r.EnvironmentSourceID), Valid: true}
	}
	snap := r.Snapshot
	res, err := s.db.ExecContext(ctx, `
		UPDATE engagement_records
		SET label = $2,
		    session_id = $3, load_id = $4, firearm_id = $5, location_id = $6,
		    environment_source_id = $7,
		    start_time = $8, end_time = $9, notes = $10,
		    load_name = $11, cartridge = $12, bullet_name = $13, bullet_mass_grams = $14,
		    firearm_name = $15, firearm_caliber = $16, location_name = $17, distance_m = $18,
		    vel_count = $19, vel_mean = $20, vel_stddev = $21, vel_min = $22, vel_max = $23,
		    vel_extreme_spread = $24, vel_cv = $25,
		    env_temperature_c = $26, env_humidity_pct = $27, env_pressure_hpa = $28,
		    env_wind_speed_mps = $29, env_wind_direction_deg = $30,
		    updated_at = $31
		WHERE id = $1
	`,
		string(r.ID), r.Label,
		string(r.SessionID), string(r.LoadID), string(r.FirearmID), string(r.LocationID),
		envSource,
		r.StartTime, r.EndTime, r.Notes,
		snap.LoadName, snap.Cartridge, snap.BulletName, snap.BulletMassGrams,
		snap.FirearmName, snap.FirearmCaliber, snap.LocationName, snap.DistanceM,
		snap.Velocity.Count, snap.Velocity.Mean, snap.Velocity.StdDev,
		snap.Velocity.Min, snap.Velocity.Max, snap.Velocity.ExtremeSpread, snap.Velocity.CoefficientOfVariation,
		snap.Environment.TemperatureC, snap.Environment.HumidityPct, snap.Environment.PressureHPa,
		snap.Environment.WindSpeedMPS, snap.Environment.WindDirectionDeg,
		r.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update engagement record: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update engagement record: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func recordArgs(r *models.Record) []any {
	var envSource sql.NullString
	if r.EnvironmentSourceID != nil {
		envSource = sql.NullString{String: string(*r.EnvironmentSourceID), Valid: true}
	}
	snap := r.Snapshot
	return []any{
		string(r.ID), string(r.OwnerID), r.Label,
		string(r.SessionID), string(r.LoadID), string(r.FirearmID), string(r.LocationID), envSource,
		r.StartTime, r.EndTime, r.Notes,
		snap.LoadName, snap.Cartridge, snap.BulletName, snap.BulletMassGrams,
		snap.FirearmName, snap.FirearmCaliber, snap.LocationName, snap.DistanceM,
		snap.Velocity.Count, snap.Velocity.Mean, snap.Velocity.StdDev,
		snap.Velocity.Min, snap.Velocity.Max, snap.Velocity.ExtremeSpread, snap.Velocity.CoefficientOfVariation,
		snap.Environment.TemperatureC, snap.Environment.HumidityPct, snap.Environment.PressureHPa,
		snap.Environment.WindSpeedMPS, snap.Environment.WindDirectionDeg,
		r.CreatedAt, r.UpdatedAt,
	}
}

func (s *Postgres) FindRecord(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+recordColumns+` FROM engagement_records WHERE id = $1`, string(recordID))
	return scanRecord(row)
}

func (s *Postgres) ListRecordsByOwner(ctx context.Context, owner id.OwnerID) ([]*models.Record, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+recordColumns+`
		FROM engagement_records
		WHERE owner_id = $1
		ORDER BY start_time DESC, id ASC
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("query engagement records: %w", err)
	}
	defer rows.Close()

	var records []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate engagement records: %w", err)
	}
	return records, nil
}

func (s *Postgres) DeleteRecord(ctx context.Context, recordID id.RecordID) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM engagement_measurements WHERE record_id = $1`, string(recordID)); err != nil {
		return fmt.Errorf("delete engagement measurements: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM engagement_records WHERE id = $1`, string(recordID)); err != nil {
		return fmt.Errorf("delete engagement record: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var r models.Record
	var recID, ownID, sessID, loadID, firearmID, locID string
	var envSource sql.NullString
	err := row.Scan(
		&recID, &ownID, &r.Label,
		&sessID, &loadID, &firearmID, &locID, &envSource,
		&r.StartTime, &r.EndTime, &r.Notes,
		&r.Snapshot.LoadName, &r.Snapshot.Cartridge, &r.Snapshot.BulletName, &r.Snapshot.BulletMassGrams,
		&r.Snapshot.FirearmName, &r.Snapshot.FirearmCaliber, &r.Snapshot.LocationName, &r.Snapshot.DistanceM,
		&r.Snapshot.Velocity.Count, &r.Snapshot.Velocity.Mean, &r.Snapshot.Velocity.StdDev,
		&r.Snapshot.Velocity.Min, &r.Snapshot.Velocity.Max,
		&r.Snapshot.Velocity.ExtremeSpread, &r.Snapshot.Velocity.CoefficientOfVariation,
		&r.Snapshot.Environment.TemperatureC, &r.Snapshot.Environment.HumidityPct,
		&r.Snapshot.Environment.PressureHPa, &r.Snapshot.Environment.WindSpeedMPS,
		&r.Snapshot.Environment.WindDirectionDeg,
		&r.CreatedAt, &r.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan engagement record: %w", err)
	}
	r.ID = id.RecordID(recID)
	r.OwnerID = id.OwnerID(ownID)
	r.SessionID = id.SessionID(sessID)
	r.LoadID = id.LoadID(loadID)
	r.FirearmID = id.FirearmID(firearmID)
	r.LocationID = id.LocationID(locID)
	if envSource.Valid {
		src := id.SourceID(envSource.String)
		r.EnvironmentSourceID = &src
	}
	return &r, nil
}

const measurementColumns = `
	id, record_id, shot, timestamp, speed_mps,
	target_distance_m, sight_elevation_mrad, sight_windage_mrad,
	env_observed_at, env_temperature_c, env_humidity_pct, env_pressure_hpa,
	env_wind_speed_mps, env_wind_direction_deg, note`

// CreateMeasurements inserts the batch in one transaction so a composed
// record never ends up with a partial measurement set.
func (s *Postgres) CreateMeasurements(ctx context.Context, measurements []models.Measurement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin measurement insert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for i := range measurements {
		m := &measurements[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO engagement_measurements (`+measurementColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		`, measurementArgs(m)...)
		if err != nil {
			return fmt.Errorf("insert engagement measurement: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit measurement insert: %w", err)
	}
	return nil
}

func (s *Postgres) UpdateMeasurement(ctx context.Context, m *models.Measurement) error {
	var (
		observedAt                      sql.NullTime
		temp, hum, press, wind, windDir *float64
	)
	if m.Environment != nil {
		observedAt = sql.NullTime{Time: m.Environment.ObservedAt, Valid: true}
		temp = m.Environment.TemperatureC
		hum = m.Environment.HumidityPct
		press = m.Environment.PressureHPa
		wind = m.Environment.WindSpeedMPS
		windDir = m.Environment.WindDirectionDeg
	}
	res, err := s.db.ExecContext(ctx, `
		UPDATE engagement_measurements
		SET target_distance_m = $2, sight_elevation_mrad = $3, sight_windage_mrad = $4,
		    env_observed_at = $5, env_temperature_c = $6, env_humidity_pct = $7,
		    env_pressure_hpa = $8, env_wind_speed_mps = $9, env_wind_direction_deg = $10,
		    note = $11
		WHERE id = $1
	`,
		string(m.ID),
		m.TargetDistanceM, m.SightElevationMRAD, m.SightWindageMRAD,
		observedAt, temp, hum, press, wind, windDir, m.Note,
	)
	if err != nil {
		return fmt.Errorf("update engagement measurement: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update engagement measurement: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func measurementArgs(m *models.Measurement) []any {
	var (
		observedAt                      sql.NullTime
		temp, hum, press, wind, windDir *float64
	)
	if m.Environment != nil {
		observedAt = sql.NullTime{Time: m.Environment.ObservedAt, Valid: true}
		temp = m.Environment.TemperatureC
		hum = m.Environment.HumidityPct
		press = m.Environment.PressureHPa
		wind = m.Environment.WindSpeedMPS
		windDir = m.Environment.WindDirectionDeg
	}
	return []any{
		string(m.ID), string(m.RecordID), m.Shot, m.Timestamp, m.Speed,
		m.TargetDistanceM, m.SightElevationMRAD, m.SightWindageMRAD,
		observedAt, temp, hum, press, wind, windDir, m.Note,
	}
}

func (s *Postgres) FindMeasurement(ctx context.Context, measurementID id.MeasurementID) (*models.Measurement, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+measurementColumns+` FROM engagement_measurements WHERE id = $1`,
		string(measurementID))
	return scanMeasurement(row)
}

func (s *Postgres) ListMeasurements(ctx context.Context, recordID id.RecordID) ([]models.Measurement, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+measurementColumns+`
		FROM engagement_measurements
		WHERE record_id = $1
		ORDER BY shot ASC
	`, string(recordID))
	if err != nil {
		return nil, fmt.Errorf("query engagement measurements: %w", err)
	}
	defer rows.Close()

	var out []models.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate engagement measurements: %w", err)
	}
	return out, nil
}

func scanMeasurement(row rowScanner) (*models.Measurement, error) {
	var (
		m          models.Measurement
		mID, recID string
		observedAt sql.NullTime
		env        models.EnvironmentSnapshot
	)
	err := row.Scan(
		&mID, &recID, &m.Shot, &m.Timestamp, &m.Speed,
		&m.TargetDistanceM, &m.SightElevationMRAD, &m.SightWindageMRAD,
		&observedAt, &env.TemperatureC, &env.HumidityPct, &env.PressureHPa,
		&env.WindSpeedMPS, &env.WindDirectionDeg, &m.Note,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan engagement measurement: %w", err)
	}
	m.ID = id.MeasurementID(mID)
	m.RecordID = id.RecordID(recID)
	if observedAt.Valid {
		env.ObservedAt = observedAt.Time.UTC()
		m.Environment = &env
	}
	return &m, nil
}
