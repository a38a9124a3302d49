package velocity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "rangelog/pkg/domain"
	"rangelog/pkg/platform/sentinel"
)

// PostgresStore persists sessions in velocity_sessions and their readings in
// velocity_readings. Cached stats live on the session row.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, session *Session) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO velocity_sessions (
			id, owner_id, label, bullet_mass_grams,
			stat_count, stat_mean, stat_stddev, stat_min, stat_max,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`,
		string(session.ID), string(session.OwnerID), session.Label, session.BulletMassGrams,
		session.Stats.Count, session.Stats.Mean, session.Stats.StdDev, session.Stats.Min, session.Stats.Max,
		session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert velocity session: %w", err)
	}
	return s.replaceReadings(ctx, session)
}

func (s *PostgresStore) Update(ctx context.Context, session *Session) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE velocity_sessions
		SET label = $2, bullet_mass_grams = $3,
		    stat_count = $4, stat_mean = $5, stat_stddev = $6, stat_min = $7, stat_max = $8,
		    updated_at = $9
		WHERE id = $1
	`,
		string(session.ID), session.Label, session.BulletMassGrams,
		session.Stats.Count, session.Stats.Mean, session.Stats.StdDev, session.Stats.Min, session.Stats.Max,
		session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update velocity session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update velocity session: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return s.replaceReadings(ctx, session)
}

func (s *PostgresStore) replaceReadings(ctx context.Context, session *Session) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM velocity_readings WHERE session_id = $1`, string(session.ID)); err != nil {
		return fmt.Errorf("clear velocity readings: %w", err)
	}
	for _, r := range session.Readings {
		_, err := s.db.ExecContext(ctx, `
			INSERT INTO velocity_readings (
				id, session_id, shot, timestamp, speed_mps,
				energy_joules, power_factor, clean_bore, cold_bore, note
			)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
			string(r.ID), string(r.SessionID), r.Shot, r.Timestamp, r.Speed,
			r.Energy, r.PowerFactor, r.CleanBore, r.ColdBore, r.Note,
		)
		if err != nil {
			return fmt.Errorf("insert velocity reading: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, sessionID id.SessionID) (*Session, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, owner_id, label, bullet_mass_grams,
		       stat_count, stat_mean, stat_stddev, stat_min, stat_max,
		       created_at, updated_at
		FROM velocity_sessions
		WHERE id = $1
	`, string(sessionID))

	session, err := scanSession(row)
	if err != nil {
		return nil, err
	}
	if err := s.loadReadings(ctx, session); err != nil {
		return nil, err
	}
	return session, nil
}

func (s *PostgresStore) ListByOwner(ctx context.Context, owner id.OwnerID) ([]*Session, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, owner_id, label, bullet_mass_grams,
		       stat_count, stat_mean, stat_stddev, stat_min, stat_max,
		       created_at, updated_at
		FROM velocity_sessions
		WHERE owner_id = $1
		ORDER BY created_at DESC
	`, string(owner))
	if err != nil {
		return nil, fmt.Errorf("query velocity sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate velocity sessions: %w", err)
	}
	for _, session := range sessions {
		if err := s.loadReadings(ctx, session); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

func (s *PostgresStore) loadReadings(ctx context.Context, session *Session) error {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_id, shot, timestamp, speed_mps,
		       energy_joules, power_factor, clean_bore, cold_bore, note
		FROM velocity_readings
		WHERE session_id = $1
		ORDER BY shot ASC
	`, string(session.ID))
	if err != nil {
		return fmt.Errorf("query velocity readings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r          Reading
			rID, rSess string
		)
		if err := rows.Scan(&rID, &rSess, &r.Shot, &r.Timestamp, &r.Speed,
			&r.Energy, &r.PowerFactor, &r.CleanBore, &r.ColdBore, &r.Note); err != nil {
			return fmt.Errorf("scan velocity reading: %w", err)
		}
		r.ID = id.ReadingID(rID)
		r.SessionID = id.SessionID(rSess)
		session.Readings = append(session.Readings, r)
	}
	return rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var session Session
	var sessID, ownID string
	err := row.Scan(&sessID, &ownID, &session.Label, &session.BulletMassGrams,
		&session.Stats.Count, &session.Stats.Mean, &session.Stats.StdDev,
		&session.Stats.Min, &session.Stats.Max,
		&session.CreatedAt, &session.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan velocity session: %w", err)
	}
	session.ID = id.SessionID(sessID)
	session.OwnerID = id.OwnerID(ownID)
	return &session, nil
}
