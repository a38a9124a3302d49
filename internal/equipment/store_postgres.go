package equipment

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	id "rangelog/pkg/domain"
	"rangelog/pkg/platform/sentinel"
)

// PostgresStore persists the catalog in equipment_projectiles,
// equipment_loads and equipment_firearms. Ownership is stored as a scope
// column plus a nullable owner column; the tagged variant is rebuilt on scan.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func ownershipColumns(o Ownership) (string, *string) {
	if o.Scope == ScopeOwned {
		owner := string(o.Owner)
		return string(ScopeOwned), &owner
	}
	return string(ScopeGlobal), nil
}

func scanOwnership(scope string, owner *string) Ownership {
	if scope == string(ScopeOwned) && owner != nil {
		return OwnedBy(id.OwnerID(*owner))
	}
	return Global()
}

func (s *PostgresStore) CreateProjectile(ctx context.Context, p *Projectile) error {
	scope, owner := ownershipColumns(p.Ownership)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO equipment_projectiles (
			id, scope, owner_id, name, mass_grams, diameter_mm,
			ballistic_coefficient, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, string(p.ID), scope, owner, p.Name, p.MassGrams, p.DiameterMM,
		p.BallisticCoefficient, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert projectile: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindProjectile(ctx context.Context, projectileID id.ProjectileID) (*Projectile, error) {
	var p Projectile
	var pID, scope string
	var owner *string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, scope, owner_id, name, mass_grams, diameter_mm,
		       ballistic_coefficient, created_at
		FROM equipment_projectiles
		WHERE id = $1
	`, string(projectileID)).Scan(&pID, &scope, &owner, &p.Name, &p.MassGrams,
		&p.DiameterMM, &p.BallisticCoefficient, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan projectile: %w", err)
	}
	p.ID = id.ProjectileID(pID)
	p.Ownership = scanOwnership(scope, owner)
	return &p, nil
}

func (s *PostgresStore) ListProjectiles(ctx context.Context, ownerID id.OwnerID) ([]*Projectile, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scope, owner_id, name, mass_grams, diameter_mm,
		       ballistic_coefficient, created_at
		FROM equipment_projectiles
		WHERE scope = 'global' OR owner_id = $1
		ORDER BY name ASC
	`, string(ownerID))
	if err != nil {
		return nil, fmt.Errorf("query projectiles: %w", err)
	}
	defer rows.Close()

	var out []*Projectile
	for rows.Next() {
		var p Projectile
		var pID, scope string
		var owner *string
		if err := rows.Scan(&pID, &scope, &owner, &p.Name, &p.MassGrams,
			&p.DiameterMM, &p.BallisticCoefficient, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan projectile: %w", err)
		}
		p.ID = id.ProjectileID(pID)
		p.Ownership = scanOwnership(scope, owner)
		out = append(out, &p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateLoad(ctx context.Context, l *Load) error {
	scope, owner := ownershipColumns(l.Ownership)
	var projectileID *string
	if l.ProjectileID != nil {
		v := string(*l.ProjectileID)
		projectileID = &v
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO equipment_loads (
			id, scope, owner_id, name, cartridge, projectile_id,
			bullet_name, bullet_mass_grams, charge_grams, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`, string(l.ID), scope, owner, l.Name, l.Cartridge, projectileID,
		l.BulletName, l.BulletMassGrams, l.ChargeGrams, l.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert load: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindLoad(ctx context.Context, loadID id.LoadID) (*Load, error) {
	var l Load
	var lID, scope string
	var owner, projectileID *string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, scope, owner_id, name, cartridge, projectile_id,
		       bullet_name, bullet_mass_grams, charge_grams, created_at
		FROM equipment_loads
		WHERE id = $1
	`, string(loadID)).Scan(&lID, &scope, &owner, &l.Name, &l.Cartridge, &projectileID,
		&l.BulletName, &l.BulletMassGrams, &l.ChargeGrams, &l.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan load: %w", err)
	}
	l.ID = id.LoadID(lID)
	l.Ownership = scanOwnership(scope, owner)
	if projectileID != nil {
		pid := id.ProjectileID(*projectileID)
		l.ProjectileID = &pid
	}
	return &l, nil
}

func (s *PostgresStore) ListLoads(ctx context.Context, ownerID id.OwnerID) ([]*Load, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scope, owner_id, name, cartridge, projectile_id,
		       bullet_name, bullet_mass_grams, charge_grams, created_at
		FROM equipment_loads
		WHERE scope = 'global' OR owner_id = $1
		ORDER BY name ASC
	`, string(ownerID))
	if err != nil {
		return nil, fmt.Errorf("query loads: %w", err)
	}
	defer rows.Close()

	var out []*Load
	for rows.Next() {
		var l Load
		var lID, scope string
		var owner, projectileID *string
		if err := rows.Scan(&lID, &scope, &owner, &l.Name, &l.Cartridge, &projectileID,
			&l.BulletName, &l.BulletMassGrams, &l.ChargeGrams, &l.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan load: %w", err)
		}
		l.ID = id.LoadID(lID)
		l.Ownership = scanOwnership(scope, owner)
		if projectileID != nil {
			pid := id.ProjectileID(*projectileID)
			l.ProjectileID = &pid
		}
		out = append(out, &l)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateFirearm(ctx context.Context, f *Firearm) error {
	scope, owner := ownershipColumns(f.Ownership)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO equipment_firearms (
			id, scope, owner_id, name, caliber, barrel_length_cm,
			twist_rate, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, string(f.ID), scope, owner, f.Name, f.Caliber, f.BarrelLengthCM,
		f.TwistRate, f.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert firearm: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindFirearm(ctx context.Context, firearmID id.FirearmID) (*Firearm, error) {
	var f Firearm
	var fID, scope string
	var owner *string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, scope, owner_id, name, caliber, barrel_length_cm,
		       twist_rate, created_at
		FROM equipment_firearms
		WHERE id = $1
	`, string(firearmID)).Scan(&fID, &scope, &owner, &f.Name, &f.Caliber,
		&f.BarrelLengthCM, &f.TwistRate, &f.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan firearm: %w", err)
	}
	f.ID = id.FirearmID(fID)
	f.Ownership = scanOwnership(scope, owner)
	return &f, nil
}

func (s *PostgresStore) ListFirearms(ctx context.Context, ownerID id.OwnerID) ([]*Firearm, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, scope, owner_id, name, caliber, barrel_length_cm,
		       twist_rate, created_at
		FROM equipment_firearms
		WHERE scope = 'global' OR owner_id = $1
		ORDER BY name ASC
	`, string(ownerID))
	if err != nil {
		return nil, fmt.Errorf("query firearms: %w", err)
	}
	defer rows.Close()

	var out []*Firearm
	for rows.Next() {
		var f Firearm
		var fID, scope string
		var owner *string
		if err := rows.Scan(&fID, &scope, &owner, &f.Name, &f.Caliber,
			&f.BarrelLengthCM, &f.TwistRate, &f.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan firearm: %w", err)
		}
		f.ID = id.FirearmID(fID)
		f.Ownership = scanOwnership(scope, owner)
		out = append(out, &f)
	}
	return out, rows.Err()
}
