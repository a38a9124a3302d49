// Package equipment owns static specifications for projectiles, loads and
// firearms. Read-mostly; some entries are globally shared, the rest are
// owner-scoped. Leaf component; no dependency on the engine.
package equipment

import (
	"time"

	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
)

// Scope tags who may see a catalog entry.
type Scope string

const (
	ScopeGlobal Scope = "global"
	ScopeOwned  Scope = "owned"
)

// Ownership is a tagged variant {Global, OwnedBy(owner)}. A tagged pair
// rather than a nullable owner field keeps visibility checks exhaustive and
// explicit.
type Ownership struct {
	Scope Scope      `json:"scope"`
	Owner id.OwnerID `json:"owner,omitempty"`
}

// Global marks an entry visible to every owner.
func Global() Ownership {
	return Ownership{Scope: ScopeGlobal}
}

// OwnedBy marks an entry visible only to its owner.
func OwnedBy(owner id.OwnerID) Ownership {
	return Ownership{Scope: ScopeOwned, Owner: owner}
}

// VisibleTo reports whether the entry may be referenced by the owner.
func (o Ownership) VisibleTo(owner id.OwnerID) bool {
	switch o.Scope {
	case ScopeGlobal:
		return true
	case ScopeOwned:
		return o.Owner == owner
	default:
		return false
	}
}

// Validate rejects malformed variants.
func (o Ownership) Validate() error {
	switch o.Scope {
	case ScopeGlobal:
		if o.Owner != "" {
			return dErrors.New(dErrors.CodeValidation, "global entries must not carry an owner")
		}
	case ScopeOwned:
		if o.Owner == "" {
			return dErrors.New(dErrors.CodeValidation, "owned entries require an owner")
		}
	default:
		return dErrors.Newf(dErrors.CodeValidation, "unknown ownership scope %q", o.Scope)
	}
	return nil
}

// Projectile is a bullet specification.
type Projectile struct {
	ID                   id.ProjectileID `json:"id"`
	Ownership            Ownership       `json:"ownership"`
	Name                 string          `json:"name"`
	MassGrams            float64         `json:"mass_grams"`
	DiameterMM           float64         `json:"diameter_mm"`
	BallisticCoefficient *float64        `json:"ballistic_coefficient,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
}

// Load is a cartridge specification: a projectile plus charge.
type Load struct {
	ID              id.LoadID        `json:"id"`
	Ownership       Ownership        `json:"ownership"`
	Name            string           `json:"name"`
	Cartridge       string           `json:"cartridge"`
	ProjectileID    *id.ProjectileID `json:"projectile_id,omitempty"`
	BulletName      string           `json:"bullet_name"`
	BulletMassGrams float64          `json:"bullet_mass_grams"`
	ChargeGrams     *float64         `json:"charge_grams,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}

// Firearm is a rifle or pistol specification.
type Firearm struct {
	ID             id.FirearmID `json:"id"`
	Ownership      Ownership    `json:"ownership"`
	Name           string       `json:"name"`
	Caliber        string       `json:"caliber"`
	BarrelLengthCM *float64     `json:"barrel_length_cm,omitempty"`
	TwistRate      string       `json:"twist_rate,omitempty"`
	CreatedAt      time.Time    `json:"created_at"`
}

func (p *Projectile) validate() error {
	if p.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "projectile name is required")
	}
	if p.MassGrams <= 0 {
		return dErrors.New(dErrors.CodeValidation, "projectile mass must be positive")
	}
	return p.Ownership.Validate()
}

func (l *Load) validate() error {
	if l.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "load name is required")
	}
	if l.BulletMassGrams <= 0 {
		return dErrors.New(dErrors.CodeValidation, "bullet mass must be positive")
	}
	return l.Ownership.Validate()
}

func (f *Firearm) validate() error {
	if f.Name == "" {
		return dErrors.New(dErrors.CodeValidation, "firearm name is required")
	}
	if f.Caliber == "" {
		return dErrors.New(dErrors.CodeValidation, "firearm caliber is required")
	}
	return f.Ownership.Validate()
}
