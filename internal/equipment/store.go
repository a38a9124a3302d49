package equipment

import (
	"context"

	id "rangelog/pkg/domain"
)

// Store is the persistence contract for the equipment catalog.
type Store interface {
	CreateProjectile(ctx context.Context, p *Projectile) error
	FindProjectile(ctx context.Context, projectileID id.ProjectileID) (*Projectile, error)
	ListProjectiles(ctx context.Context, owner id.OwnerID) ([]*Projectile, error)

	CreateLoad(ctx context.Context, l *Load) error
	FindLoad(ctx context.Context, loadID id.LoadID) (*Load, error)
	ListLoads(ctx context.Context, owner id.OwnerID) ([]*Load, error)

	CreateFirearm(ctx context.Context, f *Firearm) error
	FindFirearm(ctx context.Context, firearmID id.FirearmID) (*Firearm, error)
	ListFirearms(ctx context.Context, owner id.OwnerID) ([]*Firearm, error)
}
