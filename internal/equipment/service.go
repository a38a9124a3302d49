package equipment

import (
	"context"
	"errors"

	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/platform/sentinel"
	"rangelog/pkg/requestcontext"
)

// Service orchestrates catalog reads and writes. Visibility follows the
// ownership variant: global entries are readable by anyone, owned entries
// only by their owner. Creation through this service always produces
// owner-scoped entries; global entries are seeded administratively.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

func (s *Service) CreateProjectile(ctx context.Context, owner id.OwnerID, p Projectile) (*Projectile, error) {
	p.ID = id.NewProjectileID()
	p.Ownership = OwnedBy(owner)
	p.CreatedAt = requestcontext.Now(ctx)
	if err := p.validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateProjectile(ctx, &p); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create projectile")
	}
	return &p, nil
}

func (s *Service) CreateLoad(ctx context.Context, owner id.OwnerID, l Load) (*Load, error) {
	l.ID = id.NewLoadID()
	l.Ownership = OwnedBy(owner)
	l.CreatedAt = requestcontext.Now(ctx)
	if err := l.validate(); err != nil {
		return nil, err
	}
	if l.ProjectileID != nil {
		if _, err := s.GetProjectile(ctx, owner, *l.ProjectileID); err != nil {
			return nil, err
		}
	}
	if err := s.store.CreateLoad(ctx, &l); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create load")
	}
	return &l, nil
}

func (s *Service) CreateFirearm(ctx context.Context, owner id.OwnerID, f Firearm) (*Firearm, error) {
	f.ID = id.NewFirearmID()
	f.Ownership = OwnedBy(owner)
	f.CreatedAt = requestcontext.Now(ctx)
	if err := f.validate(); err != nil {
		return nil, err
	}
	if err := s.store.CreateFirearm(ctx, &f); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create firearm")
	}
	return &f, nil
}

// GetProjectile returns a projectile visible to the owner.
func (s *Service) GetProjectile(ctx context.Context, owner id.OwnerID, projectileID id.ProjectileID) (*Projectile, error) {
	p, err := s.store.FindProjectile(ctx, projectileID)
	if err != nil {
		return nil, translate(err, "projectile")
	}
	if !p.Ownership.VisibleTo(owner) {
		return nil, dErrors.New(dErrors.CodeAccessDenied, "projectile belongs to another owner")
	}
	return p, nil
}

// GetLoad returns a load visible to the owner.
func (s *Service) GetLoad(ctx context.Context, owner id.OwnerID, loadID id.LoadID) (*Load, error) {
	l, err := s.store.FindLoad(ctx, loadID)
	if err != nil {
		return nil, translate(err, "load")
	}
	if !l.Ownership.VisibleTo(owner) {
		return nil, dErrors.New(dErrors.CodeAccessDenied, "load belongs to another owner")
	}
	return l, nil
}

// GetFirearm returns a firearm visible to the owner.
func (s *Service) GetFirearm(ctx context.Context, owner id.OwnerID, firearmID id.FirearmID) (*Firearm, error) {
	f, err := s.store.FindFirearm(ctx, firearmID)
	if err != nil {
		return nil, translate(err, "firearm")
	}
	if !f.Ownership.VisibleTo(owner) {
		return nil, dErrors.New(dErrors.CodeAccessDenied, "firearm belongs to another owner")
	}
	return f, nil
}

func (s *Service) ListProjectiles(ctx context.Context, owner id.OwnerID) ([]*Projectile, error) {
	out, err := s.store.ListProjectiles(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list projectiles")
	}
	return out, nil
}

func (s *Service) ListLoads(ctx context.Context, owner id.OwnerID) ([]*Load, error) {
	out, err := s.store.ListLoads(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list loads")
	}
	return out, nil
}

func (s *Service) ListFirearms(ctx context.Context, owner id.OwnerID) ([]*Firearm, error) {
	out, err := s.store.ListFirearms(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list firearms")
	}
	return out, nil
}

func translate(err error, what string) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, what+" not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load "+what)
}
