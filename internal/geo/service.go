package geo

import (
	"context"
	"errors"

	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/platform/sentinel"
	"rangelog/pkg/requestcontext"
)

// Service orchestrates range location management.
type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

// Create registers a named location, computing its geometry.
func (s *Service) Create(ctx context.Context, owner id.OwnerID, name string, firingPoint, target Coordinates) (*Location, error) {
	loc, err := NewLocation(id.NewLocationID(), owner, name, firingPoint, target, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.Create(ctx, loc); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create location")
	}
	return loc, nil
}

// Get returns an owner's location, or nil when it does not exist.
func (s *Service) Get(ctx context.Context, owner id.OwnerID, locationID id.LocationID) (*Location, error) {
	loc, err := s.Owned(ctx, owner, locationID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return loc, nil
}

// Owned returns an owner's location, failing on absence or owner mismatch.
func (s *Service) Owned(ctx context.Context, owner id.OwnerID, locationID id.LocationID) (*Location, error) {
	loc, err := s.store.FindByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "location not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load location")
	}
	if loc.OwnerID != owner {
		return nil, dErrors.New(dErrors.CodeAccessDenied, "location belongs to another owner")
	}
	return loc, nil
}

// List returns all of an owner's locations, sorted by name.
func (s *Service) List(ctx context.Context, owner id.OwnerID) ([]*Location, error) {
	out, err := s.store.ListByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list locations")
	}
	return out, nil
}
