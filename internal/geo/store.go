package geo

import (
	"context"

	id "rangelog/pkg/domain"
)

// Store is the persistence contract for range locations.
type Store interface {
	Create(ctx context.Context, loc *Location) error
	FindByID(ctx context.Context, locationID id.LocationID) (*Location, error)
	ListByOwner(ctx context.Context, owner id.OwnerID) ([]*Location, error)
}
