package environment

import (
	"context"
	"time"

	id "rangelog/pkg/domain"
)

// Store is the persistence contract for environment sources and their
// append-only observations.
type Store interface {
	CreateSource(ctx context.Context, source *Source) error
	FindSource(ctx context.Context, sourceID id.SourceID) (*Source, error)
	ListSourcesByOwner(ctx context.Context, owner id.OwnerID) ([]*Source, error)

	Append(ctx context.Context, obs Observation) error
	// ListBetween returns observations with from <= timestamp <= to,
	// ordered by timestamp ascending.
	ListBetween(ctx context.Context, sourceID id.SourceID, from, to time.Time) ([]Observation, error)
	// ListAll returns every observation for a source, ordered by timestamp.
	ListAll(ctx context.Context, sourceID id.SourceID) ([]Observation, error)
}
