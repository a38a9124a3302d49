package environment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	id "rangelog/pkg/domain"
	dErrors "rangelog/pkg/domain-errors"
	"rangelog/pkg/platform/sentinel"
	"rangelog/pkg/requestcontext"
)

// Service orchestrates environment source and observation capture.
type Service struct {
	store  Store
	logger *slog.Logger
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{store: store}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSource registers a sensor source for the owner.
func (s *Service) CreateSource(ctx context.Context, owner id.OwnerID, name string) (*Source, error) {
	source, err := NewSource(id.NewSourceID(), owner, name, requestcontext.Now(ctx))
	if err != nil {
		return nil, err
	}
	if err := s.store.CreateSource(ctx, source); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create source")
	}
	return source, nil
}

// Append records an observation on an owner's source. Observations are
// append-only; there is no update or delete path.
func (s *Service) Append(ctx context.Context, owner id.OwnerID, obs Observation) error {
	if err := obs.Validate(); err != nil {
		return err
	}
	if _, err := s.ownedSource(ctx, owner, obs.SourceID); err != nil {
		return err
	}
	if err := s.store.Append(ctx, obs); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to append observation")
	}
	return nil
}

// GetSource returns an owner's source, or nil when it does not exist.
func (s *Service) GetSource(ctx context.Context, owner id.OwnerID, sourceID id.SourceID) (*Source, error) {
	source, err := s.ownedSource(ctx, owner, sourceID)
	if err != nil {
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return source, nil
}

// ListSources returns all of an owner's sources, newest first.
func (s *Service) ListSources(ctx context.Context, owner id.OwnerID) ([]*Source, error) {
	sources, err := s.store.ListSourcesByOwner(ctx, owner)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list sources")
	}
	return sources, nil
}

// ListBetween returns an owner's observations within [from, to], inclusive.
func (s *Service) ListBetween(ctx context.Context, owner id.OwnerID, sourceID id.SourceID, from, to time.Time) ([]Observation, error) {
	if _, err := s.ownedSource(ctx, owner, sourceID); err != nil {
		return nil, err
	}
	obs, err := s.store.ListBetween(ctx, sourceID, from, to)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list observations")
	}
	return obs, nil
}

// ListAll returns every observation for an owner's source.
func (s *Service) ListAll(ctx context.Context, owner id.OwnerID, sourceID id.SourceID) ([]Observation, error) {
	if _, err := s.ownedSource(ctx, owner, sourceID); err != nil {
		return nil, err
	}
	obs, err := s.store.ListAll(ctx, sourceID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list observations")
	}
	return obs, nil
}

func (s *Service) ownedSource(ctx context.Context, owner id.OwnerID, sourceID id.SourceID) (*Source, error) {
	source, err := s.store.FindSource(ctx, sourceID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "source not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load source")
	}
	if source.OwnerID != owner {
		return nil, dErrors.New(dErrors.CodeAccessDenied, "source belongs to another owner")
	}
	return source, nil
}
