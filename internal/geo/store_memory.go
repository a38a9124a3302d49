package geo

import (
	"context"
	"sort"
	"sync"

	id "rangelog/pkg/domain"
	"rangelog/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu        sync.RWMutex
	locations map[id.LocationID]*Location
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{locations: make(map[id.LocationID]*Location)}
}

func (s *InMemoryStore) Create(_ context.Context, loc *Location) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.locations[loc.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *loc
	s.locations[loc.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, locationID id.LocationID) (*Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	loc, exists := s.locations[locationID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *loc
	return &cp, nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner id.OwnerID) ([]*Location, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Location
	for _, loc := range s.locations {
		if loc.OwnerID == owner {
			cp := *loc
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
