package environment

import (
	"context"
	"sort"
	"sync"
	"time"

	id "rangelog/pkg/domain"
	"rangelog/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu           sync.RWMutex
	sources      map[id.SourceID]*Source
	observations map[id.SourceID][]Observation
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sources:      make(map[id.SourceID]*Source),
		observations: make(map[id.SourceID][]Observation),
	}
}

func (s *InMemoryStore) CreateSource(_ context.Context, source *Source) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sources[source.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *source
	s.sources[source.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindSource(_ context.Context, sourceID id.SourceID) (*Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	source, exists := s.sources[sourceID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *source
	return &cp, nil
}

func (s *InMemoryStore) ListSourcesByOwner(_ context.Context, owner id.OwnerID) ([]*Source, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Source
	for _, source := range s.sources {
		if source.OwnerID == owner {
			cp := *source
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *InMemoryStore) Append(_ context.Context, obs Observation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.sources[obs.SourceID]; !exists {
		return sentinel.ErrNotFound
	}
	s.observations[obs.SourceID] = append(s.observations[obs.SourceID], obs)
	return nil
}

func (s *InMemoryStore) ListBetween(_ context.Context, sourceID id.SourceID, from, to time.Time) ([]Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Observation
	for _, obs := range s.observations[sourceID] {
		// Inclusive on both ends.
		if obs.Timestamp.Before(from) || obs.Timestamp.After(to) {
			continue
		}
		out = append(out, obs)
	}
	sortByTimestamp(out)
	return out, nil
}

func (s *InMemoryStore) ListAll(_ context.Context, sourceID id.SourceID) ([]Observation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := append([]Observation(nil), s.observations[sourceID]...)
	sortByTimestamp(out)
	return out, nil
}

func sortByTimestamp(obs []Observation) {
	sort.Slice(obs, func(i, j int) bool { return obs[i].Timestamp.Before(obs[j].Timestamp) })
}
