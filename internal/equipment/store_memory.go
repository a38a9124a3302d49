package equipment

import (
	"context"
	"sort"
	"sync"

	id "rangelog/pkg/domain"
	"rangelog/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu          sync.RWMutex
	projectiles map[id.ProjectileID]*Projectile
	loads       map[id.LoadID]*Load
	firearms    map[id.FirearmID]*Firearm
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		projectiles: make(map[id.ProjectileID]*Projectile),
		loads:       make(map[id.LoadID]*Load),
		firearms:    make(map[id.FirearmID]*Firearm),
	}
}

func (s *InMemoryStore) CreateProjectile(_ context.Context, p *Projectile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projectiles[p.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *p
	s.projectiles[p.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindProjectile(_ context.Context, projectileID id.ProjectileID) (*Projectile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, exists := s.projectiles[projectileID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

// ListProjectiles returns entries visible to the owner: global plus its own.
func (s *InMemoryStore) ListProjectiles(_ context.Context, owner id.OwnerID) ([]*Projectile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Projectile
	for _, p := range s.projectiles {
		if p.Ownership.VisibleTo(owner) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) CreateLoad(_ context.Context, l *Load) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.loads[l.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *l
	s.loads[l.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindLoad(_ context.Context, loadID id.LoadID) (*Load, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	l, exists := s.loads[loadID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (s *InMemoryStore) ListLoads(_ context.Context, owner id.OwnerID) ([]*Load, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Load
	for _, l := range s.loads {
		if l.Ownership.VisibleTo(owner) {
			cp := *l
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *InMemoryStore) CreateFirearm(_ context.Context, f *Firearm) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.firearms[f.ID]; exists {
		return sentinel.ErrConflict
	}
	cp := *f
	s.firearms[f.ID] = &cp
	return nil
}

func (s *InMemoryStore) FindFirearm(_ context.Context, firearmID id.FirearmID) (*Firearm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, exists := s.firearms[firearmID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (s *InMemoryStore) ListFirearms(_ context.Context, owner id.OwnerID) ([]*Firearm, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*Firearm
	for _, f := range s.firearms {
		if f.Ownership.VisibleTo(owner) {
			cp := *f
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
