// Package audit captures structured events for key record-mutating actions.
// Events flow through a channel into a background worker so domain logic
// never blocks on the sink.
package audit

import (
	"context"
	"sort"
	"sync"
	"time"

	id "rangelog/pkg/domain"
)

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time  `json:"timestamp"`
	OwnerID   id.OwnerID `json:"owner_id"`
	Entity    string     `json:"entity"`
	EntityID  string     `json:"entity_id"`
	Action    string     `json:"action"`
	Detail    string     `json:"detail,omitempty"`
}

// Store is the append-only event sink.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByOwner(ctx context.Context, owner id.OwnerID) ([]Event, error)
}

// InMemoryStore keeps events in order of arrival.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *InMemoryStore) ListByOwner(_ context.Context, owner id.OwnerID) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Event
	for _, e := range s.events {
		if e.OwnerID == owner {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.Before(out[j].Timestamp) })
	return out, nil
}
