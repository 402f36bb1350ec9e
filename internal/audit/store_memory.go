package audit

import (
	"context"
	"sync"
)

// InMemoryStore keeps a bounded ring of recent audit events.
type InMemoryStore struct {
	mu     sync.RWMutex
	events []Event
	limit  int
}

func NewInMemoryStore(limit int) *InMemoryStore {
	if limit <= 0 {
		limit = 4096
	}
	return &InMemoryStore{limit: limit}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	if len(s.events) > s.limit {
		s.events = s.events[len(s.events)-s.limit:]
	}
	return nil
}

// List returns the most recent events, newest last.
func (s *InMemoryStore) List(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 || limit > len(s.events) {
		limit = len(s.events)
	}
	out := make([]Event, limit)
	copy(out, s.events[len(s.events)-limit:])
	return out, nil
}
