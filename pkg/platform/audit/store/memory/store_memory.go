package memory

import (
	"context"
	"sync"

	id "crest/pkg/domain"
	audit "crest/pkg/platform/audit"
)

// InMemoryStore keeps audit events in memory for tests and single-process
// deployments.
type InMemoryStore struct {
	mu      sync.RWMutex
	ordered []audit.Event
	byBadge map[id.BadgeID][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{byBadge: make(map[id.BadgeID][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordered = append(s.ordered, event)
	if !event.BadgeID.IsZero() {
		s.byBadge[event.BadgeID] = append(s.byBadge[event.BadgeID], event)
	}
	return nil
}

func (s *InMemoryStore) ListByBadge(_ context.Context, badgeID id.BadgeID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.byBadge[badgeID]...), nil
}

// ListRecent returns the most recent N events across all badges.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	start := len(s.ordered) - limit
	if start < 0 {
		start = 0
	}
	return append([]audit.Event{}, s.ordered[start:]...), nil
}

// Clear resets the store between tests.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ordered = nil
	s.byBadge = make(map[id.BadgeID][]audit.Event)
}
