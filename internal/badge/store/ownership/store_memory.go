package ownership

import (
	"context"
	"fmt"
	"sync"

	id "crest/pkg/domain"
	"crest/pkg/platform/sentinel"
)

// InMemoryStore holds the owner-per-badge-id mapping in memory for tests and
// single-process deployments. The registry serializes mutating operations;
// the internal lock only guards against concurrent readers.
type InMemoryStore struct {
	mu     sync.RWMutex
	owners map[id.BadgeID]id.Principal
}

// NewInMemory constructs an empty in-memory ownership store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{owners: make(map[id.BadgeID]id.Principal)}
}

func (s *InMemoryStore) Create(_ context.Context, badgeID id.BadgeID, owner id.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.owners[badgeID]; exists {
		return fmt.Errorf("badge %s already owned: %w", badgeID, sentinel.ErrConflict)
	}
	s.owners[badgeID] = owner
	return nil
}

func (s *InMemoryStore) OwnerOf(_ context.Context, badgeID id.BadgeID) (id.Principal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	owner, ok := s.owners[badgeID]
	if !ok {
		return "", fmt.Errorf("badge %s has no owner: %w", badgeID, sentinel.ErrNotFound)
	}
	return owner, nil
}

func (s *InMemoryStore) Transfer(_ context.Context, badgeID id.BadgeID, from, to id.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.owners[badgeID]
	if !ok {
		return fmt.Errorf("badge %s has no owner: %w", badgeID, sentinel.ErrNotFound)
	}
	if owner != from {
		return fmt.Errorf("badge %s not held by %s: %w", badgeID, from, sentinel.ErrInvalidState)
	}
	s.owners[badgeID] = to
	return nil
}

func (s *InMemoryStore) Revoke(_ context.Context, badgeID id.BadgeID, owner id.Principal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.owners[badgeID]
	if !ok {
		return fmt.Errorf("badge %s has no owner: %w", badgeID, sentinel.ErrNotFound)
	}
	if current != owner {
		return fmt.Errorf("badge %s not held by %s: %w", badgeID, owner, sentinel.ErrInvalidState)
	}
	delete(s.owners, badgeID)
	return nil
}
