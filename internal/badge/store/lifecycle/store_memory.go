package lifecycle

import (
	"context"
	"sync"

	id "crest/pkg/domain"
)

// InMemoryStore keeps lifecycle state in independent maps, mirroring the
// storage shape of the registry: ids need not appear in every map and
// absence carries the documented default.
type InMemoryStore struct {
	mu       sync.RWMutex
	uris     map[id.BadgeID]string
	burned   map[id.BadgeID]bool
	expiries map[id.BadgeID]uint64
	state    State
}

// NewInMemory constructs an empty in-memory lifecycle store.
func NewInMemory() *InMemoryStore {
	return &InMemoryStore{
		uris:     make(map[id.BadgeID]string),
		burned:   make(map[id.BadgeID]bool),
		expiries: make(map[id.BadgeID]uint64),
	}
}

func (s *InMemoryStore) SetURI(_ context.Context, badgeID id.BadgeID, uri string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.uris[badgeID] = uri
	return nil
}

func (s *InMemoryStore) URI(_ context.Context, badgeID id.BadgeID) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	uri, ok := s.uris[badgeID]
	return uri, ok, nil
}

func (s *InMemoryStore) MarkBurned(_ context.Context, badgeID id.BadgeID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.burned[badgeID] = true
	return nil
}

func (s *InMemoryStore) IsBurned(_ context.Context, badgeID id.BadgeID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.burned[badgeID], nil
}

func (s *InMemoryStore) SetExpiry(_ context.Context, badgeID id.BadgeID, height uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expiries[badgeID] = height
	return nil
}

func (s *InMemoryStore) Expiry(_ context.Context, badgeID id.BadgeID) (uint64, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	height, ok := s.expiries[badgeID]
	return height, ok, nil
}

func (s *InMemoryStore) LoadState(_ context.Context) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state, nil
}

func (s *InMemoryStore) SaveState(_ context.Context, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	return nil
}
