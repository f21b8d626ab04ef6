package memory

import (
	"context"
	"sync"

	"github.com/rampkit/ramp/pkg/domain"
)

// Store implements ports.StateStore and ports.FragmentStore in memory.
// Safe for concurrent use.
type Store struct {
	data      map[string]*domain.State
	fragments map[string]map[string]string
	mu        sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data:      make(map[string]*domain.State),
		fragments: make(map[string]map[string]string),
	}
}

// Save persists the state in memory.
func (s *Store) Save(ctx context.Context, sessionID string, state *domain.State) error {
	copied := state.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[sessionID] = copied
	return nil
}

// Load retrieves the state from memory.
// The returned state is a copy so callers can't mutate store state by pointer.
func (s *Store) Load(ctx context.Context, sessionID string) (*domain.State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.data[sessionID]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return state.Clone(), nil
}

// Delete removes the state.
func (s *Store) Delete(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, sessionID)
	return nil
}

// List returns active sessions.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sessions := make([]string, 0, len(s.data))
	for id := range s.data {
		sessions = append(sessions, id)
	}
	return sessions, nil
}

// SaveFragment stores a durable fragment value.
func (s *Store) SaveFragment(ctx context.Context, sessionID, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	frags, ok := s.fragments[sessionID]
	if !ok {
		frags = make(map[string]string)
		s.fragments[sessionID] = frags
	}
	frags[key] = value
	return nil
}

// LoadFragment retrieves a durable fragment value.
func (s *Store) LoadFragment(ctx context.Context, sessionID, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	val, ok := s.fragments[sessionID][key]
	if !ok {
		return "", domain.ErrFragmentNotFound
	}
	return val, nil
}

// DeleteFragments removes all fragments for a session.
func (s *Store) DeleteFragments(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.fragments, sessionID)
	return nil
}
