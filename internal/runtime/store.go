package runtime

import (
	"sync"

	"github.com/rampkit/ramp/pkg/domain"
)

// Store is the single source of truth for one session's workflow state.
// All controllers mutate it only through Dispatch; because every transition
// runs under the store mutex, the store is the sole serialization point.
type Store struct {
	mu    sync.RWMutex
	state *domain.State
}

// NewStore creates a store holding a fresh state for the session.
func NewStore(sessionID string) *Store {
	return &Store{state: domain.NewState(sessionID)}
}

// NewStoreFrom creates a store around previously persisted state.
func NewStoreFrom(state *domain.State) *Store {
	return &Store{state: state.Clone()}
}

// Dispatch applies an action atomically and returns the resulting snapshot.
func (s *Store) Dispatch(a Action) *domain.State {
	s.mu.Lock()
	s.state = Reduce(s.state, a)
	snap := s.state.Clone()
	s.mu.Unlock()
	return snap
}

// State returns a snapshot of the current state.
func (s *Store) State() *domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Clone()
}

// CurrentStep returns the active step index.
func (s *Store) CurrentStep() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.CurrentStep
}

// Convenience dispatchers mirroring the store's public operations.

func (s *Store) SetStep(n int) { s.Dispatch(SetStep{Step: n}) }
func (s *Store) Next()         { s.Dispatch(Next{}) }
func (s *Store) Prev()         { s.Dispatch(Prev{}) }

func (s *Store) SetCompetitors(list []string)          { s.Dispatch(SetCompetitors{Competitors: list}) }
func (s *Store) SetCategories(list []domain.Category)  { s.Dispatch(SetCategories{Categories: list}) }
func (s *Store) SetPrompts(list []domain.Prompt)       { s.Dispatch(SetPrompts{Prompts: list}) }
func (s *Store) SetLoading(loading bool)               { s.Dispatch(SetLoading{Loading: loading}) }
func (s *Store) SetError(msg string)                   { s.Dispatch(SetError{Message: msg}) }
func (s *Store) Reset()                                { s.Dispatch(Reset{}) }
func (s *Store) SetBusinessProfile(p SetBusinessProfile) { s.Dispatch(p) }
