package checkpoint

import (
	"context"
	"slices"
	"sync"
)

// MemoryStore keeps the state in memory. Progress is lost when the process
// exits.
type MemoryStore struct {
	state State
	mu    sync.RWMutex
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// Load returns a copy of the saved state.
func (s *MemoryStore) Load(ctx context.Context) (State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state := s.state
	state.Completed = slices.Clone(state.Completed)
	return state, nil
}

// Save replaces the state with a copy of state.
func (s *MemoryStore) Save(ctx context.Context, state State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state.Completed = slices.Clone(state.Completed)
	s.state = state
	return nil
}
