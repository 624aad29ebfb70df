package session

import (
	"context"
	"sync"

	"github.com/spigell/interview-coach/internal/interview"
)

// MemoryStore keeps states in process memory. Values are cloned on the way in
// and out so callers never share slices with the store.
type MemoryStore struct {
	mu     sync.RWMutex
	states map[string]interview.State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{states: make(map[string]interview.State)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (*interview.State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.states[id]
	if !ok {
		return nil, ErrNotFound
	}

	c := s.Clone()
	return &c, nil
}

func (m *MemoryStore) Put(_ context.Context, id string, state interview.State) error {
	if err := validID(id); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.states[id] = state.Clone()
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.states, id)
	return nil
}

// Len returns the number of stored sessions.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.states)
}
