package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/catalogd/internal/core/domain"
	"github.com/custodia-labs/catalogd/internal/core/ports/driven"
)

// Ensure EnvironmentStore implements the interface.
var _ driven.EnvironmentStore = (*EnvironmentStore)(nil)

// EnvironmentStore is an in-memory implementation of driven.EnvironmentStore.
type EnvironmentStore struct {
	mu   sync.RWMutex
	envs map[string]domain.Environment
}

// NewEnvironmentStore creates a store holding the given environments.
func NewEnvironmentStore(envs ...domain.Environment) *EnvironmentStore {
	s := &EnvironmentStore{envs: make(map[string]domain.Environment)}
	for _, e := range envs {
		s.envs[e.Name] = e
	}
	return s
}

// Put adds or replaces an environment.
func (s *EnvironmentStore) Put(env domain.Environment) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.envs[env.Name] = env
}

// Get returns an environment by name.
func (s *EnvironmentStore) Get(_ context.Context, name string) (*domain.Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	env, ok := s.envs[name]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &env, nil
}

// List returns all environments sorted by name.
func (s *EnvironmentStore) List(_ context.Context) ([]domain.Environment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Environment, 0, len(s.envs))
	for _, e := range s.envs {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
