package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/sitescript/pkg/domain"
)

// Store implements ports.ScriptStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.SiteScript
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.SiteScript),
	}
}

// Save persists a copy of the script.
func (s *Store) Save(ctx context.Context, script *domain.SiteScript) error {
	copied := script.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[script.ID] = copied
	return nil
}

// Load returns a copy so callers cannot mutate stored scripts.
func (s *Store) Load(ctx context.Context, id string) (*domain.SiteScript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	script, ok := s.data[id]
	if !ok {
		return nil, domain.ErrScriptNotFound
	}
	return script.Clone(), nil
}

// Delete removes the script.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored script IDs in lexical order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}
