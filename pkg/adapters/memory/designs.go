package memory

import (
	"context"
	"slices"
	"sync"

	"github.com/aretw0/sitescript/pkg/domain"
)

// DesignStore implements ports.DesignStore in memory.
// Safe for concurrent use.
type DesignStore struct {
	data map[string]*domain.SiteDesign
	mu   sync.RWMutex
}

// NewDesignStore creates a new in-memory design store.
func NewDesignStore() *DesignStore {
	return &DesignStore{
		data: make(map[string]*domain.SiteDesign),
	}
}

// Save persists a copy of the design.
func (s *DesignStore) Save(ctx context.Context, design *domain.SiteDesign) error {
	copied := design.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[design.ID] = copied
	return nil
}

// Load returns a copy of the stored design.
func (s *DesignStore) Load(ctx context.Context, id string) (*domain.SiteDesign, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	design, ok := s.data[id]
	if !ok {
		return nil, domain.ErrDesignNotFound
	}
	return design.Clone(), nil
}

// Delete removes the design.
func (s *DesignStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, id)
	return nil
}

// List returns stored design IDs in lexical order.
func (s *DesignStore) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}
