package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/aretw0/sitescript/pkg/domain"
)

// DesignsDir is the subdirectory of a script directory that holds site designs.
const DesignsDir = "designs"

// DesignStore implements ports.DesignStore on the local filesystem, one file per design.
// It shares the layout and locking of Store.
type DesignStore struct {
	files *Store
}

// NewDesignStore creates a design store rooted at basePath, defaulting to
// "./scripts/designs".
func NewDesignStore(basePath string) *DesignStore {
	if basePath == "" {
		basePath = filepath.Join("scripts", DesignsDir)
	}
	return &DesignStore{files: NewStore(basePath)}
}

// BasePath returns the directory holding the design files.
func (s *DesignStore) BasePath() string {
	return s.files.BasePath
}

// Save writes the design atomically.
func (s *DesignStore) Save(ctx context.Context, design *domain.SiteDesign) error {
	return s.files.write(ctx, design.ID, design)
}

// Load reads a design file.
func (s *DesignStore) Load(ctx context.Context, id string) (*domain.SiteDesign, error) {
	var design domain.SiteDesign
	if err := s.files.read(id, &design); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, domain.ErrDesignNotFound
		}
		return nil, err
	}
	if design.SiteScriptIDs == nil {
		design.SiteScriptIDs = []string{}
	}
	return &design, nil
}

// Delete removes the design file.
func (s *DesignStore) Delete(ctx context.Context, id string) error {
	return s.files.remove(ctx, id)
}

// List returns the IDs of all design files in lexical order.
func (s *DesignStore) List(ctx context.Context) ([]string, error) {
	return s.files.list()
}
