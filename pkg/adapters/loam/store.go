package loam

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/aretw0/sitescript/pkg/domain"
)

// Store adapts a Loam repository to ports.ScriptStore, keeping one document per script.
type Store struct {
	repo  core.Repository
	typed *loam.TypedRepository[ScriptMetadata]
}

// New wraps an initialized Loam repository.
func New(repo core.Repository) *Store {
	return &Store{
		repo:  repo,
		typed: loam.NewTypedRepository[ScriptMetadata](repo),
	}
}

// Open initializes a Loam repository at path and wraps it.
func Open(path string, opts ...loam.Option) (*Store, error) {
	repo, err := loam.Init(path, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to init loam repository at %s: %w", path, err)
	}
	return New(repo), nil
}

// Save writes the script metadata as frontmatter and the content as body.
func (s *Store) Save(ctx context.Context, script *domain.SiteScript) error {
	content := script.Content
	if len(content) == 0 {
		content = domain.EmptyContent
	}
	err := s.typed.Save(ctx, &loam.DocumentModel[ScriptMetadata]{
		ID:      script.ID,
		Content: string(content),
		Data: ScriptMetadata{
			ID:          script.ID,
			Title:       script.Title,
			Description: script.Description,
			Version:     script.Version,
		},
	})
	if err != nil {
		return fmt.Errorf("loam save failed for %s: %w", script.ID, err)
	}
	return nil
}

// Load retrieves a script. Any lookup failure is reported as domain.ErrScriptNotFound.
func (s *Store) Load(ctx context.Context, id string) (*domain.SiteScript, error) {
	doc, err := s.typed.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s (%v)", domain.ErrScriptNotFound, id, err)
	}

	body := strings.TrimSpace(doc.Content)
	if !json.Valid([]byte(body)) {
		return nil, fmt.Errorf("script %s has invalid content", id)
	}

	scriptID := doc.Data.ID
	if scriptID == "" {
		scriptID = trimExtension(doc.ID)
	}
	return &domain.SiteScript{
		ID:          scriptID,
		Title:       doc.Data.Title,
		Description: doc.Data.Description,
		Version:     doc.Data.Version,
		Content:     json.RawMessage(body),
	}, nil
}

// Delete removes a script. Deleting a missing script is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.typed.Get(ctx, id); err != nil {
		return nil
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("loam delete failed for %s: %w", id, err)
	}
	return nil
}

// List returns the IDs of every script document.
func (s *Store) List(ctx context.Context) ([]string, error) {
	docs, err := s.typed.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("loam list failed: %w", err)
	}

	seen := make(map[string]string, len(docs))
	ids := make([]string, 0, len(docs))
	for _, doc := range docs {
		id := doc.Data.ID
		if id == "" {
			id = trimExtension(doc.ID)
		}
		if existing, ok := seen[id]; ok {
			return nil, fmt.Errorf("collision detected: script '%s' is defined in both '%s' and '%s'", id, existing, doc.ID)
		}
		seen[id] = doc.ID
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func trimExtension(id string) string {
	ext := filepath.Ext(id)
	if ext != "" {
		return filepath.ToSlash(strings.TrimSuffix(id, ext))
	}
	return filepath.ToSlash(id)
}
