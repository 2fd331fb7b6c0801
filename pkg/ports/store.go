package ports

import (
	"context"

	"github.com/aretw0/sitescript/pkg/domain"
)

// ScriptStore defines the interface for persisting site scripts.
type ScriptStore interface {
	// Save persists the script under script.ID, replacing any previous version.
	Save(ctx context.Context, script *domain.SiteScript) error

	// Load retrieves a script by ID.
	// Returns domain.ErrScriptNotFound if the script does not exist.
	Load(ctx context.Context, id string) (*domain.SiteScript, error)

	// Delete removes a script. Deleting a missing script is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored scripts.
	List(ctx context.Context) ([]string, error)
}

// DesignStore defines the interface for persisting site designs.
type DesignStore interface {
	// Save persists the design under design.ID, replacing any previous version.
	Save(ctx context.Context, design *domain.SiteDesign) error

	// Load retrieves a design by ID.
	// Returns domain.ErrDesignNotFound if the design does not exist.
	Load(ctx context.Context, id string) (*domain.SiteDesign, error)

	// Delete removes a design. Deleting a missing design is not an error.
	Delete(ctx context.Context, id string) error

	// List returns the IDs of all stored designs.
	List(ctx context.Context) ([]string, error)
}

// SchemaGate validates raw script text before it is decoded into a Document.
type SchemaGate interface {
	// Validate returns nil when raw is acceptable. Failures wrap domain.ErrInvalidText.
	Validate(ctx context.Context, raw []byte) error
}
