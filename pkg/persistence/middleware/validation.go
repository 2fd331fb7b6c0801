package middleware

import (
	"context"
	"fmt"

	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/ports"
)

type validationMiddleware struct {
	next ports.ScriptStore
	gate ports.SchemaGate
}

// NewValidationMiddleware creates a middleware that refuses to save scripts whose content
// does not pass the gate. Failures wrap domain.ErrInvalidText.
func NewValidationMiddleware(gate ports.SchemaGate) Middleware {
	return func(next ports.ScriptStore) ports.ScriptStore {
		return &validationMiddleware{next: next, gate: gate}
	}
}

func (m *validationMiddleware) Save(ctx context.Context, script *domain.SiteScript) error {
	if err := m.gate.Validate(ctx, script.Content); err != nil {
		return fmt.Errorf("refusing to save script %s: %w", script.ID, err)
	}
	return m.next.Save(ctx, script)
}

func (m *validationMiddleware) Load(ctx context.Context, id string) (*domain.SiteScript, error) {
	return m.next.Load(ctx, id)
}

func (m *validationMiddleware) Delete(ctx context.Context, id string) error {
	return m.next.Delete(ctx, id)
}

func (m *validationMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}
