package testutils

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/aretw0/loam"
	"github.com/aretw0/loam/pkg/core"
	"github.com/aretw0/sitescript/internal/logging"
	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/schema"
	"github.com/stretchr/testify/require"
)

// SetupTestRepo creates a temporary directory and initializes a Loam repository in it.
// It fails the test immediately on error.
func SetupTestRepo(t *testing.T, opts ...loam.Option) (string, core.Repository) {
	t.Helper()

	absPath, err := filepath.Abs(t.TempDir())
	require.NoError(t, err, "Failed to get absolute path for temp dir")

	repo, err := loam.Init(absPath, opts...)
	require.NoError(t, err, "Failed to init loam repo")

	return absPath, repo
}

// NewScript builds a saved script envelope around raw canonical content.
func NewScript(t *testing.T, id, content string) *domain.SiteScript {
	t.Helper()

	script := domain.NewSiteScript(id, "")
	script.ID = id
	script.Version = 1
	script.Content = []byte(content)
	return script
}

// MustGate compiles a gate over the built-in catalog.
func MustGate(t *testing.T) *schema.Gate {
	t.Helper()

	gate, err := schema.NewGate(schema.DefaultCatalog())
	require.NoError(t, err, "Failed to compile schema gate")
	return gate
}

// NopLogger returns a logger that discards everything.
func NopLogger() *slog.Logger {
	return logging.NewNop()
}
