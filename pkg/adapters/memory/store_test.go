package memory_test

import (
	"context"
	"testing"

	"github.com/aretw0/sitescript/pkg/adapters/memory"
	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_Contract(t *testing.T) {
	store := memory.NewStore()
	ports.RunScriptStoreContract(t, store)
}

func TestMemoryStore_Isolation(t *testing.T) {
	store := memory.NewStore()
	ctx := context.Background()

	script := domain.NewSiteScript("Contoso", "")
	require.NoError(t, store.Save(ctx, script))
	script.Title = "mutated"
	script.Content[2] = 'X'

	loaded, err := store.Load(ctx, script.ID)
	require.NoError(t, err)
	assert.Equal(t, "Contoso", loaded.Title)
	assert.JSONEq(t, string(domain.EmptyContent), string(loaded.Content))
}

func TestMemoryDesignStore_Contract(t *testing.T) {
	ports.RunDesignStoreContract(t, memory.NewDesignStore())
}

func TestMemoryDesignStore_Isolation(t *testing.T) {
	store := memory.NewDesignStore()
	ctx := context.Background()

	design := domain.NewSiteDesign("Contoso", "")
	design.SiteScriptIDs = []string{"a", "b"}
	require.NoError(t, store.Save(ctx, design))
	design.SiteScriptIDs[0] = "mutated"

	loaded, err := store.Load(ctx, design.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, loaded.SiteScriptIDs)
}
