package ports

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunScriptStoreContract runs a suite of tests to verify that a ScriptStore implementation
// adheres to the defined interface contract.
func RunScriptStoreContract(t *testing.T, store ScriptStore) {
	ctx := context.Background()
	scriptID := "contract-test-script-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		script := &domain.SiteScript{
			ID:          scriptID,
			Title:       "Contoso",
			Description: "Team site baseline",
			Version:     3,
			Content:     json.RawMessage(`{"actions":[{"verb":"setTitle","title":"Contoso"}]}`),
		}

		require.NoError(t, store.Save(ctx, script), "Save should not return error")

		loaded, err := store.Load(ctx, scriptID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, script.ID, loaded.ID)
		assert.Equal(t, script.Title, loaded.Title)
		assert.Equal(t, script.Description, loaded.Description)
		assert.Equal(t, script.Version, loaded.Version)
		assert.JSONEq(t, string(script.Content), string(loaded.Content))
	})

	t.Run("Save Replaces", func(t *testing.T) {
		script := &domain.SiteScript{ID: scriptID, Title: "Renamed", Version: 4, Content: domain.EmptyContent}
		require.NoError(t, store.Save(ctx, script))

		loaded, err := store.Load(ctx, scriptID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", loaded.Title)
		assert.Equal(t, 4, loaded.Version)
		assert.JSONEq(t, string(domain.EmptyContent), string(loaded.Content))
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+scriptID)
		assert.ErrorIs(t, err, domain.ErrScriptNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, &domain.SiteScript{ID: scriptID, Version: 1, Content: domain.EmptyContent}))

		require.NoError(t, store.Delete(ctx, scriptID), "Delete should not return error")

		_, err := store.Load(ctx, scriptID)
		assert.ErrorIs(t, err, domain.ErrScriptNotFound, "Load after Delete should return ErrScriptNotFound")

		assert.NoError(t, store.Delete(ctx, scriptID), "Delete of a missing script should succeed")
	})

	t.Run("List", func(t *testing.T) {
		id1 := scriptID + "-1"
		id2 := scriptID + "-2"
		require.NoError(t, store.Save(ctx, &domain.SiteScript{ID: id1, Version: 1, Content: domain.EmptyContent}))
		require.NoError(t, store.Save(ctx, &domain.SiteScript{ID: id2, Version: 1, Content: domain.EmptyContent}))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}

// RunDesignStoreContract verifies that a DesignStore implementation adheres to the
// interface contract.
func RunDesignStoreContract(t *testing.T, store DesignStore) {
	ctx := context.Background()
	designID := "contract-test-design-" + time.Now().Format("20060102150405")

	t.Run("Save and Load", func(t *testing.T) {
		design := &domain.SiteDesign{
			ID:                  designID,
			Title:               "Contoso",
			Description:         "Project sites",
			WebTemplate:         domain.WebTemplateCommunicationSite,
			SiteScriptIDs:       []string{"second", "first"},
			PreviewImageURL:     "https://contoso.example/preview.png",
			PreviewImageAltText: "Preview",
			Version:             2,
			IsDefault:           true,
		}
		require.NoError(t, store.Save(ctx, design), "Save should not return error")

		loaded, err := store.Load(ctx, designID)
		require.NoError(t, err, "Load should not return error")
		assert.Equal(t, design, loaded)
	})

	t.Run("Save Replaces", func(t *testing.T) {
		design := &domain.SiteDesign{ID: designID, Title: "Renamed", WebTemplate: domain.WebTemplateTeamSite, SiteScriptIDs: []string{"first"}, Version: 3}
		require.NoError(t, store.Save(ctx, design))

		loaded, err := store.Load(ctx, designID)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", loaded.Title)
		assert.Equal(t, []string{"first"}, loaded.SiteScriptIDs)
		assert.False(t, loaded.IsDefault)
	})

	t.Run("Load Non-Existent", func(t *testing.T) {
		_, err := store.Load(ctx, "non-existent-"+designID)
		assert.ErrorIs(t, err, domain.ErrDesignNotFound)
	})

	t.Run("Delete", func(t *testing.T) {
		require.NoError(t, store.Delete(ctx, designID), "Delete should not return error")

		_, err := store.Load(ctx, designID)
		assert.ErrorIs(t, err, domain.ErrDesignNotFound, "Load after Delete should return ErrDesignNotFound")

		assert.NoError(t, store.Delete(ctx, designID), "Delete of a missing design should succeed")
	})

	t.Run("List", func(t *testing.T) {
		id1 := designID + "-1"
		id2 := designID + "-2"
		require.NoError(t, store.Save(ctx, &domain.SiteDesign{ID: id1, Title: "One", WebTemplate: domain.WebTemplateTeamSite, SiteScriptIDs: []string{}}))
		require.NoError(t, store.Save(ctx, &domain.SiteDesign{ID: id2, Title: "Two", WebTemplate: domain.WebTemplateTeamSite, SiteScriptIDs: []string{}}))

		defer func() {
			_ = store.Delete(ctx, id1)
			_ = store.Delete(ctx, id2)
		}()

		ids, err := store.List(ctx)
		require.NoError(t, err)
		assert.Contains(t, ids, id1)
		assert.Contains(t, ids, id2)
	})
}
