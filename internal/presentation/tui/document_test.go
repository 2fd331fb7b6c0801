package tui_test

import (
	"testing"

	"github.com/aretw0/sitescript/internal/presentation/tui"
	"github.com/aretw0/sitescript/pkg/codec"
	"github.com/aretw0/sitescript/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocumentMarkdown(t *testing.T) {
	doc, err := codec.Decode([]byte(`{"actions":[
		{"verb":"setTitle","title":"Contoso_Home"},
		{"verb":"createSPList","listName":"Docs","templateType":101,"subactions":[
			{"verb":"addSPField","fieldType":"Text","displayName":"Owner"}
		]}
	]}`))
	require.NoError(t, err)

	out := tui.DocumentMarkdown("Baseline", doc, schema.DefaultCatalog())

	assert.Contains(t, out, "# Baseline\n")
	assert.Contains(t, out, "1. **Set site title** `setTitle`\n")
	assert.Contains(t, out, `Contoso\_Home`)
	assert.Contains(t, out, "2. **Create a list** `createSPList`\n")
	assert.Contains(t, out, "   1. **Add a field** `addSPField`\n")
}

func TestDocumentMarkdown_Empty(t *testing.T) {
	doc, err := codec.Decode([]byte(`{"actions":[]}`))
	require.NoError(t, err)

	out := tui.DocumentMarkdown("", doc, schema.DefaultCatalog())
	assert.Equal(t, "# Site script\n\n_No actions._\n", out)
}

func TestNewRenderer(t *testing.T) {
	render := tui.NewRenderer()
	out, err := render("# Title")
	require.NoError(t, err)
	assert.Contains(t, out, "Title")
}
