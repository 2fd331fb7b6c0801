package mcp

import (
	"context"
	"testing"

	"github.com/aretw0/sitescript/pkg/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	gate, err := schema.NewGate(schema.DefaultCatalog())
	require.NoError(t, err)
	return NewServer(gate)
}

func TestValidateScript(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	resp, err := s.handleValidate(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"text": `{"actions":[{"verb":"setTitle","title":"Contoso"}]}`,
	})
	require.NoError(t, err)
	assert.True(t, resp.Valid)
	assert.Equal(t, 1, resp.Actions)
	assert.Equal(t, `{"actions":[{"title":"Contoso","verb":"setTitle"}]}`, resp.Fingerprint)

	resp, err = s.handleValidate(ctx, mcp.CallToolRequest{}, map[string]interface{}{
		"text": `{"actions":[{"verb":"setTitle","title":42}]}`,
	})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	require.Len(t, resp.Errors, 1)
	assert.Contains(t, resp.Errors[0], "actions[0].title")

	resp, err = s.handleValidate(ctx, mcp.CallToolRequest{}, map[string]interface{}{"text": `{"actions":`})
	require.NoError(t, err)
	assert.False(t, resp.Valid)
	assert.NotEmpty(t, resp.Errors)
}

func TestFormatScript(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()
	text := `{"actions":[{"title":"A","verb":"setTitle"}]}`

	resp, err := s.handleFormat(ctx, mcp.CallToolRequest{}, map[string]interface{}{"text": text})
	require.NoError(t, err)
	assert.Equal(t, "{\n    \"actions\": [\n        {\n            \"verb\": \"setTitle\",\n            \"title\": \"A\"\n        }\n    ]\n}", resp.Text)

	resp, err = s.handleFormat(ctx, mcp.CallToolRequest{}, map[string]interface{}{"text": resp.Text, "compact": true})
	require.NoError(t, err)
	assert.Equal(t, text, resp.Text)

	_, err = s.handleFormat(ctx, mcp.CallToolRequest{}, map[string]interface{}{"text": "nope"})
	assert.Error(t, err)
}

func TestListVerbs(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	res, err := s.handleListVerbs(ctx, mcp.CallToolRequest{})
	require.NoError(t, err)
	require.False(t, res.IsError)
	assert.Contains(t, resultText(t, res), `"verb":"createSPList"`)

	req := mcp.CallToolRequest{}
	req.Params.Arguments = map[string]any{"parent": "createSPList"}
	res, err = s.handleListVerbs(ctx, req)
	require.NoError(t, err)
	assert.Contains(t, resultText(t, res), `"verb":"addSPView"`)
	assert.NotContains(t, resultText(t, res), `"verb":"createSPList"`)

	req.Params.Arguments = map[string]any{"parent": "noSuchVerb"}
	res, err = s.handleListVerbs(ctx, req)
	require.NoError(t, err)
	assert.True(t, res.IsError)
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content, got %T", res.Content[0])
	return text.Text
}
