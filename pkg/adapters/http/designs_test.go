package http_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) createScript(t *testing.T, title string) string {
	t.Helper()
	w := h.do(t, "POST", "/scripts", `{"title":"`+title+`"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	return created.ID
}

type designView struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	WebTemplate   string   `json:"webTemplate"`
	SiteScriptIDs []string `json:"siteScriptIds"`
	Version       int      `json:"version"`
}

type packageView struct {
	Name  string `json:"name"`
	Files []struct {
		Name    string `json:"name"`
		Content string `json:"content"`
	} `json:"files"`
}

func TestServer_Designs(t *testing.T) {
	h := newHarness(t)
	lists := h.createScript(t, "Lists")
	theme := h.createScript(t, "Theme")

	w := h.do(t, "POST", "/designs", `{"id":"ignored","title":"Projects","siteScriptIds":["`+theme+`","`+lists+`"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created designView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEqual(t, "ignored", created.ID)
	assert.Equal(t, "64", created.WebTemplate, "new designs target team sites")
	assert.Equal(t, 1, created.Version)
	assert.Equal(t, []string{theme, lists}, created.SiteScriptIDs)

	w = h.do(t, "GET", "/designs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `["`+created.ID+`"]`, w.Body.String())

	w = h.do(t, "PUT", "/designs/"+created.ID, `{"webTemplate":"68","siteScriptIds":["`+lists+`","`+theme+`"]}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated designView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
	assert.Equal(t, "Projects", updated.Title, "fields absent from the body are kept")
	assert.Equal(t, "68", updated.WebTemplate)
	assert.Equal(t, []string{lists, theme}, updated.SiteScriptIDs)

	w = h.do(t, "GET", "/designs/"+created.ID+"/export", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pkg packageView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pkg))
	assert.Equal(t, "Projects", pkg.Name)
	require.Len(t, pkg.Files, 3)
	assert.Equal(t, "lists.json", pkg.Files[0].Name)
	assert.Equal(t, "theme.json", pkg.Files[1].Name)
	assert.Contains(t, pkg.Files[2].Content, "Add-SPOSiteDesign -Title 'Projects' -WebTemplate '68'")

	w = h.do(t, "DELETE", "/designs/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = h.do(t, "GET", "/designs/"+created.ID, "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = h.do(t, "GET", "/scripts/"+lists, "")
	assert.Equal(t, http.StatusOK, w.Code, "deleting a design keeps its scripts")
}

func TestServer_DesignErrors(t *testing.T) {
	h := newHarness(t)
	script := h.createScript(t, "Lists")

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"missing title", "POST", "/designs", `{"siteScriptIds":[]}`, http.StatusUnprocessableEntity},
		{"unknown template", "POST", "/designs", `{"title":"X","webTemplate":"1"}`, http.StatusUnprocessableEntity},
		{"missing script", "POST", "/designs", `{"title":"X","siteScriptIds":["absent"]}`, http.StatusUnprocessableEntity},
		{"duplicate script", "POST", "/designs", `{"title":"X","siteScriptIds":["` + script + `","` + script + `"]}`, http.StatusUnprocessableEntity},
		{"bad body", "POST", "/designs", `{`, http.StatusBadRequest},
		{"update missing", "PUT", "/designs/absent", `{"title":"X"}`, http.StatusNotFound},
		{"export missing", "GET", "/designs/absent/export", "", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := h.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, w.Code, w.Body.String())
		})
	}

	w := h.do(t, "GET", "/designs", "")
	assert.JSONEq(t, `[]`, w.Body.String(), "rejected designs are not stored")
}

func TestServer_ExportScript(t *testing.T) {
	h := newHarness(t)
	id := h.createScript(t, "Contoso Baseline")

	w := h.do(t, "GET", "/scripts/"+id+"/export", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var pkg packageView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &pkg))
	require.Len(t, pkg.Files, 2)
	assert.Equal(t, "contoso-baseline.json", pkg.Files[0].Name)
	assert.JSONEq(t, `{"actions":[]}`, pkg.Files[0].Content)
	assert.Equal(t, "deploy.ps1", pkg.Files[1].Name)

	w = h.do(t, "GET", "/scripts/absent/export", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}
