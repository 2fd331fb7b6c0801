package export_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/export"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newScript(id, title, content string) *domain.SiteScript {
	return &domain.SiteScript{ID: id, Title: title, Version: 1, Content: json.RawMessage(content)}
}

func TestForScript(t *testing.T) {
	script := newScript("s1", "Contoso Team Site", `{"actions":[{"title":"Contoso","verb":"setTitle"}]}`)
	script.Description = "Baseline"

	pkg, err := export.ForScript(script)
	require.NoError(t, err)

	assert.Equal(t, "Contoso Team Site", pkg.Name)
	assert.Equal(t, []string{"contoso-team-site.json", export.DeployScript}, pkg.FileNames())

	content, ok := pkg.FileContent("contoso-team-site.json")
	require.True(t, ok)
	assert.Equal(t, "{\n    \"actions\": [\n        {\n            \"verb\": \"setTitle\",\n            \"title\": \"Contoso\"\n        }\n    ]\n}", content)

	deploy, ok := pkg.FileContent(export.DeployScript)
	require.True(t, ok)
	assert.Contains(t, deploy, "Connect-SPOService -Url $AdminUrl")
	assert.Contains(t, deploy, "(Join-Path $PSScriptRoot 'contoso-team-site.json')")
	assert.Contains(t, deploy, "Add-SPOSiteScript -Title 'Contoso Team Site' -Description 'Baseline' -Content $content")
	assert.NotContains(t, deploy, "Add-SPOSiteDesign")

	_, ok = pkg.FileContent("missing.json")
	assert.False(t, ok)
}

func TestForScript_EmptyContent(t *testing.T) {
	pkg, err := export.ForScript(newScript("s1", "Empty", ""))
	require.NoError(t, err)

	content, ok := pkg.FileContent("empty.json")
	require.True(t, ok)
	assert.JSONEq(t, string(domain.EmptyContent), content)
}

func TestForScript_InvalidContent(t *testing.T) {
	_, err := export.ForScript(newScript("s1", "Broken", `{"actions":`))
	assert.ErrorIs(t, err, domain.ErrInvalidText)
}

func TestForDesign(t *testing.T) {
	first := newScript("id-first", "Lists", `{"actions":[]}`)
	second := newScript("id-second", "Theme", `{"actions":[{"verb":"applyTheme","themeName":"Blue"}]}`)

	design := domain.NewSiteDesign("Project Site", "For projects")
	design.WebTemplate = domain.WebTemplateCommunicationSite
	design.SiteScriptIDs = []string{"id-second", "id-first"}
	design.PreviewImageURL = "https://contoso.example/p.png"
	design.IsDefault = true

	pkg, err := export.ForDesign(design, []*domain.SiteScript{first, second})
	require.NoError(t, err)

	assert.Equal(t, "Project Site", pkg.Name)
	assert.Equal(t, []string{"theme.json", "lists.json", export.DeployScript}, pkg.FileNames(), "scripts follow design order")

	deploy, _ := pkg.FileContent(export.DeployScript)
	theme := strings.Index(deploy, "-Title 'Theme'")
	lists := strings.Index(deploy, "-Title 'Lists'")
	require.True(t, theme >= 0 && lists >= 0)
	assert.Less(t, theme, lists)
	assert.Contains(t, deploy, "Add-SPOSiteDesign -Title 'Project Site' -WebTemplate '68' -SiteScripts $siteScriptIds -Description 'For projects' -PreviewImageUrl 'https://contoso.example/p.png' -IsDefault\n")
	assert.NotContains(t, deploy, "-PreviewImageAltText")
}

func TestForDesign_MissingScript(t *testing.T) {
	design := domain.NewSiteDesign("Project Site", "")
	design.SiteScriptIDs = []string{"absent"}

	_, err := export.ForDesign(design, nil)
	assert.ErrorIs(t, err, export.ErrMissingScript)
}

func TestFileNames(t *testing.T) {
	scripts := []*domain.SiteScript{
		newScript("a", "Site: Setup!", `{"actions":[]}`),
		newScript("b", "site setup", `{"actions":[]}`),
		newScript("c/../d", "***", `{"actions":[]}`),
	}
	design := domain.NewSiteDesign("Names", "")
	design.SiteScriptIDs = []string{"a", "b", "c/../d"}

	pkg, err := export.ForDesign(design, scripts)
	require.NoError(t, err)
	assert.Equal(t, []string{"site-setup.json", "site-setup-2.json", "c----d.json", export.DeployScript}, pkg.FileNames())
}

func TestQuoting(t *testing.T) {
	pkg, err := export.ForScript(newScript("s1", "O'Brien’s site", `{"actions":[]}`))
	require.NoError(t, err)

	deploy, _ := pkg.FileContent(export.DeployScript)
	assert.Contains(t, deploy, "-Title 'O''Brien’’s site'")
}

func TestWriteDir(t *testing.T) {
	pkg, err := export.ForScript(newScript("s1", "Contoso", `{"actions":[]}`))
	require.NoError(t, err)

	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, pkg.WriteDir(dir))

	for _, name := range pkg.FileNames() {
		data, err := os.ReadFile(filepath.Join(dir, name))
		require.NoError(t, err)
		want, _ := pkg.FileContent(name)
		assert.Equal(t, want, string(data))
	}
}
