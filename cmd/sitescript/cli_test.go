package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/sitescript/pkg/export"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args, resetting flags left over from earlier runs.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	reset := func(c *cobra.Command) {
		c.Flags().VisitAll(func(f *pflag.Flag) {
			_ = f.Value.Set(f.DefValue)
			f.Changed = false
		})
	}
	reset(rootCmd)
	for _, c := range rootCmd.Commands() {
		reset(c)
	}

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeScript(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "script.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestValidateCommand(t *testing.T) {
	good := writeScript(t, `{"actions":[{"verb":"setTitle","title":"Home"}]}`)
	out, err := execute(t, "validate", good)
	require.NoError(t, err)
	assert.Contains(t, out, "valid")

	bad := writeScript(t, `{"actions":[{"verb":"setTitle"}]}`)
	out, err = execute(t, "validate", bad)
	assert.ErrorIs(t, err, errInvalidScripts)
	assert.Contains(t, out, "invalid")
}

func TestFormatCommand(t *testing.T) {
	path := writeScript(t, `{"actions":[{"title":"Home","verb":"setTitle"}]}`)

	out, err := execute(t, "format", "--compact", path)
	require.NoError(t, err)
	assert.Equal(t, `{"actions":[{"title":"Home","verb":"setTitle"}]}`+"\n", out)

	out, err = execute(t, "format", path)
	require.NoError(t, err)
	assert.Contains(t, out, "\n    \"actions\"")

	_, err = execute(t, "format", "--write", path)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"verb": "setTitle"`)
}

func TestShowCommand(t *testing.T) {
	path := writeScript(t, `{"actions":[{"verb":"setTitle","title":"Home"}]}`)

	out, err := execute(t, "show", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Set site title")

	out, err = execute(t, "show", "--format", "mermaid", path)
	require.NoError(t, err)
	assert.Contains(t, out, "graph TD")

	_, err = execute(t, "show", "--format", "svg", path)
	assert.Error(t, err)
}

func TestVerbsCommand(t *testing.T) {
	out, err := execute(t, "verbs")
	require.NoError(t, err)
	assert.Contains(t, out, "`setTitle`")

	out, err = execute(t, "verbs", "createSPList")
	require.NoError(t, err)
	assert.Contains(t, out, "Subactions of createSPList")

	_, err = execute(t, "verbs", "nope")
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "sitescript version ")
}

func TestConfigFlag(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("store:\n  backend: nowhere\n"), 0644))

	_, err := execute(t, "--config", path, "version")
	assert.Error(t, err)
}

func TestExportCommand(t *testing.T) {
	dir := t.TempDir()
	lists := filepath.Join(dir, "lists.json")
	theme := filepath.Join(dir, "theme.json")
	require.NoError(t, os.WriteFile(lists, []byte(`{"actions":[{"verb":"setTitle","title":"Home"}]}`), 0644))
	require.NoError(t, os.WriteFile(theme, []byte(`{"actions":[]}`), 0644))
	design := filepath.Join(dir, "projects.yaml")
	require.NoError(t, os.WriteFile(design, []byte("title: Projects\nwebTemplate: \"68\"\nsiteScriptIds: [theme, lists]\n"), 0644))

	out := filepath.Join(dir, "pkg")
	stdout, err := execute(t, "export", "--design", design, "-o", out, lists, theme)
	require.NoError(t, err)
	assert.Contains(t, stdout, filepath.Join(out, "deploy.ps1"))

	deploy, err := os.ReadFile(filepath.Join(out, "deploy.ps1"))
	require.NoError(t, err)
	assert.Less(t, strings.Index(string(deploy), "-Title 'theme'"), strings.Index(string(deploy), "-Title 'lists'"))
	assert.Contains(t, string(deploy), "Add-SPOSiteDesign -Title 'Projects' -WebTemplate '68'")

	data, err := os.ReadFile(filepath.Join(out, "lists.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"verb": "setTitle"`)
}

func TestExportCommand_Errors(t *testing.T) {
	good := writeScript(t, `{"actions":[]}`)
	out := filepath.Join(t.TempDir(), "pkg")

	_, err := execute(t, "export", "-o", out, good, good)
	assert.ErrorContains(t, err, "requires --design")

	bad := writeScript(t, `{"actions":[{"verb":"setTitle"}]}`)
	_, err = execute(t, "export", "-o", out, bad)
	assert.Error(t, err)

	design := filepath.Join(t.TempDir(), "d.yaml")
	require.NoError(t, os.WriteFile(design, []byte("title: D\nsiteScriptIds: [absent]\n"), 0644))
	_, err = execute(t, "export", "--design", design, "-o", out, good)
	assert.ErrorIs(t, err, export.ErrMissingScript)
}
