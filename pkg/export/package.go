package export

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"unicode"

	"github.com/aretw0/sitescript/pkg/codec"
	"github.com/aretw0/sitescript/pkg/domain"
)

// DeployScript is the name of the PowerShell file of every package.
const DeployScript = "deploy.ps1"

// ErrMissingScript is returned when a design references a script that was not supplied.
var ErrMissingScript = errors.New("design references a missing site script")

// File is one file of a package.
type File struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// Package is an ordered set of files ready to be written out or served.
type Package struct {
	Name  string `json:"name"`
	Files []File `json:"files"`
}

// FileNames lists the files in package order.
func (p *Package) FileNames() []string {
	names := make([]string, len(p.Files))
	for i, f := range p.Files {
		names[i] = f.Name
	}
	return names
}

// FileContent returns the content of the named file.
func (p *Package) FileContent(name string) (string, bool) {
	for _, f := range p.Files {
		if f.Name == name {
			return f.Content, true
		}
	}
	return "", false
}

// WriteDir writes every file into dir, creating it if needed.
func (p *Package) WriteDir(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create package directory: %w", err)
	}
	for _, f := range p.Files {
		if err := os.WriteFile(filepath.Join(dir, f.Name), []byte(f.Content), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", f.Name, err)
		}
	}
	return nil
}

type scriptEntry struct {
	File   string
	Script *domain.SiteScript
}

type deployData struct {
	Scripts []scriptEntry
	Design  *domain.SiteDesign
}

// ForScript packages a single script.
func ForScript(script *domain.SiteScript) (*Package, error) {
	return build(packageName(script.Title, script.ID), []*domain.SiteScript{script}, nil)
}

// ForDesign packages a design with its scripts. scripts may come in any order; the deploy
// script registers them in the order the design lists them.
func ForDesign(design *domain.SiteDesign, scripts []*domain.SiteScript) (*Package, error) {
	byID := make(map[string]*domain.SiteScript, len(scripts))
	for _, s := range scripts {
		byID[s.ID] = s
	}
	ordered := make([]*domain.SiteScript, 0, len(design.SiteScriptIDs))
	for _, id := range design.SiteScriptIDs {
		s, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingScript, id)
		}
		ordered = append(ordered, s)
	}
	return build(packageName(design.Title, design.ID), ordered, design)
}

func build(name string, scripts []*domain.SiteScript, design *domain.SiteDesign) (*Package, error) {
	pkg := &Package{Name: name}
	data := deployData{Design: design}
	used := map[string]bool{DeployScript: true}

	for _, s := range scripts {
		content, err := displayContent(s)
		if err != nil {
			return nil, fmt.Errorf("failed to export %s: %w", s.ID, err)
		}
		fileName := uniqueName(slug(s.Title, s.ID), used)
		pkg.Files = append(pkg.Files, File{Name: fileName, Content: string(content)})
		data.Scripts = append(data.Scripts, scriptEntry{File: fileName, Script: s})
	}

	var deploy bytes.Buffer
	if err := deployTemplate.Execute(&deploy, data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", DeployScript, err)
	}
	pkg.Files = append(pkg.Files, File{Name: DeployScript, Content: deploy.String()})
	return pkg, nil
}

// displayContent re-renders stored content in the indented display form.
func displayContent(s *domain.SiteScript) ([]byte, error) {
	raw := []byte(s.Content)
	if len(bytes.TrimSpace(raw)) == 0 {
		raw = domain.EmptyContent
	}
	doc, err := codec.Decode(raw)
	if err != nil {
		return nil, err
	}
	return codec.Encode(doc)
}

func packageName(title, id string) string {
	if strings.TrimSpace(title) != "" {
		return strings.TrimSpace(title)
	}
	return id
}

// slug turns a title into a file name, falling back to the ID when nothing is left.
func slug(title, id string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)):
			b.WriteRune(r)
			dash = false
		case b.Len() > 0 && !dash:
			b.WriteByte('-')
			dash = true
		}
	}
	name := strings.TrimSuffix(b.String(), "-")
	if name == "" {
		name = strings.Map(func(r rune) rune {
			if r == '/' || r == '\\' || r == '.' {
				return '-'
			}
			return r
		}, id)
	}
	return name
}

func uniqueName(base string, used map[string]bool) string {
	name := base + ".json"
	for n := 2; used[name]; n++ {
		name = base + "-" + strconv.Itoa(n) + ".json"
	}
	used[name] = true
	return name
}

// quote renders s as a single-quoted PowerShell literal. PowerShell accepts the typographic
// single quotes as delimiters too, so they are doubled as well.
func quote(s string) string {
	var b strings.Builder
	b.WriteByte('\'')
	for _, r := range s {
		switch r {
		case '\'', '‘', '’', '‚', '‛':
			b.WriteRune(r)
		}
		b.WriteRune(r)
	}
	b.WriteByte('\'')
	return b.String()
}

var deployTemplate = template.Must(template.New(DeployScript).Funcs(template.FuncMap{
	"quote": quote,
}).Parse(`param(
    [Parameter(Mandatory = $true)]
    [string]$AdminUrl
)

$ErrorActionPreference = 'Stop'
Connect-SPOService -Url $AdminUrl

$siteScriptIds = @()
{{- range .Scripts}}

$content = Get-Content -Path (Join-Path $PSScriptRoot {{quote .File}}) -Raw
$siteScript = Add-SPOSiteScript -Title {{quote .Script.Title}} -Description {{quote .Script.Description}} -Content $content
$siteScriptIds += $siteScript.Id
{{- end}}
{{- with .Design}}

Add-SPOSiteDesign -Title {{quote .Title}} -WebTemplate {{quote .WebTemplate}} -SiteScripts $siteScriptIds -Description {{quote .Description}}
{{- if .PreviewImageURL}} -PreviewImageUrl {{quote .PreviewImageURL}}{{end}}
{{- if .PreviewImageAltText}} -PreviewImageAltText {{quote .PreviewImageAltText}}{{end}}
{{- if .IsDefault}} -IsDefault{{end}}
{{- end}}
`))
