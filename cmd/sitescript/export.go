package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/aretw0/sitescript/pkg/domain"
	"github.com/aretw0/sitescript/pkg/export"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var exportCmd = &cobra.Command{
	Use:   "export <file>...",
	Short: "Build a deployment package for site scripts",
	Long: `Validates the scripts and writes a package: one JSON file per script and deploy.ps1,
which registers them with Add-SPOSiteScript. Each script is named after its file.

With --design, the design file (YAML or JSON) lists the scripts by file name in
siteScriptIds and deploy.ps1 also runs Add-SPOSiteDesign. Without it, exactly one script
is exported.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		designFile, _ := cmd.Flags().GetString("design")
		outDir, _ := cmd.Flags().GetString("output")
		if designFile == "" && len(args) > 1 {
			return fmt.Errorf("exporting %d scripts requires --design", len(args))
		}

		ed, err := newEditor()
		if err != nil {
			return err
		}

		scripts := make([]*domain.SiteScript, 0, len(args))
		for _, name := range args {
			data, err := readInput(name)
			if err != nil {
				return err
			}
			if err := ed.Validate(cmd.Context(), data); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
			id := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
			scripts = append(scripts, &domain.SiteScript{ID: id, Title: id, Version: 1, Content: json.RawMessage(data)})
		}

		var pkg *export.Package
		if designFile == "" {
			pkg, err = export.ForScript(scripts[0])
		} else {
			var design *domain.SiteDesign
			if design, err = readDesign(designFile); err != nil {
				return err
			}
			pkg, err = export.ForDesign(design, scripts)
		}
		if err != nil {
			return err
		}

		if err := pkg.WriteDir(outDir); err != nil {
			return err
		}
		logger.Debug("Package exported", "name", pkg.Name, "dir", outDir, "files", len(pkg.Files))
		for _, name := range pkg.FileNames() {
			fmt.Fprintln(cmd.OutOrStdout(), filepath.Join(outDir, name))
		}
		return nil
	},
}

// readDesign loads a design file. Omitted fields take the defaults of a new design; a
// design without an id is named after its file.
func readDesign(name string) (*domain.SiteDesign, error) {
	data, err := readInput(name)
	if err != nil {
		return nil, err
	}
	design := domain.NewSiteDesign("", "")
	design.ID = ""
	if err := yaml.Unmarshal(data, design); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrInvalidDesign, name, err)
	}
	if design.ID == "" {
		design.ID = strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	}
	if err := design.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return design, nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().String("design", "", "Site design file listing the scripts in order")
	exportCmd.Flags().StringP("output", "o", "export", "Directory to write the package to")
}
