package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/sitescript/internal/presentation/graph"
	"github.com/aretw0/sitescript/internal/presentation/tui"
	"github.com/spf13/cobra"
)

var showCmd = &cobra.Command{
	Use:   "show <file>",
	Short: "Display the action tree of a site script",
	Long: `Prints the actions of a script with their catalog labels and property summaries.
Markdown output is rendered for the terminal when stdout is one. --format mermaid exports
a Mermaid flowchart instead.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		all, _ := cmd.Flags().GetBool("all")

		ed, err := newEditor()
		if err != nil {
			return err
		}
		data, err := readInput(args[0])
		if err != nil {
			return err
		}
		doc, err := ed.Decode(data)
		if err != nil {
			return err
		}
		if all {
			for _, id := range doc.Identities() {
				if doc, err = doc.ToggleEditing(id); err != nil {
					return err
				}
			}
		}

		out := cmd.OutOrStdout()
		switch format {
		case "mermaid":
			fmt.Fprint(out, graph.GenerateMermaid(doc, nil))
		case "markdown":
			title := strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
			md := tui.DocumentMarkdown(title, doc, ed.Catalog())
			if out == os.Stdout && tui.IsTerminal(os.Stdout) {
				if rendered, err := tui.NewRenderer()(md); err == nil {
					md = rendered
				}
			}
			fmt.Fprint(out, md)
		default:
			return fmt.Errorf("unknown format %q: supported markdown, mermaid", format)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().String("format", "markdown", "Output format: markdown or mermaid")
	showCmd.Flags().Bool("all", false, "Show every property instead of the collapsed summary")
}
