package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/sitescript/internal/presentation/tui"
	"github.com/aretw0/sitescript/pkg/schema"
	"github.com/spf13/cobra"
)

var verbsCmd = &cobra.Command{
	Use:   "verbs [parent]",
	Short: "List the verbs of the catalog",
	Long:  `Lists the root verbs of the catalog, or the subactions a composite verb accepts.`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, err := newEditor()
		if err != nil {
			return err
		}
		catalog := ed.Catalog()

		heading := "Verbs"
		verbs := catalog.Verbs()
		if len(args) == 1 {
			if _, ok := catalog.SchemaFor(args[0]); !ok {
				return fmt.Errorf("%w: %q", schema.ErrUnknownVerb, args[0])
			}
			heading = "Subactions of " + args[0]
			verbs = catalog.SubactionsOf(args[0])
		}

		md := verbsMarkdown(heading, verbs)
		out := cmd.OutOrStdout()
		if out == os.Stdout && tui.IsTerminal(os.Stdout) {
			if rendered, err := tui.NewRenderer()(md); err == nil {
				md = rendered
			}
		}
		fmt.Fprint(out, md)
		return nil
	},
}

func verbsMarkdown(heading string, verbs []schema.VerbSchema) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "# %s\n\n", heading)
	for _, v := range verbs {
		fmt.Fprintf(&sb, "- **%s** `%s`", v.Label, v.Verb)
		if required := v.RequiredProperties(); len(required) > 0 {
			fmt.Fprintf(&sb, " (requires %s)", strings.Join(required, ", "))
		}
		if v.AllowsChildren() {
			fmt.Fprintf(&sb, " [%d subactions]", len(v.Subactions))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func init() {
	rootCmd.AddCommand(verbsCmd)
}
