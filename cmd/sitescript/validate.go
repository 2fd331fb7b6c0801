package main

import (
	"errors"
	"fmt"

	"github.com/aretw0/sitescript/pkg/schema"
	"github.com/spf13/cobra"
)

var errInvalidScripts = errors.New("validation failed")

var validateCmd = &cobra.Command{
	Use:   "validate <file>...",
	Short: "Check site scripts against the verb catalog",
	Long:  `Validates each file (or "-" for stdin) and reports every invalid field.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ed, err := newEditor()
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		failed := 0
		for _, name := range args {
			data, err := readInput(name)
			if err != nil {
				return err
			}
			if err := ed.Validate(cmd.Context(), data); err != nil {
				failed++
				fmt.Fprintf(out, "%s: invalid\n", name)
				fields := schema.ValidationErrors(err)
				if len(fields) == 0 {
					fmt.Fprintf(out, "  - %v\n", err)
				}
				for _, fe := range fields {
					fmt.Fprintf(out, "  - %v\n", fe)
				}
				continue
			}
			fmt.Fprintf(out, "%s: valid ✅\n", name)
		}
		if failed > 0 {
			return fmt.Errorf("%w: %d of %d scripts", errInvalidScripts, failed, len(args))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(validateCmd)
}
