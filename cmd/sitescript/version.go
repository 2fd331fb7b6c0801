package main

import (
	"fmt"
	"strings"

	"github.com/aretw0/sitescript"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of sitescript",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "sitescript version %s\n", strings.TrimSpace(sitescript.Version))
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
