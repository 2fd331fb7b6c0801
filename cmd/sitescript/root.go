package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aretw0/sitescript/internal/config"
	"github.com/aretw0/sitescript/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfg    config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "sitescript",
	Short: "sitescript validates, formats and edits site scripts",
	Long: `sitescript works with site scripts: JSON documents holding an ordered tree of
verb actions. It validates them against a verb catalog, re-emits them in canonical form,
and serves an editing API where structured and raw-text edits stay in sync.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("log-level") {
			loaded.LogLevel, _ = cmd.Flags().GetString("log-level")
			if err := loaded.Validate(); err != nil {
				return err
			}
		}
		cfg = loaded
		logger = logging.New(cfg.Level())
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn or error")
}
