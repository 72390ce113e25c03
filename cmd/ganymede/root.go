package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "ganymede",
	Short: "Ganymede - AI provider usage and billing monitor",
	Long: `Ganymede is an open-source monitor that aggregates account, usage, and
cost data across AI provider billing APIs.

It polls the configured providers in the background and exposes the
aggregated views over HTTP, providing:
  - Multi-provider account and usage aggregation (OpenAI, Anthropic, etc.)
  - Per-provider rate limiting against upstream billing APIs
  - Snapshot caching with stale-data fallback
  - Cost calculation and monthly budget tracking
  - Usage history with scheduled retention pruning

For more information, visit: https://github.com/mercator-hq/ganymede`,
	Version: Version,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Disable default completion command (we'll add our own)
	rootCmd.CompletionOptions.DisableDefaultCmd = false
}
