package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "deli-provider",
		Short: "Deli provider - deterministic sandwich-shop resource engine",
		Long: `The deli provider computes prices, costs, and stable identifiers for
sandwich-shop resources under a declarative orchestrator.

Resource kinds:
  - Priced leaves: bread, meat, drink, side
  - Fixtures: oven, cook, tables, chairs, fridge
  - Composites: sandwich, bag, store
  - Data sources: menu

The dev subcommands (apply, drift, destroy) run plans against a local
SQLite-backed harness, standing in for a full orchestrator.`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	// Add subcommands
	rootCmd.AddCommand(newManifestCommand(version))
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newMenuCommand())
	rootCmd.AddCommand(newApplyCommand())
	rootCmd.AddCommand(newDriftCommand())
	rootCmd.AddCommand(newDestroyCommand())

	return rootCmd
}
