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
	Use:   "apcore",
	Short: "Apcore - declarative admission-scheduling engine",
	Long: `Apcore is a declarative rule evaluation and admission-scheduling
engine for game subsystems.

Subsystems propose rule invocations instead of mutating state directly:
  - Predicates are evaluated against an immutable world snapshot
  - A conflict-free batch is admitted per tick by priority and footprint
  - Typed effects are applied through a pure transition kernel
  - Declared invariants are checked; violations roll the whole tick back
  - Committed invocations are appended to a replayable event log`,
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
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "config.yaml", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
