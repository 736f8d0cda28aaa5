package main

import (
	"github.com/spf13/cobra"
)

var (
	flagConfig  string
	flagVerbose bool
)

var rootCmd = &cobra.Command{
	Use:   "forgectl",
	Short: "Forge platform client",
	Long: `forgectl generates Forge platform configuration documents through an
iterative, schema-validated synthesis session with a language-model backend.

Each document is written and validated in a loop until it conforms to its
JSON Schema or the iteration budget runs out. Partial results are always
written to disk, whatever the outcome.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to YAML config file")
	rootCmd.PersistentFlags().BoolVar(&flagVerbose, "verbose", false, "Enable debug logging to stderr")
	rootCmd.AddCommand(generateCmd)
}
