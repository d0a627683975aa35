package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "moot",
	Short: "Moot - AI design tournament orchestrator",
	Long: `Moot pits multiple AI models against each other on a single design
task: each generator model produces a proposal in isolation, reviewer models
critique and score every proposal, and moot aggregates the scores into a
ranked verdict.

All artifacts of a tournament (designs, reviews, scores, the final ranking)
are persisted per run for auditability.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}
