package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/dyluth/moot/internal/printer"
	"github.com/dyluth/moot/internal/resolver"
	"github.com/dyluth/moot/internal/runstore"
)

var showOutputDir string

var showCmd = &cobra.Command{
	Use:   "show [run-name]",
	Short: "Show the ranking of a tournament run",
	Long: `Show the final ranking of a completed run.

Accepts a full run name or a unique prefix ("2026-08-30", a topic slug
fragment). Without an argument the most recent run is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runShow,
}

func init() {
	showCmd.Flags().StringVar(&showOutputDir, "output", "", "Override the run output directory")
	rootCmd.AddCommand(showCmd)
}

func runShow(cmd *cobra.Command, args []string) error {
	store := runstore.NewStore(outputDir(showOutputDir))

	names, err := store.ListRuns()
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return printer.Error(
			"no runs found",
			"There are no completed runs to show.",
			[]string{"Start one with: moot run \"your design topic\""},
		)
	}

	name := names[0]
	if len(args) == 1 {
		name, err = resolver.ResolveRunName(names, args[0])
		if err != nil {
			var ambiguousErr *resolver.AmbiguousError
			if errors.As(err, &ambiguousErr) {
				return printer.Error(
					"ambiguous run name",
					resolver.FormatAmbiguousError(ambiguousErr),
					nil,
				)
			}
			return err
		}
	}

	run, err := store.OpenRun(name)
	if err != nil {
		return err
	}

	entries, err := run.LoadRanking()
	if err != nil {
		return printer.Error(
			"run has no ranking",
			err.Error(),
			[]string{"The run may have failed before ranking; check its results directory"},
		)
	}

	printer.Header("Run %s", run.Name)
	for _, entry := range entries {
		printer.Printf("%d. %s (%.2f overall, %s consensus, by %s)\n",
			entry.Rank, entry.DesignID, entry.Overall, entry.Consensus, entry.GeneratedBy)
		for _, score := range entry.Scores {
			printer.Printf("   %-14s %6.2f  variance %.2f\n", score.Name, score.Value, score.Variance)
		}
		for _, strength := range entry.Summary.CommonStrengths {
			printer.Printf("   + %s\n", strength)
		}
		for _, weakness := range entry.Summary.CommonWeaknesses {
			printer.Printf("   - %s\n", weakness)
		}
		printer.Println()
	}

	return nil
}
