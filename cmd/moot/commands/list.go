package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dyluth/moot/internal/config"
	"github.com/dyluth/moot/internal/printer"
	"github.com/dyluth/moot/internal/runstore"
)

var (
	listJSON      bool
	listOutputDir string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List completed tournament runs",
	Long: `List all tournament runs in the output directory, newest first.

The output directory is read from moot.yml when present, falling back to
the default. Use --json for machine-readable output.`,
	RunE: runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	listCmd.Flags().StringVar(&listOutputDir, "output", "", "Override the run output directory")
	rootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	store := runstore.NewStore(outputDir(listOutputDir))

	names, err := store.ListRuns()
	if err != nil {
		return err
	}

	if listJSON {
		data, err := json.MarshalIndent(names, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal run list: %w", err)
		}
		printer.Println(string(data))
		return nil
	}

	if len(names) == 0 {
		printer.Info("No runs found. Start one with: moot run \"your design topic\"\n")
		return nil
	}

	for _, name := range names {
		printer.Println(name)
	}
	return nil
}

// outputDir resolves the run directory: explicit flag, then moot.yml, then
// the built-in default. A missing or invalid moot.yml is not an error here;
// listing runs must work outside a configured project.
func outputDir(override string) string {
	if override != "" {
		return override
	}
	if cfg, err := config.Load("moot.yml"); err == nil {
		return cfg.OutputDir()
	}
	return config.DefaultOutputDir
}
