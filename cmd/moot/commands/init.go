package commands

import (
	"github.com/spf13/cobra"

	"github.com/dyluth/moot/internal/printer"
	"github.com/dyluth/moot/internal/scaffold"
)

var forceInit bool

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new moot project",
	Long: `Initialize a new moot project with a starter configuration.

Creates:
  • moot.yml - Tournament configuration (generators, reviewers, criteria)

Use --force to reinitialize an existing project (WARNING: overwrites existing configuration).`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Force reinitialization (removes existing moot.yml)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	if !forceInit {
		if err := scaffold.CheckExisting(); err != nil {
			return err
		}
	}

	if err := scaffold.Initialize(forceInit); err != nil {
		return err
	}

	printer.Success("Created moot.yml\n\n")
	printer.Info("Next steps:\n")
	printer.Info("  1. Edit moot.yml to configure your models and criteria\n")
	printer.Info("  2. Start an instance:  moot up\n")
	printer.Info("  3. Run a tournament:   moot run \"your design topic\"\n")

	return nil
}
