package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dyluth/moot/internal/config"
	"github.com/dyluth/moot/internal/printer"
	"github.com/dyluth/moot/internal/runtime"
)

var upInstanceName string

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start a moot instance",
	Long: `Start a new moot instance from moot.yml in the current directory.

Creates and starts:
  • Isolated Docker network
  • Session-bus container (Redis)
  • One model-runner container per configured model

The instance name is auto-generated (default-N) unless specified with --name.`,
	RunE: runUp,
}

func init() {
	upCmd.Flags().StringVar(&upInstanceName, "name", "", "Instance name (auto-generated if omitted)")
	rootCmd.AddCommand(upCmd)
}

func runUp(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load("moot.yml")
	if err != nil {
		return printer.Error(
			"moot.yml not found or invalid",
			err.Error(),
			[]string{"Initialize your project first: moot init"},
		)
	}

	cli, err := runtime.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	name := upInstanceName
	if name == "" {
		name, err = runtime.GenerateDefaultName(ctx, cli)
		if err != nil {
			return err
		}
	}

	printer.Step("Starting instance '%s'...\n", name)

	inst, err := runtime.Up(ctx, cli, cfg, name)
	if err != nil {
		return err
	}

	printer.Success("Instance '%s' started\n\n", inst.Name)
	printer.Info("  Bus port: %d\n", inst.BusPort)
	printer.Info("  Runners:  %v\n\n", inst.Runners)
	printer.Info("Run a tournament:\n")
	printer.Info("  moot run \"your design topic\" --name %s\n", inst.Name)

	return nil
}
