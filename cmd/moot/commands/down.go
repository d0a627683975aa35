package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/dyluth/moot/internal/printer"
	"github.com/dyluth/moot/internal/runtime"
)

var downInstanceName string

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Stop a moot instance",
	Long: `Stop a moot instance and remove its containers and network.

Run artifacts on disk are not touched.`,
	RunE: runDown,
}

func init() {
	downCmd.Flags().StringVar(&downInstanceName, "name", "", "Instance name (auto-inferred if exactly one is running)")
	rootCmd.AddCommand(downCmd)
}

func runDown(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cli, err := runtime.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	name, err := resolveInstanceName(ctx, cli, downInstanceName)
	if err != nil {
		return err
	}

	printer.Step("Stopping instance '%s'...\n", name)
	if err := runtime.Down(ctx, cli, name); err != nil {
		return err
	}

	printer.Success("Instance '%s' stopped\n", name)
	return nil
}
