package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dyluth/moot/internal/printer"
	"github.com/dyluth/moot/internal/runtime"
	"github.com/dyluth/moot/pkg/agentbus"
)

var watchInstanceName string

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch session activity on an instance",
	Long: `Stream session events from an instance's bus in real time.

Shows sessions being created, prompts going out, and responses arriving
while a tournament runs. Stop with Ctrl-C.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVar(&watchInstanceName, "name", "", "Target instance name (auto-inferred if exactly one is running)")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cli, err := runtime.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	instanceName, err := resolveInstanceName(ctx, cli, watchInstanceName)
	if err != nil {
		return err
	}

	busPort, err := runtime.FindBusPort(ctx, cli, instanceName)
	if err != nil {
		return err
	}

	bus, err := agentbus.NewClient(&redis.Options{Addr: runtime.BusAddr(busPort)}, instanceName)
	if err != nil {
		return err
	}
	defer bus.Close()

	subscription, err := bus.SubscribeSessionEvents(ctx)
	if err != nil {
		return err
	}
	defer subscription.Close()

	printer.Step("Watching instance '%s' (Ctrl-C to stop)...\n\n", instanceName)

	for {
		select {
		case <-ctx.Done():
			printer.Println()
			return nil

		case event, ok := <-subscription.Events():
			if !ok {
				return nil
			}
			printer.Printf("%-20s session=%s", event.Event, event.SessionID)
			for key, value := range event.Data {
				printer.Printf(" %s=%s", key, value)
			}
			printer.Println()

		case err, ok := <-subscription.Errors():
			if !ok {
				return nil
			}
			printer.Warning("subscription error: %v\n", err)
		}
	}
}
