package commands

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/dyluth/moot/internal/config"
	"github.com/dyluth/moot/internal/orchestrator"
	"github.com/dyluth/moot/internal/printer"
	"github.com/dyluth/moot/internal/runstore"
	"github.com/dyluth/moot/internal/runtime"
	"github.com/dyluth/moot/pkg/agentbus"
)

var (
	runInstanceName string
	runBrief        string
	runConfigPath   string
)

var runCmd = &cobra.Command{
	Use:   "run <topic>",
	Short: "Run a design tournament",
	Long: `Run a full design tournament for one topic.

Each configured generator produces a design proposal in its own isolated
workspace; each reviewer then critiques and scores every proposal. Scores
are aggregated per criterion, combined into an overall score, and the
candidates are ranked.

All artifacts are persisted under a new run directory named
{date}-{topic-slug}; an existing directory for the same run is a fatal
conflict, never merged into.`,
	Args: cobra.ExactArgs(1),
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVar(&runInstanceName, "name", "", "Target instance name (auto-inferred if exactly one is running)")
	runCmd.Flags().StringVar(&runBrief, "brief", "", "Extra context handed to every generator")
	runCmd.Flags().StringVar(&runConfigPath, "config", "moot.yml", "Path to the tournament configuration")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	topic := args[0]

	// Ctrl-C propagates as cooperative cancellation through the poll loops
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(runConfigPath)
	if err != nil {
		return printer.Error(
			"configuration not found or invalid",
			err.Error(),
			[]string{"Initialize your project first: moot init"},
		)
	}

	cli, err := runtime.NewClient(ctx)
	if err != nil {
		return err
	}
	defer cli.Close()

	instanceName, err := resolveInstanceName(ctx, cli, runInstanceName)
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
	bus.SetSendTimeout(cfg.SendTimeout())

	store := runstore.NewStore(cfg.OutputDir())
	engine := orchestrator.NewEngine(bus, store, cfg)

	printer.Step("Running tournament '%s' on instance '%s'...\n\n", topic, instanceName)

	result, err := engine.Run(ctx, topic, runBrief)
	if err != nil {
		var dupErr *runstore.DuplicateRunError
		if errors.As(err, &dupErr) {
			return printer.Error(
				"run directory already exists",
				dupErr.Path,
				[]string{
					"Remove the existing run directory",
					"Change the topic so the run gets a new name",
				},
			)
		}
		return err
	}

	printResult(result)
	return nil
}

func printResult(result *orchestrator.Result) {
	if len(result.Entries) == 0 {
		printer.Warning("No designs were successfully scored\n\n")
	} else {
		printer.Header("Ranking")
		for _, entry := range result.Entries {
			printer.Printf("  %d. %-12s %6.2f  (%s consensus, by %s)\n",
				entry.Rank, entry.DesignID, entry.Overall, entry.Consensus, entry.GeneratedBy)
		}
		printer.Println()
	}

	for _, failure := range result.Failures {
		printer.Warning("%s failed during %s: %s\n", failure.Model, failure.Phase, failure.Message)
	}
	if len(result.Failures) > 0 {
		printer.Println()
	}

	printer.Success("Artifacts written to %s\n", result.Run.Path)
}
