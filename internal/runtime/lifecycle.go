package runtime

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/docker/docker/api/types"
	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
	"github.com/docker/go-connections/nat"

	"github.com/dyluth/moot/internal/config"
)

const busImage = "redis:7-alpine"

// Instance describes one running moot instance discovered from Docker.
type Instance struct {
	Name    string
	RunID   string
	BusPort int
	Runners []string
}

// Up creates the network, session-bus container, and one runner container
// per configured model. On any failure the partially-created resources are
// rolled back before returning.
func Up(ctx context.Context, cli *client.Client, cfg *config.MootConfig, instanceName string) (*Instance, error) {
	if err := ValidateName(instanceName); err != nil {
		return nil, err
	}

	collision, err := CheckNameCollision(ctx, cli, instanceName)
	if err != nil {
		return nil, err
	}
	if collision {
		return nil, fmt.Errorf(`instance '%s' already exists

Either:
  1. Stop the existing instance: moot down --name %s
  2. Choose a different name: moot up --name other-name`, instanceName, instanceName)
	}

	runID := GenerateRunID()
	inst, err := createInstance(ctx, cli, cfg, instanceName, runID)
	if err != nil {
		if rollbackErr := Down(ctx, cli, instanceName); rollbackErr != nil {
			return nil, fmt.Errorf("%w (rollback also failed: %v)", err, rollbackErr)
		}
		return nil, err
	}
	return inst, nil
}

func createInstance(ctx context.Context, cli *client.Client, cfg *config.MootConfig, instanceName, runID string) (*Instance, error) {
	busPort, err := FindNextAvailablePort(ctx, cli)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate bus port: %w", err)
	}

	networkName := NetworkName(instanceName)
	_, err = cli.NetworkCreate(ctx, networkName, types.NetworkCreate{
		Driver: "bridge",
		Labels: BuildLabels(instanceName, runID, ""),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create network '%s': %w", networkName, err)
	}

	// Session bus: a Redis container with its host port recorded as a label
	busName := BusContainerName(instanceName)
	busLabels := BuildLabels(instanceName, runID, ComponentBus)
	busLabels[LabelBusPort] = strconv.Itoa(busPort)

	busResp, err := cli.ContainerCreate(ctx, &container.Config{
		Image:  busImage,
		Labels: busLabels,
		ExposedPorts: nat.PortSet{
			"6379/tcp": struct{}{},
		},
	}, &container.HostConfig{
		NetworkMode: container.NetworkMode(networkName),
		PortBindings: nat.PortMap{
			"6379/tcp": []nat.PortBinding{
				{
					HostIP:   "127.0.0.1",
					HostPort: strconv.Itoa(busPort),
				},
			},
		},
	}, nil, nil, busName)
	if err != nil {
		return nil, fmt.Errorf("failed to create bus container: %w", err)
	}

	if err := cli.ContainerStart(ctx, busResp.ID, container.StartOptions{}); err != nil {
		return nil, fmt.Errorf("failed to start bus container: %w", err)
	}

	// One runner container per distinct model entry. Runners reach the bus
	// over the instance network by container name (Docker DNS).
	busURL := fmt.Sprintf("redis://%s:6379", busName)
	runners := runnerEntries(cfg)

	for _, entry := range runners {
		runnerName := RunnerContainerName(instanceName, entry.name)
		runnerLabels := BuildLabels(instanceName, runID, ComponentRunner)
		runnerLabels[LabelRunnerName] = entry.name
		runnerLabels[LabelRunnerModel] = entry.model.Model

		env := append([]string{
			fmt.Sprintf("MOOT_INSTANCE_NAME=%s", instanceName),
			fmt.Sprintf("MOOT_RUNNER_NAME=%s", entry.name),
			fmt.Sprintf("MOOT_MODEL=%s", entry.model.Model),
			fmt.Sprintf("MOOT_BUS_URL=%s", busURL),
		}, entry.model.Environment...)

		resp, err := cli.ContainerCreate(ctx, &container.Config{
			Image:  entry.model.Image,
			Labels: runnerLabels,
			Env:    env,
		}, &container.HostConfig{
			NetworkMode: container.NetworkMode(networkName),
		}, nil, nil, runnerName)
		if err != nil {
			return nil, fmt.Errorf("failed to create runner container '%s': %w", runnerName, err)
		}

		if err := cli.ContainerStart(ctx, resp.ID, container.StartOptions{}); err != nil {
			return nil, fmt.Errorf("failed to start runner container '%s': %w", runnerName, err)
		}
	}

	names := make([]string, len(runners))
	for i, entry := range runners {
		names[i] = entry.name
	}

	return &Instance{Name: instanceName, RunID: runID, BusPort: busPort, Runners: names}, nil
}

type runnerEntry struct {
	name  string
	model config.Model
}

// runnerEntries merges generators and reviewers into one deduplicated,
// deterministically-ordered runner list. A name used in both roles gets a
// single runner.
func runnerEntries(cfg *config.MootConfig) []runnerEntry {
	merged := make(map[string]config.Model)
	for name, model := range cfg.Generators {
		merged[name] = model
	}
	for name, model := range cfg.Reviewers {
		if _, ok := merged[name]; !ok {
			merged[name] = model
		}
	}

	names := make([]string, 0, len(merged))
	for name := range merged {
		names = append(names, name)
	}
	sort.Strings(names)

	entries := make([]runnerEntry, len(names))
	for i, name := range names {
		entries[i] = runnerEntry{name: name, model: merged[name]}
	}
	return entries
}

// Down stops and removes all containers and the network of an instance.
// Safe to call on a partially-created or already-removed instance.
func Down(ctx context.Context, cli *client.Client, instanceName string) error {
	timeout := 10

	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", fmt.Sprintf("%s=%s", LabelInstanceName, instanceName)),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to list containers: %w", err)
	}

	for _, c := range containers {
		_ = cli.ContainerStop(ctx, c.ID, container.StopOptions{Timeout: &timeout})
		if err := cli.ContainerRemove(ctx, c.ID, container.RemoveOptions{Force: true}); err != nil {
			return fmt.Errorf("failed to remove container %s: %w", c.ID[:12], err)
		}
	}

	networks, err := cli.NetworkList(ctx, types.NetworkListOptions{
		Filters: filters.NewArgs(
			filters.Arg("label", fmt.Sprintf("%s=%s", LabelInstanceName, instanceName)),
		),
	})
	if err != nil {
		return fmt.Errorf("failed to list networks: %w", err)
	}

	for _, network := range networks {
		if err := cli.NetworkRemove(ctx, network.ID); err != nil {
			return fmt.Errorf("failed to remove network %s: %w", network.Name, err)
		}
	}

	return nil
}

// GenerateDefaultName generates the next available default-N instance name
// by scanning existing moot containers for the highest N in use.
func GenerateDefaultName(ctx context.Context, cli *client.Client) (string, error) {
	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", fmt.Sprintf("%s=true", LabelProject)),
		),
	})
	if err != nil {
		return "", fmt.Errorf("failed to list containers: %w", err)
	}

	highestN := 0
	for _, c := range containers {
		name := c.Labels[LabelInstanceName]
		if strings.HasPrefix(name, "default-") {
			if n, err := strconv.Atoi(strings.TrimPrefix(name, "default-")); err == nil && n > highestN {
				highestN = n
			}
		}
	}

	return fmt.Sprintf("default-%d", highestN+1), nil
}

// CheckNameCollision checks if an instance with the given name already exists.
func CheckNameCollision(ctx context.Context, cli *client.Client, instanceName string) (bool, error) {
	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", fmt.Sprintf("%s=%s", LabelInstanceName, instanceName)),
		),
	})
	if err != nil {
		return false, fmt.Errorf("failed to check for name collision: %w", err)
	}

	return len(containers) > 0, nil
}

// FindBusPort returns the published bus port of a running instance.
func FindBusPort(ctx context.Context, cli *client.Client, instanceName string) (int, error) {
	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", fmt.Sprintf("%s=%s", LabelInstanceName, instanceName)),
			filters.Arg("label", fmt.Sprintf("%s=%s", LabelComponent, ComponentBus)),
		),
	})
	if err != nil {
		return 0, fmt.Errorf("failed to find bus container: %w", err)
	}
	if len(containers) == 0 {
		return 0, fmt.Errorf("instance '%s' not found (is it running? try: moot up)", instanceName)
	}

	portStr := containers[0].Labels[LabelBusPort]
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return 0, fmt.Errorf("bus container for '%s' has an invalid port label: %q", instanceName, portStr)
	}
	return port, nil
}

// ListInstances discovers all moot instances from container labels.
func ListInstances(ctx context.Context, cli *client.Client) ([]Instance, error) {
	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", fmt.Sprintf("%s=true", LabelProject)),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list containers: %w", err)
	}

	byName := make(map[string]*Instance)
	for _, c := range containers {
		name := c.Labels[LabelInstanceName]
		inst, ok := byName[name]
		if !ok {
			inst = &Instance{Name: name, RunID: c.Labels[LabelRunID]}
			byName[name] = inst
		}

		switch c.Labels[LabelComponent] {
		case ComponentBus:
			if port, err := strconv.Atoi(c.Labels[LabelBusPort]); err == nil {
				inst.BusPort = port
			}
		case ComponentRunner:
			inst.Runners = append(inst.Runners, c.Labels[LabelRunnerName])
		}
	}

	instances := make([]Instance, 0, len(byName))
	for _, inst := range byName {
		sort.Strings(inst.Runners)
		instances = append(instances, *inst)
	}
	sort.Slice(instances, func(i, j int) bool { return instances[i].Name < instances[j].Name })
	return instances, nil
}
