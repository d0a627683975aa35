package runtime

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/client"
)

// Bus containers publish one host port each out of this range, so up to 100
// instances can coexist on a host.
const (
	startPort = 6379
	endPort   = 6478
)

// FindNextAvailablePort allocates a host port for a new session bus. A port
// counts as taken if any bus container's label claims it or the host refuses
// to bind it; the lowest free port in the range wins.
func FindNextAvailablePort(ctx context.Context, cli *client.Client) (int, error) {
	claimed, err := busPortsInUse(ctx, cli)
	if err != nil {
		return 0, err
	}

	for port := startPort; port <= endPort; port++ {
		if claimed[port] {
			continue
		}
		if isPortBindable(port) {
			return port, nil
		}
	}

	return 0, fmt.Errorf("no available bus ports (range %d-%d exhausted)", startPort, endPort)
}

// busPortsInUse collects the ports recorded on existing bus container labels.
// Stopped containers count too; they reclaim their binding on restart.
func busPortsInUse(ctx context.Context, cli *client.Client) (map[int]bool, error) {
	containers, err := cli.ContainerList(ctx, container.ListOptions{
		All: true,
		Filters: filters.NewArgs(
			filters.Arg("label", fmt.Sprintf("%s=true", LabelProject)),
			filters.Arg("label", fmt.Sprintf("%s=%s", LabelComponent, ComponentBus)),
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to query Docker containers: %w", err)
	}

	claimed := make(map[int]bool)
	for _, c := range containers {
		if port, err := strconv.Atoi(c.Labels[LabelBusPort]); err == nil {
			claimed[port] = true
		}
	}
	return claimed, nil
}

// isPortBindable reports whether the port can actually be bound on localhost.
// Labels alone are not enough; something outside moot may hold the port.
func isPortBindable(port int) bool {
	listener, err := net.Listen("tcp", fmt.Sprintf("localhost:%d", port))
	if err != nil {
		return false
	}
	listener.Close()
	return true
}
