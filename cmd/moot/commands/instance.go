package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/docker/docker/client"

	"github.com/dyluth/moot/internal/runtime"
)

// resolveInstanceName returns the explicit name when given, otherwise infers
// the single running instance. Zero or multiple instances require --name.
func resolveInstanceName(ctx context.Context, cli *client.Client, explicit string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}

	instances, err := runtime.ListInstances(ctx, cli)
	if err != nil {
		return "", err
	}

	switch len(instances) {
	case 0:
		return "", fmt.Errorf("no moot instances are running (start one with: moot up)")
	case 1:
		return instances[0].Name, nil
	default:
		names := make([]string, len(instances))
		for i, inst := range instances {
			names[i] = inst.Name
		}
		return "", fmt.Errorf("multiple instances are running (%s): specify one with --name", strings.Join(names, ", "))
	}
}
