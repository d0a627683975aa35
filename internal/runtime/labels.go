package runtime

import (
	"fmt"

	"github.com/google/uuid"
)

// Label keys used for moot resources
const (
	LabelProject      = "moot.project"
	LabelInstanceName = "moot.instance.name"
	LabelRunID        = "moot.instance.run_id"
	LabelComponent    = "moot.component"
	LabelBusPort      = "moot.bus.port"
	LabelRunnerName   = "moot.runner.name"
	LabelRunnerModel  = "moot.runner.model"
)

// Component values stored under LabelComponent
const (
	ComponentBus    = "bus"
	ComponentRunner = "runner"
)

// BuildLabels creates the standard label set for all moot resources.
func BuildLabels(instanceName, runID, component string) map[string]string {
	labels := map[string]string{
		LabelProject:      "true",
		LabelInstanceName: instanceName,
		LabelRunID:        runID,
	}

	if component != "" {
		labels[LabelComponent] = component
	}

	return labels
}

// GenerateRunID creates a new UUID for an instance run.
// Each invocation of `moot up` gets a unique run ID.
func GenerateRunID() string {
	return uuid.New().String()
}

// Resource naming conventions for moot components

// NetworkName returns the Docker network name for an instance
func NetworkName(instanceName string) string {
	return fmt.Sprintf("moot-network-%s", instanceName)
}

// BusContainerName returns the session-bus container name for an instance
func BusContainerName(instanceName string) string {
	return fmt.Sprintf("moot-bus-%s", instanceName)
}

// RunnerContainerName returns the runner container name for an instance and model entry
func RunnerContainerName(instanceName, runnerName string) string {
	return fmt.Sprintf("moot-runner-%s-%s", instanceName, runnerName)
}
