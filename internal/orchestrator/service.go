package orchestrator

import (
	"context"

	"github.com/dyluth/moot/internal/monitor"
	"github.com/dyluth/moot/pkg/agentbus"
)

// AgentService is the slice of the agent bus the engine consumes. Satisfied
// by *agentbus.Client; tests substitute a scripted implementation.
type AgentService interface {
	CreateSession(ctx context.Context, parentID, title string) (string, error)
	SendPrompt(ctx context.Context, sessionID, text string, toolPermissions []string) error
	Status(ctx context.Context, sessionID string) (agentbus.SessionStatus, error)
	Messages(ctx context.Context, sessionID string) ([]agentbus.Message, error)
	MessageCount(ctx context.Context, sessionID string) (int, error)
}

// busHandle adapts one bus session to the monitor's polling interface.
type busHandle struct {
	agents    AgentService
	sessionID string
}

func (h *busHandle) Status(ctx context.Context) (monitor.Status, error) {
	status, err := h.agents.Status(ctx, h.sessionID)
	if err != nil {
		return "", err
	}
	if status == agentbus.SessionStatusRunning {
		return monitor.StatusRunning, nil
	}
	return monitor.StatusIdle, nil
}

func (h *busHandle) ObservationCount(ctx context.Context) (int, error) {
	return h.agents.MessageCount(ctx, h.sessionID)
}
