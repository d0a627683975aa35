package agentbus

import (
	"fmt"

	"github.com/google/uuid"
)

// Session represents one conversation with a model runner. Sessions are
// created by moot, worked on by exactly one runner, and never reused across
// pipeline phases.
type Session struct {
	ID          string        `json:"id"`                  // UUID - unique identifier for this session
	ParentID    string        `json:"parent_id,omitempty"` // Optional UUID of the session this was spawned from
	Title       string        `json:"title"`               // Human-readable purpose, e.g. "generate:claude-a"
	Status      SessionStatus `json:"status"`              // Runner-reported activity state
	CreatedAtMs int64         `json:"created_at_ms"`       // Unix timestamp in milliseconds when the session was created
}

// SessionStatus is the runner-reported activity state of a session.
// Runners set running while producing output and idle otherwise. The status
// can flap during streaming, which is why completion detection debounces it.
type SessionStatus string

const (
	// SessionStatusIdle indicates the runner is not currently producing output
	SessionStatusIdle SessionStatus = "idle"

	// SessionStatusRunning indicates the runner is actively producing output
	SessionStatusRunning SessionStatus = "running"
)

// MessageRole distinguishes the direction of a message on the bus.
type MessageRole string

const (
	// MessageRolePrompt is a message sent by moot to a runner
	MessageRolePrompt MessageRole = "prompt"

	// MessageRoleResponse is a message produced by a runner
	MessageRoleResponse MessageRole = "response"
)

// Message is a single entry on a session's prompt or response list.
type Message struct {
	ID              string      `json:"id"`                         // UUID - unique identifier for this message
	SessionID       string      `json:"session_id"`                 // UUID of the owning session
	Role            MessageRole `json:"role"`                       // prompt or response
	Text            string      `json:"text"`                       // Message body (free text, may embed JSON)
	ToolPermissions []string    `json:"tool_permissions,omitempty"` // Tools the runner may use while handling a prompt
	CreatedAtMs     int64       `json:"created_at_ms"`              // Unix timestamp in milliseconds
}

// SessionEvent is published on the session_events channel for every bus
// mutation. Used by `moot watch` for real-time monitoring.
type SessionEvent struct {
	Event     string            `json:"event"`      // e.g. "session_created", "prompt_sent", "response_appended"
	SessionID string            `json:"session_id"` // UUID of the affected session
	Data      map[string]string `json:"data,omitempty"`
}

// Validate checks if the Session has valid field values.
func (s *Session) Validate() error {
	if !isValidUUID(s.ID) {
		return fmt.Errorf("invalid session ID: not a valid UUID")
	}

	if s.ParentID != "" && !isValidUUID(s.ParentID) {
		return fmt.Errorf("invalid parent session ID: not a valid UUID")
	}

	if s.Title == "" {
		return fmt.Errorf("session title cannot be empty")
	}

	if err := s.Status.Validate(); err != nil {
		return fmt.Errorf("invalid status: %w", err)
	}

	return nil
}

// Validate checks if the SessionStatus is a valid enum value.
func (ss SessionStatus) Validate() error {
	switch ss {
	case SessionStatusIdle, SessionStatusRunning:
		return nil
	default:
		return fmt.Errorf("unknown session status: %q", ss)
	}
}

// Validate checks if the Message has valid field values.
func (m *Message) Validate() error {
	if !isValidUUID(m.ID) {
		return fmt.Errorf("invalid message ID: not a valid UUID")
	}

	if !isValidUUID(m.SessionID) {
		return fmt.Errorf("invalid session ID: not a valid UUID")
	}

	if err := m.Role.Validate(); err != nil {
		return fmt.Errorf("invalid role: %w", err)
	}

	return nil
}

// Validate checks if the MessageRole is a valid enum value.
func (mr MessageRole) Validate() error {
	switch mr {
	case MessageRolePrompt, MessageRoleResponse:
		return nil
	default:
		return fmt.Errorf("unknown message role: %q", mr)
	}
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
