package agentbus

import "fmt"

// Redis key pattern helpers
//
// All Redis keys and Pub/Sub channels are namespaced by instance name to
// enable multiple moot instances to safely coexist on a single Redis server.
//
// Key pattern: moot:{instance_name}:{entity}:{uuid}
// Channel pattern: moot:{instance_name}:{event_type}_events

// SessionKey returns the Redis key for a session hash.
// Pattern: moot:{instance_name}:session:{session_id}
func SessionKey(instanceName, sessionID string) string {
	return fmt.Sprintf("moot:%s:session:%s", instanceName, sessionID)
}

// SessionPromptsKey returns the Redis key for a session's prompt list.
// Prompts are pushed by moot and popped by the runner serving the session.
// Pattern: moot:{instance_name}:session:{session_id}:prompts
func SessionPromptsKey(instanceName, sessionID string) string {
	return fmt.Sprintf("moot:%s:session:%s:prompts", instanceName, sessionID)
}

// SessionMessagesKey returns the Redis key for a session's response list.
// Responses are appended by the runner; the message count over this list is
// what the completion monitor watches for stability.
// Pattern: moot:{instance_name}:session:{session_id}:messages
func SessionMessagesKey(instanceName, sessionID string) string {
	return fmt.Sprintf("moot:%s:session:%s:messages", instanceName, sessionID)
}

// SessionEventsChannel returns the Pub/Sub channel name for session events.
// Pattern: moot:{instance_name}:session_events
func SessionEventsChannel(instanceName string) string {
	return fmt.Sprintf("moot:%s:session_events", instanceName)
}
