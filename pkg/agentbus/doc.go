// Package agentbus provides the client for the Redis-backed agent session bus.
// The bus is the boundary between moot and the model runners: moot creates
// sessions and sends prompts; runners consume prompts, stream response
// messages back, and flip the session status between running and idle.
//
// The bus makes no promises about when a runner finishes. Completion is
// detected by the caller (see internal/monitor) by watching the session
// status together with the message count until both stop moving.
//
// All Redis keys and channels are namespaced by instance name so that
// multiple moot instances can safely coexist on a single Redis server.
//
// Key patterns (see schema.go):
//
//	moot:{instance}:session:{id}           session hash
//	moot:{instance}:session:{id}:prompts   prompt list (moot -> runner)
//	moot:{instance}:session:{id}:messages  response list (runner -> moot)
//	moot:{instance}:session_events         Pub/Sub channel for bus activity
package agentbus
