package agentbus

import (
	"strconv"
)

// Serialization helpers for converting between Go structs and Redis hashes
//
// Redis stores data as string-to-string maps (hashes). Sessions are flat
// enough that every field maps to a single hash field; messages are stored
// as JSON blobs on lists instead (see client.go).

// SessionToHash converts a Session struct to a Redis hash format.
func SessionToHash(s *Session) map[string]interface{} {
	return map[string]interface{}{
		"id":            s.ID,
		"parent_id":     s.ParentID,
		"title":         s.Title,
		"status":        string(s.Status),
		"created_at_ms": s.CreatedAtMs,
	}
}

// HashToSession converts a Redis hash to a Session struct.
func HashToSession(hash map[string]string) (*Session, error) {
	createdAtMs, _ := strconv.ParseInt(hash["created_at_ms"], 10, 64)

	session := &Session{
		ID:          hash["id"],
		ParentID:    hash["parent_id"],
		Title:       hash["title"],
		Status:      SessionStatus(hash["status"]),
		CreatedAtMs: createdAtMs,
	}

	return session, nil
}
