package agentbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSessionValidate(t *testing.T) {
	valid := Session{
		ID:     "550e8400-e29b-41d4-a716-446655440000",
		Title:  "generate:model-a",
		Status: SessionStatusIdle,
	}

	tests := []struct {
		name    string
		mutate  func(*Session)
		wantErr string
	}{
		{
			name:   "valid session passes",
			mutate: func(s *Session) {},
		},
		{
			name:    "invalid ID rejected",
			mutate:  func(s *Session) { s.ID = "not-a-uuid" },
			wantErr: "invalid session ID",
		},
		{
			name:    "invalid parent ID rejected",
			mutate:  func(s *Session) { s.ParentID = "not-a-uuid" },
			wantErr: "invalid parent session ID",
		},
		{
			name:   "empty parent ID allowed",
			mutate: func(s *Session) { s.ParentID = "" },
		},
		{
			name:    "empty title rejected",
			mutate:  func(s *Session) { s.Title = "" },
			wantErr: "title cannot be empty",
		},
		{
			name:    "unknown status rejected",
			mutate:  func(s *Session) { s.Status = "paused" },
			wantErr: "invalid status",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := valid
			tt.mutate(&s)
			err := s.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				assert.ErrorContains(t, err, tt.wantErr)
			}
		})
	}
}

func TestSessionStatusValidate(t *testing.T) {
	assert.NoError(t, SessionStatusIdle.Validate())
	assert.NoError(t, SessionStatusRunning.Validate())
	assert.Error(t, SessionStatus("").Validate())
	assert.Error(t, SessionStatus("stopped").Validate())
}

func TestMessageRoleValidate(t *testing.T) {
	assert.NoError(t, MessageRolePrompt.Validate())
	assert.NoError(t, MessageRoleResponse.Validate())
	assert.Error(t, MessageRole("system").Validate())
}

func TestSessionHashRoundTrip(t *testing.T) {
	session := &Session{
		ID:          "550e8400-e29b-41d4-a716-446655440000",
		ParentID:    "650e8400-e29b-41d4-a716-446655440001",
		Title:       "score:model-b",
		Status:      SessionStatusRunning,
		CreatedAtMs: 1700000000000,
	}

	hash := SessionToHash(session)

	// Redis returns hashes as map[string]string
	stringHash := make(map[string]string, len(hash))
	for k, v := range hash {
		switch val := v.(type) {
		case string:
			stringHash[k] = val
		case int64:
			stringHash[k] = "1700000000000"
		}
	}

	restored, err := HashToSession(stringHash)
	assert.NoError(t, err)
	assert.Equal(t, session, restored)
}
