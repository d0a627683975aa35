package isolation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheck_PathRules(t *testing.T) {
	guard := NewGuard(true)
	scope := Scope{RootPath: "/runs/2026-08-30-cache-design/designs", OwnerID: "alpha"}

	tests := []struct {
		name    string
		op      Op
		target  string
		allowed bool
	}{
		{
			name:    "write inside own sub-path allowed",
			op:      OpWrite,
			target:  "/runs/2026-08-30-cache-design/designs/alpha/draft.md",
			allowed: true,
		},
		{
			name:    "write into another owner's sub-path denied",
			op:      OpWrite,
			target:  "/runs/2026-08-30-cache-design/designs/beta/draft.md",
			allowed: false,
		},
		{
			name:    "read of another owner's sub-path denied",
			op:      OpRead,
			target:  "/runs/2026-08-30-cache-design/designs/beta/draft.md",
			allowed: false,
		},
		{
			name:    "read outside the protected root allowed",
			op:      OpRead,
			target:  "/project/readme.md",
			allowed: true,
		},
		{
			name:    "write directly into the root denied",
			op:      OpWrite,
			target:  "/runs/2026-08-30-cache-design/designs/loose-file.md",
			allowed: false,
		},
		{
			name:    "sibling directory with root as name prefix allowed",
			op:      OpWrite,
			target:  "/runs/2026-08-30-cache-design/designs-backup/file.md",
			allowed: true,
		},
		{
			name:    "nested path inside own sub-path allowed",
			op:      OpRead,
			target:  "/runs/2026-08-30-cache-design/designs/alpha/notes/scratch.md",
			allowed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.allowed, guard.Allowed(tt.op, tt.target, scope))
		})
	}
}

func TestCheck_NoOwnerBound(t *testing.T) {
	guard := NewGuard(true)
	scope := Scope{RootPath: "/runs/r1/designs"}

	// With no owner bound, nothing inside the root is accessible
	assert.False(t, guard.Allowed(OpWrite, "/runs/r1/designs/alpha/x.md", scope))
	assert.False(t, guard.Allowed(OpRead, "/runs/r1/designs/alpha/x.md", scope))

	// Paths outside the root remain open
	assert.True(t, guard.Allowed(OpRead, "/tmp/scratch.txt", scope))
}

func TestCheck_Commands(t *testing.T) {
	guard := NewGuard(true)

	unbound := Scope{RootPath: "/runs/r1/designs"}
	bound := Scope{RootPath: "/runs/r1/designs", OwnerID: "alpha"}

	// Command text mentioning the root with no owner bound is denied:
	// command execution is opaque, so the guard refuses conservatively.
	assert.False(t, guard.Allowed(OpCommand, "cat /runs/r1/designs/beta/x.md", unbound))

	// The same command with an owner bound is allowed; finer-grained
	// inspection of command effects is out of the guard's reach.
	assert.True(t, guard.Allowed(OpCommand, "cat /runs/r1/designs/beta/x.md", bound))

	// Commands that never mention the root are always allowed
	assert.True(t, guard.Allowed(OpCommand, "ls -la /tmp", unbound))
}

func TestCheck_DisabledGuardAllowsEverything(t *testing.T) {
	guard := NewGuard(false)
	scope := Scope{RootPath: "/runs/r1/designs", OwnerID: "alpha"}

	assert.True(t, guard.Allowed(OpWrite, "/runs/r1/designs/beta/x.md", scope))
	assert.True(t, guard.Allowed(OpCommand, "rm -rf /runs/r1/designs", Scope{RootPath: "/runs/r1/designs"}))
}

func TestCheck_ViolationErrorDetails(t *testing.T) {
	guard := NewGuard(true)
	scope := Scope{RootPath: "/runs/r1/designs", OwnerID: "alpha"}

	err := guard.Check(OpWrite, "/runs/r1/designs/beta/x.md", scope)
	require.Error(t, err)

	var violation *ViolationError
	require.True(t, errors.As(err, &violation))
	assert.Equal(t, OpWrite, violation.Op)
	assert.Equal(t, "/runs/r1/designs/beta/x.md", violation.Target)
	assert.Equal(t, "alpha", violation.OwnerID)
	assert.Contains(t, violation.Error(), "isolation violation")
}

func TestScopeOwnerDir(t *testing.T) {
	scope := Scope{RootPath: "/runs/r1/designs", OwnerID: "alpha"}
	assert.Equal(t, "/runs/r1/designs/alpha", scope.OwnerDir())
}

func TestOpString(t *testing.T) {
	assert.Equal(t, "read", OpRead.String())
	assert.Equal(t, "write", OpWrite.String())
	assert.Equal(t, "command", OpCommand.String())
}
