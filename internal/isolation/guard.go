// Package isolation enforces the boundary between concurrently-generated
// design artifacts. During the generation phase each candidate owns an
// exclusive sub-path of the artifacts root; the guard is the sole arbiter of
// access across those sub-paths. Ownership is partitioned by path rather than
// contended, so no locking is involved - the guard only polices the partition.
package isolation

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Op is the closed set of guarded operation kinds. Each kind has exactly one
// handling branch in Check; adding a kind without handling it is a compile
// error surfaced by the exhaustive switch's default.
type Op int

const (
	// OpRead is a file read inside or outside the artifacts root
	OpRead Op = iota

	// OpWrite is a file write or creation
	OpWrite

	// OpCommand is a shell command whose text is inspected, not its effects.
	// Command execution is opaque to path-level checks, so commands that
	// mention the artifacts root are only permitted when an owner is bound.
	OpCommand
)

// String returns the operation kind for error messages and logs.
func (op Op) String() string {
	switch op {
	case OpRead:
		return "read"
	case OpWrite:
		return "write"
	case OpCommand:
		return "command"
	default:
		return fmt.Sprintf("op(%d)", int(op))
	}
}

// Scope binds the artifacts root and the current owner for one generation
// phase. A Scope is a value created by the orchestrator per phase and passed
// into every guarded operation; there is deliberately no process-wide scope,
// which keeps concurrent in-process runs and tests from contaminating each
// other. An empty OwnerID means no owner is bound.
type Scope struct {
	RootPath string // Absolute path of the protected artifacts root
	OwnerID  string // Candidate currently allowed inside the root ("" = none)
}

// OwnerDir returns the sub-path of the artifacts root dedicated to the
// scope's owner. Only meaningful when an owner is bound.
func (s Scope) OwnerDir() string {
	return filepath.Join(s.RootPath, s.OwnerID)
}

// ViolationError reports a denied operation. Denials are always surfaced as
// errors, never silently ignored - a silently dropped denial would corrupt
// the very isolation guarantee being enforced.
type ViolationError struct {
	Op      Op
	Target  string
	OwnerID string
}

func (e *ViolationError) Error() string {
	if e.OwnerID == "" {
		return fmt.Sprintf("isolation violation: %s of %q denied (no owner bound)", e.Op, e.Target)
	}
	return fmt.Sprintf("isolation violation: %s of %q denied for owner %q", e.Op, e.Target, e.OwnerID)
}

// Guard decides whether operations against the artifact tree are allowed.
type Guard struct {
	enabled bool
}

// NewGuard creates a Guard. When enabled is false every operation is
// allowed, matching the configuration escape hatch for local debugging.
func NewGuard(enabled bool) *Guard {
	return &Guard{enabled: enabled}
}

// Check returns nil if the operation is allowed and a *ViolationError if it
// is denied.
//
// Rules:
//   - Disabled guard: everything is allowed.
//   - Paths outside scope.RootPath are always allowed.
//   - Inside the root, an operation is allowed only when the target falls
//     under the bound owner's sub-path. Another owner's sub-path, or the
//     root itself with no owner bound, is denied.
//   - Commands are denied when their text references the root while no
//     owner is bound. This is a conservative pattern fallback, not sandboxing.
func (g *Guard) Check(op Op, target string, scope Scope) error {
	if !g.enabled {
		return nil
	}

	switch op {
	case OpRead, OpWrite:
		if !isWithin(scope.RootPath, target) {
			return nil
		}
		if scope.OwnerID != "" && isWithin(scope.OwnerDir(), target) {
			return nil
		}
		return &ViolationError{Op: op, Target: target, OwnerID: scope.OwnerID}

	case OpCommand:
		if scope.OwnerID == "" && strings.Contains(target, scope.RootPath) {
			return &ViolationError{Op: op, Target: target}
		}
		return nil

	default:
		return fmt.Errorf("unknown operation kind: %v", op)
	}
}

// Allowed is the boolean form of Check for callers that only branch.
func (g *Guard) Allowed(op Op, target string, scope Scope) bool {
	return g.Check(op, target, scope) == nil
}

// isWithin reports whether target is root itself or falls under it.
// Comparison is purely lexical: the guard never touches the filesystem, so
// it cannot be confused by files that do not exist yet.
func isWithin(root, target string) bool {
	root = filepath.Clean(root)
	target = filepath.Clean(target)

	if root == target {
		return true
	}
	return strings.HasPrefix(target, root+string(filepath.Separator))
}
