// Package resolver matches user-supplied run name prefixes against the runs
// on disk, so commands accept "2026-08-30" or a topic slug fragment instead
// of the full directory name.
package resolver

import (
	"fmt"
	"strings"
)

// MinPrefixLength is the minimum required length for run name prefixes.
// Short enough for a date fragment, long enough to avoid accidental matches.
const MinPrefixLength = 4

// ResolveRunName resolves a prefix to a full run name from the given list.
// An exact match always wins; otherwise exactly one prefix match is required.
func ResolveRunName(names []string, prefix string) (string, error) {
	for _, name := range names {
		if name == prefix {
			return name, nil
		}
	}

	if len(prefix) < MinPrefixLength {
		return "", fmt.Errorf("run name prefix must be at least %d characters (got %d)", MinPrefixLength, len(prefix))
	}

	var matches []string
	for _, name := range names {
		if strings.HasPrefix(name, prefix) {
			matches = append(matches, name)
		}
	}

	switch len(matches) {
	case 0:
		return "", &NotFoundError{Prefix: prefix}
	case 1:
		return matches[0], nil
	default:
		return "", &AmbiguousError{Prefix: prefix, Matches: matches}
	}
}

// NotFoundError indicates no runs matched the prefix.
type NotFoundError struct {
	Prefix string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no runs found matching '%s'", e.Prefix)
}

// AmbiguousError indicates multiple runs matched the prefix.
type AmbiguousError struct {
	Prefix  string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("ambiguous run name '%s' matches %d runs", e.Prefix, len(e.Matches))
}

// FormatAmbiguousError creates a user-friendly message listing the matches
// (up to 10, then "...and N more").
func FormatAmbiguousError(err *AmbiguousError) string {
	msg := fmt.Sprintf("Error: ambiguous run name '%s' matches %d runs:\n", err.Prefix, len(err.Matches))

	displayCount := len(err.Matches)
	if displayCount > 10 {
		displayCount = 10
	}

	for i := 0; i < displayCount; i++ {
		msg += fmt.Sprintf("  %s\n", err.Matches[i])
	}

	if len(err.Matches) > 10 {
		msg += fmt.Sprintf("  ...and %d more\n", len(err.Matches)-10)
	}

	msg += "\nUse a longer prefix to uniquely identify the run."
	return msg
}
