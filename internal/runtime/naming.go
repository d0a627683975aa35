package runtime

import (
	"fmt"
	"regexp"
)

// Instance names become Docker container and network name fragments, so they
// follow DNS label rules: lowercase alphanumeric with interior hyphens, at
// most 63 characters.
const MaxNameLength = 63

var instanceNamePattern = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)

// ValidateName rejects instance names that cannot serve as DNS labels.
func ValidateName(name string) error {
	if name == "" {
		return fmt.Errorf("instance name cannot be empty")
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("instance name too long: %d characters (max: %d)", len(name), MaxNameLength)
	}
	if !instanceNamePattern.MatchString(name) {
		return fmt.Errorf("invalid instance name '%s': must be lowercase alphanumeric with hyphens (not at start/end)", name)
	}
	return nil
}
