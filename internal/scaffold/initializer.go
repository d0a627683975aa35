// Package scaffold creates the starter moot.yml for a new project.
package scaffold

import (
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*
var templatesFS embed.FS

const configFile = "moot.yml"

// CheckExisting returns an error if moot.yml already exists, so init never
// silently overwrites a configured project.
func CheckExisting() error {
	if _, err := os.Stat(configFile); err == nil {
		return fmt.Errorf(`project already initialized

Found existing: %s

Use 'moot init --force' to reinitialize (this will overwrite existing configuration)`, configFile)
	}
	return nil
}

// Initialize writes the starter moot.yml. If force is true an existing file
// is removed first.
func Initialize(force bool) error {
	if force {
		if _, err := os.Stat(configFile); err == nil {
			fmt.Printf("⚠️  Removing existing %s...\n", configFile)
			if err := os.Remove(configFile); err != nil {
				return fmt.Errorf("failed to remove %s: %w", configFile, err)
			}
		}
	}

	content, err := templatesFS.ReadFile("templates/moot.yml.tmpl")
	if err != nil {
		return fmt.Errorf("failed to read moot.yml template: %w", err)
	}

	if err := os.WriteFile(configFile, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configFile, err)
	}

	// Sanity-check that the template we shipped actually parses
	var parsed map[string]interface{}
	if err := yaml.Unmarshal(content, &parsed); err != nil {
		return fmt.Errorf("generated %s is not valid YAML: %w", configFile, err)
	}

	return nil
}
