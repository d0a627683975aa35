// Package config loads and validates moot.yml, the per-project tournament
// configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/dyluth/moot/internal/scoring"
)

// Defaults applied when the corresponding moot.yml fields are omitted.
const (
	DefaultOutputDir          = "runs"
	DefaultPollInterval       = 500 * time.Millisecond
	DefaultStabilityThreshold = 3
	DefaultTimeout            = 10 * time.Minute
	DefaultSendTimeout        = 180 * time.Second
)

// MootConfig represents the top-level moot.yml configuration
type MootConfig struct {
	Version    string              `yaml:"version"`
	Generators map[string]Model    `yaml:"generators"`
	Reviewers  map[string]Model    `yaml:"reviewers"`
	Criteria   []scoring.Criterion `yaml:"criteria"`
	Phases     *PhasesConfig       `yaml:"phases,omitempty"`
	Isolation  *IsolationConfig    `yaml:"isolation,omitempty"`
	Output     *OutputConfig       `yaml:"output,omitempty"`
	Monitor    *MonitorConfig      `yaml:"monitor,omitempty"`
}

// Model represents a single model-runner configuration. The name of the map
// entry is the candidate/reviewer identity used in artifacts and rankings.
type Model struct {
	Image       string   `yaml:"image"` // Required: Docker image of the model runner
	Model       string   `yaml:"model,omitempty"`
	Environment []string `yaml:"environment,omitempty"`
}

// PhasesConfig toggles optional tournament phases. Both default to enabled.
type PhasesConfig struct {
	Review  *bool `yaml:"review,omitempty"`
	Scoring *bool `yaml:"scoring,omitempty"`
}

// IsolationConfig controls the generation-phase access guard
type IsolationConfig struct {
	Enabled *bool `yaml:"enabled,omitempty"` // Default: true
}

// OutputConfig controls where run artifacts are written
type OutputConfig struct {
	Dir string `yaml:"dir,omitempty"` // Default: "runs"
}

// MonitorConfig overrides session-completion polling behavior. Durations use
// Go duration syntax ("500ms", "10m").
type MonitorConfig struct {
	PollInterval       string `yaml:"poll_interval,omitempty"`
	StabilityThreshold int    `yaml:"stability_threshold,omitempty"`
	Timeout            string `yaml:"timeout,omitempty"`
	SendTimeout        string `yaml:"send_timeout,omitempty"`
}

// Validate performs strict validation on the configuration
func (c *MootConfig) Validate() error {
	// Required: version
	if c.Version != "1.0" {
		return fmt.Errorf("unsupported version: %s (expected: 1.0)", c.Version)
	}

	// Required: at least one generator
	if len(c.Generators) == 0 {
		return fmt.Errorf("no generators defined")
	}
	for name, model := range c.Generators {
		if err := model.Validate("generator", name); err != nil {
			return err
		}
	}

	for name, model := range c.Reviewers {
		if err := model.Validate("reviewer", name); err != nil {
			return err
		}
	}

	// Required: at least one criterion, each individually valid, names unique
	if len(c.Criteria) == 0 {
		return fmt.Errorf("no criteria defined")
	}
	namesSeen := make(map[string]bool)
	for _, criterion := range c.Criteria {
		if err := criterion.Validate(); err != nil {
			return err
		}
		if namesSeen[criterion.Name] {
			return fmt.Errorf("duplicate criterion '%s': criterion names must be unique", criterion.Name)
		}
		namesSeen[criterion.Name] = true
	}

	// Review and scoring phases need reviewers to run
	if len(c.Reviewers) == 0 && (c.ReviewEnabled() || c.ScoringEnabled()) {
		return fmt.Errorf("no reviewers defined: disable the review and scoring phases or add reviewers")
	}

	if c.Monitor != nil {
		if err := c.Monitor.Validate(); err != nil {
			return err
		}
	}

	return nil
}

// Validate performs validation on a single model configuration
func (m *Model) Validate(kind, name string) error {
	if m.Image == "" {
		return fmt.Errorf("%s '%s': image is required", kind, name)
	}
	return nil
}

// Validate checks the monitor overrides parse and stay in range
func (m *MonitorConfig) Validate() error {
	if m.PollInterval != "" {
		if _, err := time.ParseDuration(m.PollInterval); err != nil {
			return fmt.Errorf("monitor.poll_interval: invalid duration '%s'", m.PollInterval)
		}
	}
	if m.Timeout != "" {
		if _, err := time.ParseDuration(m.Timeout); err != nil {
			return fmt.Errorf("monitor.timeout: invalid duration '%s'", m.Timeout)
		}
	}
	if m.SendTimeout != "" {
		if _, err := time.ParseDuration(m.SendTimeout); err != nil {
			return fmt.Errorf("monitor.send_timeout: invalid duration '%s'", m.SendTimeout)
		}
	}
	if m.StabilityThreshold < 0 {
		return fmt.Errorf("monitor.stability_threshold must be >= 0, got %d", m.StabilityThreshold)
	}
	return nil
}

// ReviewEnabled reports whether the review phase runs (default true)
func (c *MootConfig) ReviewEnabled() bool {
	if c.Phases == nil || c.Phases.Review == nil {
		return true
	}
	return *c.Phases.Review
}

// ScoringEnabled reports whether the scoring phase runs (default true)
func (c *MootConfig) ScoringEnabled() bool {
	if c.Phases == nil || c.Phases.Scoring == nil {
		return true
	}
	return *c.Phases.Scoring
}

// IsolationEnabled reports whether the generation guard is active (default true)
func (c *MootConfig) IsolationEnabled() bool {
	if c.Isolation == nil || c.Isolation.Enabled == nil {
		return true
	}
	return *c.Isolation.Enabled
}

// OutputDir returns the configured artifact directory or the default
func (c *MootConfig) OutputDir() string {
	if c.Output == nil || c.Output.Dir == "" {
		return DefaultOutputDir
	}
	return c.Output.Dir
}

// PollInterval returns the configured poll interval or the default
func (c *MootConfig) PollInterval() time.Duration {
	return c.monitorDuration(func(m *MonitorConfig) string { return m.PollInterval }, DefaultPollInterval)
}

// Timeout returns the configured completion timeout or the default
func (c *MootConfig) Timeout() time.Duration {
	return c.monitorDuration(func(m *MonitorConfig) string { return m.Timeout }, DefaultTimeout)
}

// SendTimeout returns the configured prompt-send timeout or the default
func (c *MootConfig) SendTimeout() time.Duration {
	return c.monitorDuration(func(m *MonitorConfig) string { return m.SendTimeout }, DefaultSendTimeout)
}

// StabilityThreshold returns the configured debounce threshold or the default
func (c *MootConfig) StabilityThreshold() int {
	if c.Monitor == nil || c.Monitor.StabilityThreshold == 0 {
		return DefaultStabilityThreshold
	}
	return c.Monitor.StabilityThreshold
}

func (c *MootConfig) monitorDuration(field func(*MonitorConfig) string, fallback time.Duration) time.Duration {
	if c.Monitor == nil {
		return fallback
	}
	spec := field(c.Monitor)
	if spec == "" {
		return fallback
	}
	d, err := time.ParseDuration(spec)
	if err != nil {
		// Validate rejects unparseable specs, so this only triggers on an
		// unvalidated config
		return fallback
	}
	return d
}

// Load reads and validates moot.yml from the specified path
func Load(path string) (*MootConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var config MootConfig
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}
