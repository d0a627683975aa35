package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/moot/internal/scoring"
)

func validConfig() *MootConfig {
	return &MootConfig{
		Version: "1.0",
		Generators: map[string]Model{
			"alpha": {Image: "moot-runner:latest", Model: "gpt-x"},
		},
		Reviewers: map[string]Model{
			"rev1": {Image: "moot-runner:latest", Model: "claude-y"},
		},
		Criteria: []scoring.Criterion{
			{Name: "clarity", Weight: 1, Min: 0, Max: 10},
		},
	}
}

func TestValidate_ValidConfig(t *testing.T) {
	assert.NoError(t, validConfig().Validate())
}

func TestValidate_Version(t *testing.T) {
	cfg := validConfig()
	cfg.Version = "2.0"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported version")
}

func TestValidate_NoGenerators(t *testing.T) {
	cfg := validConfig()
	cfg.Generators = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no generators defined")
}

func TestValidate_GeneratorMissingImage(t *testing.T) {
	cfg := validConfig()
	cfg.Generators["alpha"] = Model{Model: "gpt-x"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "generator 'alpha': image is required")
}

func TestValidate_NoCriteria(t *testing.T) {
	cfg := validConfig()
	cfg.Criteria = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no criteria defined")
}

func TestValidate_DuplicateCriteria(t *testing.T) {
	cfg := validConfig()
	cfg.Criteria = append(cfg.Criteria, cfg.Criteria[0])

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate criterion 'clarity'")
}

func TestValidate_ReviewPhaseNeedsReviewers(t *testing.T) {
	cfg := validConfig()
	cfg.Reviewers = nil

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no reviewers defined")

	// With both phases disabled, reviewers are optional
	disabled := false
	cfg.Phases = &PhasesConfig{Review: &disabled, Scoring: &disabled}
	assert.NoError(t, cfg.Validate())
}

func TestValidate_MonitorDurations(t *testing.T) {
	cfg := validConfig()
	cfg.Monitor = &MonitorConfig{PollInterval: "not-a-duration"}

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitor.poll_interval")

	cfg.Monitor = &MonitorConfig{Timeout: "5x"}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitor.timeout")

	cfg.Monitor = &MonitorConfig{StabilityThreshold: -1}
	err = cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stability_threshold")
}

func TestDefaults(t *testing.T) {
	cfg := validConfig()

	assert.True(t, cfg.ReviewEnabled())
	assert.True(t, cfg.ScoringEnabled())
	assert.True(t, cfg.IsolationEnabled())
	assert.Equal(t, DefaultOutputDir, cfg.OutputDir())
	assert.Equal(t, DefaultPollInterval, cfg.PollInterval())
	assert.Equal(t, DefaultTimeout, cfg.Timeout())
	assert.Equal(t, DefaultSendTimeout, cfg.SendTimeout())
	assert.Equal(t, DefaultStabilityThreshold, cfg.StabilityThreshold())
}

func TestOverrides(t *testing.T) {
	disabled := false
	cfg := validConfig()
	cfg.Phases = &PhasesConfig{Review: &disabled}
	cfg.Isolation = &IsolationConfig{Enabled: &disabled}
	cfg.Output = &OutputConfig{Dir: "artifacts"}
	cfg.Monitor = &MonitorConfig{
		PollInterval:       "250ms",
		StabilityThreshold: 5,
		Timeout:            "2m",
		SendTimeout:        "30s",
	}

	require.NoError(t, cfg.Validate())
	assert.False(t, cfg.ReviewEnabled())
	assert.True(t, cfg.ScoringEnabled())
	assert.False(t, cfg.IsolationEnabled())
	assert.Equal(t, "artifacts", cfg.OutputDir())
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval())
	assert.Equal(t, 5, cfg.StabilityThreshold())
	assert.Equal(t, 2*time.Minute, cfg.Timeout())
	assert.Equal(t, 30*time.Second, cfg.SendTimeout())
}

func TestLoad_ValidFile(t *testing.T) {
	content := `version: "1.0"
generators:
  alpha:
    image: moot-runner:latest
    model: gpt-x
  beta:
    image: moot-runner:latest
    model: claude-y
reviewers:
  rev1:
    image: moot-runner:latest
    model: gemini-z
criteria:
  - name: clarity
    weight: 2
    min: 0
    max: 10
  - name: feasibility
    weight: 1
    min: 0
    max: 10
monitor:
  poll_interval: 250ms
  timeout: 5m
`
	path := writeConfig(t, content)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Len(t, cfg.Generators, 2)
	assert.Equal(t, "gpt-x", cfg.Generators["alpha"].Model)
	require.Len(t, cfg.Criteria, 2)
	assert.Equal(t, 2.0, cfg.Criteria[0].Weight)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval())
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read config")
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := writeConfig(t, "version: [unclosed")

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse YAML")
}

func TestLoad_InvalidConfig(t *testing.T) {
	path := writeConfig(t, `version: "1.0"`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "moot.yml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}
