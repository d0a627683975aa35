package scaffold

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dyluth/moot/internal/config"
)

func inTempDir(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	old, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(old) })
}

func TestInitialize_CreatesLoadableConfig(t *testing.T) {
	inTempDir(t)

	require.NoError(t, Initialize(false))
	require.FileExists(t, "moot.yml")

	// The template must pass the same validation as a real config
	cfg, err := config.Load("moot.yml")
	require.NoError(t, err)
	assert.NotEmpty(t, cfg.Generators)
	assert.NotEmpty(t, cfg.Reviewers)
	assert.NotEmpty(t, cfg.Criteria)
}

func TestCheckExisting(t *testing.T) {
	inTempDir(t)

	assert.NoError(t, CheckExisting())

	require.NoError(t, Initialize(false))
	err := CheckExisting()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already initialized")
}

func TestInitialize_ForceOverwrites(t *testing.T) {
	inTempDir(t)

	require.NoError(t, os.WriteFile("moot.yml", []byte("version: \"0.9\"\n"), 0644))
	require.NoError(t, Initialize(true))

	_, err := config.Load("moot.yml")
	assert.NoError(t, err)
}
