package resolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runNames = []string{
	"2026-08-30-cache-design",
	"2026-08-30-rate-limiter",
	"2026-08-29-cache-design",
}

func TestResolveRunName_ExactMatch(t *testing.T) {
	name, err := ResolveRunName(runNames, "2026-08-29-cache-design")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-29-cache-design", name)
}

func TestResolveRunName_UniquePrefix(t *testing.T) {
	name, err := ResolveRunName(runNames, "2026-08-29")
	require.NoError(t, err)
	assert.Equal(t, "2026-08-29-cache-design", name)
}

func TestResolveRunName_Ambiguous(t *testing.T) {
	_, err := ResolveRunName(runNames, "2026-08-30")

	var ambiguousErr *AmbiguousError
	require.ErrorAs(t, err, &ambiguousErr)
	assert.Len(t, ambiguousErr.Matches, 2)
	assert.Contains(t, FormatAmbiguousError(ambiguousErr), "2026-08-30-rate-limiter")
}

func TestResolveRunName_NotFound(t *testing.T) {
	_, err := ResolveRunName(runNames, "2025-01")

	var notFoundErr *NotFoundError
	require.True(t, errors.As(err, &notFoundErr))
}

func TestResolveRunName_TooShort(t *testing.T) {
	_, err := ResolveRunName(runNames, "20")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least")
}
