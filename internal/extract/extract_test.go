package extract

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

func TestJSON_RawObject(t *testing.T) {
	var p payload
	err := JSON(`{"name": "clarity", "value": 8}`, &p)

	require.NoError(t, err)
	assert.Equal(t, "clarity", p.Name)
	assert.Equal(t, 8.0, p.Value)
}

func TestJSON_SurroundingWhitespace(t *testing.T) {
	var p payload
	err := JSON("\n\n  {\"name\": \"x\", \"value\": 1}  \n", &p)

	require.NoError(t, err)
	assert.Equal(t, "x", p.Name)
}

func TestJSON_FencedBlock(t *testing.T) {
	text := "Here is my assessment:\n\n```json\n{\"name\": \"clarity\", \"value\": 7.5}\n```\n\nLet me know if you need more."

	var p payload
	err := JSON(text, &p)

	require.NoError(t, err)
	assert.Equal(t, 7.5, p.Value)
}

func TestJSON_BareFence(t *testing.T) {
	text := "```\n{\"name\": \"feasibility\", \"value\": 6}\n```"

	var p payload
	err := JSON(text, &p)

	require.NoError(t, err)
	assert.Equal(t, "feasibility", p.Name)
}

func TestJSON_BraceScanThroughProse(t *testing.T) {
	text := `Sure! Based on the design, {"name": "clarity", "value": 9} is my score. Hope that helps.`

	var p payload
	err := JSON(text, &p)

	require.NoError(t, err)
	assert.Equal(t, 9.0, p.Value)
}

func TestJSON_BracesInsideStringsDoNotConfuseScan(t *testing.T) {
	text := `Prelude {"name": "uses {braces} and \"quotes\"", "value": 2} trailer`

	var p payload
	err := JSON(text, &p)

	require.NoError(t, err)
	assert.Equal(t, `uses {braces} and "quotes"`, p.Name)
}

func TestJSON_NestedObject(t *testing.T) {
	text := `noise {"outer": {"name": "inner", "value": 3}} noise`

	var result map[string]payload
	err := JSON(text, &result)

	require.NoError(t, err)
	assert.Equal(t, "inner", result["outer"].Name)
}

func TestJSON_NoJSONAtAll(t *testing.T) {
	var p payload
	err := JSON("I am unable to score this design.", &p)

	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Contains(t, extractionErr.Preview, "unable to score")
}

func TestJSON_EmptyInput(t *testing.T) {
	var p payload
	err := JSON("   \n  ", &p)

	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.Contains(t, err.Error(), "empty")
}

func TestJSON_UnbalancedBraces(t *testing.T) {
	var p payload
	err := JSON(`broken {"name": "x", "value":`, &p)

	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
}

func TestJSON_PreviewIsTruncated(t *testing.T) {
	long := strings.Repeat("no json here ", 100)

	var p payload
	err := JSON(long, &p)

	var extractionErr *ExtractionError
	require.ErrorAs(t, err, &extractionErr)
	assert.LessOrEqual(t, len(extractionErr.Preview), previewLimit+3)
	assert.True(t, strings.HasSuffix(extractionErr.Preview, "..."))
}
