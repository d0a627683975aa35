// Package extract recovers structured JSON from free-form model output.
// Models wrap their answers in prose, markdown fences, or leading chatter;
// extraction tries progressively more forgiving strategies before giving up.
package extract

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// previewLimit caps how much of the offending text an ExtractionError
// carries, keeping logs readable when a model dumps pages of prose.
const previewLimit = 200

var fencedBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ExtractionError reports that no strategy could recover valid JSON from
// the text. The preview is truncated raw input for diagnostics.
type ExtractionError struct {
	Preview string
	Err     error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("failed to extract JSON from model output (preview: %q): %v", e.Preview, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// JSON unmarshals the first JSON object found in text into v. Strategies are
// tried in order:
//
//  1. The trimmed text as-is.
//  2. The contents of the first fenced code block (```json or bare ```).
//  3. The substring from the first '{' to its balanced closing '}'.
//
// A nil return means v is populated; any failure is an *ExtractionError.
func JSON(text string, v interface{}) error {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return &ExtractionError{Preview: "", Err: fmt.Errorf("output is empty")}
	}

	var lastErr error

	if err := json.Unmarshal([]byte(trimmed), v); err == nil {
		return nil
	} else {
		lastErr = err
	}

	if match := fencedBlockPattern.FindStringSubmatch(trimmed); match != nil {
		candidate := strings.TrimSpace(match[1])
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	if candidate := braceSpan(trimmed); candidate != "" {
		if err := json.Unmarshal([]byte(candidate), v); err == nil {
			return nil
		} else {
			lastErr = err
		}
	}

	return &ExtractionError{Preview: preview(trimmed), Err: lastErr}
}

// braceSpan returns the substring from the first '{' to its matching '}',
// tracking string literals and escapes so braces inside JSON strings do not
// unbalance the count. Returns "" when no balanced object exists.
func braceSpan(text string) string {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]

		if escaped {
			escaped = false
			continue
		}

		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}

func preview(text string) string {
	if len(text) <= previewLimit {
		return text
	}
	return text[:previewLimit] + "..."
}
