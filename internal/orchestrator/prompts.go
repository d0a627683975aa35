package orchestrator

import (
	"fmt"
	"strings"

	"github.com/dyluth/moot/internal/scoring"
)

// generationPrompt asks a generator model to produce one design proposal.
// The workspace path is the only location the runner may write scratch files
// to; the final answer must come back over the bus as JSON.
func generationPrompt(topic, brief, workspace string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are one of several models competing to produce the best design for: %s\n\n", topic)
	if brief != "" {
		fmt.Fprintf(&b, "Brief:\n%s\n\n", brief)
	}
	fmt.Fprintf(&b, "Your private workspace is %s - do not read or write outside it.\n\n", workspace)
	b.WriteString("Respond with a single JSON object in a fenced code block:\n\n")
	b.WriteString("```json\n{\n  \"title\": \"short design title\",\n  \"summary\": \"one-paragraph summary\",\n  \"content\": \"the full design in markdown\"\n}\n```\n")

	return b.String()
}

// reviewPrompt asks a reviewer model for qualitative feedback on one design.
func reviewPrompt(topic, designContent string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Review the following design proposal for: %s\n\n", topic)
	b.WriteString("--- DESIGN ---\n")
	b.WriteString(designContent)
	b.WriteString("\n--- END DESIGN ---\n\n")
	b.WriteString("Respond with a single JSON object in a fenced code block:\n\n")
	b.WriteString("```json\n{\n  \"strengths\": [\"...\"],\n  \"weaknesses\": [\"...\"]\n}\n```\n")

	return b.String()
}

// scoringPrompt asks a reviewer model for numeric scores against the
// configured criteria.
func scoringPrompt(topic, designContent string, criteria []scoring.Criterion) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Score the following design proposal for: %s\n\n", topic)
	b.WriteString("--- DESIGN ---\n")
	b.WriteString(designContent)
	b.WriteString("\n--- END DESIGN ---\n\n")
	b.WriteString("Score each criterion:\n")
	for _, criterion := range criteria {
		fmt.Fprintf(&b, "- %s (%g to %g)\n", criterion.Name, criterion.Min, criterion.Max)
	}
	b.WriteString("\nRespond with a single JSON object in a fenced code block:\n\n")
	b.WriteString("```json\n{\n  \"scores\": [\n    {\"name\": \"<criterion>\", \"value\": 0, \"comment\": \"why\"}\n  ]\n}\n```\n")

	return b.String()
}
