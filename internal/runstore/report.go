package runstore

import (
	"fmt"
	"strings"

	"github.com/dyluth/moot/internal/ranking"
)

// renderResults produces the results.md report: the ranking table, each
// candidate's score breakdown and review summary, and any recorded failures.
func renderResults(topic string, entries []ranking.Entry, failures []Failure) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Design tournament: %s\n\n", topic)

	if len(entries) == 0 {
		b.WriteString("No designs were successfully scored.\n")
	} else {
		b.WriteString("## Ranking\n\n")
		b.WriteString("| Rank | Design | Model | Overall | Consensus |\n")
		b.WriteString("|------|--------|-------|---------|-----------|\n")
		for _, entry := range entries {
			fmt.Fprintf(&b, "| %d | %s | %s | %.2f | %s |\n",
				entry.Rank, entry.DesignID, entry.GeneratedBy, entry.Overall, entry.Consensus)
		}
		b.WriteString("\n")

		for _, entry := range entries {
			fmt.Fprintf(&b, "## #%d: %s (%s)\n\n", entry.Rank, entry.DesignID, entry.GeneratedBy)

			for _, score := range entry.Scores {
				fmt.Fprintf(&b, "- **%s**: %.2f (weight %.1f, variance %.2f) - %s\n",
					score.Name, score.Value, score.Weight, score.Variance, score.Comments)
			}
			b.WriteString("\n")

			writeItems(&b, "Strengths", entry.Summary.CommonStrengths, entry.Summary.OtherStrengths)
			writeItems(&b, "Weaknesses", entry.Summary.CommonWeaknesses, entry.Summary.OtherWeaknesses)
		}
	}

	if len(failures) > 0 {
		b.WriteString("## Failures\n\n")
		for _, failure := range failures {
			if failure.Design != "" && failure.Design != failure.Model {
				fmt.Fprintf(&b, "- **%s** on design '%s' (%s phase): %s\n",
					failure.Model, failure.Design, failure.Phase, failure.Message)
			} else {
				fmt.Fprintf(&b, "- **%s** (%s phase): %s\n", failure.Model, failure.Phase, failure.Message)
			}
		}
		b.WriteString("\n")
	}

	return b.String()
}

func writeItems(b *strings.Builder, heading string, common, other []string) {
	if len(common) == 0 && len(other) == 0 {
		return
	}
	fmt.Fprintf(b, "### %s\n\n", heading)
	for _, item := range common {
		fmt.Fprintf(b, "- %s (consensus)\n", item)
	}
	for _, item := range other {
		fmt.Fprintf(b, "- %s\n", item)
	}
	b.WriteString("\n")
}
