// Package ranking orders scored design candidates and distills the
// reviewers' qualitative feedback into per-candidate summaries.
package ranking

import (
	"sort"

	"github.com/dyluth/moot/internal/scoring"
)

// Review carries one reviewer's qualitative feedback on one design.
type Review struct {
	Model      string   `json:"model"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
}

// Candidate is one scored design entering the ranking: its aggregated
// per-criterion scores plus the raw reviews they came from.
type Candidate struct {
	DesignID    string
	GeneratedBy string
	Scores      []scoring.AggregatedScore
	Reviews     []Review
}

// Entry is one row of the final ranking.
type Entry struct {
	Rank        int                       `json:"rank"`
	DesignID    string                    `json:"design_id"`
	GeneratedBy string                    `json:"generated_by"`
	Overall     float64                   `json:"overall_score"`
	Consensus   scoring.ConsensusLevel    `json:"consensus"`
	Scores      []scoring.AggregatedScore `json:"aggregated_scores"`
	Summary     Summary                   `json:"summary"`
}

// Rank orders candidates by overall score, highest first, and assigns
// contiguous ranks starting at 1. The sort is stable: candidates with equal
// overall scores keep their input order, so ties resolve deterministically
// to whoever was configured first.
func Rank(candidates []Candidate) []Entry {
	entries := make([]Entry, len(candidates))
	for i, candidate := range candidates {
		entries[i] = Entry{
			DesignID:    candidate.DesignID,
			GeneratedBy: candidate.GeneratedBy,
			Overall:     scoring.Overall(candidate.Scores),
			Consensus:   scoring.Consensus(candidate.Scores),
			Scores:      candidate.Scores,
			Summary:     Summarize(candidate.Reviews),
		}
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Overall > entries[j].Overall
	})

	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}
