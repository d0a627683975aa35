// Package scoring combines multiple reviewers' numeric scores into weighted
// per-criterion consensus values, an overall score, and a variance-based
// agreement classification.
package scoring

import "fmt"

// Criterion is one named, weighted, bounded dimension of evaluation
// configured for a run (e.g. clarity, feasibility).
type Criterion struct {
	Name   string  `yaml:"name" json:"name"`
	Weight float64 `yaml:"weight" json:"weight"` // Defaults to 1.0 when unset
	Min    float64 `yaml:"min" json:"min"`
	Max    float64 `yaml:"max" json:"max"`
}

// EffectiveWeight returns the criterion weight, defaulting to 1.0.
func (c Criterion) EffectiveWeight() float64 {
	if c.Weight <= 0 {
		return 1.0
	}
	return c.Weight
}

// Validate checks if the Criterion has valid field values.
func (c Criterion) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("criterion name cannot be empty")
	}
	if c.Weight < 0 {
		return fmt.Errorf("criterion '%s': weight must be >= 0, got %g", c.Name, c.Weight)
	}
	if c.Max <= c.Min {
		return fmt.Errorf("criterion '%s': max (%g) must be greater than min (%g)", c.Name, c.Max, c.Min)
	}
	return nil
}

// Score is one reviewer's numeric judgement on one criterion. Scores are
// ephemeral: they exist per (design, reviewer, criterion) and are consumed
// by aggregation.
type Score struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
	Variance float64 `json:"variance,omitempty"`
	Comment  string  `json:"comment,omitempty"`
	Model    string  `json:"model,omitempty"`
}

// AggregatedScore is the consensus view of one criterion across all
// reviewers: weighted mean value, population variance of the raw values,
// and the reviewers' comments joined into one string.
type AggregatedScore struct {
	Name     string  `json:"name"`
	Value    float64 `json:"value"`
	Weight   float64 `json:"weight"`
	Variance float64 `json:"variance"`
	Comments string  `json:"comments"`
}

// ConsensusLevel summarizes how much reviewers agreed, derived from the mean
// variance across criteria.
type ConsensusLevel string

const (
	ConsensusHigh   ConsensusLevel = "high"
	ConsensusMedium ConsensusLevel = "medium"
	ConsensusLow    ConsensusLevel = "low"
)

// Consensus classification thresholds on mean variance. These are part of
// the scoring contract and are intentionally not configurable.
const (
	highConsensusCeiling   = 0.5
	mediumConsensusCeiling = 1.5
)
