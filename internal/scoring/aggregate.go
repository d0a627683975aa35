package scoring

import (
	"fmt"
	"math"
	"strings"
)

// NoScoresComment is recorded on the placeholder aggregate emitted for a
// criterion that received no scores from any reviewer.
const NoScoresComment = "No scores provided"

// NoCommentsFallback is recorded when every contributing reviewer left the
// comment field empty.
const NoCommentsFallback = "No comments"

// Aggregate combines all reviewers' scores into one AggregatedScore per
// configured criterion, in configuration order.
//
// Aggregation never fails and never produces NaN: a criterion with zero
// contributing scores yields a placeholder pinned to the criterion's minimum
// with NoScoresComment, so downstream ranking always sees a complete set.
func Aggregate(criteria []Criterion, scores []Score) []AggregatedScore {
	aggregated := make([]AggregatedScore, 0, len(criteria))

	for _, criterion := range criteria {
		var contributing []Score
		for _, score := range scores {
			if score.Name == criterion.Name {
				contributing = append(contributing, score)
			}
		}

		if len(contributing) == 0 {
			aggregated = append(aggregated, AggregatedScore{
				Name:     criterion.Name,
				Value:    criterion.Min,
				Weight:   criterion.EffectiveWeight(),
				Variance: 0,
				Comments: NoScoresComment,
			})
			continue
		}

		aggregated = append(aggregated, aggregateCriterion(criterion, contributing))
	}

	return aggregated
}

// aggregateCriterion computes the weighted mean, population variance, and
// joined comments for one criterion with at least one contributing score.
func aggregateCriterion(criterion Criterion, contributing []Score) AggregatedScore {
	// The criterion's declared weight is applied uniformly across all
	// contributing reviewers for the run, so the weighted mean collapses to
	// a plain mean; the formula is kept in weighted form because per-score
	// weights are preserved in the raw score files.
	weight := criterion.EffectiveWeight()

	var weightedSum, totalWeight float64
	for _, score := range contributing {
		weightedSum += score.Value * weight
		totalWeight += weight
	}
	mean := weightedSum / totalWeight

	// Population variance of the raw values around the weighted mean
	var squaredDeviation float64
	for _, score := range contributing {
		deviation := score.Value - mean
		squaredDeviation += deviation * deviation
	}
	variance := squaredDeviation / float64(len(contributing))

	return AggregatedScore{
		Name:     criterion.Name,
		Value:    round2(mean),
		Weight:   weight,
		Variance: round2(variance),
		Comments: joinComments(contributing),
	}
}

// joinComments concatenates each reviewer's "[model] comment" with
// semicolons, omitting empty comments.
func joinComments(contributing []Score) string {
	var parts []string
	for _, score := range contributing {
		if score.Comment == "" {
			continue
		}
		if score.Model != "" {
			parts = append(parts, fmt.Sprintf("[%s] %s", score.Model, score.Comment))
		} else {
			parts = append(parts, score.Comment)
		}
	}

	if len(parts) == 0 {
		return NoCommentsFallback
	}
	return strings.Join(parts, "; ")
}

// Overall computes the weighted mean of the aggregated criterion values,
// using each criterion's own weight. Defined as 0 when the total weight is
// 0 (e.g. zero criteria configured).
func Overall(aggregated []AggregatedScore) float64 {
	var weightedSum, totalWeight float64
	for _, agg := range aggregated {
		weightedSum += agg.Value * agg.Weight
		totalWeight += agg.Weight
	}

	if totalWeight == 0 {
		return 0
	}
	return round2(weightedSum / totalWeight)
}

// Consensus classifies reviewer agreement from the mean variance across all
// criteria: high below 0.5, medium below 1.5, low otherwise.
func Consensus(aggregated []AggregatedScore) ConsensusLevel {
	if len(aggregated) == 0 {
		return ConsensusHigh
	}

	var total float64
	for _, agg := range aggregated {
		total += agg.Variance
	}
	meanVariance := total / float64(len(aggregated))

	switch {
	case meanVariance < highConsensusCeiling:
		return ConsensusHigh
	case meanVariance < mediumConsensusCeiling:
		return ConsensusMedium
	default:
		return ConsensusLow
	}
}

// round2 rounds to 2 decimal places for stable display and deterministic
// comparison.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
