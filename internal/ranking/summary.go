package ranking

import "strings"

// Summary is the qualitative digest of all reviews for one candidate.
// Common items are those raised by at least half of the reviewers; the
// remainder are kept as notable mentions so no feedback is lost.
type Summary struct {
	CommonStrengths  []string `json:"common_strengths"`
	CommonWeaknesses []string `json:"common_weaknesses"`
	OtherStrengths   []string `json:"other_strengths,omitempty"`
	OtherWeaknesses  []string `json:"other_weaknesses,omitempty"`
}

// Summarize partitions the reviewers' strengths and weaknesses into common
// and other items. An item is common when at least half the reviews mention
// it; matching is case-insensitive on trimmed text, and the first-seen
// spelling wins. With zero reviews the summary is empty.
func Summarize(reviews []Review) Summary {
	commonStrengths, otherStrengths := partition(reviews, func(r Review) []string { return r.Strengths })
	commonWeaknesses, otherWeaknesses := partition(reviews, func(r Review) []string { return r.Weaknesses })

	return Summary{
		CommonStrengths:  commonStrengths,
		CommonWeaknesses: commonWeaknesses,
		OtherStrengths:   otherStrengths,
		OtherWeaknesses:  otherWeaknesses,
	}
}

func partition(reviews []Review, items func(Review) []string) (common, other []string) {
	type tally struct {
		original string
		count    int
	}

	counts := make(map[string]*tally)
	var order []string

	for _, review := range reviews {
		seen := make(map[string]bool)
		for _, item := range items(review) {
			trimmed := strings.TrimSpace(item)
			if trimmed == "" {
				continue
			}
			key := strings.ToLower(trimmed)
			if seen[key] {
				continue
			}
			seen[key] = true

			if _, ok := counts[key]; !ok {
				counts[key] = &tally{original: trimmed}
				order = append(order, key)
			}
			counts[key].count++
		}
	}

	for _, key := range order {
		t := counts[key]
		if t.count*2 >= len(reviews) {
			common = append(common, t.original)
		} else {
			other = append(other, t.original)
		}
	}
	return common, other
}
