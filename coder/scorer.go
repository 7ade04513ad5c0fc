package coder

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// Scorer rates how well a candidate string matches a query. Scores are on
// a 0-100 scale, higher is better. Implementations must be pure: the same
// inputs always produce the same score.
type Scorer interface {
	Score(query, candidate string) int
}

// WeightedScorer is the default Scorer: a weighted blend of exact, prefix,
// substring, token-overlap and edit-distance signals over already
// normalized text.
type WeightedScorer struct{}

// Score implements Scorer.
func (WeightedScorer) Score(query, candidate string) int {
	q := strings.TrimSpace(strings.ToLower(query))
	c := strings.TrimSpace(strings.ToLower(candidate))
	if q == "" || c == "" {
		return 0
	}
	if q == c {
		return 100
	}

	score := ratioScore(q, c)

	if strings.HasPrefix(c, q) || strings.HasPrefix(q, c) {
		if score < 90 {
			score = 90
		}
	} else if strings.Contains(c, q) || strings.Contains(q, c) {
		shorter, longer := len(q), len(c)
		if shorter > longer {
			shorter, longer = longer, shorter
		}
		substringScore := 60 + (25*shorter)/longer
		if score < substringScore {
			score = substringScore
		}
	}

	if overlap := tokenOverlapScore(q, c); overlap > score {
		score = overlap
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}
	return score
}

// ratioScore is a normalized Levenshtein similarity scaled to 0-100. The
// distance counts runes, so the length it is normalized by must too.
func ratioScore(a, b string) int {
	dist := levenshtein.ComputeDistance(a, b)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	if maxLen == 0 {
		return 0
	}
	return (100 * (maxLen - dist)) / maxLen
}

// tokenOverlapScore compares the two strings as unordered token sets, so
// "red apples" still scores highly against "apples red and shiny".
func tokenOverlapScore(a, b string) int {
	aTokens := strings.Fields(a)
	bTokens := strings.Fields(b)
	if len(aTokens) == 0 || len(bTokens) == 0 {
		return 0
	}
	bSet := make(map[string]struct{}, len(bTokens))
	for _, t := range bTokens {
		bSet[t] = struct{}{}
	}
	shared := 0
	seen := make(map[string]struct{}, len(aTokens))
	for _, t := range aTokens {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		if _, ok := bSet[t]; ok {
			shared++
		}
	}
	smaller := len(seen)
	if len(bSet) < smaller {
		smaller = len(bSet)
	}
	if smaller == 0 {
		return 0
	}
	// Full containment of the smaller token set caps at 95, not 100, so
	// only an exact match earns a perfect score.
	return (95 * shared) / smaller
}
