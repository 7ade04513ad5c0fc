package coder

import "sort"

// Match is one scored (row, column) occurrence of an uncategorized value.
// Duplicates are expected; AggregateMatches folds them for display.
type Match struct {
	Value Value
	Score int
}

// AggregatedMatch is the display-side fold of Match records for one
// distinct value: its best score and how many occurrences produced it.
type AggregatedMatch struct {
	Value Value
	Score int
	Count int
}

// MatchEngine fuzzy-matches a query against the currently-uncategorized
// response universe.
type MatchEngine struct {
	scorer Scorer
}

// NewMatchEngine constructs an engine around the given scorer.
func NewMatchEngine(scorer Scorer) *MatchEngine {
	return &MatchEngine{scorer: scorer}
}

// Match scores every (row, column) occurrence whose value is currently in
// Uncategorized for its column of origin. Each distinct value is scored
// once and the score reused across its occurrences. Threshold filtering is
// left to the consumer so it can be adjusted without re-querying.
func (e *MatchEngine) Match(query string, store *ResponseStore, ledger *Ledger) ([]Match, error) {
	if store.Empty() {
		return nil, ErrNoDataset
	}
	scores := make(map[Value]int)
	var out []Match
	for _, column := range ledger.Columns() {
		pool := ledger.ColumnValues(Uncategorized, column)
		for row := 0; row < store.Len(); row++ {
			v := store.Value(row, column)
			if v.IsMissing() || !pool.Has(v) {
				continue
			}
			score, ok := scores[v]
			if !ok {
				score = e.scorer.Score(query, v.String())
				scores[v] = score
			}
			out = append(out, Match{Value: v, Score: score})
		}
	}
	return out, nil
}

// AggregateMatches groups matches by value, keeping the maximum score and
// the occurrence count, drops entries scoring below threshold, and sorts
// by score descending, then count descending, then value ascending so
// repeated queries render identically.
func AggregateMatches(matches []Match, threshold int) []AggregatedMatch {
	grouped := make(map[Value]AggregatedMatch)
	for _, m := range matches {
		if m.Score < threshold {
			continue
		}
		agg := grouped[m.Value]
		agg.Value = m.Value
		agg.Count++
		if m.Score > agg.Score {
			agg.Score = m.Score
		}
		grouped[m.Value] = agg
	}
	out := make([]AggregatedMatch, 0, len(grouped))
	for _, agg := range grouped {
		out = append(out, agg)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value.String() < out[j].Value.String()
	})
	return out
}
