package coder

import (
	"fmt"
	"sort"
)

// ResponseCount pairs a category member value with its occurrence count
// across the whole table.
type ResponseCount struct {
	Value Value
	Count int
}

// CategoryMetric is one display row of the category pane: name, total
// occurrences of its member values, and a pre-formatted percentage. The
// percentage formula (with or without missing data in the denominator) is
// core business logic, so the formatted string is produced here rather
// than in the view.
type CategoryMetric struct {
	Name       string
	Count      int
	Percentage string
}

// ResponsesAndCounts lists a category's values with their counts, sorted
// by count descending then value ascending.
func ResponsesAndCounts(store *ResponseStore, ledger *Ledger, category string) []ResponseCount {
	values := ledger.Values(category)
	out := make([]ResponseCount, 0, len(values))
	for v := range values {
		out = append(out, ResponseCount{Value: v, Count: store.Count(v)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value.String() < out[j].Value.String()
	})
	return out
}

// CategoryMetrics returns one metric row per category in display order.
// When includeMissing is false, missing cells are excluded from the
// percentage denominator.
func CategoryMetrics(store *ResponseStore, ledger *Ledger, includeMissing bool) []CategoryMetric {
	denominator := store.TotalResponses()
	if !includeMissing {
		denominator -= store.MissingCount()
	}
	out := make([]CategoryMetric, 0, len(ledger.Categories()))
	for _, name := range ledger.Categories() {
		count := sumCounts(store, ledger.Values(name))
		percentage := 0.0
		if denominator > 0 {
			percentage = float64(count) / float64(denominator) * 100
		}
		out = append(out, CategoryMetric{
			Name:       name,
			Count:      count,
			Percentage: fmt.Sprintf("%.2f%%", percentage),
		})
	}
	return out
}

func sumCounts(store *ResponseStore, values ValueSet) int {
	total := 0
	for v := range values {
		total += store.Count(v)
	}
	return total
}
