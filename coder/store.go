package coder

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Table is the raw tabular shape handed over by the import layer: an
// ordered header and rows of opaque cell values. The first column is the
// respondent id column, every later column is one survey question.
type Table struct {
	Columns []string
	Rows    [][]string
}

// ResponseStore holds the rectangular table of raw responses, its
// normalized counterpart, and per-value occurrence counts (the Missing
// sentinel included). Rows and columns are fixed once loaded; Append may
// only add rows of the same shape.
type ResponseStore struct {
	idColumn string
	columns  []string
	colIndex map[string]int

	ids        []string
	raw        [][]string
	normalized [][]Value

	counts map[Value]int
}

// NewResponseStore returns an empty store.
func NewResponseStore() *ResponseStore {
	return &ResponseStore{counts: make(map[Value]int)}
}

// Load replaces the store contents with the given table. The first column
// becomes the id sequence, the remaining columns become response columns.
// Blank id cells are backfilled with generated uuids.
func (s *ResponseStore) Load(t Table) error {
	if len(t.Rows) == 0 {
		return ErrEmptyDataset
	}
	if len(t.Columns) < 2 {
		return ErrTooFewColumns
	}

	s.idColumn = t.Columns[0]
	s.columns = append([]string(nil), t.Columns[1:]...)
	s.colIndex = make(map[string]int, len(s.columns))
	for i, col := range s.columns {
		s.colIndex[col] = i
	}
	s.ids = nil
	s.raw = nil
	s.normalized = nil
	s.counts = make(map[Value]int)

	s.appendRows(t.Rows)
	return nil
}

// Append normalizes and appends new rows, extending the value counts. It
// returns, per response column, the set of distinct non-missing values
// seen in the appended rows so the caller can reconcile the category
// ledger (reapplying the codeframe to previously-seen values).
func (s *ResponseStore) Append(t Table) ([]ValueSet, error) {
	if s.Empty() {
		return nil, ErrNoDataset
	}
	if len(t.Rows) == 0 {
		return nil, ErrEmptyDataset
	}
	if len(t.Columns) != len(s.columns)+1 {
		return nil, ErrShapeMismatch
	}

	from := len(s.ids)
	s.appendRows(t.Rows)

	appended := make([]ValueSet, len(s.columns))
	for c := range s.columns {
		appended[c] = make(ValueSet)
		for r := from; r < len(s.normalized); r++ {
			appended[c].Add(s.normalized[r][c])
		}
	}
	return appended, nil
}

func (s *ResponseStore) appendRows(rows [][]string) {
	for _, row := range rows {
		id := ""
		if len(row) > 0 {
			id = strings.TrimSpace(row[0])
		}
		if id == "" {
			id = uuid.NewString()
		}
		rawRow := make([]string, len(s.columns))
		normRow := make([]Value, len(s.columns))
		for c := range s.columns {
			cell := ""
			if c+1 < len(row) {
				cell = row[c+1]
			}
			rawRow[c] = cell
			normRow[c] = Normalize(cell)
			s.counts[normRow[c]]++
		}
		s.ids = append(s.ids, id)
		s.raw = append(s.raw, rawRow)
		s.normalized = append(s.normalized, normRow)
	}
}

// Empty reports whether no dataset has been loaded.
func (s *ResponseStore) Empty() bool {
	return len(s.ids) == 0
}

// Len returns the number of respondent rows.
func (s *ResponseStore) Len() int {
	return len(s.ids)
}

// IDColumn returns the name of the respondent id column.
func (s *ResponseStore) IDColumn() string {
	return s.idColumn
}

// Columns returns the response column names in table order.
func (s *ResponseStore) Columns() []string {
	return append([]string(nil), s.columns...)
}

// ID returns the respondent id of the given row.
func (s *ResponseStore) ID(row int) string {
	return s.ids[row]
}

// Value returns the normalized value of the given row in the named
// column. It panics on an unknown column, which is a caller bug.
func (s *ResponseStore) Value(row int, column string) Value {
	return s.normalized[row][s.mustColumn(column)]
}

// Raw returns the original imported cell text for the given row/column.
func (s *ResponseStore) Raw(row int, column string) string {
	return s.raw[row][s.mustColumn(column)]
}

// IsMissing reports whether the row's value in the named column is the
// Missing sentinel.
func (s *ResponseStore) IsMissing(row int, column string) bool {
	return s.normalized[row][s.mustColumn(column)].IsMissing()
}

// Count returns the number of occurrences of a value across the whole
// table, including Missing.
func (s *ResponseStore) Count(v Value) int {
	return s.counts[v]
}

// TotalResponses returns the number of cells in the table, i.e. the sum
// over all counts including Missing.
func (s *ResponseStore) TotalResponses() int {
	total := 0
	for _, n := range s.counts {
		total += n
	}
	return total
}

// MissingCount returns how many cells hold the Missing sentinel.
func (s *ResponseStore) MissingCount() int {
	return s.counts[Missing]
}

// UniqueValues returns the set of distinct non-missing values across the
// whole table.
func (s *ResponseStore) UniqueValues() ValueSet {
	set := make(ValueSet, len(s.counts))
	for v := range s.counts {
		set.Add(v)
	}
	return set
}

// ColumnValues returns the set of distinct non-missing values occurring
// in the named column.
func (s *ResponseStore) ColumnValues(column string) ValueSet {
	c := s.mustColumn(column)
	set := make(ValueSet)
	for r := range s.normalized {
		set.Add(s.normalized[r][c])
	}
	return set
}

// CountPair is one (value, occurrences) entry of the count table.
type CountPair struct {
	Value Value
	Count int
}

// CountPairs returns the full count table sorted by count descending,
// then value ascending, with the Missing entry last.
func (s *ResponseStore) CountPairs() []CountPair {
	out := make([]CountPair, 0, len(s.counts))
	for v, n := range s.counts {
		out = append(out, CountPair{Value: v, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value.IsMissing() != out[j].Value.IsMissing() {
			return out[j].Value.IsMissing()
		}
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Value.String() < out[j].Value.String()
	})
	return out
}

func (s *ResponseStore) mustColumn(column string) int {
	c, ok := s.colIndex[column]
	if !ok {
		panic(fmt.Sprintf("coder: unknown response column %q", column))
	}
	return c
}
