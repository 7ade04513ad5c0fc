package coder

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bytedance/sonic"
)

// ErrInvalidProject is wrapped by every project document validation
// failure.
var ErrInvalidProject = errors.New("invalid project document")

// ProjectState is the full persistable state of a coding project.
type ProjectState struct {
	Store          *ResponseStore
	Ledger         *Ledger
	Mode           Mode
	IncludeMissing bool
}

// The persisted document carries exactly these keys; extra or missing
// keys are hard load failures.
type projectDocument struct {
	RawData         rawTableDoc                  `json:"raw_data"`
	NormalizedData  [][]Value                    `json:"normalized_data"`
	ResponseColumns []string                     `json:"response_columns"`
	Membership      map[string]map[string][]*int `json:"membership"`
	ResponseCounts  []countEntry                 `json:"response_counts"`
	CategoryValues  []categoryEntry              `json:"category_values"`
	Mode            string                       `json:"categorization_mode"`
	IncludeMissing  bool                         `json:"include_missing_data"`
}

type rawTableDoc struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

type countEntry struct {
	Value Value `json:"value"`
	Count int   `json:"count"`
}

type categoryEntry struct {
	Name   string              `json:"name"`
	Values map[string][]string `json:"values"`
}

var expectedProjectKeys = []string{
	"raw_data",
	"normalized_data",
	"response_columns",
	"membership",
	"response_counts",
	"category_values",
	"categorization_mode",
	"include_missing_data",
}

// SaveProject serializes the full project state. The Missing sentinel is
// written as JSON null, never as a string.
func SaveProject(state ProjectState) ([]byte, error) {
	store, ledger := state.Store, state.Ledger
	if store == nil || store.Empty() {
		return nil, ErrNoDataset
	}

	raw := rawTableDoc{Columns: append([]string{store.IDColumn()}, store.columns...)}
	raw.Rows = make([][]string, store.Len())
	normalized := make([][]Value, store.Len())
	for row := 0; row < store.Len(); row++ {
		cells := make([]string, 0, len(raw.Columns))
		cells = append(cells, store.ids[row])
		cells = append(cells, store.raw[row]...)
		raw.Rows[row] = cells
		normalized[row] = append([]Value(nil), store.normalized[row]...)
	}

	membership := make(map[string]map[string][]*int, len(ledger.Categories()))
	categories := make([]categoryEntry, 0, len(ledger.Categories()))
	for _, name := range ledger.Categories() {
		byColumn := make(map[string][]*int, len(store.columns))
		values := make(map[string][]string, len(store.columns))
		for _, col := range store.columns {
			cells := make([]*int, store.Len())
			for row := range cells {
				switch ledger.Membership(store, name, col, row) {
				case Member:
					one := 1
					cells[row] = &one
				case NotMember:
					zero := 0
					cells[row] = &zero
				}
			}
			byColumn[col] = cells
			set := ledger.ColumnValues(name, col)
			texts := make([]string, 0, len(set))
			for _, v := range set.Sorted() {
				texts = append(texts, v.String())
			}
			values[col] = texts
		}
		membership[name] = byColumn
		categories = append(categories, categoryEntry{Name: name, Values: values})
	}

	counts := make([]countEntry, 0, len(store.counts))
	for _, pair := range store.CountPairs() {
		counts = append(counts, countEntry{Value: pair.Value, Count: pair.Count})
	}

	doc := projectDocument{
		RawData:         raw,
		NormalizedData:  normalized,
		ResponseColumns: append([]string(nil), store.columns...),
		Membership:      membership,
		ResponseCounts:  counts,
		CategoryValues:  categories,
		Mode:            string(state.Mode),
		IncludeMissing:  state.IncludeMissing,
	}
	data, err := sonic.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode project: %w", err)
	}
	return data, nil
}

// LoadProject validates and decodes a project document, returning a fully
// reconstructed state. Validation is all-or-nothing: on any failure no
// partially-built state escapes, so callers can keep their current project
// untouched.
func LoadProject(data []byte) (*ProjectState, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: document is empty", ErrInvalidProject)
	}

	var keyed map[string]json.RawMessage
	if err := sonic.Unmarshal(data, &keyed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	if err := validateKeySet(keyed); err != nil {
		return nil, err
	}

	var doc projectDocument
	if err := sonic.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	// Booleans are real booleans, not truthy strings.
	var includeMissing bool
	if err := sonic.Unmarshal(keyed["include_missing_data"], &includeMissing); err != nil {
		return nil, fmt.Errorf("%w: include_missing_data is not a boolean", ErrInvalidProject)
	}

	state, err := rebuildState(&doc)
	if err != nil {
		return nil, err
	}
	return state, nil
}

func validateKeySet(keyed map[string]json.RawMessage) error {
	expected := make(map[string]struct{}, len(expectedProjectKeys))
	for _, key := range expectedProjectKeys {
		expected[key] = struct{}{}
		if _, ok := keyed[key]; !ok {
			return fmt.Errorf("%w: key %q is missing", ErrInvalidProject, key)
		}
	}
	for key := range keyed {
		if _, ok := expected[key]; !ok {
			return fmt.Errorf("%w: unexpected key %q", ErrInvalidProject, key)
		}
	}
	return nil
}

func rebuildState(doc *projectDocument) (*ProjectState, error) {
	mode := Mode(doc.Mode)
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: unknown categorization mode %q", ErrInvalidProject, doc.Mode)
	}
	if len(doc.ResponseColumns) == 0 {
		return nil, fmt.Errorf("%w: response_columns is empty", ErrInvalidProject)
	}
	if len(doc.RawData.Columns) != len(doc.ResponseColumns)+1 {
		return nil, fmt.Errorf("%w: raw_data columns do not match response_columns", ErrInvalidProject)
	}
	for i, col := range doc.ResponseColumns {
		if doc.RawData.Columns[i+1] != col {
			return nil, fmt.Errorf("%w: raw_data columns do not match response_columns", ErrInvalidProject)
		}
	}
	rows := len(doc.RawData.Rows)
	if rows == 0 {
		return nil, fmt.Errorf("%w: raw_data is empty", ErrInvalidProject)
	}
	if len(doc.NormalizedData) != rows {
		return nil, fmt.Errorf("%w: normalized_data row count does not match raw_data", ErrInvalidProject)
	}

	store := NewResponseStore()
	store.idColumn = doc.RawData.Columns[0]
	store.columns = append([]string(nil), doc.ResponseColumns...)
	store.colIndex = make(map[string]int, len(store.columns))
	for i, col := range store.columns {
		store.colIndex[col] = i
	}
	for r, rawRow := range doc.RawData.Rows {
		if len(rawRow) != len(doc.RawData.Columns) {
			return nil, fmt.Errorf("%w: raw_data row %d has %d cells, want %d", ErrInvalidProject, r, len(rawRow), len(doc.RawData.Columns))
		}
		if len(doc.NormalizedData[r]) != len(store.columns) {
			return nil, fmt.Errorf("%w: normalized_data row %d has %d cells, want %d", ErrInvalidProject, r, len(doc.NormalizedData[r]), len(store.columns))
		}
		store.ids = append(store.ids, rawRow[0])
		store.raw = append(store.raw, append([]string(nil), rawRow[1:]...))
		normRow := append([]Value(nil), doc.NormalizedData[r]...)
		store.normalized = append(store.normalized, normRow)
		for _, v := range normRow {
			store.counts[v]++
		}
	}

	if err := checkCounts(store, doc.ResponseCounts); err != nil {
		return nil, err
	}
	ledger, err := rebuildLedger(store, doc)
	if err != nil {
		return nil, err
	}
	if err := checkMembership(store, ledger, doc.Membership); err != nil {
		return nil, err
	}

	return &ProjectState{
		Store:          store,
		Ledger:         ledger,
		Mode:           mode,
		IncludeMissing: doc.IncludeMissing,
	}, nil
}

func checkCounts(store *ResponseStore, persisted []countEntry) error {
	if len(persisted) == 0 {
		return fmt.Errorf("%w: response_counts is empty", ErrInvalidProject)
	}
	seen := make(map[Value]struct{}, len(persisted))
	for _, entry := range persisted {
		if _, dup := seen[entry.Value]; dup {
			return fmt.Errorf("%w: duplicate response count for %q", ErrInvalidProject, entry.Value.String())
		}
		seen[entry.Value] = struct{}{}
		if store.counts[entry.Value] != entry.Count {
			return fmt.Errorf("%w: response count for %q does not match the dataset", ErrInvalidProject, entry.Value.String())
		}
	}
	if len(seen) != len(store.counts) {
		return fmt.Errorf("%w: response_counts does not cover the dataset", ErrInvalidProject)
	}
	return nil
}

func rebuildLedger(store *ResponseStore, doc *projectDocument) (*Ledger, error) {
	if len(doc.CategoryValues) == 0 {
		return nil, fmt.Errorf("%w: category_values is empty", ErrInvalidProject)
	}
	ledger := NewLedger(store.Columns())
	ledger.order = nil
	ledger.cats = make(map[string]*categoryRecord, len(doc.CategoryValues))
	for _, entry := range doc.CategoryValues {
		if entry.Name == "" {
			return nil, fmt.Errorf("%w: category with empty name", ErrInvalidProject)
		}
		if ledger.Has(entry.Name) {
			return nil, fmt.Errorf("%w: duplicate category %q", ErrInvalidProject, entry.Name)
		}
		rec := newCategoryRecord(store.Columns())
		for col, texts := range entry.Values {
			set, ok := rec.values[col]
			if !ok {
				return nil, fmt.Errorf("%w: category %q references unknown column %q", ErrInvalidProject, entry.Name, col)
			}
			for _, text := range texts {
				if text == "" {
					return nil, fmt.Errorf("%w: category %q holds an empty value", ErrInvalidProject, entry.Name)
				}
				set.Add(NewValue(text))
			}
		}
		ledger.cats[entry.Name] = rec
		ledger.order = append(ledger.order, entry.Name)
	}
	if !ledger.Has(Uncategorized) {
		return nil, fmt.Errorf("%w: %q category is missing", ErrInvalidProject, Uncategorized)
	}
	// Display order keeps Uncategorized last no matter how the document
	// lists its categories; Create and the front ends rely on that.
	for i, name := range ledger.order {
		if name == Uncategorized {
			ledger.order = append(ledger.order[:i], ledger.order[i+1:]...)
			ledger.order = append(ledger.order, Uncategorized)
			break
		}
	}
	return ledger, nil
}

// checkMembership verifies the persisted wide membership table against
// the one derived from the value sets, so a hand-edited or corrupted
// document cannot load into an inconsistent project.
func checkMembership(store *ResponseStore, ledger *Ledger, persisted map[string]map[string][]*int) error {
	if len(persisted) != len(ledger.Categories()) {
		return fmt.Errorf("%w: membership does not cover every category", ErrInvalidProject)
	}
	for _, name := range ledger.Categories() {
		byColumn, ok := persisted[name]
		if !ok {
			return fmt.Errorf("%w: membership is missing category %q", ErrInvalidProject, name)
		}
		if len(byColumn) != len(store.columns) {
			return fmt.Errorf("%w: membership for %q does not cover every column", ErrInvalidProject, name)
		}
		for _, col := range store.columns {
			cells, ok := byColumn[col]
			if !ok {
				return fmt.Errorf("%w: membership for %q is missing column %q", ErrInvalidProject, name, col)
			}
			if len(cells) != store.Len() {
				return fmt.Errorf("%w: membership for %q/%q has %d rows, want %d", ErrInvalidProject, name, col, len(cells), store.Len())
			}
			for row, cell := range cells {
				derived := ledger.Membership(store, name, col, row)
				switch {
				case cell == nil:
					if derived != Inapplicable {
						return fmt.Errorf("%w: membership for %q/%q row %d is inconsistent", ErrInvalidProject, name, col, row)
					}
				case *cell == 1:
					if derived != Member {
						return fmt.Errorf("%w: membership for %q/%q row %d is inconsistent", ErrInvalidProject, name, col, row)
					}
				case *cell == 0:
					if derived != NotMember {
						return fmt.Errorf("%w: membership for %q/%q row %d is inconsistent", ErrInvalidProject, name, col, row)
					}
				default:
					return fmt.Errorf("%w: membership for %q/%q row %d holds %d", ErrInvalidProject, name, col, row, *cell)
				}
			}
		}
	}
	return nil
}
