package coder

import "fmt"

// Ledger is the central bookkeeping structure for category membership.
//
// For every (category, response column) pair it keeps the deduplicated set
// of normalized values assigned to that category in that column. These
// value sets are the single source of truth: the wide tri-state membership
// table (1 / 0 / inapplicable per row) is derived on demand against the
// store, so the two views can never drift apart.
type Ledger struct {
	columns []string
	order   []string
	cats    map[string]*categoryRecord

	// clearUncategorizedInMulti controls whether assigning a value to a
	// category in Multi mode also removes it from Uncategorized. Single
	// mode always removes.
	clearUncategorizedInMulti bool
}

type categoryRecord struct {
	values map[string]ValueSet // by response column
}

func newCategoryRecord(columns []string) *categoryRecord {
	rec := &categoryRecord{values: make(map[string]ValueSet, len(columns))}
	for _, col := range columns {
		rec.values[col] = make(ValueSet)
	}
	return rec
}

// NewLedger creates a ledger over the given response columns with a single
// empty Uncategorized category.
func NewLedger(columns []string) *Ledger {
	l := &Ledger{
		columns: append([]string(nil), columns...),
		order:   []string{Uncategorized},
		cats:    map[string]*categoryRecord{Uncategorized: newCategoryRecord(columns)},
	}
	return l
}

// NewLedgerFor creates a ledger for the store's columns with every
// non-missing value assigned to Uncategorized, per column of origin.
func NewLedgerFor(store *ResponseStore) *Ledger {
	l := NewLedger(store.Columns())
	uncat := l.cats[Uncategorized]
	for _, col := range l.columns {
		uncat.values[col] = store.ColumnValues(col)
	}
	return l
}

// SetClearUncategorizedInMulti sets the Multi-mode policy: when true,
// categorizing a value removes it from Uncategorized even in Multi mode.
func (l *Ledger) SetClearUncategorizedInMulti(clear bool) {
	l.clearUncategorizedInMulti = clear
}

// ClearUncategorizedInMulti returns the current Multi-mode policy.
func (l *Ledger) ClearUncategorizedInMulti() bool {
	return l.clearUncategorizedInMulti
}

// Columns returns the response columns the ledger tracks.
func (l *Ledger) Columns() []string {
	return append([]string(nil), l.columns...)
}

// Categories returns category names in display order: creation order for
// user categories, with Uncategorized always last.
func (l *Ledger) Categories() []string {
	return append([]string(nil), l.order...)
}

// Has reports whether a category with the given name exists.
func (l *Ledger) Has(name string) bool {
	_, ok := l.cats[name]
	return ok
}

// Protected reports whether the category name cannot be renamed or
// deleted.
func (l *Ledger) Protected(name string) bool {
	return name == Uncategorized
}

// Create adds a new empty category, inserted in display order after all
// existing user categories and before Uncategorized.
func (l *Ledger) Create(name string) error {
	if name == "" {
		return ErrEmptyName
	}
	if l.Has(name) {
		return fmt.Errorf("create category %q: %w", name, ErrAlreadyExists)
	}
	l.cats[name] = newCategoryRecord(l.columns)
	// Keep Uncategorized last.
	l.order = append(l.order[:len(l.order)-1], name, Uncategorized)
	return nil
}

// Rename renames a category, preserving its display position and the
// exact contents of its per-column value sets.
func (l *Ledger) Rename(old, new string) error {
	if new == "" {
		return ErrEmptyName
	}
	if l.Protected(old) {
		return fmt.Errorf("rename category %q: %w", old, ErrProtected)
	}
	if l.Has(new) {
		return fmt.Errorf("rename to %q: %w", new, ErrAlreadyExists)
	}
	rec := l.mustCategory(old)
	delete(l.cats, old)
	l.cats[new] = rec
	for i, name := range l.order {
		if name == old {
			l.order[i] = new
			break
		}
	}
	return nil
}

// Delete removes the named categories. In Single mode each deleted
// category's values return to Uncategorized, per column. Protected
// categories are skipped silently; callers are expected to pre-filter.
func (l *Ledger) Delete(names []string, mode Mode) {
	uncat := l.cats[Uncategorized]
	for _, name := range names {
		if l.Protected(name) {
			continue
		}
		rec := l.mustCategory(name)
		if mode == ModeSingle {
			for _, col := range l.columns {
				uncat.values[col].Union(rec.values[col])
			}
		}
		delete(l.cats, name)
		for i, n := range l.order {
			if n == name {
				l.order = append(l.order[:i], l.order[i+1:]...)
				break
			}
		}
	}
}

// Categorize assigns the given values, in the given response column, to
// every target category. In Single mode (or in Multi mode under the
// clear-Uncategorized policy) the values are first removed from
// Uncategorized for that column. Unknown categories or columns are caller
// contract violations and panic.
func (l *Ledger) Categorize(values ValueSet, categories []string, column string, mode Mode) {
	l.mustColumn(column)
	if mode == ModeSingle || (mode == ModeMulti && l.clearUncategorizedInMulti) {
		l.cats[Uncategorized].values[column].Subtract(values)
	}
	for _, name := range categories {
		l.mustCategory(name).values[column].Union(values)
	}
}

// Recategorize moves the given values out of the source category and into
// the target categories for the given column. The source is always
// cleared, regardless of mode.
func (l *Ledger) Recategorize(values ValueSet, categories []string, from, column string) {
	l.mustColumn(column)
	l.mustCategory(from).values[column].Subtract(values)
	for _, name := range categories {
		l.mustCategory(name).values[column].Union(values)
	}
}

// ReapplyCodeframe reconciles values newly appended in the given column
// with the accumulated codeframe: a value already assigned to categories
// (in any column) is assigned to them in this column too; a value unknown
// to the codeframe lands in Uncategorized.
func (l *Ledger) ReapplyCodeframe(column string, values ValueSet, mode Mode) {
	l.mustColumn(column)
	uncat := l.cats[Uncategorized].values[column]
	for v := range values {
		assigned := l.categoriesOf(v)
		if len(assigned) == 0 {
			uncat.Add(v)
			continue
		}
		for _, name := range assigned {
			l.cats[name].values[column].Add(v)
		}
		if mode == ModeSingle || (mode == ModeMulti && l.clearUncategorizedInMulti) {
			uncat.Remove(v)
		} else {
			uncat.Add(v)
		}
	}
}

// categoriesOf returns the user categories holding v in any column, in
// display order.
func (l *Ledger) categoriesOf(v Value) []string {
	var out []string
	for _, name := range l.order {
		if name == Uncategorized {
			continue
		}
		rec := l.cats[name]
		for _, col := range l.columns {
			if rec.values[col].Has(v) {
				out = append(out, name)
				break
			}
		}
	}
	return out
}

// Values returns the deduplicated values of a category across all
// response columns.
func (l *Ledger) Values(category string) ValueSet {
	rec := l.mustCategory(category)
	out := make(ValueSet)
	for _, col := range l.columns {
		out.Union(rec.values[col])
	}
	return out
}

// ColumnValues returns the values of a category for one response column.
func (l *Ledger) ColumnValues(category, column string) ValueSet {
	l.mustColumn(column)
	return l.mustCategory(category).values[column].Clone()
}

// Membership derives the tri-state membership cell for one row: a missing
// underlying value is inapplicable for every category, otherwise the cell
// is Member exactly when the row's value belongs to the category in that
// column.
func (l *Ledger) Membership(store *ResponseStore, category, column string, row int) Membership {
	v := store.Value(row, column)
	if v.IsMissing() {
		return Inapplicable
	}
	if l.mustCategory(category).values[column].Has(v) {
		return Member
	}
	return NotMember
}

// MembershipColumn derives the full membership column for one (category,
// response column) pair.
func (l *Ledger) MembershipColumn(store *ResponseStore, category, column string) []Membership {
	out := make([]Membership, store.Len())
	for row := range out {
		out[row] = l.Membership(store, category, column, row)
	}
	return out
}

func (l *Ledger) mustCategory(name string) *categoryRecord {
	rec, ok := l.cats[name]
	if !ok {
		panic(fmt.Sprintf("coder: unknown category %q", name))
	}
	return rec
}

func (l *Ledger) mustColumn(column string) {
	for _, col := range l.columns {
		if col == column {
			return
		}
	}
	panic(fmt.Sprintf("coder: unknown response column %q", column))
}
