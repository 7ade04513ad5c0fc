package app

import (
	"errors"
	"fmt"
	"log"

	"fuzzycoder/coder"
)

// Session-level validation errors, rendered back to the user by the
// front end.
var (
	ErrNoSelection        = errors.New("no responses selected")
	ErrNoCategorySelected = errors.New("no categories selected")
	ErrSingleModeMulti    = errors.New("cannot categorize into multiple categories in Single mode")
	ErrUnknownCategory    = errors.New("unknown category")
)

// Session is the command layer tying the response store, the category
// ledger and the match engine together for one open project. There is
// exactly one logical writer (the interactive user), so no locking.
type Session struct {
	cfg    Config
	logger *log.Logger
	engine *coder.MatchEngine

	store          *coder.ResponseStore
	ledger         *coder.Ledger
	mode           coder.Mode
	includeMissing bool

	displayed   string
	lastMatches []coder.Match
}

// NewSession creates an empty session around the given scorer.
func NewSession(cfg Config, scorer coder.Scorer, logger *log.Logger) *Session {
	cfg.ApplyDefaults()
	return &Session{
		cfg:            cfg,
		logger:         logger,
		engine:         coder.NewMatchEngine(scorer),
		store:          coder.NewResponseStore(),
		displayed:      coder.Uncategorized,
		includeMissing: cfg.IncludeMissingInPercentages,
	}
}

// HasProject reports whether a dataset is currently loaded.
func (s *Session) HasProject() bool {
	return s.ledger != nil && !s.store.Empty()
}

// Mode returns the project's categorization mode.
func (s *Session) Mode() coder.Mode {
	return s.mode
}

// IncludeMissing reports whether missing data is included in percentage
// denominators.
func (s *Session) IncludeMissing() bool {
	return s.includeMissing
}

// SetIncludeMissing toggles the percentage denominator policy.
func (s *Session) SetIncludeMissing(include bool) {
	s.includeMissing = include
}

// NewProject replaces any current state with a freshly imported dataset.
// Everything starts in Uncategorized.
func (s *Session) NewProject(t coder.Table, mode coder.Mode) error {
	if !mode.Valid() {
		return fmt.Errorf("unknown categorization mode %q", mode)
	}
	store := coder.NewResponseStore()
	if err := store.Load(t); err != nil {
		return err
	}
	ledger := coder.NewLedgerFor(store)
	ledger.SetClearUncategorizedInMulti(s.cfg.ClearUncategorizedInMulti)

	s.store = store
	s.ledger = ledger
	s.mode = mode
	s.displayed = coder.Uncategorized
	s.lastMatches = nil
	s.logf("new project: %d rows, %d response columns, %s mode", store.Len(), len(store.Columns()), mode)
	return nil
}

// AppendData appends rows to the current dataset and reapplies the
// accumulated codeframe to new occurrences of previously-seen values.
func (s *Session) AppendData(t coder.Table) error {
	if !s.HasProject() {
		return coder.ErrNoDataset
	}
	appended, err := s.store.Append(t)
	if err != nil {
		return err
	}
	for i, column := range s.store.Columns() {
		s.ledger.ReapplyCodeframe(column, appended[i], s.mode)
	}
	s.displayed = coder.Uncategorized
	s.lastMatches = nil
	s.logf("appended %d rows, dataset now %d rows", len(t.Rows), s.store.Len())
	return nil
}

// LoadProjectFile loads a saved project document. On any validation
// failure the current in-memory project is left untouched.
func (s *Session) LoadProjectFile(path string) error {
	data, err := coder.ReadProjectFile(path)
	if err != nil {
		return err
	}
	state, err := coder.LoadProject(data)
	if err != nil {
		return err
	}
	state.Ledger.SetClearUncategorizedInMulti(s.cfg.ClearUncategorizedInMulti)

	s.store = state.Store
	s.ledger = state.Ledger
	s.mode = state.Mode
	s.includeMissing = state.IncludeMissing
	s.displayed = coder.Uncategorized
	s.lastMatches = nil
	s.logf("loaded project from %s: %d rows, %d categories", path, s.store.Len(), len(s.ledger.Categories()))
	return nil
}

// SaveProjectFile persists the full project state.
func (s *Session) SaveProjectFile(path string) error {
	if !s.HasProject() {
		return coder.ErrNoDataset
	}
	data, err := coder.SaveProject(coder.ProjectState{
		Store:          s.store,
		Ledger:         s.ledger,
		Mode:           s.mode,
		IncludeMissing: s.includeMissing,
	})
	if err != nil {
		return err
	}
	if err := coder.WriteProjectFile(path, data); err != nil {
		return err
	}
	s.logf("saved project to %s", path)
	return nil
}

// ExportCSV writes the flat categorized export.
func (s *Session) ExportCSV(path string) error {
	if !s.HasProject() {
		return coder.ErrNoDataset
	}
	table, err := coder.BuildExport(s.store, s.ledger, s.mode)
	if err != nil {
		return err
	}
	if err := coder.WriteTable(path, table); err != nil {
		return err
	}
	s.logf("exported categorized data to %s", path)
	return nil
}

// Match fuzzy-matches the query against the uncategorized response
// universe and retains the raw result set for threshold filtering.
func (s *Session) Match(query string) error {
	if !s.HasProject() {
		return coder.ErrNoDataset
	}
	matches, err := s.engine.Match(query, s.store, s.ledger)
	if err != nil {
		return err
	}
	s.lastMatches = matches
	s.logf("fuzzy match %q: %d occurrences", query, len(matches))
	return nil
}

// MatchResults aggregates the last match result set at the given display
// threshold. Safe to call repeatedly as the threshold moves.
func (s *Session) MatchResults(threshold int) []coder.AggregatedMatch {
	return coder.AggregateMatches(s.lastMatches, threshold)
}

// Categorize assigns the selected values to the selected categories in
// every response column. In Single mode only one target category is
// allowed and the values leave Uncategorized and the match results.
func (s *Session) Categorize(values []coder.Value, categories []string) error {
	if err := s.checkSelection(values, categories); err != nil {
		return err
	}
	if s.mode == coder.ModeSingle && len(categories) > 1 {
		return ErrSingleModeMulti
	}
	set := coder.NewValueSet(values...)
	for _, column := range s.store.Columns() {
		s.ledger.Categorize(set, categories, column, s.mode)
	}
	if s.mode == coder.ModeSingle || s.ledger.ClearUncategorizedInMulti() {
		s.dropFromMatches(set)
	}
	s.logf("categorized %d values into %v", len(set), categories)
	return nil
}

// Recategorize moves the selected values from the currently displayed
// category into the selected categories, in every response column. The
// source is always cleared, regardless of mode.
func (s *Session) Recategorize(values []coder.Value, categories []string) error {
	if err := s.checkSelection(values, categories); err != nil {
		return err
	}
	if s.mode == coder.ModeSingle && len(categories) > 1 {
		return ErrSingleModeMulti
	}
	set := coder.NewValueSet(values...)
	for _, column := range s.store.Columns() {
		s.ledger.Recategorize(set, categories, s.displayed, column)
	}
	s.logf("recategorized %d values from %q into %v", len(set), s.displayed, categories)
	return nil
}

func (s *Session) checkSelection(values []coder.Value, categories []string) error {
	if !s.HasProject() {
		return coder.ErrNoDataset
	}
	if len(values) == 0 {
		return ErrNoSelection
	}
	if len(categories) == 0 {
		return ErrNoCategorySelected
	}
	for _, name := range categories {
		if !s.ledger.Has(name) {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
	}
	return nil
}

// dropFromMatches removes values from the retained match result set once
// they are no longer uncategorized.
func (s *Session) dropFromMatches(set coder.ValueSet) {
	kept := s.lastMatches[:0]
	for _, m := range s.lastMatches {
		if !set.Has(m.Value) {
			kept = append(kept, m)
		}
	}
	s.lastMatches = kept
}

// CreateCategory adds a new user category.
func (s *Session) CreateCategory(name string) error {
	if !s.HasProject() {
		return coder.ErrNoDataset
	}
	if err := s.ledger.Create(name); err != nil {
		return err
	}
	s.logf("created category %q", name)
	return nil
}

// RenameCategory renames a user category.
func (s *Session) RenameCategory(old, new string) error {
	if !s.HasProject() {
		return coder.ErrNoDataset
	}
	if !s.ledger.Has(old) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, old)
	}
	if err := s.ledger.Rename(old, new); err != nil {
		return err
	}
	if s.displayed == old {
		s.displayed = new
	}
	s.logf("renamed category %q to %q", old, new)
	return nil
}

// DeleteCategories removes the named user categories. Protected
// categories are rejected here rather than silently skipped, so the user
// gets feedback instead of a surprise.
func (s *Session) DeleteCategories(names []string) error {
	if !s.HasProject() {
		return coder.ErrNoDataset
	}
	if len(names) == 0 {
		return ErrNoCategorySelected
	}
	for _, name := range names {
		if s.ledger.Protected(name) {
			return fmt.Errorf("delete category %q: %w", name, coder.ErrProtected)
		}
		if !s.ledger.Has(name) {
			return fmt.Errorf("%w: %q", ErrUnknownCategory, name)
		}
	}
	s.ledger.Delete(names, s.mode)
	for _, name := range names {
		if s.displayed == name {
			s.displayed = coder.Uncategorized
		}
	}
	s.logf("deleted categories %v", names)
	return nil
}

// Categories returns category names in display order.
func (s *Session) Categories() []string {
	if s.ledger == nil {
		return nil
	}
	return s.ledger.Categories()
}

// DisplayedCategory returns the category whose responses the front end is
// currently listing; Recategorize moves values out of it.
func (s *Session) DisplayedCategory() string {
	return s.displayed
}

// SetDisplayedCategory switches the currently displayed category.
func (s *Session) SetDisplayedCategory(name string) error {
	if !s.HasProject() {
		return coder.ErrNoDataset
	}
	if !s.ledger.Has(name) {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	s.displayed = name
	return nil
}

// CategoryMetrics returns the (name, count, percentage) display rows.
func (s *Session) CategoryMetrics() []coder.CategoryMetric {
	if !s.HasProject() {
		return nil
	}
	return coder.CategoryMetrics(s.store, s.ledger, s.includeMissing)
}

// ResponsesAndCounts lists a category's values with occurrence counts.
func (s *Session) ResponsesAndCounts(category string) ([]coder.ResponseCount, error) {
	if !s.HasProject() {
		return nil, coder.ErrNoDataset
	}
	if !s.ledger.Has(category) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownCategory, category)
	}
	return coder.ResponsesAndCounts(s.store, s.ledger, category), nil
}

func (s *Session) logf(format string, args ...any) {
	if s.logger != nil {
		s.logger.Printf(format, args...)
	}
}
