package app

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fuzzycoder/coder"
)

func sampleTable() coder.Table {
	return coder.Table{
		Columns: []string{"uuid", "q1"},
		Rows: [][]string{
			{"r1", "Hello!"},
			{"r2", ""},
			{"r3", "hello"},
			{"r4", "Good-bye"},
			{"r5", "   "},
		},
	}
}

func newSession(t *testing.T, mode coder.Mode) *Session {
	t.Helper()
	s := NewSession(Config{}, coder.WeightedScorer{}, nil)
	require.NoError(t, s.NewProject(sampleTable(), mode))
	return s
}

func TestSessionRequiresProject(t *testing.T) {
	s := NewSession(Config{}, coder.WeightedScorer{}, nil)
	require.False(t, s.HasProject())
	require.ErrorIs(t, s.Match("hello"), coder.ErrNoDataset)
	require.ErrorIs(t, s.CreateCategory("A"), coder.ErrNoDataset)
	require.ErrorIs(t, s.AppendData(sampleTable()), coder.ErrNoDataset)
	require.ErrorIs(t, s.SaveProjectFile("x.json"), coder.ErrNoDataset)
}

func TestSessionNewProjectValidatesMode(t *testing.T) {
	s := NewSession(Config{}, coder.WeightedScorer{}, nil)
	require.Error(t, s.NewProject(sampleTable(), coder.Mode("Triple")))
}

func TestSessionSelectionValidation(t *testing.T) {
	s := newSession(t, coder.ModeSingle)
	require.NoError(t, s.CreateCategory("A"))

	hello := coder.NewValue("hello")
	require.ErrorIs(t, s.Categorize(nil, []string{"A"}), ErrNoSelection)
	require.ErrorIs(t, s.Categorize([]coder.Value{hello}, nil), ErrNoCategorySelected)
	require.ErrorIs(t, s.Categorize([]coder.Value{hello}, []string{"ghost"}), ErrUnknownCategory)
}

func TestSessionSingleModeRejectsMultipleTargets(t *testing.T) {
	s := newSession(t, coder.ModeSingle)
	require.NoError(t, s.CreateCategory("A"))
	require.NoError(t, s.CreateCategory("B"))

	err := s.Categorize([]coder.Value{coder.NewValue("hello")}, []string{"A", "B"})
	require.ErrorIs(t, err, ErrSingleModeMulti)
}

func TestSessionCategorizeDropsMatchResults(t *testing.T) {
	s := newSession(t, coder.ModeSingle)
	require.NoError(t, s.CreateCategory("Greetings"))
	require.NoError(t, s.Match("hello"))

	before := s.MatchResults(0)
	require.NotEmpty(t, before)
	require.Equal(t, "hello", before[0].Value.String())

	hello := coder.NewValue("hello")
	require.NoError(t, s.Categorize([]coder.Value{hello}, []string{"Greetings"}))

	for _, r := range s.MatchResults(0) {
		require.NotEqual(t, hello, r.Value)
	}
}

func TestSessionMultiModeKeepsMatchResults(t *testing.T) {
	s := newSession(t, coder.ModeMulti)
	require.NoError(t, s.CreateCategory("Greetings"))
	require.NoError(t, s.Match("hello"))

	hello := coder.NewValue("hello")
	require.NoError(t, s.Categorize([]coder.Value{hello}, []string{"Greetings"}))

	results := s.MatchResults(0)
	require.NotEmpty(t, results)
	require.Equal(t, hello, results[0].Value)
}

func TestSessionRecategorizeFromDisplayed(t *testing.T) {
	s := newSession(t, coder.ModeSingle)
	require.NoError(t, s.CreateCategory("A"))
	require.NoError(t, s.CreateCategory("B"))

	hello := coder.NewValue("hello")
	require.NoError(t, s.Categorize([]coder.Value{hello}, []string{"A"}))
	require.NoError(t, s.SetDisplayedCategory("A"))
	require.NoError(t, s.Recategorize([]coder.Value{hello}, []string{"B"}))

	a, err := s.ResponsesAndCounts("A")
	require.NoError(t, err)
	require.Empty(t, a)
	b, err := s.ResponsesAndCounts("B")
	require.NoError(t, err)
	require.Len(t, b, 1)
	require.Equal(t, hello, b[0].Value)
}

func TestSessionAppendReappliesCodeframe(t *testing.T) {
	s := newSession(t, coder.ModeSingle)
	require.NoError(t, s.CreateCategory("Greetings"))
	hello := coder.NewValue("hello")
	require.NoError(t, s.Categorize([]coder.Value{hello}, []string{"Greetings"}))

	err := s.AppendData(coder.Table{
		Columns: []string{"uuid", "q1"},
		Rows:    [][]string{{"r6", "HELLO"}, {"r7", "brand new"}},
	})
	require.NoError(t, err)

	greetings, err := s.ResponsesAndCounts("Greetings")
	require.NoError(t, err)
	require.Len(t, greetings, 1)
	// The appended occurrence is counted under its existing category.
	require.Equal(t, 3, greetings[0].Count)

	uncat, err := s.ResponsesAndCounts(coder.Uncategorized)
	require.NoError(t, err)
	values := make(map[string]bool, len(uncat))
	for _, rc := range uncat {
		values[rc.Value.String()] = true
	}
	require.True(t, values["brand new"])
	require.False(t, values["hello"])
}

func TestSessionDeleteProtected(t *testing.T) {
	s := newSession(t, coder.ModeSingle)
	err := s.DeleteCategories([]string{coder.Uncategorized})
	require.ErrorIs(t, err, coder.ErrProtected)
}

func TestSessionDeleteResetsDisplayed(t *testing.T) {
	s := newSession(t, coder.ModeSingle)
	require.NoError(t, s.CreateCategory("A"))
	require.NoError(t, s.SetDisplayedCategory("A"))

	require.NoError(t, s.DeleteCategories([]string{"A"}))
	require.Equal(t, coder.Uncategorized, s.DisplayedCategory())
}

func TestSessionRenameUpdatesDisplayed(t *testing.T) {
	s := newSession(t, coder.ModeSingle)
	require.NoError(t, s.CreateCategory("A"))
	require.NoError(t, s.SetDisplayedCategory("A"))

	require.NoError(t, s.RenameCategory("A", "B"))
	require.Equal(t, "B", s.DisplayedCategory())
	require.Equal(t, []string{"B", coder.Uncategorized}, s.Categories())
}

func TestSessionSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "project.json")

	s := newSession(t, coder.ModeSingle)
	require.NoError(t, s.CreateCategory("Greetings"))
	require.NoError(t, s.Categorize([]coder.Value{coder.NewValue("hello")}, []string{"Greetings"}))
	require.NoError(t, s.SaveProjectFile(path))

	loaded := NewSession(Config{}, coder.WeightedScorer{}, nil)
	require.NoError(t, loaded.LoadProjectFile(path))
	require.Equal(t, coder.ModeSingle, loaded.Mode())
	require.Equal(t, []string{"Greetings", coder.Uncategorized}, loaded.Categories())

	greetings, err := loaded.ResponsesAndCounts("Greetings")
	require.NoError(t, err)
	require.Len(t, greetings, 1)
	require.Equal(t, "hello", greetings[0].Value.String())
	require.Equal(t, 2, greetings[0].Count)
}

func TestSessionLoadFailureKeepsCurrentProject(t *testing.T) {
	dir := t.TempDir()
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, coder.WriteProjectFile(bad, []byte(`{"not": "a project"}`)))

	s := newSession(t, coder.ModeSingle)
	require.NoError(t, s.CreateCategory("A"))

	require.Error(t, s.LoadProjectFile(bad))
	require.True(t, s.HasProject())
	require.Equal(t, []string{"A", coder.Uncategorized}, s.Categories())
}

func TestSessionExportCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "export.csv")
	s := newSession(t, coder.ModeSingle)
	require.NoError(t, s.ExportCSV(path))

	table, err := coder.ReadTable(path)
	require.NoError(t, err)
	require.Equal(t, []string{"uuid", "Uncategorized_q1"}, table.Columns)
	require.Len(t, table.Rows, 5)
}

func TestSessionCategoryMetricsPolicy(t *testing.T) {
	s := newSession(t, coder.ModeSingle)

	metrics := s.CategoryMetrics()
	require.Len(t, metrics, 1)
	// Default config excludes missing data from the denominator.
	require.Equal(t, "100.00%", metrics[0].Percentage)

	s.SetIncludeMissing(true)
	metrics = s.CategoryMetrics()
	require.Equal(t, "60.00%", metrics[0].Percentage)
}
