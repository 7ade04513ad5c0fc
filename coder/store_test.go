package coder

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// sampleTable is the five-respondent, one-column scenario used throughout
// the package tests: values normalize to hello, Missing, hello, goodbye,
// Missing.
func sampleTable() Table {
	return Table{
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

func loadedStore(t *testing.T) *ResponseStore {
	t.Helper()
	store := NewResponseStore()
	require.NoError(t, store.Load(sampleTable()))
	return store
}

func TestStoreLoadValidation(t *testing.T) {
	store := NewResponseStore()
	require.ErrorIs(t, store.Load(Table{Columns: []string{"uuid", "q1"}}), ErrEmptyDataset)
	require.ErrorIs(t, store.Load(Table{Columns: []string{"uuid"}, Rows: [][]string{{"r1"}}}), ErrTooFewColumns)
}

func TestStoreLoadCounts(t *testing.T) {
	store := loadedStore(t)
	require.Equal(t, 5, store.Len())
	require.Equal(t, []string{"q1"}, store.Columns())
	require.Equal(t, "uuid", store.IDColumn())

	require.Equal(t, 2, store.Count(NewValue("hello")))
	require.Equal(t, 1, store.Count(NewValue("goodbye")))
	require.Equal(t, 2, store.MissingCount())
	require.Equal(t, 5, store.TotalResponses())

	unique := store.UniqueValues()
	require.Len(t, unique, 2)
	require.True(t, unique.Has(NewValue("hello")))
	require.True(t, unique.Has(NewValue("goodbye")))
}

func TestStoreNormalizesCells(t *testing.T) {
	store := loadedStore(t)
	require.Equal(t, NewValue("hello"), store.Value(0, "q1"))
	require.True(t, store.IsMissing(1, "q1"))
	require.Equal(t, "Hello!", store.Raw(0, "q1"))
}

func TestStoreBackfillsBlankIDs(t *testing.T) {
	store := NewResponseStore()
	err := store.Load(Table{
		Columns: []string{"uuid", "q1"},
		Rows:    [][]string{{"", "one"}, {"  ", "two"}},
	})
	require.NoError(t, err)
	require.NotEmpty(t, store.ID(0))
	require.NotEmpty(t, store.ID(1))
	require.NotEqual(t, store.ID(0), store.ID(1))
}

func TestStoreAppendValidation(t *testing.T) {
	empty := NewResponseStore()
	_, err := empty.Append(sampleTable())
	require.ErrorIs(t, err, ErrNoDataset)

	store := loadedStore(t)
	_, err = store.Append(Table{Columns: []string{"uuid", "q1"}})
	require.ErrorIs(t, err, ErrEmptyDataset)

	_, err = store.Append(Table{
		Columns: []string{"uuid", "q1", "q2"},
		Rows:    [][]string{{"r6", "a", "b"}},
	})
	require.ErrorIs(t, err, ErrShapeMismatch)
	require.Equal(t, 5, store.Len())
}

func TestStoreAppendExtendsCounts(t *testing.T) {
	store := loadedStore(t)
	appended, err := store.Append(Table{
		Columns: []string{"uuid", "q1"},
		Rows:    [][]string{{"r6", "HELLO"}, {"r7", "thanks"}, {"r8", ""}},
	})
	require.NoError(t, err)
	require.Equal(t, 8, store.Len())
	require.Equal(t, 3, store.Count(NewValue("hello")))
	require.Equal(t, 1, store.Count(NewValue("thanks")))
	require.Equal(t, 3, store.MissingCount())

	require.Len(t, appended, 1)
	require.Len(t, appended[0], 2)
	require.True(t, appended[0].Has(NewValue("hello")))
	require.True(t, appended[0].Has(NewValue("thanks")))
}

func TestStoreCountPairsOrder(t *testing.T) {
	store := loadedStore(t)
	pairs := store.CountPairs()
	require.Len(t, pairs, 3)
	require.Equal(t, NewValue("hello"), pairs[0].Value)
	require.Equal(t, NewValue("goodbye"), pairs[1].Value)
	require.True(t, pairs[2].Value.IsMissing())
	require.Equal(t, 2, pairs[2].Count)
}

func TestStorePanicsOnUnknownColumn(t *testing.T) {
	store := loadedStore(t)
	require.Panics(t, func() { store.Value(0, "nope") })
}
