package coder

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadTableCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	content := "\ufeffuuid,q1\r\nr1,Hello!\r\nr2,\r\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	table, err := ReadTable(path)
	require.NoError(t, err)
	// BOM is stripped from the first header cell.
	require.Equal(t, []string{"uuid", "q1"}, table.Columns)
	require.Equal(t, [][]string{{"r1", "Hello!"}, {"r2", ""}}, table.Rows)
}

func TestReadTableTSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.tsv")
	require.NoError(t, os.WriteFile(path, []byte("uuid\tq1\nr1\thi\n"), 0o644))

	table, err := ReadTable(path)
	require.NoError(t, err)
	require.Equal(t, []string{"uuid", "q1"}, table.Columns)
	require.Equal(t, [][]string{{"r1", "hi"}}, table.Rows)
}

func TestReadTableUnsupportedFormat(t *testing.T) {
	_, err := ReadTable("data.xlsx")
	require.Error(t, err)
}

func TestWriteTableRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	require.NoError(t, WriteTable(path, sampleTable()))

	table, err := ReadTable(path)
	require.NoError(t, err)
	require.Equal(t, sampleTable().Columns, table.Columns)
	require.Equal(t, sampleTable().Rows, table.Rows)
}

func TestProjectFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "project.json")
	data, _ := savedProject(t)

	require.NoError(t, WriteProjectFile(path, data))
	got, err := ReadProjectFile(path)
	require.NoError(t, err)
	require.Equal(t, data, got)

	// No temp file is left behind.
	_, err = os.Stat(path + ".tmp")
	require.True(t, os.IsNotExist(err))
}

func TestProjectFileRejectsWrongExtension(t *testing.T) {
	require.Error(t, WriteProjectFile(filepath.Join(t.TempDir(), "project.dat"), []byte("{}")))
	_, err := ReadProjectFile("project.yaml")
	require.Error(t, err)
}
