package coder

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ReadTable reads a CSV or TSV file into a Table. The first row is the
// header; the first column is expected to hold respondent ids. Ragged rows
// are tolerated and padded by the store.
func ReadTable(path string) (Table, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".csv" && ext != ".tsv" {
		return Table{}, fmt.Errorf("unsupported file format %q: want .csv or .tsv", ext)
	}
	f, err := os.Open(path)
	if err != nil {
		return Table{}, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	if ext == ".tsv" {
		reader.Comma = '\t'
	}
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return Table{}, fmt.Errorf("read %s: %w", filepath.Base(path), err)
	}
	if len(rows) == 0 {
		return Table{}, ErrEmptyDataset
	}
	header := make([]string, len(rows[0]))
	for i, cell := range rows[0] {
		header[i] = cleanCell(cell)
	}
	return Table{Columns: header, Rows: rows[1:]}, nil
}

// WriteTable writes a table as CSV.
func WriteTable(path string, t Table) error {
	if len(t.Rows) == 0 {
		return ErrEmptyDataset
	}
	if !strings.EqualFold(filepath.Ext(path), ".csv") {
		return errors.New("unsupported file format: want .csv")
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(t.Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for i, row := range t.Rows {
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadProjectFile reads a saved project document.
func ReadProjectFile(path string) ([]byte, error) {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return nil, errors.New("unsupported file format: want .json")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read project file: %w", err)
	}
	return data, nil
}

// WriteProjectFile persists a project document atomically via a temp file
// rename, so a crash mid-write cannot corrupt an existing save.
func WriteProjectFile(path string, data []byte) error {
	if !strings.EqualFold(filepath.Ext(path), ".json") {
		return errors.New("unsupported file format: want .json")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create project dir: %w", err)
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write temp project file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("rename project file: %w", err)
	}
	return nil
}

// cleanCell trims whitespace and a leading UTF-8 BOM from a header cell.
func cleanCell(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "\ufeff")
	return v
}
