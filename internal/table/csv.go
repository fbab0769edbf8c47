package table

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rotisserie/eris"
)

// YearFileName builds the conventional per-year output name, e.g.
// YearFileName("prpop", 2023) -> "prpop_2023.csv".
func YearFileName(prefix string, year int) string {
	return fmt.Sprintf("%s_%d.csv", prefix, year)
}

// WriteCSV writes the table to path, creating parent directories as needed.
// The header row holds the column names.
func (t *Table) WriteCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return eris.Wrapf(err, "table: create dir for %s", path)
	}

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "table: create %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(t.cols); err != nil {
		return eris.Wrapf(err, "table: write header to %s", path)
	}
	for _, row := range t.rows {
		if err := w.Write(row); err != nil {
			return eris.Wrapf(err, "table: write row to %s", path)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrapf(err, "table: flush %s", path)
	}
	return nil
}

// ReadCSV loads a CSV file written by WriteCSV (or any header-first CSV).
func ReadCSV(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "table: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, eris.Wrapf(err, "table: read %s", path)
	}
	if len(records) == 0 {
		return nil, eris.Errorf("table: %s is empty", path)
	}

	t := New(records[0]...)
	for _, rec := range records[1:] {
		// Pad short rows so ragged files still load.
		for len(rec) < len(t.cols) {
			rec = append(rec, "")
		}
		if err := t.AppendRow(rec[:len(t.cols)]...); err != nil {
			return nil, eris.Wrapf(err, "table: load %s", path)
		}
	}
	return t, nil
}

// ReadGlob loads and concatenates every CSV matching the pattern, sorted by
// filename. Missing matches return (nil, nil) so callers can skip quietly.
func ReadGlob(pattern string) (*Table, error) {
	paths, err := filepath.Glob(pattern)
	if err != nil {
		return nil, eris.Wrapf(err, "table: glob %s", pattern)
	}
	if len(paths) == 0 {
		return nil, nil
	}

	tables := make([]*Table, 0, len(paths))
	for _, p := range paths {
		t, err := ReadCSV(p)
		if err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return Concat(tables...)
}
