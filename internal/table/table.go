// Package table implements the small tabular frame the pipeline passes
// between API parsing, rate derivation, and CSV serialization. Cells are
// strings, as delivered by the Census API; numeric access parses tolerantly.
package table

import (
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/marin-lab/diaspora-cli/internal/stats"
)

// Table is an ordered set of named columns over string-celled rows.
type Table struct {
	cols []string
	idx  map[string]int
	rows [][]string
}

// Row is a read-only view of a single row.
type Row struct {
	t *Table
	i int
}

// New creates an empty table with the given columns.
func New(cols ...string) *Table {
	t := &Table{cols: append([]string(nil), cols...)}
	t.reindex()
	return t
}

// FromMatrix builds a table from a Census-style JSON matrix: the first row
// holds column names, remaining rows hold values.
func FromMatrix(matrix [][]string) (*Table, error) {
	if len(matrix) == 0 {
		return nil, eris.New("table: empty matrix")
	}
	t := New(matrix[0]...)
	for _, row := range matrix[1:] {
		if err := t.AppendRow(row...); err != nil {
			return nil, err
		}
	}
	return t, nil
}

func (t *Table) reindex() {
	t.idx = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.idx[c] = i
	}
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return append([]string(nil), t.cols...)
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.rows) }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(col string) bool {
	_, ok := t.idx[col]
	return ok
}

// AppendRow adds a row; the value count must match the column count.
func (t *Table) AppendRow(vals ...string) error {
	if len(vals) != len(t.cols) {
		return eris.Errorf("table: row has %d values, want %d", len(vals), len(t.cols))
	}
	t.rows = append(t.rows, append([]string(nil), vals...))
	return nil
}

// Get returns the cell at (row, col), or "" for an unknown column.
func (t *Table) Get(row int, col string) string {
	i, ok := t.idx[col]
	if !ok || row < 0 || row >= len(t.rows) {
		return ""
	}
	return t.rows[row][i]
}

// Set overwrites the cell at (row, col).
func (t *Table) Set(row int, col, val string) error {
	i, ok := t.idx[col]
	if !ok {
		return eris.Errorf("table: unknown column %q", col)
	}
	if row < 0 || row >= len(t.rows) {
		return eris.Errorf("table: row %d out of range", row)
	}
	t.rows[row][i] = val
	return nil
}

// Row returns a view of row i.
func (t *Table) Row(i int) Row { return Row{t: t, i: i} }

// Get returns the named cell of the row.
func (r Row) Get(col string) string { return r.t.Get(r.i, col) }

// Float returns the named cell parsed as a float, NaN when missing.
func (r Row) Float(col string) float64 { return ParseFloat(r.t.Get(r.i, col)) }

// AddConst appends a column where every row holds the same value.
func (t *Table) AddConst(col, val string) {
	t.cols = append(t.cols, col)
	t.reindex()
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], val)
	}
}

// AddColumn appends a column from a value slice of matching length.
func (t *Table) AddColumn(col string, vals []string) error {
	if len(vals) != len(t.rows) {
		return eris.Errorf("table: column %q has %d values, want %d", col, len(vals), len(t.rows))
	}
	t.cols = append(t.cols, col)
	t.reindex()
	for i := range t.rows {
		t.rows[i] = append(t.rows[i], vals[i])
	}
	return nil
}

// Rename changes a column's name in place.
func (t *Table) Rename(from, to string) error {
	i, ok := t.idx[from]
	if !ok {
		return eris.Errorf("table: unknown column %q", from)
	}
	t.cols[i] = to
	t.reindex()
	return nil
}

// Numeric returns the column parsed as floats, NaN for missing cells and
// Census sentinel values.
func (t *Table) Numeric(col string) []float64 {
	out := make([]float64, len(t.rows))
	for i := range t.rows {
		out[i] = ParseFloat(t.Get(i, col))
	}
	return out
}

// Derive appends a computed numeric column, formatted with the given number
// of decimals. NaN results become empty cells.
func (t *Table) Derive(col string, decimals int, f func(r Row) float64) {
	vals := make([]string, len(t.rows))
	for i := range t.rows {
		vals[i] = FormatNumber(f(t.Row(i)), decimals)
	}
	// Length always matches; ignore the impossible error.
	_ = t.AddColumn(col, vals)
}

// DeriveRate appends num/den as a percentage column rounded to two decimals.
// Zero denominators produce empty cells, never a division error.
func (t *Table) DeriveRate(col, numCol, denCol string) {
	t.Derive(col, 2, func(r Row) float64 {
		return stats.RoundRate(stats.Rate(r.Float(numCol), r.Float(denCol)))
	})
}

// SortNumeric sorts rows by a numeric column; NaN sorts last either way.
func (t *Table) SortNumeric(col string, desc bool) {
	vals := t.Numeric(col)
	order := make([]int, len(t.rows))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		va, vb := vals[order[a]], vals[order[b]]
		if math.IsNaN(va) {
			return false
		}
		if math.IsNaN(vb) {
			return true
		}
		if desc {
			return va > vb
		}
		return va < vb
	})
	sorted := make([][]string, len(t.rows))
	for i, j := range order {
		sorted[i] = t.rows[j]
	}
	t.rows = sorted
}

// Filter returns a new table holding only rows where keep returns true.
func (t *Table) Filter(keep func(r Row) bool) *Table {
	out := New(t.cols...)
	for i := range t.rows {
		if keep(t.Row(i)) {
			out.rows = append(out.rows, append([]string(nil), t.rows[i]...))
		}
	}
	return out
}

// Concat appends the rows of others to a copy of t. All tables must share
// t's column set.
func Concat(tables ...*Table) (*Table, error) {
	if len(tables) == 0 {
		return nil, eris.New("table: concat of nothing")
	}
	out := New(tables[0].cols...)
	for _, src := range tables {
		if strings.Join(src.cols, "\x00") != strings.Join(out.cols, "\x00") {
			return nil, eris.Errorf("table: concat column mismatch: %v vs %v", src.cols, out.cols)
		}
		for i := range src.rows {
			out.rows = append(out.rows, append([]string(nil), src.rows[i]...))
		}
	}
	return out, nil
}

// DuplicateKeys returns the composite key values that appear on more than
// one row. Output CSVs must return nothing here for their (year, geography)
// key columns.
func (t *Table) DuplicateKeys(cols ...string) []string {
	seen := make(map[string]int)
	var dups []string
	for i := range t.rows {
		parts := make([]string, len(cols))
		for j, c := range cols {
			parts[j] = t.Get(i, c)
		}
		key := strings.Join(parts, "|")
		seen[key]++
		if seen[key] == 2 {
			dups = append(dups, key)
		}
	}
	return dups
}

// ParseFloat parses a cell tolerantly: empty cells, FRED's "." placeholder,
// and the ACS missing-data sentinels (-666666666 family) all map to NaN.
func ParseFloat(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" || s == "." || s == "null" || s == "N/A" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	if v <= -111111111 {
		return math.NaN()
	}
	return v
}

// FormatNumber renders a float for CSV output: NaN becomes an empty cell,
// decimals <= 0 rounds to an integer.
func FormatNumber(v float64, decimals int) string {
	if math.IsNaN(v) {
		return ""
	}
	if decimals <= 0 {
		return strconv.FormatFloat(math.Round(v), 'f', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
