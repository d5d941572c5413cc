package dataprocessing

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ColumnKind is the inferred type of a column
type ColumnKind string

const (
	KindNumeric     ColumnKind = "numeric"
	KindCategorical ColumnKind = "categorical"
)

// missingTokens are the cell spellings read as missing values
var missingTokens = map[string]struct{}{
	"":     {},
	"NA":   {},
	"N/A":  {},
	"NaN":  {},
	"nan":  {},
	"null": {},
	"NULL": {},
	"None": {},
}

// IsMissing reports whether a cell holds a missing value
func IsMissing(cell string) bool {
	_, ok := missingTokens[strings.TrimSpace(cell)]
	return ok
}

// Table is a rows × named-columns dataset with text cells.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// NewTable builds a table from a header and rows. Short rows are padded with
// missing cells; rows longer than the header return ErrRaggedRow.
func NewTable(columns []string, rows [][]string) (*Table, error) {
	t := &Table{
		columns: uniqueColumnNames(columns),
		rows:    make([][]string, 0, len(rows)),
	}
	t.reindex()

	for i, row := range rows {
		if len(row) > len(t.columns) {
			return nil, fmt.Errorf("%w: row %d has %d fields, expected %d", ErrRaggedRow, i, len(row), len(t.columns))
		}
		cells := make([]string, len(t.columns))
		copy(cells, row)
		t.rows = append(t.rows, cells)
	}
	return t, nil
}

func (t *Table) reindex() {
	t.index = make(map[string]int, len(t.columns))
	for i, name := range t.columns {
		t.index[name] = i
	}
}

// Shape returns the number of rows and columns
func (t *Table) Shape() (int, int) {
	return len(t.rows), len(t.columns)
}

// Columns returns a copy of the column names in order
func (t *Table) Columns() []string {
	out := make([]string, len(t.columns))
	copy(out, t.columns)
	return out
}

// HasColumn reports whether the table has a column with the given name
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Column returns a copy of the named column's cells
func (t *Table) Column(name string) ([]string, error) {
	j, ok := t.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	out := make([]string, len(t.rows))
	for i, row := range t.rows {
		out[i] = row[j]
	}
	return out, nil
}

// Numeric returns the named column parsed as float64 with NaN for missing cells.
func (t *Table) Numeric(name string) ([]float64, error) {
	cells, err := t.Column(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(cells))
	for i, cell := range cells {
		if IsMissing(cell) {
			out[i] = math.NaN()
			continue
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: %q row %d value %q", ErrNotNumeric, name, i, cell)
		}
		out[i] = v
	}
	return out, nil
}

// Kind infers the column kind. All-missing columns are numeric.
func (t *Table) Kind(name string) (ColumnKind, error) {
	cells, err := t.Column(name)
	if err != nil {
		return "", err
	}
	return inferKind(cells), nil
}

// Kinds returns the inferred kind of every column, keyed by name
func (t *Table) Kinds() map[string]ColumnKind {
	out := make(map[string]ColumnKind, len(t.columns))
	for _, name := range t.columns {
		kind, _ := t.Kind(name)
		out[name] = kind
	}
	return out
}

func inferKind(cells []string) ColumnKind {
	for _, cell := range cells {
		if IsMissing(cell) {
			continue
		}
		if _, err := strconv.ParseFloat(strings.TrimSpace(cell), 64); err != nil {
			return KindCategorical
		}
	}
	return KindNumeric
}

// Head returns the first n rows. n larger than the table returns every row.
func (t *Table) Head(n int) [][]string {
	if n < 0 {
		n = 0
	}
	if n > len(t.rows) {
		n = len(t.rows)
	}
	out := make([][]string, n)
	for i := 0; i < n; i++ {
		row := make([]string, len(t.rows[i]))
		copy(row, t.rows[i])
		out[i] = row
	}
	return out
}

// Records returns every row, header excluded, for export
func (t *Table) Records() [][]string {
	return t.Head(len(t.rows))
}

// Clone returns a deep copy
func (t *Table) Clone() *Table {
	c := &Table{
		columns: t.Columns(),
		rows:    t.Records(),
	}
	c.reindex()
	return c
}

// setColumn replaces the named column's cells
func (t *Table) setColumn(name string, cells []string) {
	j := t.index[name]
	for i := range t.rows {
		t.rows[i][j] = cells[i]
	}
}

// uniqueColumnNames names empty headers "Unnamed: <idx>" and suffixes
// duplicates with ".1", ".2", …
func uniqueColumnNames(columns []string) []string {
	out := make([]string, len(columns))
	seen := make(map[string]int, len(columns))
	for i, name := range columns {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("Unnamed: %d", i)
		}
		if _, dup := seen[name]; dup {
			base := name
			n := seen[base]
			for {
				n++
				name = fmt.Sprintf("%s.%d", base, n)
				if _, taken := seen[name]; !taken {
					break
				}
			}
			seen[base] = n
		}
		seen[name] = 0
		out[i] = name
	}
	return out
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
