package table

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strings"
)

// Row is a single record keyed by column name. Missing columns read as null.
type Row map[string]Value

// Get returns the value of col, or null if absent.
func (r Row) Get(col string) Value {
	if r == nil {
		return Null()
	}
	return r[col]
}

// String returns the string form of col.
func (r Row) String(col string) string {
	return r.Get(col).String()
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered set of rows with a known column order.
// Source names where the rows came from (a layer, a file, a report topic)
// and is used in error messages.
type Table struct {
	Source  string
	Columns []string
	Rows    []Row
}

// New creates an empty table.
func New(source string, columns ...string) *Table {
	return &Table{Source: source, Columns: columns}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Append adds a row. Columns not yet known are appended to the column list
// in sorted order so output stays deterministic.
func (t *Table) Append(r Row) {
	var extra []string
	for k := range r {
		if !t.Has(k) {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	t.Columns = append(t.Columns, extra...)
	t.Rows = append(t.Rows, r)
}

// Has reports whether the table declares col.
func (t *Table) Has(col string) bool {
	if t == nil {
		return false
	}
	for _, c := range t.Columns {
		if c == col {
			return true
		}
	}
	return false
}

// Column returns every value of col in row order.
func (t *Table) Column(col string) []Value {
	out := make([]Value, 0, t.Len())
	for _, r := range t.Rows {
		out = append(out, r.Get(col))
	}
	return out
}

// Lookup returns the first row whose key column renders as key.
func (t *Table) Lookup(keyCol, key string) (Row, bool) {
	if t == nil {
		return nil, false
	}
	for _, r := range t.Rows {
		if r.String(keyCol) == key {
			return r, true
		}
	}
	return nil, false
}

// Filter returns a new table with the rows for which keep returns true.
func (t *Table) Filter(keep func(Row) bool) *Table {
	out := New(t.Source, slices.Clone(t.Columns)...)
	for _, r := range t.Rows {
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// Rename renames a column in place, in both the column list and every row.
func (t *Table) Rename(from, to string) {
	for i, c := range t.Columns {
		if c == from {
			t.Columns[i] = to
		}
	}
	for _, r := range t.Rows {
		if v, ok := r[from]; ok {
			delete(r, from)
			r[to] = v
		}
	}
}

// MissingColumnsError reports every required column absent from a source.
type MissingColumnsError struct {
	Source  string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing columns in %s: %s", e.Source, strings.Join(e.Columns, ", "))
}

// Is makes errors.Is(err, ErrMissingColumns) work for any instance.
func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingColumns
}

// ErrMissingColumns is the sentinel matched by every MissingColumnsError.
var ErrMissingColumns = errors.New("missing columns")

// CheckColumns verifies that t declares every required column. All missing
// columns are reported together, in the order they were required.
func CheckColumns(t *Table, required ...string) error {
	var missing []string
	for _, c := range required {
		if !t.Has(c) {
			missing = append(missing, c)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	source := ""
	if t != nil {
		source = t.Source
	}
	return &MissingColumnsError{Source: source, Columns: missing}
}
