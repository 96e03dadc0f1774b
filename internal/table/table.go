// Package table provides the immutable record table the question engine
// reads from. A Table never changes after construction; every filter returns
// a new Table sharing the same columns and a subset of the parent's rows.
package table

import (
	"errors"
	"fmt"
	"slices"
	"strings"
)

// Row is one record. Cells hold string, int, int64, float64, time.Time or nil.
// Rows are shared between a table and its views and must not be modified.
type Row []any

// Table is a read-only collection of rows with named columns.
type Table struct {
	columns []string
	index   map[string]int
	rows    []Row
}

// Count is one entry of a value frequency table.
type Count struct {
	Value string
	Count int
}

var (
	// ErrDuplicateColumn indicates two columns share the same name.
	ErrDuplicateColumn = errors.New("duplicate column")

	// ErrRowWidth indicates a row does not have one cell per column.
	ErrRowWidth = errors.New("row width does not match column count")
)

// New builds a table. Column names must be unique and every row must have
// exactly one cell per column. The rows slice is copied; the rows themselves
// are not.
func New(columns []string, rows []Row) (*Table, error) {
	index := make(map[string]int, len(columns))
	for i, name := range columns {
		if _, dup := index[name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, name)
		}
		index[name] = i
	}
	for i, row := range rows {
		if len(row) != len(columns) {
			return nil, fmt.Errorf("%w: row %d has %d cells, want %d", ErrRowWidth, i, len(row), len(columns))
		}
	}
	return &Table{
		columns: slices.Clone(columns),
		index:   index,
		rows:    slices.Clone(rows),
	}, nil
}

// view returns a table sharing t's column metadata over the given rows.
func (t *Table) view(rows []Row) *Table {
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// Columns returns a copy of the column names in table order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// Len returns the number of rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.rows)
}

// HasColumn reports whether the table has a column with exactly this name.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// Row returns the i-th row. The returned slice must not be modified.
func (t *Table) Row(i int) Row {
	return t.rows[i]
}

// Value returns the cell at row i of column col, or nil when the column is absent.
func (t *Table) Value(i int, col string) any {
	c, ok := t.index[col]
	if !ok || i < 0 || i >= len(t.rows) {
		return nil
	}
	return t.rows[i][c]
}

// String returns the cell at row i of column col rendered as text.
func (t *Table) String(i int, col string) string {
	return CellString(t.Value(i, col))
}

// Filter returns the rows for which keep returns true.
func (t *Table) Filter(keep func(row Row) bool) *Table {
	out := make([]Row, 0, len(t.rows))
	for _, row := range t.rows {
		if keep(row) {
			out = append(out, row)
		}
	}
	return t.view(out)
}

// WhereInt keeps rows whose col cell is an integer contained in allowed.
// An absent column yields the table unchanged.
func (t *Table) WhereInt(col string, allowed ...int) *Table {
	c, ok := t.index[col]
	if !ok {
		return t
	}
	return t.Filter(func(row Row) bool {
		n, ok := CellInt(row[c])
		return ok && slices.Contains(allowed, n)
	})
}

// WhereIn keeps rows whose col cell, rendered as text, is one of values.
// An absent column yields the table unchanged.
func (t *Table) WhereIn(col string, values ...string) *Table {
	c, ok := t.index[col]
	if !ok {
		return t
	}
	return t.Filter(func(row Row) bool {
		return slices.Contains(values, CellString(row[c]))
	})
}

// WhereContains keeps rows whose col cell contains substr, ignoring case.
// An absent column yields the table unchanged.
func (t *Table) WhereContains(col, substr string) *Table {
	c, ok := t.index[col]
	if !ok {
		return t
	}
	needle := strings.ToLower(substr)
	return t.Filter(func(row Row) bool {
		return strings.Contains(strings.ToLower(CellString(row[c])), needle)
	})
}

// Head returns at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 {
		n = 0
	}
	if n >= len(t.rows) {
		return t
	}
	return t.view(t.rows[:n])
}

// ValueCounts counts the distinct non-empty values of col, most frequent
// first. Ties keep the order in which values first appear.
// An absent column yields nil.
func (t *Table) ValueCounts(col string) []Count {
	c, ok := t.index[col]
	if !ok {
		return nil
	}

	positions := make(map[string]int)
	var counts []Count
	for _, row := range t.rows {
		v := strings.TrimSpace(CellString(row[c]))
		if v == "" {
			continue
		}
		if p, seen := positions[v]; seen {
			counts[p].Count++
			continue
		}
		positions[v] = len(counts)
		counts = append(counts, Count{Value: v, Count: 1})
	}

	slices.SortStableFunc(counts, func(a, b Count) int {
		return b.Count - a.Count
	})
	return counts
}

// AppendColumns returns a new table with extra columns whose cells are
// produced per row by compute. compute must return len(names) cells.
func (t *Table) AppendColumns(names []string, compute func(row Row) []any) (*Table, error) {
	columns := append(slices.Clone(t.columns), names...)
	rows := make([]Row, len(t.rows))
	for i, row := range t.rows {
		extra := compute(row)
		if len(extra) != len(names) {
			return nil, fmt.Errorf("%w: computed %d cells, want %d", ErrRowWidth, len(extra), len(names))
		}
		merged := make(Row, 0, len(columns))
		merged = append(merged, row...)
		rows[i] = append(merged, extra...)
	}
	return New(columns, rows)
}

// DropColumns returns a table without the named columns. Unknown names are
// ignored; when none of the names exist t itself is returned.
func (t *Table) DropColumns(names ...string) *Table {
	var drop []int
	for _, n := range names {
		if c, ok := t.index[n]; ok && !slices.Contains(drop, c) {
			drop = append(drop, c)
		}
	}
	if len(drop) == 0 {
		return t
	}

	columns := make([]string, 0, len(t.columns)-len(drop))
	for i, c := range t.columns {
		if !slices.Contains(drop, i) {
			columns = append(columns, c)
		}
	}
	rows := make([]Row, len(t.rows))
	for r, row := range t.rows {
		kept := make(Row, 0, len(columns))
		for i, cell := range row {
			if !slices.Contains(drop, i) {
				kept = append(kept, cell)
			}
		}
		rows[r] = kept
	}
	out, _ := New(columns, rows)
	return out
}

// Concat stacks tables vertically. The result has the union of all column
// names in order of first appearance; cells of columns a table lacks are nil.
func Concat(tables ...*Table) *Table {
	var columns []string
	index := make(map[string]int)
	total := 0
	for _, t := range tables {
		if t == nil {
			continue
		}
		total += len(t.rows)
		for _, c := range t.columns {
			if _, ok := index[c]; !ok {
				index[c] = len(columns)
				columns = append(columns, c)
			}
		}
	}

	rows := make([]Row, 0, total)
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, row := range t.rows {
			merged := make(Row, len(columns))
			for i, c := range t.columns {
				merged[index[c]] = row[i]
			}
			rows = append(rows, merged)
		}
	}
	return &Table{columns: columns, index: index, rows: rows}
}
