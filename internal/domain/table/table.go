package table

// Row maps column names to cell values. Rows are sparse: a column missing
// from the map is equivalent to an empty string.
type Row map[string]string

// Get returns the row's value for a column, empty if absent.
func (r Row) Get(col string) string {
	return r[col]
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Table is an ordered column set plus a sequence of rows. The column set is
// dynamic: writes may introduce new columns, and every existing row is then
// considered to hold an empty value for them.
type Table struct {
	Columns []string
	Rows    []Row
}

// New creates an empty table with the given columns.
func New(columns ...string) *Table {
	return &Table{Columns: append([]string{}, columns...)}
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.Rows)
}

// HasColumn reports whether the column is part of the table's column set.
func (t *Table) HasColumn(name string) bool {
	for _, c := range t.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// AddColumn appends a column to the column set if it isn't already present.
func (t *Table) AddColumn(name string) {
	if !t.HasColumn(name) {
		t.Columns = append(t.Columns, name)
	}
}

// Value returns the cell value at row i for the named column.
func (t *Table) Value(i int, col string) string {
	if i < 0 || i >= len(t.Rows) {
		return ""
	}
	return t.Rows[i].Get(col)
}

// Append adds a row, growing the column set with any new columns the row
// carries.
func (t *Table) Append(r Row) {
	for col := range r {
		t.AddColumn(col)
	}
	t.Rows = append(t.Rows, r)
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{
		Columns: append([]string{}, t.Columns...),
		Rows:    make([]Row, len(t.Rows)),
	}
	for i, r := range t.Rows {
		out.Rows[i] = r.Clone()
	}
	return out
}

// WithRows returns a shallow table sharing row maps with t but holding only
// the given rows. Used by read paths that never mutate cells.
func (t *Table) WithRows(rows []Row) *Table {
	return &Table{Columns: append([]string{}, t.Columns...), Rows: rows}
}

// UnionColumns returns the ordered union of two column lists: all of a in
// order, followed by columns of b not already present.
func UnionColumns(a, b []string) []string {
	out := append([]string{}, a...)
	seen := make(map[string]struct{}, len(a))
	for _, c := range a {
		seen[c] = struct{}{}
	}
	for _, c := range b {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}
	return out
}
