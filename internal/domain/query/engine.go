// Package query answers filtered, searched, sorted and paginated reads over
// a resolved view, memoizing resolved row sets in a bounded cache.
package query

import (
	"sort"
	"strconv"
	"strings"

	"github.com/searchos/dataview/internal/domain/table"
)

// SortSpec orders rows by one column.
type SortSpec struct {
	Column string `json:"column"`
	Desc   bool   `json:"desc"`
}

// Request describes one query against a view.
type Request struct {
	// Filters maps a column to the set of accepted exact values. Empty
	// sets are no-op filters; filters are ANDed across columns.
	Filters map[string][]string `json:"filters,omitempty"`
	// Search is a case-insensitive substring matched against the
	// searchable columns.
	Search string `json:"search,omitempty"`
	// SearchColumns restricts the global search. Empty falls back to
	// DefaultSearchColumns, then to the first five non-system columns.
	SearchColumns []string `json:"searchColumns,omitempty"`
	// Sort lists sort keys in priority order. Unknown columns are dropped.
	Sort []SortSpec `json:"sort,omitempty"`
}

// DefaultSearchColumns are the business-relevant columns the global search
// falls back to when the caller doesn't name any.
var DefaultSearchColumns = []string{"name", "city", "description"}

const fallbackSearchWidth = 5

// Apply runs filters, global search and sort over the rows and returns the
// resulting table. The input is never mutated.
func Apply(t *table.Table, req Request) *table.Table {
	out := ApplyFilters(t, req.Filters)
	out = ApplySearch(out, req.Search, req.SearchColumns)
	return ApplySort(out, req.Sort)
}

// ApplyFilters keeps rows whose trimmed value for every filtered column is
// in that column's accepted set. It short-circuits to an empty result as
// soon as one filter exhausts the candidates.
func ApplyFilters(t *table.Table, filters map[string][]string) *table.Table {
	if len(filters) == 0 {
		return t
	}

	rows := t.Rows
	for col, accepted := range filters {
		set := acceptedSet(accepted)
		if len(set) == 0 {
			continue
		}
		kept := rows[:0:0]
		for _, row := range rows {
			if _, ok := set[strings.TrimSpace(row.Get(col))]; ok {
				kept = append(kept, row)
			}
		}
		rows = kept
		if len(rows) == 0 {
			break
		}
	}
	return t.WithRows(rows)
}

func acceptedSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			set[v] = struct{}{}
		}
	}
	return set
}

// ApplySearch keeps rows where the term is a case-insensitive substring of
// any searched column's value. An empty term is a no-op.
func ApplySearch(t *table.Table, term string, requested []string) *table.Table {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return t
	}

	cols := searchColumns(t, requested)
	kept := t.Rows[:0:0]
	for _, row := range t.Rows {
		for _, col := range cols {
			if strings.Contains(strings.ToLower(row.Get(col)), term) {
				kept = append(kept, row)
				break
			}
		}
	}
	return t.WithRows(kept)
}

// searchColumns picks the columns the global search scans: the caller's
// list, else the default business columns present in the data, else the
// first five non-system columns.
func searchColumns(t *table.Table, requested []string) []string {
	var cols []string
	for _, c := range requested {
		if t.HasColumn(c) {
			cols = append(cols, c)
		}
	}
	if len(cols) > 0 {
		return cols
	}
	for _, c := range DefaultSearchColumns {
		if t.HasColumn(c) {
			cols = append(cols, c)
		}
	}
	if len(cols) > 0 {
		return cols
	}
	for _, c := range t.Columns {
		if table.IsSystemColumn(c) {
			continue
		}
		cols = append(cols, c)
		if len(cols) == fallbackSearchWidth {
			break
		}
	}
	return cols
}

// ApplySort stably sorts rows by the valid sort keys in the order given.
// Values that both parse as numbers compare numerically, so numeric columns
// (the consolidation group key in particular) order correctly.
func ApplySort(t *table.Table, specs []SortSpec) *table.Table {
	valid := specs[:0:0]
	for _, s := range specs {
		if t.HasColumn(s.Column) {
			valid = append(valid, s)
		}
	}
	if len(valid) == 0 {
		return t
	}

	rows := append([]table.Row{}, t.Rows...)
	sort.SliceStable(rows, func(i, j int) bool {
		for _, s := range valid {
			c := compareValues(rows[i].Get(s.Column), rows[j].Get(s.Column))
			if c == 0 {
				continue
			}
			if s.Desc {
				return c > 0
			}
			return c < 0
		}
		return false
	})
	return t.WithRows(rows)
}

func compareValues(a, b string) int {
	fa, errA := strconv.ParseFloat(strings.TrimSpace(a), 64)
	fb, errB := strconv.ParseFloat(strings.TrimSpace(b), 64)
	if errA == nil && errB == nil {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		default:
			return 0
		}
	}
	return strings.Compare(a, b)
}

// DistinctValues returns the non-empty distinct values of a column, sorted
// case-insensitively and truncated to limit. Callers pass rows that were
// filtered with the target column's own filter excluded, so the UI can
// offer every selectable option.
func DistinctValues(t *table.Table, column string, limit int) []string {
	seen := make(map[string]struct{})
	var values []string
	for _, row := range t.Rows {
		v := strings.TrimSpace(row.Get(column))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; !ok {
			seen[v] = struct{}{}
			values = append(values, v)
		}
	}
	sort.SliceStable(values, func(i, j int) bool {
		li, lj := strings.ToLower(values[i]), strings.ToLower(values[j])
		if li == lj {
			return values[i] < values[j]
		}
		return li < lj
	})
	if limit > 0 && len(values) > limit {
		values = values[:limit]
	}
	return values
}
