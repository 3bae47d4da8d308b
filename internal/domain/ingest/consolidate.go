// Package ingest transforms raw tabular imports before they reach the
// master table. Its core job is consolidating hierarchical exports where one
// logical entity spans several consecutive physical rows: only the first row
// of a group carries the group key, and repeated fields (shareholders,
// subsidiaries, ...) arrive one per row.
package ingest

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/searchos/dataview/internal/domain/table"
)

// DefaultGroupKeyColumn is the column hierarchical exports use to mark the
// first row of each entity. Matched case-insensitively after trimming.
const DefaultGroupKeyColumn = "Mark"

// Options controls consolidation.
type Options struct {
	// GroupKeyColumn overrides the group key column name. Empty means
	// DefaultGroupKeyColumn.
	GroupKeyColumn string
	// FoldKeyCase applies case folding when comparing non-numeric group
	// keys. Numeric keys are always coerced ("66.0" and "66" are the same
	// group) to tolerate spreadsheet export artifacts; case folding of text
	// keys is opt-in.
	FoldKeyCase bool
}

func (o Options) groupKey() string {
	if strings.TrimSpace(o.GroupKeyColumn) != "" {
		return o.GroupKeyColumn
	}
	return DefaultGroupKeyColumn
}

// Consolidate collapses groups of physical rows sharing a group key into one
// row per group. The first row of each group anchors the output; for every
// other column the group's non-empty values are collected in row order
// (anchor's value first) and stored as a JSON array when more than one value
// was found. The group key column itself stays scalar so it remains
// sortable, and a count column records the group size.
//
// Input without the group key column is returned unchanged: there is nothing
// to consolidate on.
func Consolidate(t *table.Table, opts Options) *table.Table {
	if t.NumRows() == 0 {
		return t
	}
	keyCol := findColumn(t.Columns, opts.groupKey())
	if keyCol == "" {
		return t
	}

	// Pass 1: normalize empty-like key cells to missing and forward-fill,
	// so rows that rely on the "only the first row carries the key"
	// convention inherit the nearest preceding key.
	keys := make([]string, t.NumRows())
	last := ""
	for i, row := range t.Rows {
		k := canonicalKey(row.Get(keyCol), opts.FoldKeyCase)
		if k == "" {
			k = last
		} else {
			last = k
		}
		keys[i] = k
	}

	// Pass 2: partition into groups, preserving first-seen group order and
	// row order within each group.
	index := make(map[string]int)
	var groups [][]table.Row
	for i, row := range t.Rows {
		gi, ok := index[keys[i]]
		if !ok {
			gi = len(groups)
			index[keys[i]] = gi
			groups = append(groups, nil)
		}
		groups[gi] = append(groups[gi], row)
	}

	out := t.WithRows(nil)
	out.AddColumn(table.ColConsolidated)
	for _, group := range groups {
		out.Rows = append(out.Rows, mergeGroup(group, t.Columns, keyCol, opts.FoldKeyCase))
	}
	return out
}

func mergeGroup(group []table.Row, columns []string, keyCol string, foldCase bool) table.Row {
	anchor := group[0].Clone()
	// The group key never becomes a sequence: keep the anchor's scalar,
	// numerically normalized, so sorting on it survives consolidation.
	anchor[keyCol] = canonicalKey(anchor.Get(keyCol), foldCase)

	for _, col := range columns {
		if col == keyCol {
			continue
		}
		values := make([]string, 0, len(group))
		for _, row := range group {
			if v := cleanValue(row.Get(col)); v != "" {
				values = append(values, v)
			}
		}
		switch {
		case len(values) > 1:
			if main := cleanValue(group[0].Get(col)); main != "" {
				values = moveToFront(values, main)
			}
			anchor[col] = encodeSequence(values)
		case len(values) == 1:
			anchor[col] = values[0]
		}
		// Zero non-empty values: the anchor's cell stays as it was.
	}

	anchor[table.ColConsolidated] = strconv.Itoa(len(group))
	return anchor
}

// moveToFront puts the anchor's value first, removing only its first
// occurrence in the collected sequence (the anchor's own contribution).
// Later repeats of the same value in the group are kept.
func moveToFront(values []string, main string) []string {
	for i, v := range values {
		if v == main {
			return append(append([]string{main}, values[:i]...), values[i+1:]...)
		}
	}
	return append([]string{main}, values...)
}

// encodeSequence serializes an ordered value sequence as a JSON array
// string, the cell format the grid layer renders as a multi-value cell.
func encodeSequence(values []string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// Encode on []string cannot fail.
	_ = enc.Encode(values)
	return strings.TrimRight(buf.String(), "\n")
}

func findColumn(columns []string, name string) string {
	want := strings.ToLower(strings.TrimSpace(name))
	for _, c := range columns {
		if strings.ToLower(strings.TrimSpace(c)) == want {
			return c
		}
	}
	return ""
}

// emptyLike matches the placeholder strings spreadsheet exports leave in
// cells that were never filled.
func emptyLike(s string) bool {
	switch strings.ToLower(s) {
	case "", "nan", "none", "nonetype", "nat", "<na>":
		return true
	}
	return false
}

// cleanValue trims a cell and normalizes numeric artifacts: an integral
// float rendering ("1801.0") becomes its integer form.
func cleanValue(v string) string {
	s := strings.TrimSpace(v)
	if emptyLike(s) {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return s
}

// canonicalKey normalizes a group key cell. Empty-like cells become "",
// numeric keys are coerced to a canonical decimal form so "66" and "66.0"
// name the same group, and text keys are trimmed (and optionally folded).
func canonicalKey(v string, foldCase bool) string {
	s := strings.TrimSpace(v)
	if emptyLike(s) {
		return ""
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		if f == float64(int64(f)) {
			return strconv.FormatInt(int64(f), 10)
		}
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	if foldCase {
		return strings.ToLower(s)
	}
	return s
}
