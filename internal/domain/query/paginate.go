package query

import "github.com/searchos/dataview/internal/domain/table"

// Page is one slice of a query result.
type Page struct {
	Columns []string    `json:"columns"`
	Rows    []table.Row `json:"rows"`
	Total   int         `json:"total"`
	Offset  int         `json:"offset"`
	// NextOffset is set when a further page exists.
	NextOffset *int `json:"nextOffset,omitempty"`
}

// Paginate slices a resolved result. An offset beyond the result length is
// clamped to the start of the last page; limit <= 0 means everything.
func Paginate(t *table.Table, offset, limit int) Page {
	total := t.NumRows()
	if limit <= 0 {
		limit = total
	}
	if offset < 0 {
		offset = 0
	}
	if offset > total {
		offset = total - limit
		if offset < 0 {
			offset = 0
		}
	}
	end := offset + limit
	if end > total {
		end = total
	}

	page := Page{
		Columns: append([]string{}, t.Columns...),
		Rows:    t.Rows[offset:end],
		Total:   total,
		Offset:  offset,
	}
	if end < total {
		next := end
		page.NextOffset = &next
	}
	return page
}
