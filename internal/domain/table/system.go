package table

import "github.com/google/uuid"

// System columns carried by every stored row.
const (
	// ColUID holds the row's unique identifier, assigned at ingestion and
	// immutable for the row's lifetime.
	ColUID = "_uid"
	// ColListID holds the workflow list the row currently belongs to.
	ColListID = "_list_id"
	// ColConsolidated records how many physical rows were merged into a
	// consolidated row.
	ColConsolidated = "_rows_consolidated"

	// DefaultListID is the workflow list assigned to freshly ingested rows.
	DefaultListID = "inbox"
)

// IsSystemColumn reports whether the column is maintained by the store
// rather than by callers.
func IsSystemColumn(name string) bool {
	return name == ColUID || name == ColListID
}

// EnsureSystemColumns guarantees every row carries a unique uid and a
// workflow-list tag. Each column is only filled when absent from the column
// set, so re-applying to an already-tagged table is a no-op. Non-system
// columns are never touched.
func EnsureSystemColumns(t *Table) *Table {
	if !t.HasColumn(ColUID) {
		t.AddColumn(ColUID)
		for i := range t.Rows {
			t.Rows[i][ColUID] = uuid.NewString()
		}
	}
	if !t.HasColumn(ColListID) {
		t.AddColumn(ColListID)
		for i := range t.Rows {
			t.Rows[i][ColListID] = DefaultListID
		}
	}
	return t
}

// AssignFreshIdentity regenerates every row's uid and resets its list tag to
// the default list. Used on append so incoming rows can never collide with
// uids already in the master table.
func AssignFreshIdentity(t *Table) *Table {
	t.AddColumn(ColUID)
	t.AddColumn(ColListID)
	for i := range t.Rows {
		t.Rows[i][ColUID] = uuid.NewString()
		t.Rows[i][ColListID] = DefaultListID
	}
	return t
}
