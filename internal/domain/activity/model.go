package activity

import "time"

// Type represents the kind of mutation recorded in the activity log.
type Type string

const (
	TypeProjectCreated Type = "project_created"
	TypeProjectDeleted Type = "project_deleted"
	TypeDataSaved      Type = "master_data_saved"
	TypeDataAppended   Type = "master_data_appended"
	TypeRowUpdated     Type = "row_updated"
	TypeRowsDeleted    Type = "rows_deleted"
	TypeRowsMoved      Type = "rows_moved"
	TypeColumnAdded    Type = "column_added"
	TypeViewCreated    Type = "view_created"
	TypeViewDeleted    Type = "view_deleted"
	TypeSchemaUpdated  Type = "schema_updated"
)

// Entry is one event in the mutation audit log.
type Entry struct {
	ID        int64     `json:"id"`
	ProjectID string    `json:"project_id"`
	Type      Type      `json:"type"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
