package activity

import "context"

// Repository provides persistence operations for activity entries.
type Repository interface {
	Log(ctx context.Context, entry *Entry) error
	List(ctx context.Context, opts ListOptions) ([]Entry, error)
}

// ListOptions provides filtering options for listing activity.
type ListOptions struct {
	ProjectID string
	Limit     int
	Offset    int
}

// Recorder is the narrow interface mutating services use to append to the
// log without failing the mutation when logging fails.
type Recorder interface {
	Record(ctx context.Context, projectID string, typ Type, summary string)
}
