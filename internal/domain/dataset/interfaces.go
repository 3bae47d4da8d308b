package dataset

import (
	"context"

	"github.com/searchos/dataview/internal/domain/schema"
	"github.com/searchos/dataview/internal/domain/table"
)

// TableRepository reads and writes the master table.
type TableRepository interface {
	Save(ctx context.Context, projectID string, t *table.Table) error
	Load(ctx context.Context, projectID string) (*table.Table, error)
}

// SchemaRepository reads and writes the configuration document.
type SchemaRepository interface {
	Load(ctx context.Context, projectID string) (*schema.Config, error)
	Save(ctx context.Context, projectID string, cfg *schema.Config) error
}

// Invalidator purges cached query results for a project.
type Invalidator interface {
	InvalidateProject(projectID string)
}
