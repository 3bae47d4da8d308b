package repository

import (
	"context"

	"github.com/searchos/dataview/internal/domain/activity"
	"github.com/searchos/dataview/internal/domain/schema"
	"github.com/searchos/dataview/internal/domain/table"
)

// ProjectRepository manages project containers.
type ProjectRepository interface {
	// Create makes the project container and writes its initial schema
	// document.
	Create(ctx context.Context, projectID string, cfg *schema.Config) error
	Exists(ctx context.Context, projectID string) (bool, error)
	// List returns all project ids, sorted.
	List(ctx context.Context) ([]string, error)
	// Delete removes the project and all its data.
	Delete(ctx context.Context, projectID string) error
}

// TableRepository manages the master table of a project.
type TableRepository interface {
	// Save overwrites the project's master table.
	Save(ctx context.Context, projectID string, t *table.Table) error
	// Load returns the master table. A project without data yields an
	// empty table that already carries the system columns.
	Load(ctx context.Context, projectID string) (*table.Table, error)
}

// SchemaRepository manages the per-project configuration document.
type SchemaRepository interface {
	Load(ctx context.Context, projectID string) (*schema.Config, error)
	Save(ctx context.Context, projectID string, cfg *schema.Config) error
}

// ActivityRepository manages the mutation audit log.
type ActivityRepository = activity.Repository
