package project

import (
	"context"

	"github.com/searchos/dataview/internal/domain/schema"
)

// Repository provides persistence operations for project containers.
type Repository interface {
	Create(ctx context.Context, projectID string, cfg *schema.Config) error
	Exists(ctx context.Context, projectID string) (bool, error)
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, projectID string) error
}

// SchemaReader loads a project's configuration document.
type SchemaReader interface {
	Load(ctx context.Context, projectID string) (*schema.Config, error)
}

// Invalidator purges cached query results for a project.
type Invalidator interface {
	InvalidateProject(projectID string)
}
