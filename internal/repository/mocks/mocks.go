// Package mocks provides testify mocks for the repository interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/searchos/dataview/internal/domain/activity"
	"github.com/searchos/dataview/internal/domain/schema"
	"github.com/searchos/dataview/internal/domain/table"
)

// ProjectRepository is a mock for repository.ProjectRepository.
type ProjectRepository struct {
	mock.Mock
}

func (m *ProjectRepository) Create(ctx context.Context, projectID string, cfg *schema.Config) error {
	args := m.Called(ctx, projectID, cfg)
	return args.Error(0)
}

func (m *ProjectRepository) Exists(ctx context.Context, projectID string) (bool, error) {
	args := m.Called(ctx, projectID)
	return args.Bool(0), args.Error(1)
}

func (m *ProjectRepository) List(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if ids, ok := args.Get(0).([]string); ok {
		return ids, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ProjectRepository) Delete(ctx context.Context, projectID string) error {
	args := m.Called(ctx, projectID)
	return args.Error(0)
}

// TableRepository is a mock for repository.TableRepository.
type TableRepository struct {
	mock.Mock
}

func (m *TableRepository) Save(ctx context.Context, projectID string, t *table.Table) error {
	args := m.Called(ctx, projectID, t)
	return args.Error(0)
}

func (m *TableRepository) Load(ctx context.Context, projectID string) (*table.Table, error) {
	args := m.Called(ctx, projectID)
	if t, ok := args.Get(0).(*table.Table); ok {
		return t, args.Error(1)
	}
	return nil, args.Error(1)
}

// SchemaRepository is a mock for repository.SchemaRepository.
type SchemaRepository struct {
	mock.Mock
}

func (m *SchemaRepository) Load(ctx context.Context, projectID string) (*schema.Config, error) {
	args := m.Called(ctx, projectID)
	if cfg, ok := args.Get(0).(*schema.Config); ok {
		return cfg, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *SchemaRepository) Save(ctx context.Context, projectID string, cfg *schema.Config) error {
	args := m.Called(ctx, projectID, cfg)
	return args.Error(0)
}

// ActivityRepository is a mock for repository.ActivityRepository.
type ActivityRepository struct {
	mock.Mock
}

func (m *ActivityRepository) Log(ctx context.Context, entry *activity.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *ActivityRepository) List(ctx context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	args := m.Called(ctx, opts)
	if entries, ok := args.Get(0).([]activity.Entry); ok {
		return entries, args.Error(1)
	}
	return nil, args.Error(1)
}
