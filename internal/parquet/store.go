// Package parquet persists projects on the local filesystem. Each project
// is one directory holding the master table as a parquet file and the
// configuration document as JSON, a layout shared with other tools that
// read the same data directories.
package parquet

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/searchos/dataview/internal/domain/ingest"
	"github.com/searchos/dataview/internal/domain/schema"
	"github.com/searchos/dataview/internal/repository"
)

const (
	masterDataFile   = "master_data.parquet"
	schemaConfigFile = "schema_config.json"
)

// Store reads and writes project directories under one data root.
type Store struct {
	root string
	// groupKey is the one column persisted as float64; everything else is
	// stored as strings.
	groupKey string
}

// NewStore creates a store rooted at dir, creating it if needed. An empty
// groupKeyColumn falls back to the default consolidation key.
func NewStore(dir, groupKeyColumn string) (*Store, error) {
	if groupKeyColumn == "" {
		groupKeyColumn = ingest.DefaultGroupKeyColumn
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data root: %w", err)
	}
	return &Store{root: dir, groupKey: groupKeyColumn}, nil
}

// Projects returns the store's project repository view.
func (s *Store) Projects() repository.ProjectRepository { return (*projectRepo)(s) }

// Tables returns the store's table repository view.
func (s *Store) Tables() repository.TableRepository { return (*tableRepo)(s) }

// Schemas returns the store's schema repository view.
func (s *Store) Schemas() repository.SchemaRepository { return (*schemaRepo)(s) }

func (s *Store) projectDir(projectID string) string {
	return filepath.Join(s.root, projectID)
}

func (s *Store) projectExists(projectID string) (bool, error) {
	info, err := os.Stat(s.projectDir(projectID))
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.IsDir(), nil
}

type projectRepo Store

func (r *projectRepo) Create(ctx context.Context, projectID string, cfg *schema.Config) error {
	dir := (*Store)(r).projectDir(projectID)
	if err := os.Mkdir(dir, 0o755); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", repository.ErrProjectExists, projectID)
		}
		return fmt.Errorf("creating project directory: %w", err)
	}
	if err := (*schemaRepo)(r).Save(ctx, projectID, cfg); err != nil {
		os.RemoveAll(dir)
		return err
	}
	return nil
}

func (r *projectRepo) Exists(_ context.Context, projectID string) (bool, error) {
	return (*Store)(r).projectExists(projectID)
}

func (r *projectRepo) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("reading data root: %w", err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			ids = append(ids, e.Name())
		}
	}
	return ids, nil
}

func (r *projectRepo) Delete(_ context.Context, projectID string) error {
	ok, err := (*Store)(r).projectExists(projectID)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrProjectNotFound
	}
	if err := os.RemoveAll((*Store)(r).projectDir(projectID)); err != nil {
		return fmt.Errorf("deleting project directory: %w", err)
	}
	return nil
}
