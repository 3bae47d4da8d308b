package parquet

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/searchos/dataview/internal/domain/table"
	"github.com/searchos/dataview/internal/repository"
)

type tableRepo Store

// Save writes the master table atomically: encode to a temp file in the
// project directory, then rename over the previous file. A crash mid-write
// leaves the old file intact.
func (r *tableRepo) Save(_ context.Context, projectID string, t *table.Table) error {
	store := (*Store)(r)
	ok, err := store.projectExists(projectID)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrProjectNotFound
	}

	dir := store.projectDir(projectID)
	tmp, err := os.CreateTemp(dir, masterDataFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := writeParquet(tmp, t, store.groupKey); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding master data: %w", err)
	}
	// pqarrow.WriteTable closes the writer it is handed, so the handle is
	// normally already closed here.
	if err := tmp.Close(); err != nil && !errors.Is(err, os.ErrClosed) {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, masterDataFile)); err != nil {
		return fmt.Errorf("replacing master data: %w", err)
	}
	return nil
}

// Load reads the master table. A project without data yields an empty table
// carrying the system columns. If the parquet decode fails, the file is
// retried as newline-delimited JSON before giving up as corrupt.
func (r *tableRepo) Load(ctx context.Context, projectID string) (*table.Table, error) {
	store := (*Store)(r)
	ok, err := store.projectExists(projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrProjectNotFound
	}

	path := filepath.Join(store.projectDir(projectID), masterDataFile)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return table.EnsureSystemColumns(table.New()), nil
	}

	t, perr := readParquet(ctx, path)
	if perr == nil {
		return table.EnsureSystemColumns(t), nil
	}
	t, jerr := readNDJSON(path)
	if jerr == nil {
		return table.EnsureSystemColumns(t), nil
	}
	return nil, fmt.Errorf("%w: %s: parquet: %v, ndjson: %v", repository.ErrCorruptData, masterDataFile, perr, jerr)
}
