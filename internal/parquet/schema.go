package parquet

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/searchos/dataview/internal/domain/schema"
	"github.com/searchos/dataview/internal/repository"
)

type schemaRepo Store

// Load reads the configuration document. A project directory without one
// (created by an older tool) gets the default document; documents written
// before custom views existed are normalized to the full shape.
func (r *schemaRepo) Load(_ context.Context, projectID string) (*schema.Config, error) {
	store := (*Store)(r)
	ok, err := store.projectExists(projectID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, repository.ErrProjectNotFound
	}

	path := filepath.Join(store.projectDir(projectID), schemaConfigFile)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return schema.Default(projectID), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading schema document: %w", err)
	}

	var cfg schema.Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", repository.ErrCorruptData, schemaConfigFile, err)
	}
	return cfg.Normalize(), nil
}

// Save validates and writes the configuration document atomically.
func (r *schemaRepo) Save(_ context.Context, projectID string, cfg *schema.Config) error {
	store := (*Store)(r)
	ok, err := store.projectExists(projectID)
	if err != nil {
		return err
	}
	if !ok {
		return repository.ErrProjectNotFound
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", repository.ErrInvalidConfiguration, err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding schema document: %w", err)
	}
	data = append(data, '\n')

	dir := store.projectDir(projectID)
	tmp, err := os.CreateTemp(dir, schemaConfigFile+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing schema document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), filepath.Join(dir, schemaConfigFile)); err != nil {
		return fmt.Errorf("replacing schema document: %w", err)
	}
	return nil
}
