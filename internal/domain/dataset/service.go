// Package dataset coordinates every mutation of a project's master table
// and column set. All writes go through here so cache invalidation and
// audit logging happen synchronously before the call returns.
package dataset

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/searchos/dataview/internal/domain/activity"
	"github.com/searchos/dataview/internal/domain/schema"
	"github.com/searchos/dataview/internal/domain/table"
)

// Service handles master-data operations for a project.
type Service struct {
	tables   TableRepository
	schemas  SchemaRepository
	cache    Invalidator
	recorder activity.Recorder
	logger   *slog.Logger
}

// NewService creates a new dataset service.
func NewService(tables TableRepository, schemas SchemaRepository, cache Invalidator, recorder activity.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{tables: tables, schemas: schemas, cache: cache, recorder: recorder, logger: logger}
}

// Save overwrites the project's master table. Incoming rows are guaranteed
// the system columns before persisting.
func (s *Service) Save(ctx context.Context, projectID string, t *table.Table) error {
	table.EnsureSystemColumns(t)
	if err := s.tables.Save(ctx, projectID, t); err != nil {
		return fmt.Errorf("saving master data: %w", err)
	}
	s.invalidate(projectID)
	s.record(ctx, projectID, activity.TypeDataSaved, fmt.Sprintf("master data saved (%d rows)", t.NumRows()))
	return nil
}

// Load returns the project's master table.
func (s *Service) Load(ctx context.Context, projectID string) (*table.Table, error) {
	t, err := s.tables.Load(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading master data: %w", err)
	}
	return t, nil
}

// Append adds rows to the master table. Column sets are unioned (missing
// cells read as empty on both sides) and incoming rows get fresh uids and
// the default list tag so they can never collide with existing rows.
func (s *Service) Append(ctx context.Context, projectID string, incoming *table.Table) error {
	existing, err := s.tables.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading master data: %w", err)
	}

	table.AssignFreshIdentity(incoming)

	merged := existing.WithRows(existing.Rows)
	merged.Columns = table.UnionColumns(existing.Columns, incoming.Columns)
	merged.Rows = append(merged.Rows, incoming.Rows...)

	if err := s.tables.Save(ctx, projectID, merged); err != nil {
		return fmt.Errorf("saving master data: %w", err)
	}
	s.invalidate(projectID)
	s.record(ctx, projectID, activity.TypeDataAppended, fmt.Sprintf("%d row(s) appended", incoming.NumRows()))
	return nil
}

// UpdateRow patches one row by uid. Updates may introduce new columns; all
// other rows then read as empty for them.
func (s *Service) UpdateRow(ctx context.Context, projectID, uid string, updates map[string]string) error {
	t, err := s.tables.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading master data: %w", err)
	}

	var target table.Row
	for _, row := range t.Rows {
		if row.Get(table.ColUID) == uid {
			target = row
			break
		}
	}
	if target == nil {
		return ErrRowNotFound
	}
	for col, value := range updates {
		if table.IsSystemColumn(col) {
			continue
		}
		t.AddColumn(col)
		target[col] = value
	}

	if err := s.tables.Save(ctx, projectID, t); err != nil {
		return fmt.Errorf("saving master data: %w", err)
	}
	s.invalidate(projectID)
	s.record(ctx, projectID, activity.TypeRowUpdated, fmt.Sprintf("row %s updated", uid))
	return nil
}

// DeleteRows removes rows by uid. Custom views referencing the deleted uids
// keep them in their row-id sets; stale ids are ignored at query time.
func (s *Service) DeleteRows(ctx context.Context, projectID string, uids []string) error {
	t, err := s.tables.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading master data: %w", err)
	}

	drop := make(map[string]struct{}, len(uids))
	for _, uid := range uids {
		drop[uid] = struct{}{}
	}
	kept := t.Rows[:0:0]
	for _, row := range t.Rows {
		if _, ok := drop[row.Get(table.ColUID)]; !ok {
			kept = append(kept, row)
		}
	}
	removed := t.NumRows() - len(kept)
	t.Rows = kept

	if err := s.tables.Save(ctx, projectID, t); err != nil {
		return fmt.Errorf("saving master data: %w", err)
	}
	s.invalidate(projectID)
	s.record(ctx, projectID, activity.TypeRowsDeleted, fmt.Sprintf("%d row(s) deleted", removed))
	return nil
}

// Columns returns the master column set and the custom column definitions.
func (s *Service) Columns(ctx context.Context, projectID string) ([]string, map[string]schema.ColumnDefinition, error) {
	t, err := s.tables.Load(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading master data: %w", err)
	}
	cfg, err := s.schemas.Load(ctx, projectID)
	if err != nil {
		return nil, nil, fmt.Errorf("loading schema: %w", err)
	}
	return t.Columns, cfg.CustomColumns, nil
}

// AddColumn creates a custom text or single-select column: an empty column
// in the master table plus a definition in the schema document.
func (s *Service) AddColumn(ctx context.Context, projectID, name string, def schema.ColumnDefinition) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty column name", ErrInvalidInput)
	}
	if def.Type != schema.ColumnText && def.Type != schema.ColumnSingleSelect {
		return fmt.Errorf("%w: column type must be %s or %s", ErrInvalidInput, schema.ColumnText, schema.ColumnSingleSelect)
	}
	if def.Type == schema.ColumnSingleSelect {
		options := def.Options[:0:0]
		for _, opt := range def.Options {
			if opt = strings.TrimSpace(opt); opt != "" {
				options = append(options, opt)
			}
		}
		if len(options) == 0 {
			return fmt.Errorf("%w: single_select columns need at least one option", ErrInvalidInput)
		}
		def.Options = options
	}

	t, err := s.tables.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading master data: %w", err)
	}
	cfg, err := s.schemas.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	if t.HasColumn(name) {
		return fmt.Errorf("%w: %s", ErrColumnExists, name)
	}

	t.AddColumn(name)
	cfg.CustomColumns[name] = def

	if err := s.tables.Save(ctx, projectID, t); err != nil {
		return fmt.Errorf("saving master data: %w", err)
	}
	if err := s.schemas.Save(ctx, projectID, cfg); err != nil {
		return fmt.Errorf("saving schema: %w", err)
	}
	s.invalidate(projectID)
	s.record(ctx, projectID, activity.TypeColumnAdded, fmt.Sprintf("column %q added", name))
	return nil
}

var fieldPattern = regexp.MustCompile(`[^a-z0-9]+`)

// AddAIColumn creates an AI-derived score column together with its paired
// explanation column and stores the generation configuration. Running the
// generation is a collaborator's job; here the columns are only declared.
func (s *Service) AddAIColumn(ctx context.Context, projectID, name, prompt, model string, smartContext bool) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: empty column name", ErrInvalidInput)
	}
	if strings.TrimSpace(prompt) == "" {
		return fmt.Errorf("%w: AI columns need a prompt", ErrInvalidInput)
	}
	validModel := false
	for _, m := range schema.ValidModels {
		if model == m {
			validModel = true
			break
		}
	}
	if !validModel {
		return fmt.Errorf("%w: invalid model %q", ErrInvalidInput, model)
	}

	t, err := s.tables.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading master data: %w", err)
	}
	cfg, err := s.schemas.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	if t.HasColumn(name) {
		return fmt.Errorf("%w: %s", ErrColumnExists, name)
	}

	t.AddColumn(name)
	t.AddColumn(name + "_reason")
	cfg.CustomColumns[name] = schema.ColumnDefinition{
		Type:  schema.ColumnAIScore,
		Field: strings.Trim(fieldPattern.ReplaceAllString(strings.ToLower(name), "_"), "_"),
		Config: &schema.GenerationConfig{
			UserPrompt:    strings.TrimSpace(prompt),
			ModelSelected: model,
			SmartContext:  smartContext,
		},
	}

	if err := s.tables.Save(ctx, projectID, t); err != nil {
		return fmt.Errorf("saving master data: %w", err)
	}
	if err := s.schemas.Save(ctx, projectID, cfg); err != nil {
		return fmt.Errorf("saving schema: %w", err)
	}
	s.invalidate(projectID)
	s.record(ctx, projectID, activity.TypeColumnAdded, fmt.Sprintf("AI column %q added", name))
	return nil
}

// LoadSchema returns the project's configuration document.
func (s *Service) LoadSchema(ctx context.Context, projectID string) (*schema.Config, error) {
	cfg, err := s.schemas.Load(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	return cfg, nil
}

// UpdateSchema replaces the configuration document after validation.
func (s *Service) UpdateSchema(ctx context.Context, projectID string, cfg *schema.Config) error {
	if err := s.schemas.Save(ctx, projectID, cfg); err != nil {
		return fmt.Errorf("saving schema: %w", err)
	}
	s.invalidate(projectID)
	s.record(ctx, projectID, activity.TypeSchemaUpdated, "schema updated")
	return nil
}

func (s *Service) invalidate(projectID string) {
	if s.cache != nil {
		s.cache.InvalidateProject(projectID)
	}
}

func (s *Service) record(ctx context.Context, projectID string, typ activity.Type, summary string) {
	if s.recorder != nil {
		s.recorder.Record(ctx, projectID, typ, summary)
	}
}
