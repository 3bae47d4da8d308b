package project

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/searchos/dataview/internal/domain/activity"
	"github.com/searchos/dataview/internal/domain/schema"
)

// Info is the listing representation of a project.
type Info struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Service handles project lifecycle operations.
type Service struct {
	repo     Repository
	schemas  SchemaReader
	cache    Invalidator
	recorder activity.Recorder
	logger   *slog.Logger
}

// NewService creates a new project service.
func NewService(repo Repository, schemas SchemaReader, cache Invalidator, recorder activity.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{repo: repo, schemas: schemas, cache: cache, recorder: recorder, logger: logger}
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Create makes a new project container. The generated id is a slug of the
// name plus a short uuid suffix, so ids stay readable in the data directory
// while remaining unique.
func (s *Service) Create(ctx context.Context, name string) (Info, error) {
	if strings.TrimSpace(name) == "" {
		return Info{}, ErrInvalidInput
	}

	slug := strings.Trim(slugPattern.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "_"), "_")
	if slug == "" {
		slug = "project"
	}
	id := fmt.Sprintf("%s_%s", slug, uuid.NewString()[:8])

	if err := s.repo.Create(ctx, id, schema.Default(name)); err != nil {
		return Info{}, fmt.Errorf("creating project: %w", err)
	}

	if s.recorder != nil {
		s.recorder.Record(ctx, id, activity.TypeProjectCreated, fmt.Sprintf("project %q created", name))
	}
	s.logger.Info("project created", "project", id)
	return Info{ID: id, Name: name}, nil
}

// List returns all projects with their display names. Projects whose schema
// document can't be read are still listed under their id: a broken config
// must not hide the project from the UI.
func (s *Service) List(ctx context.Context) ([]Info, error) {
	ids, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}

	infos := make([]Info, 0, len(ids))
	for _, id := range ids {
		name := id
		if cfg, err := s.schemas.Load(ctx, id); err == nil && strings.TrimSpace(cfg.ProjectName) != "" {
			name = cfg.ProjectName
		}
		infos = append(infos, Info{ID: id, Name: name})
	}
	return infos, nil
}

// Exists reports whether the project container is present.
func (s *Service) Exists(ctx context.Context, id string) (bool, error) {
	return s.repo.Exists(ctx, id)
}

// Delete removes the project and all descendants, then drops its cached
// query results.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if s.cache != nil {
		s.cache.InvalidateProject(id)
	}
	if s.recorder != nil {
		s.recorder.Record(ctx, id, activity.TypeProjectDeleted, "project deleted")
	}
	s.logger.Info("project deleted", "project", id)
	return nil
}
