// Package memstore is an in-memory implementation of the repository
// interfaces. It backs unit tests and ephemeral development servers where
// the parquet-backed store would be overkill.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/searchos/dataview/internal/domain/activity"
	"github.com/searchos/dataview/internal/domain/schema"
	"github.com/searchos/dataview/internal/domain/table"
	"github.com/searchos/dataview/internal/repository"
)

type projectState struct {
	config *schema.Config
	data   *table.Table
}

// Store holds every project in process memory. All methods are safe for
// concurrent use. Tables and configs are deep-copied on the way in and out
// so callers can't mutate stored state behind the store's back.
type Store struct {
	mu       sync.RWMutex
	projects map[string]*projectState
	entries  []activity.Entry
	nextID   int64
}

// New creates an empty store.
func New() *Store {
	return &Store{projects: make(map[string]*projectState), nextID: 1}
}

// Projects returns the store's project repository view.
func (s *Store) Projects() repository.ProjectRepository { return (*projectRepo)(s) }

// Tables returns the store's table repository view.
func (s *Store) Tables() repository.TableRepository { return (*tableRepo)(s) }

// Schemas returns the store's schema repository view.
func (s *Store) Schemas() repository.SchemaRepository { return (*schemaRepo)(s) }

// Activity returns the store's activity repository view.
func (s *Store) Activity() repository.ActivityRepository { return (*activityRepo)(s) }

type projectRepo Store

func (r *projectRepo) Create(_ context.Context, projectID string, cfg *schema.Config) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[projectID]; ok {
		return repository.ErrProjectExists
	}
	r.projects[projectID] = &projectState{config: cloneConfig(cfg)}
	return nil
}

func (r *projectRepo) Exists(_ context.Context, projectID string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.projects[projectID]
	return ok, nil
}

func (r *projectRepo) List(_ context.Context) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.projects))
	for id := range r.projects {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (r *projectRepo) Delete(_ context.Context, projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[projectID]; !ok {
		return repository.ErrProjectNotFound
	}
	delete(r.projects, projectID)
	return nil
}

type tableRepo Store

func (r *tableRepo) Save(_ context.Context, projectID string, t *table.Table) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	if !ok {
		return repository.ErrProjectNotFound
	}
	p.data = t.Clone()
	return nil
}

func (r *tableRepo) Load(_ context.Context, projectID string) (*table.Table, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[projectID]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	if p.data == nil {
		t := table.New()
		table.EnsureSystemColumns(t)
		return t, nil
	}
	return p.data.Clone(), nil
}

type schemaRepo Store

func (r *schemaRepo) Load(_ context.Context, projectID string) (*schema.Config, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[projectID]
	if !ok {
		return nil, repository.ErrProjectNotFound
	}
	return cloneConfig(p.config), nil
}

func (r *schemaRepo) Save(_ context.Context, projectID string, cfg *schema.Config) error {
	if err := cfg.Validate(); err != nil {
		return repository.ErrInvalidConfiguration
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[projectID]
	if !ok {
		return repository.ErrProjectNotFound
	}
	p.config = cloneConfig(cfg)
	return nil
}

type activityRepo Store

func (r *activityRepo) Log(_ context.Context, entry *activity.Entry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry.ID = r.nextID
	r.nextID++
	r.entries = append(r.entries, *entry)
	return nil
}

func (r *activityRepo) List(_ context.Context, opts activity.ListOptions) ([]activity.Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	matched := make([]activity.Entry, 0, len(r.entries))
	// Newest first.
	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if opts.ProjectID != "" && e.ProjectID != opts.ProjectID {
			continue
		}
		matched = append(matched, e)
	}
	if opts.Offset > 0 {
		if opts.Offset >= len(matched) {
			return []activity.Entry{}, nil
		}
		matched = matched[opts.Offset:]
	}
	if opts.Limit > 0 && opts.Limit < len(matched) {
		matched = matched[:opts.Limit]
	}
	return matched, nil
}

func cloneConfig(cfg *schema.Config) *schema.Config {
	if cfg == nil {
		return nil
	}
	out := &schema.Config{
		ProjectName:   cfg.ProjectName,
		Lists:         append([]schema.List{}, cfg.Lists...),
		CustomViews:   make([]schema.CustomView, len(cfg.CustomViews)),
		CustomColumns: make(map[string]schema.ColumnDefinition, len(cfg.CustomColumns)),
	}
	for i, cv := range cfg.CustomViews {
		cv.VisibleColumns = append([]string{}, cv.VisibleColumns...)
		cv.RowIDs = append([]string{}, cv.RowIDs...)
		out.CustomViews[i] = cv
	}
	for name, def := range cfg.CustomColumns {
		def.Options = append([]string{}, def.Options...)
		if def.Config != nil {
			cp := *def.Config
			def.Config = &cp
		}
		out.CustomColumns[name] = def
	}
	return out
}
