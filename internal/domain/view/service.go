package view

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/searchos/dataview/internal/domain/activity"
	"github.com/searchos/dataview/internal/domain/schema"
	"github.com/searchos/dataview/internal/domain/table"
	"github.com/searchos/dataview/internal/repository"
)

// Service manages views and row membership. System views are keyed by the
// row's list tag; custom views hold an explicit row-id set. The two
// memberships are independent: moving a row between system lists never
// evicts it from custom views.
type Service struct {
	tables   TableRepository
	schemas  SchemaRepository
	cache    Invalidator
	recorder activity.Recorder
	logger   *slog.Logger

	// now is swappable for deterministic view ids in tests.
	now func() time.Time
}

// NewService creates a new view service.
func NewService(tables TableRepository, schemas SchemaRepository, cache Invalidator, recorder activity.Recorder, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		tables:   tables,
		schemas:  schemas,
		cache:    cache,
		recorder: recorder,
		logger:   logger,
		now:      time.Now,
	}
}

// All returns every view of the project, system lists first.
func (s *Service) All(ctx context.Context, projectID string) ([]View, error) {
	cfg, err := s.schemas.Load(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	views := make([]View, 0, len(cfg.Lists)+len(cfg.CustomViews))
	for _, l := range cfg.Lists {
		views = append(views, View{
			ID:             l.ID,
			Name:           l.Name,
			Icon:           systemIcon(l.ID),
			Type:           TypeSystem,
			VisibleColumns: []string{},
			RowIDs:         []string{},
		})
	}
	for _, cv := range cfg.CustomViews {
		icon := cv.Icon
		if icon == "" {
			icon = defaultCustomIcon
		}
		views = append(views, View{
			ID:             cv.ID,
			Name:           cv.Name,
			Icon:           icon,
			Type:           TypeCustom,
			VisibleColumns: append([]string{}, cv.VisibleColumns...),
			RowIDs:         append([]string{}, cv.RowIDs...),
		})
	}
	return views, nil
}

// CreateCustom creates an empty custom view.
func (s *Service) CreateCustom(ctx context.Context, projectID, name, icon string, visibleColumns []string) (View, error) {
	cfg, err := s.schemas.Load(ctx, projectID)
	if err != nil {
		return View{}, fmt.Errorf("loading schema: %w", err)
	}

	// Ids are millisecond timestamps; bump on collision so two creates in
	// the same millisecond both land.
	ts := s.now().UnixMilli()
	id := fmt.Sprintf("custom_%d", ts)
	for cfg.FindCustomView(id) != nil {
		ts++
		id = fmt.Sprintf("custom_%d", ts)
	}
	cfg.CustomViews = append(cfg.CustomViews, schema.CustomView{
		ID:             id,
		Name:           name,
		Icon:           icon,
		VisibleColumns: append([]string{}, visibleColumns...),
		RowIDs:         []string{},
		IsCustom:       true,
	})
	if err := s.schemas.Save(ctx, projectID, cfg); err != nil {
		return View{}, fmt.Errorf("saving schema: %w", err)
	}

	s.invalidate(projectID)
	s.record(ctx, projectID, activity.TypeViewCreated, fmt.Sprintf("view %q created", name))
	return View{ID: id, Name: name, Icon: icon, Type: TypeCustom, VisibleColumns: visibleColumns, RowIDs: []string{}}, nil
}

// DeleteCustom removes a custom view. Master rows are unaffected; only the
// view's row-id set is discarded. System lists can never be deleted.
func (s *Service) DeleteCustom(ctx context.Context, projectID, viewID string) error {
	cfg, err := s.schemas.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	if cfg.IsSystemList(viewID) {
		return ErrSystemView
	}

	kept := cfg.CustomViews[:0:0]
	for _, cv := range cfg.CustomViews {
		if cv.ID != viewID {
			kept = append(kept, cv)
		}
	}
	if len(kept) == len(cfg.CustomViews) {
		return repository.ErrViewNotFound
	}
	cfg.CustomViews = kept

	if err := s.schemas.Save(ctx, projectID, cfg); err != nil {
		return fmt.Errorf("saving schema: %w", err)
	}
	s.invalidate(projectID)
	s.record(ctx, projectID, activity.TypeViewDeleted, fmt.Sprintf("view %q deleted", viewID))
	return nil
}

// AddRows adds rows to a view. For a system list this re-tags the rows
// (membership in system lists is exclusive); for a custom view it grows the
// row-id set, preserving insertion order.
func (s *Service) AddRows(ctx context.Context, projectID, viewID string, uids []string) error {
	cfg, err := s.schemas.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}

	if cfg.IsSystemList(viewID) {
		return s.moveToList(ctx, projectID, viewID, uids)
	}

	cv := cfg.FindCustomView(viewID)
	if cv == nil {
		return repository.ErrViewNotFound
	}
	existing := make(map[string]struct{}, len(cv.RowIDs))
	for _, id := range cv.RowIDs {
		existing[id] = struct{}{}
	}
	for _, uid := range uids {
		if _, ok := existing[uid]; !ok {
			existing[uid] = struct{}{}
			cv.RowIDs = append(cv.RowIDs, uid)
		}
	}

	if err := s.schemas.Save(ctx, projectID, cfg); err != nil {
		return fmt.Errorf("saving schema: %w", err)
	}
	s.invalidate(projectID)
	return nil
}

// moveToList re-tags rows to a system list, ignoring uids that don't exist
// in the master table.
func (s *Service) moveToList(ctx context.Context, projectID, listID string, uids []string) error {
	t, err := s.tables.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading master data: %w", err)
	}

	want := make(map[string]struct{}, len(uids))
	for _, uid := range uids {
		want[uid] = struct{}{}
	}
	changed := 0
	for _, row := range t.Rows {
		if _, ok := want[row.Get(table.ColUID)]; ok {
			row[table.ColListID] = listID
			changed++
		}
	}
	if changed == 0 {
		return nil
	}

	if err := s.tables.Save(ctx, projectID, t); err != nil {
		return fmt.Errorf("saving master data: %w", err)
	}
	s.invalidate(projectID)
	return nil
}

// RemoveRows removes rows from a custom view's row-id set. Removing rows
// from a system list is meaningless (move them to another list instead).
func (s *Service) RemoveRows(ctx context.Context, projectID, viewID string, uids []string) error {
	cfg, err := s.schemas.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	if cfg.IsSystemList(viewID) {
		return ErrSystemView
	}

	cv := cfg.FindCustomView(viewID)
	if cv == nil {
		return repository.ErrViewNotFound
	}
	drop := make(map[string]struct{}, len(uids))
	for _, uid := range uids {
		drop[uid] = struct{}{}
	}
	kept := cv.RowIDs[:0:0]
	for _, id := range cv.RowIDs {
		if _, ok := drop[id]; !ok {
			kept = append(kept, id)
		}
	}
	cv.RowIDs = kept

	if err := s.schemas.Save(ctx, projectID, cfg); err != nil {
		return fmt.Errorf("saving schema: %w", err)
	}
	s.invalidate(projectID)
	return nil
}

// Move transfers rows to the target view and, when the source is a custom
// view, removes them from it. Moving between system lists is implicit in
// the re-tag.
func (s *Service) Move(ctx context.Context, projectID, sourceViewID, targetViewID string, uids []string) error {
	if err := s.AddRows(ctx, projectID, targetViewID, uids); err != nil {
		return err
	}

	cfg, err := s.schemas.Load(ctx, projectID)
	if err != nil {
		return fmt.Errorf("loading schema: %w", err)
	}
	if cfg.FindCustomView(sourceViewID) != nil {
		if err := s.RemoveRows(ctx, projectID, sourceViewID, uids); err != nil {
			return err
		}
	}
	s.record(ctx, projectID, activity.TypeRowsMoved, fmt.Sprintf("%d row(s) moved to %s", len(uids), targetViewID))
	return nil
}

// Copy adds rows to the target view without touching the source.
func (s *Service) Copy(ctx context.Context, projectID, targetViewID string, uids []string) error {
	if err := s.AddRows(ctx, projectID, targetViewID, uids); err != nil {
		return err
	}
	s.record(ctx, projectID, activity.TypeRowsMoved, fmt.Sprintf("%d row(s) copied to %s", len(uids), targetViewID))
	return nil
}

// Resolve computes the master rows belonging to a view. Unknown view ids
// resolve to zero rows rather than an error, so UI polling of a just
// deleted view stays quiet.
func (s *Service) Resolve(ctx context.Context, projectID, viewID string) (*table.Table, error) {
	t, err := s.tables.Load(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading master data: %w", err)
	}

	cfg, err := s.schemas.Load(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}

	if cfg.IsSystemList(viewID) {
		if !t.HasColumn(table.ColListID) {
			return t.WithRows(nil), nil
		}
		kept := t.Rows[:0:0]
		for _, row := range t.Rows {
			if row.Get(table.ColListID) == viewID {
				kept = append(kept, row)
			}
		}
		return t.WithRows(kept), nil
	}

	cv := cfg.FindCustomView(viewID)
	if cv == nil || len(cv.RowIDs) == 0 || !t.HasColumn(table.ColUID) {
		return t.WithRows(nil), nil
	}
	// Stale uids in the row-id set are tolerated: they simply match no row.
	want := make(map[string]struct{}, len(cv.RowIDs))
	for _, id := range cv.RowIDs {
		want[id] = struct{}{}
	}
	kept := t.Rows[:0:0]
	for _, row := range t.Rows {
		if _, ok := want[row.Get(table.ColUID)]; ok {
			kept = append(kept, row)
		}
	}
	return t.WithRows(kept), nil
}

// RowCounts computes the row count of every known view in one pass over the
// master table. UI refreshes ask for all counts at once; loading the table
// per view would be quadratic in practice.
func (s *Service) RowCounts(ctx context.Context, projectID string) (map[string]int, error) {
	cfg, err := s.schemas.Load(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading schema: %w", err)
	}
	t, err := s.tables.Load(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("loading master data: %w", err)
	}

	counts := make(map[string]int, len(cfg.Lists)+len(cfg.CustomViews))
	for _, l := range cfg.Lists {
		counts[l.ID] = 0
	}
	byList := make(map[string]int)
	uids := make(map[string]struct{}, t.NumRows())
	for _, row := range t.Rows {
		byList[row.Get(table.ColListID)]++
		if uid := row.Get(table.ColUID); uid != "" {
			uids[uid] = struct{}{}
		}
	}
	for _, l := range cfg.Lists {
		counts[l.ID] = byList[l.ID]
	}
	for _, cv := range cfg.CustomViews {
		n := 0
		for _, id := range cv.RowIDs {
			if _, ok := uids[id]; ok {
				n++
			}
		}
		counts[cv.ID] = n
	}
	return counts, nil
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
