package query

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/searchos/dataview/internal/domain/table"
)

// Resolver computes the master rows belonging to a view.
type Resolver interface {
	Resolve(ctx context.Context, projectID, viewID string) (*table.Table, error)
}

// Service answers view queries through the result cache.
type Service struct {
	resolver Resolver
	cache    *ResultCache
	logger   *slog.Logger
}

// NewService creates a new query service.
func NewService(resolver Resolver, cache *ResultCache, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{resolver: resolver, cache: cache, logger: logger}
}

// resolve returns the filtered+sorted row set for the query, from cache
// when possible. Cached tables are treated as read-only by every caller.
func (s *Service) resolve(ctx context.Context, projectID, viewID string, req Request) (*table.Table, error) {
	key := Key(projectID, viewID, req)
	if t, ok := s.cache.Get(key); ok {
		return t, nil
	}

	rows, err := s.resolver.Resolve(ctx, projectID, viewID)
	if err != nil {
		return nil, fmt.Errorf("resolving view %s: %w", viewID, err)
	}
	result := Apply(rows, req)
	return s.cache.Put(key, result), nil
}

// Query answers one paginated view query.
func (s *Service) Query(ctx context.Context, projectID, viewID string, req Request, offset, limit int) (Page, error) {
	result, err := s.resolve(ctx, projectID, viewID, req)
	if err != nil {
		return Page{}, err
	}
	return Paginate(result, offset, limit), nil
}

// UniqueValues returns the distinct selectable values of a column under the
// query's filters, with the column's own filter excluded so already-applied
// selections don't hide the remaining options.
func (s *Service) UniqueValues(ctx context.Context, projectID, viewID, column string, req Request, limit int) ([]string, error) {
	trimmed := Request{
		Search:        req.Search,
		SearchColumns: req.SearchColumns,
	}
	if len(req.Filters) > 0 {
		trimmed.Filters = make(map[string][]string, len(req.Filters))
		for col, values := range req.Filters {
			if col == column {
				continue
			}
			trimmed.Filters[col] = values
		}
	}

	result, err := s.resolve(ctx, projectID, viewID, trimmed)
	if err != nil {
		return nil, err
	}
	return DistinctValues(result, column, limit), nil
}
