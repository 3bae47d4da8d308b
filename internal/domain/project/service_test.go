package project_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/searchos/dataview/internal/domain/project"
	"github.com/searchos/dataview/internal/domain/query"
	"github.com/searchos/dataview/internal/domain/table"
	"github.com/searchos/dataview/internal/memstore"
)

func newService(store *memstore.Store) (*project.Service, *query.ResultCache) {
	cache := query.NewResultCache(0)
	return project.NewService(store.Projects(), store.Schemas(), cache, nil, nil), cache
}

func TestCreateGeneratesSlugId(t *testing.T) {
	store := memstore.New()
	svc, _ := newService(store)

	info, err := svc.Create(context.Background(), "Munich Tech Companies!")
	require.NoError(t, err)
	require.Equal(t, "Munich Tech Companies!", info.Name)
	require.True(t, strings.HasPrefix(info.ID, "munich_tech_companies_"), info.ID)
	// Slug plus an 8-char uuid suffix.
	require.Len(t, info.ID, len("munich_tech_companies_")+8)

	ok, err := svc.Exists(context.Background(), info.ID)
	require.NoError(t, err)
	require.True(t, ok)

	cfg, err := store.Schemas().Load(context.Background(), info.ID)
	require.NoError(t, err)
	require.Equal(t, "Munich Tech Companies!", cfg.ProjectName)
	require.Len(t, cfg.Lists, 3)
}

func TestCreateNonAlphanumericNameFallsBack(t *testing.T) {
	svc, _ := newService(memstore.New())
	info, err := svc.Create(context.Background(), "!!!")
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(info.ID, "project_"), info.ID)
}

func TestCreateEmptyNameRejected(t *testing.T) {
	svc, _ := newService(memstore.New())
	_, err := svc.Create(context.Background(), "  ")
	require.ErrorIs(t, err, project.ErrInvalidInput)
}

func TestCreateSameNameYieldsDistinctIds(t *testing.T) {
	svc, _ := newService(memstore.New())
	a, err := svc.Create(context.Background(), "Acme")
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), "Acme")
	require.NoError(t, err)
	require.NotEqual(t, a.ID, b.ID)
}

func TestListReturnsDisplayNames(t *testing.T) {
	store := memstore.New()
	svc, _ := newService(store)

	a, err := svc.Create(context.Background(), "Alpha")
	require.NoError(t, err)
	b, err := svc.Create(context.Background(), "Beta")
	require.NoError(t, err)

	infos, err := svc.List(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 2)
	byID := map[string]string{}
	for _, info := range infos {
		byID[info.ID] = info.Name
	}
	require.Equal(t, "Alpha", byID[a.ID])
	require.Equal(t, "Beta", byID[b.ID])
}

func TestDeleteRemovesProjectAndCacheEntries(t *testing.T) {
	store := memstore.New()
	svc, cache := newService(store)

	info, err := svc.Create(context.Background(), "Acme")
	require.NoError(t, err)
	cache.Put(query.Key(info.ID, "inbox", query.Request{}), table.New())

	require.NoError(t, svc.Delete(context.Background(), info.ID))
	require.Equal(t, 0, cache.Len())

	ok, err := svc.Exists(context.Background(), info.ID)
	require.NoError(t, err)
	require.False(t, ok)
}
