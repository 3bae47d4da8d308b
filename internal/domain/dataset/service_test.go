package dataset_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/searchos/dataview/internal/domain/dataset"
	"github.com/searchos/dataview/internal/domain/query"
	"github.com/searchos/dataview/internal/domain/schema"
	"github.com/searchos/dataview/internal/domain/table"
	"github.com/searchos/dataview/internal/memstore"
)

func newFixture(t *testing.T) (*dataset.Service, *memstore.Store, *query.ResultCache) {
	t.Helper()
	store := memstore.New()
	require.NoError(t, store.Projects().Create(context.Background(), "p1", schema.Default("Project One")))
	cache := query.NewResultCache(0)
	svc := dataset.NewService(store.Tables(), store.Schemas(), cache, nil, nil)
	return svc, store, cache
}

func sampleTable(rows ...table.Row) *table.Table {
	t := table.New("name", "city")
	t.Rows = rows
	return t
}

func TestSaveAssignsSystemColumns(t *testing.T) {
	svc, store, _ := newFixture(t)
	ctx := context.Background()

	in := sampleTable(
		table.Row{"name": "Acme", "city": "Berlin"},
		table.Row{"name": "Beta", "city": "Hamburg"},
	)
	require.NoError(t, svc.Save(ctx, "p1", in))

	got, err := store.Tables().Load(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 2, got.NumRows())
	require.True(t, got.HasColumn(table.ColUID))
	require.True(t, got.HasColumn(table.ColListID))
	require.NotEmpty(t, got.Value(0, table.ColUID))
	require.NotEqual(t, got.Value(0, table.ColUID), got.Value(1, table.ColUID))
	require.Equal(t, table.DefaultListID, got.Value(0, table.ColListID))
}

func TestSaveInvalidatesCache(t *testing.T) {
	svc, _, cache := newFixture(t)
	cache.Put(query.Key("p1", "inbox", query.Request{}), table.New())
	cache.Put(query.Key("p2", "inbox", query.Request{}), table.New())

	require.NoError(t, svc.Save(context.Background(), "p1", sampleTable()))
	require.Equal(t, 1, cache.Len())
}

func TestAppendUnionsColumnsAndAssignsFreshUIDs(t *testing.T) {
	svc, store, _ := newFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "p1", sampleTable(table.Row{"name": "Acme", "city": "Berlin"})))
	existing, err := store.Tables().Load(ctx, "p1")
	require.NoError(t, err)
	existingUID := existing.Value(0, table.ColUID)

	incoming := table.New("name", "country")
	incoming.Rows = []table.Row{
		// A caller-supplied uid must not survive the append.
		{"name": "Beta", "country": "DE", table.ColUID: existingUID, table.ColListID: "shortlist"},
	}
	require.NoError(t, svc.Append(ctx, "p1", incoming))

	got, err := store.Tables().Load(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 2, got.NumRows())
	require.True(t, got.HasColumn("city"))
	require.True(t, got.HasColumn("country"))
	require.NotEqual(t, existingUID, got.Value(1, table.ColUID))
	require.Equal(t, table.DefaultListID, got.Value(1, table.ColListID))
	// Cells absent from a row's column set read as empty.
	require.Equal(t, "", got.Value(1, "city"))
	require.Equal(t, "", got.Value(0, "country"))
}

func TestAppendToEmptyProjectBehavesLikeSave(t *testing.T) {
	svc, store, _ := newFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Append(ctx, "p1", sampleTable(table.Row{"name": "Acme"})))

	got, err := store.Tables().Load(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 1, got.NumRows())
	require.NotEmpty(t, got.Value(0, table.ColUID))
}

func TestUpdateRowPatchesAndGrowsColumns(t *testing.T) {
	svc, store, _ := newFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "p1", sampleTable(
		table.Row{"name": "Acme", "city": "Berlin"},
		table.Row{"name": "Beta", "city": "Hamburg"},
	)))
	saved, err := store.Tables().Load(ctx, "p1")
	require.NoError(t, err)
	uid := saved.Value(0, table.ColUID)

	require.NoError(t, svc.UpdateRow(ctx, "p1", uid, map[string]string{
		"city":   "Munich",
		"rating": "5",
		// System columns are immutable through updates.
		table.ColUID: "forged",
	}))

	got, err := store.Tables().Load(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, "Munich", got.Value(0, "city"))
	require.Equal(t, "5", got.Value(0, "rating"))
	require.Equal(t, uid, got.Value(0, table.ColUID))
	require.True(t, got.HasColumn("rating"))
	require.Equal(t, "", got.Value(1, "rating"))
}

func TestUpdateRowUnknownUID(t *testing.T) {
	svc, _, _ := newFixture(t)
	require.NoError(t, svc.Save(context.Background(), "p1", sampleTable(table.Row{"name": "Acme"})))

	err := svc.UpdateRow(context.Background(), "p1", "nope", map[string]string{"name": "x"})
	require.ErrorIs(t, err, dataset.ErrRowNotFound)
}

func TestDeleteRows(t *testing.T) {
	svc, store, _ := newFixture(t)
	ctx := context.Background()

	require.NoError(t, svc.Save(ctx, "p1", sampleTable(
		table.Row{"name": "Acme"},
		table.Row{"name": "Beta"},
		table.Row{"name": "Gamma"},
	)))
	saved, err := store.Tables().Load(ctx, "p1")
	require.NoError(t, err)

	require.NoError(t, svc.DeleteRows(ctx, "p1", []string{
		saved.Value(0, table.ColUID),
		saved.Value(2, table.ColUID),
		"already-gone",
	}))

	got, err := store.Tables().Load(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, 1, got.NumRows())
	require.Equal(t, "Beta", got.Value(0, "name"))
}

func TestAddColumn(t *testing.T) {
	svc, store, _ := newFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.Save(ctx, "p1", sampleTable(table.Row{"name": "Acme"})))

	def := schema.ColumnDefinition{Type: schema.ColumnSingleSelect, Options: []string{"hot", "cold", " "}}
	require.NoError(t, svc.AddColumn(ctx, "p1", "Temperature", def))

	got, err := store.Tables().Load(ctx, "p1")
	require.NoError(t, err)
	require.True(t, got.HasColumn("Temperature"))
	require.Equal(t, "", got.Value(0, "Temperature"))

	cfg, err := store.Schemas().Load(ctx, "p1")
	require.NoError(t, err)
	require.Equal(t, schema.ColumnSingleSelect, cfg.CustomColumns["Temperature"].Type)
	require.Equal(t, []string{"hot", "cold"}, cfg.CustomColumns["Temperature"].Options)

	err = svc.AddColumn(ctx, "p1", "Temperature", def)
	require.ErrorIs(t, err, dataset.ErrColumnExists)
}

func TestAddColumnValidation(t *testing.T) {
	svc, _, _ := newFixture(t)
	ctx := context.Background()

	err := svc.AddColumn(ctx, "p1", "  ", schema.ColumnDefinition{Type: schema.ColumnText})
	require.ErrorIs(t, err, dataset.ErrInvalidInput)

	err = svc.AddColumn(ctx, "p1", "Score", schema.ColumnDefinition{Type: schema.ColumnAIScore})
	require.ErrorIs(t, err, dataset.ErrInvalidInput)

	err = svc.AddColumn(ctx, "p1", "Pick", schema.ColumnDefinition{Type: schema.ColumnSingleSelect})
	require.ErrorIs(t, err, dataset.ErrInvalidInput)
}

func TestAddAIColumnCreatesScoreAndReasonPair(t *testing.T) {
	svc, store, _ := newFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.Save(ctx, "p1", sampleTable(table.Row{"name": "Acme"})))

	require.NoError(t, svc.AddAIColumn(ctx, "p1", "Fit Score", "How well does this company fit?", "batch", true))

	got, err := store.Tables().Load(ctx, "p1")
	require.NoError(t, err)
	require.True(t, got.HasColumn("Fit Score"))
	require.True(t, got.HasColumn("Fit Score_reason"))

	cfg, err := store.Schemas().Load(ctx, "p1")
	require.NoError(t, err)
	def := cfg.CustomColumns["Fit Score"]
	require.Equal(t, schema.ColumnAIScore, def.Type)
	require.Equal(t, "fit_score", def.Field)
	require.NotNil(t, def.Config)
	require.Equal(t, "batch", def.Config.ModelSelected)
	require.True(t, def.Config.SmartContext)
}

func TestAddAIColumnValidation(t *testing.T) {
	svc, _, _ := newFixture(t)
	ctx := context.Background()

	err := svc.AddAIColumn(ctx, "p1", "Score", "", "batch", false)
	require.ErrorIs(t, err, dataset.ErrInvalidInput)

	err = svc.AddAIColumn(ctx, "p1", "Score", "prompt", "turbo", false)
	require.ErrorIs(t, err, dataset.ErrInvalidInput)
}

func TestColumnsListsTableAndDefinitions(t *testing.T) {
	svc, _, _ := newFixture(t)
	ctx := context.Background()
	require.NoError(t, svc.Save(ctx, "p1", sampleTable(table.Row{"name": "Acme"})))
	require.NoError(t, svc.AddColumn(ctx, "p1", "Notes", schema.ColumnDefinition{Type: schema.ColumnText}))

	cols, defs, err := svc.Columns(ctx, "p1")
	require.NoError(t, err)
	require.Contains(t, cols, "name")
	require.Contains(t, cols, "Notes")
	require.Contains(t, defs, "Notes")
}
