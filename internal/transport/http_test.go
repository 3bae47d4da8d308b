package transport

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/searchos/dataview/internal/domain/activity"
	"github.com/searchos/dataview/internal/domain/dataset"
	"github.com/searchos/dataview/internal/domain/ingest"
	"github.com/searchos/dataview/internal/domain/project"
	"github.com/searchos/dataview/internal/domain/query"
	"github.com/searchos/dataview/internal/domain/view"
	"github.com/searchos/dataview/internal/memstore"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := memstore.New()
	cache := query.NewResultCache(0)
	activitySvc := activity.NewService(store.Activity(), nil)
	views := view.NewService(store.Tables(), store.Schemas(), cache, activitySvc, nil)

	router := NewServer(Config{
		Services: Services{
			Projects: project.NewService(store.Projects(), store.Schemas(), cache, activitySvc, nil),
			Views:    views,
			Data:     dataset.NewService(store.Tables(), store.Schemas(), cache, activitySvc, nil),
			Queries:  query.NewService(views, cache, nil),
			Activity: activitySvc,
		},
		Consolidate: ingest.Options{},
	})

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any, out any) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp
}

func createTestProject(t *testing.T, srv *httptest.Server, name string) string {
	t.Helper()
	var info struct {
		ID string `json:"id"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/projects", map[string]string{"name": name}, &info)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.NotEmpty(t, info.ID)
	return info.ID
}

func saveTestData(t *testing.T, srv *httptest.Server, projectID string, consolidate bool, rows []map[string]string, columns ...string) {
	t.Helper()
	resp := doJSON(t, http.MethodPost, srv.URL+"/projects/"+projectID+"/data", map[string]any{
		"columns":     columns,
		"rows":        rows,
		"consolidate": consolidate,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestProjectEndpoints(t *testing.T) {
	srv := newTestServer(t)

	id := createTestProject(t, srv, "Munich Tech")

	var listing struct {
		Projects []struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		} `json:"projects"`
	}
	resp := doJSON(t, http.MethodGet, srv.URL+"/projects", nil, &listing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, listing.Projects, 1)
	require.Equal(t, id, listing.Projects[0].ID)
	require.Equal(t, "Munich Tech", listing.Projects[0].Name)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/projects/"+id, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/projects/"+id, nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDataAndQueryEndpoints(t *testing.T) {
	srv := newTestServer(t)
	id := createTestProject(t, srv, "Acme")

	saveTestData(t, srv, id, false, []map[string]string{
		{"name": "Acme", "city": "Berlin"},
		{"name": "Beta", "city": "Hamburg"},
		{"name": "Gamma", "city": "Berlin"},
	}, "name", "city")

	var page struct {
		Rows  []map[string]string `json:"rows"`
		Total int                 `json:"total"`
	}
	resp := doJSON(t, http.MethodGet, srv.URL+"/projects/"+id+"/views/inbox/data", nil, &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 3, page.Total)

	resp = doJSON(t, http.MethodPost, srv.URL+"/projects/"+id+"/views/inbox/query", map[string]any{
		"filters": map[string][]string{"city": {"Berlin"}},
		"sort":    []map[string]any{{"column": "name", "desc": true}},
	}, &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, page.Total)
	require.Equal(t, "Gamma", page.Rows[0]["name"])

	var values struct {
		Values []string `json:"values"`
	}
	resp = doJSON(t, http.MethodPost, srv.URL+"/projects/"+id+"/views/inbox/values", map[string]any{
		"column": "city",
	}, &values)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"Berlin", "Hamburg"}, values.Values)

	// Unknown views answer empty, not 404.
	resp = doJSON(t, http.MethodGet, srv.URL+"/projects/"+id+"/views/ghost/data", nil, &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 0, page.Total)

	// Unknown projects are 404.
	resp = doJSON(t, http.MethodGet, srv.URL+"/projects/nope/views/inbox/data", nil, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIngestConsolidation(t *testing.T) {
	srv := newTestServer(t)
	id := createTestProject(t, srv, "Acme")

	saveTestData(t, srv, id, true, []map[string]string{
		{"Mark": "66", "name": "Acme", "shareholder": "Alice"},
		{"Mark": "", "name": "", "shareholder": "Bob"},
		{"Mark": "67", "name": "Beta", "shareholder": ""},
	}, "Mark", "name", "shareholder")

	var page struct {
		Rows  []map[string]string `json:"rows"`
		Total int                 `json:"total"`
	}
	resp := doJSON(t, http.MethodGet, srv.URL+"/projects/"+id+"/views/inbox/data", nil, &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, 2, page.Total)
	require.Equal(t, `["Alice","Bob"]`, page.Rows[0]["shareholder"])
	require.Equal(t, "2", page.Rows[0]["_rows_consolidated"])
}

func TestViewEndpoints(t *testing.T) {
	srv := newTestServer(t)
	id := createTestProject(t, srv, "Acme")
	saveTestData(t, srv, id, false, []map[string]string{
		{"name": "Acme"},
		{"name": "Beta"},
	}, "name")

	var created struct {
		ID string `json:"id"`
	}
	resp := doJSON(t, http.MethodPost, srv.URL+"/projects/"+id+"/views", map[string]any{
		"name": "Favorites",
	}, &created)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var page struct {
		Rows []map[string]string `json:"rows"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/projects/"+id+"/views/inbox/data", nil, &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	uid := page.Rows[0]["_uid"]
	require.NotEmpty(t, uid)

	// Copy one row into the custom view.
	resp = doJSON(t, http.MethodPost, srv.URL+"/projects/"+id+"/views/inbox/rows/copy", map[string]any{
		"rowIds":       []string{uid},
		"targetViewId": created.ID,
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// Move the other row to shortlist.
	other := page.Rows[1]["_uid"]
	resp = doJSON(t, http.MethodPost, srv.URL+"/projects/"+id+"/views/inbox/rows/move", map[string]any{
		"rowIds":       []string{other},
		"targetViewId": "shortlist",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listing struct {
		Views []struct {
			ID       string `json:"id"`
			Type     string `json:"type"`
			RowCount int    `json:"rowCount"`
		} `json:"views"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/projects/"+id+"/views", nil, &listing)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	counts := map[string]int{}
	for _, v := range listing.Views {
		counts[v.ID] = v.RowCount
	}
	require.Equal(t, 1, counts["inbox"])
	require.Equal(t, 1, counts["shortlist"])
	require.Equal(t, 1, counts[created.ID])

	// System views can't be deleted.
	resp = doJSON(t, http.MethodDelete, srv.URL+"/projects/"+id+"/views/inbox", nil, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = doJSON(t, http.MethodDelete, srv.URL+"/projects/"+id+"/views/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestRowAndColumnEndpoints(t *testing.T) {
	srv := newTestServer(t)
	id := createTestProject(t, srv, "Acme")
	saveTestData(t, srv, id, false, []map[string]string{
		{"name": "Acme"},
		{"name": "Beta"},
	}, "name")

	var page struct {
		Rows []map[string]string `json:"rows"`
	}
	resp := doJSON(t, http.MethodGet, srv.URL+"/projects/"+id+"/views/inbox/data", nil, &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	uid := page.Rows[0]["_uid"]

	resp = doJSON(t, http.MethodPatch, srv.URL+"/projects/"+id+"/rows/"+uid, map[string]string{
		"name": "Acme Corp",
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodPatch, srv.URL+"/projects/"+id+"/rows/ghost", map[string]string{
		"name": "x",
	}, nil)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/projects/"+id+"/columns", map[string]any{
		"name": "Status", "type": "single_select", "options": []string{"new", "done"},
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doJSON(t, http.MethodPost, srv.URL+"/projects/"+id+"/columns", map[string]any{
		"name": "Fit", "type": "ai_score", "prompt": "Rate the fit", "model": "instant",
	}, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var cols struct {
		Columns []string `json:"columns"`
	}
	resp = doJSON(t, http.MethodGet, srv.URL+"/projects/"+id+"/columns", nil, &cols)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, cols.Columns, "Status")
	require.Contains(t, cols.Columns, "Fit")
	require.Contains(t, cols.Columns, "Fit_reason")

	resp = doJSON(t, http.MethodDelete, srv.URL+"/projects/"+id+"/rows", map[string]any{
		"rowIds": []string{page.Rows[1]["_uid"]},
	}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, http.MethodGet, srv.URL+"/projects/"+id+"/views/inbox/data", nil, &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, page.Rows, 1)
	require.Equal(t, "Acme Corp", page.Rows[0]["name"])
}

func TestSchemaEndpoints(t *testing.T) {
	srv := newTestServer(t)
	id := createTestProject(t, srv, "Acme")

	var cfg map[string]any
	resp := doJSON(t, http.MethodGet, srv.URL+"/projects/"+id+"/schema", nil, &cfg)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, cfg, "lists")
	require.Contains(t, cfg, "custom_views")
	require.Contains(t, cfg, "custom_columns_definitions")

	// A custom view id colliding with a system list is rejected.
	cfg["custom_views"] = []map[string]any{{"id": "inbox", "name": "Bad"}}
	resp = doJSON(t, http.MethodPut, srv.URL+"/projects/"+id+"/schema", cfg, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestActivityEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := createTestProject(t, srv, "Acme")
	saveTestData(t, srv, id, false, []map[string]string{{"name": "Acme"}}, "name")

	var got struct {
		Activity []struct {
			Type string `json:"type"`
		} `json:"activity"`
	}
	resp := doJSON(t, http.MethodGet, srv.URL+"/projects/"+id+"/activity", nil, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(t, got.Activity)
	// Newest first: the save comes before the create.
	require.Equal(t, "master_data_saved", got.Activity[0].Type)
}

func TestInvalidJSONBody(t *testing.T) {
	srv := newTestServer(t)
	req, err := http.NewRequest(http.MethodPost, srv.URL+"/projects", bytes.NewBufferString("{broken"))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
