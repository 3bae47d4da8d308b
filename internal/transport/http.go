// Package transport exposes the store over HTTP.
package transport

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/searchos/dataview/internal/domain/activity"
	"github.com/searchos/dataview/internal/domain/dataset"
	"github.com/searchos/dataview/internal/domain/ingest"
	"github.com/searchos/dataview/internal/domain/project"
	"github.com/searchos/dataview/internal/domain/query"
	"github.com/searchos/dataview/internal/domain/schema"
	"github.com/searchos/dataview/internal/domain/table"
	"github.com/searchos/dataview/internal/domain/view"
	"github.com/searchos/dataview/internal/repository"
)

// Services groups the domain services the HTTP layer dispatches to.
type Services struct {
	Projects *project.Service
	Views    *view.Service
	Data     *dataset.Service
	Queries  *query.Service
	Activity *activity.Service
}

// Config wires the HTTP server.
type Config struct {
	Services    Services
	Consolidate ingest.Options
	Logger      *slog.Logger
}

// Server wires HTTP handlers.
type Server struct {
	svc         Services
	consolidate ingest.Options
	logger      *slog.Logger
}

// NewServer creates the HTTP router.
func NewServer(cfg Config) *chi.Mux {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	srv := &Server{svc: cfg.Services, consolidate: cfg.Consolidate, logger: logger}

	r := chi.NewRouter()
	r.Get("/health", srv.handleHealth)

	r.Route("/projects", func(r chi.Router) {
		r.Get("/", srv.handleListProjects)
		r.Post("/", srv.handleCreateProject)

		r.Route("/{projectID}", func(r chi.Router) {
			r.Delete("/", srv.handleDeleteProject)
			r.Get("/schema", srv.handleGetSchema)
			r.Put("/schema", srv.handleUpdateSchema)
			r.Get("/columns", srv.handleListColumns)
			r.Post("/columns", srv.handleAddColumn)
			r.Post("/data", srv.handleSaveData)
			r.Post("/data/append", srv.handleAppendData)
			r.Get("/activity", srv.handleActivity)
			r.Patch("/rows/{uid}", srv.handleUpdateRow)
			r.Delete("/rows", srv.handleDeleteRows)

			r.Route("/views", func(r chi.Router) {
				r.Get("/", srv.handleListViews)
				r.Post("/", srv.handleCreateView)
				r.Route("/{viewID}", func(r chi.Router) {
					r.Delete("/", srv.handleDeleteView)
					r.Get("/data", srv.handleViewData)
					r.Post("/query", srv.handleQuery)
					r.Post("/values", srv.handleValues)
					r.Post("/rows/move", srv.handleMoveRows)
					r.Post("/rows/copy", srv.handleCopyRows)
				})
			})
		})
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleListProjects(w http.ResponseWriter, r *http.Request) {
	infos, err := s.svc.Projects.List(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"projects": infos})
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	info, err := s.svc.Projects.Create(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, info)
}

func (s *Server) handleDeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Projects.Delete(r.Context(), chi.URLParam(r, "projectID")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleGetSchema(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.svc.Data.LoadSchema(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleUpdateSchema(w http.ResponseWriter, r *http.Request) {
	var cfg schema.Config
	if !s.decode(w, r, &cfg) {
		return
	}
	if err := s.svc.Data.UpdateSchema(r.Context(), chi.URLParam(r, "projectID"), cfg.Normalize()); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleListColumns(w http.ResponseWriter, r *http.Request) {
	cols, defs, err := s.svc.Data.Columns(r.Context(), chi.URLParam(r, "projectID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"columns":                    cols,
		"custom_columns_definitions": defs,
	})
}

func (s *Server) handleAddColumn(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name         string   `json:"name"`
		Type         string   `json:"type"`
		Label        string   `json:"label"`
		Options      []string `json:"options"`
		Prompt       string   `json:"prompt"`
		Model        string   `json:"model"`
		SmartContext bool     `json:"smart_context"`
	}
	if !s.decode(w, r, &req) {
		return
	}

	projectID := chi.URLParam(r, "projectID")
	var err error
	if req.Type == schema.ColumnAIScore {
		err = s.svc.Data.AddAIColumn(r.Context(), projectID, req.Name, req.Prompt, req.Model, req.SmartContext)
	} else {
		err = s.svc.Data.AddColumn(r.Context(), projectID, req.Name, schema.ColumnDefinition{
			Type:    req.Type,
			Label:   req.Label,
			Options: req.Options,
		})
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"status": "created"})
}

type ingestRequest struct {
	Columns     []string            `json:"columns"`
	Rows        []map[string]string `json:"rows"`
	Consolidate bool                `json:"consolidate"`
}

func (s *Server) ingestTable(req ingestRequest) *table.Table {
	t := table.New(req.Columns...)
	t.Rows = make([]table.Row, 0, len(req.Rows))
	for _, raw := range req.Rows {
		row := make(table.Row, len(raw))
		for k, v := range raw {
			row[k] = v
		}
		t.Append(row)
	}
	if req.Consolidate {
		t = ingest.Consolidate(t, s.consolidate)
	}
	return t
}

func (s *Server) handleSaveData(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !s.decode(w, r, &req) {
		return
	}
	t := s.ingestTable(req)
	if err := s.svc.Data.Save(r.Context(), chi.URLParam(r, "projectID"), t); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"rows": t.NumRows()})
}

func (s *Server) handleAppendData(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !s.decode(w, r, &req) {
		return
	}
	t := s.ingestTable(req)
	if err := s.svc.Data.Append(r.Context(), chi.URLParam(r, "projectID"), t); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]int{"rows": t.NumRows()})
}

func (s *Server) handleListViews(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")
	views, err := s.svc.Views.All(r.Context(), projectID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	counts, err := s.svc.Views.RowCounts(r.Context(), projectID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	for i := range views {
		views[i].RowCount = counts[views[i].ID]
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"views": views})
}

func (s *Server) handleCreateView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name           string   `json:"name"`
		Icon           string   `json:"icon"`
		VisibleColumns []string `json:"visibleColumns"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	v, err := s.svc.Views.CreateCustom(r.Context(), chi.URLParam(r, "projectID"), req.Name, req.Icon, req.VisibleColumns)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, v)
}

func (s *Server) handleDeleteView(w http.ResponseWriter, r *http.Request) {
	err := s.svc.Views.DeleteCustom(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "viewID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleViewData(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	page, err := s.svc.Queries.Query(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "viewID"), query.Request{}, offset, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req struct {
		query.Request
		Offset int `json:"offset"`
		Limit  int `json:"limit"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	page, err := s.svc.Queries.Query(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "viewID"), req.Request, req.Offset, req.Limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleValues(w http.ResponseWriter, r *http.Request) {
	var req struct {
		query.Request
		Column string `json:"column"`
		Limit  int    `json:"limit"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	values, err := s.svc.Queries.UniqueValues(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "viewID"), req.Column, req.Request, req.Limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"values": values})
}

func (s *Server) handleMoveRows(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RowIDs       []string `json:"rowIds"`
		TargetViewID string   `json:"targetViewId"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	err := s.svc.Views.Move(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "viewID"), req.TargetViewID, req.RowIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "moved"})
}

func (s *Server) handleCopyRows(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RowIDs       []string `json:"rowIds"`
		TargetViewID string   `json:"targetViewId"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	err := s.svc.Views.Copy(r.Context(), chi.URLParam(r, "projectID"), req.TargetViewID, req.RowIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "copied"})
}

func (s *Server) handleUpdateRow(w http.ResponseWriter, r *http.Request) {
	var updates map[string]string
	if !s.decode(w, r, &updates) {
		return
	}
	err := s.svc.Data.UpdateRow(r.Context(), chi.URLParam(r, "projectID"), chi.URLParam(r, "uid"), updates)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) handleDeleteRows(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RowIDs []string `json:"rowIds"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	err := s.svc.Data.DeleteRows(r.Context(), chi.URLParam(r, "projectID"), req.RowIDs)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

func (s *Server) handleActivity(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r)
	entries, err := s.svc.Activity.Recent(r.Context(), activity.ListOptions{
		ProjectID: chi.URLParam(r, "projectID"),
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"activity": entries})
}

func pageParams(r *http.Request) (offset, limit int) {
	if v := r.URL.Query().Get("offset"); v != "" {
		offset, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		limit, _ = strconv.Atoi(v)
	}
	return offset, limit
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		s.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON body"})
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.logger.Error("writing response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, repository.ErrProjectNotFound),
		errors.Is(err, repository.ErrViewNotFound),
		errors.Is(err, dataset.ErrRowNotFound):
		status = http.StatusNotFound
	case errors.Is(err, repository.ErrProjectExists),
		errors.Is(err, repository.ErrInvalidConfiguration),
		errors.Is(err, schema.ErrInvalid),
		errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, dataset.ErrInvalidInput),
		errors.Is(err, dataset.ErrColumnExists),
		errors.Is(err, view.ErrSystemView):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}
