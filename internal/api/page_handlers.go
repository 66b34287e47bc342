package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/ds-visualizer/internal/catalog"
	"github.com/terra-clan/ds-visualizer/internal/simulator"
	"github.com/terra-clan/ds-visualizer/internal/workspace"
)

// Page handlers: HTML forms post here and are redirected back to the page

func redirectHome(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func pageError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrUnknownStructure):
		http.Error(w, "unknown structure", http.StatusNotFound)
	case errors.Is(err, simulator.ErrIndexRequired):
		http.Error(w, "index is required", http.StatusBadRequest)
	default:
		slog.Error("page request failed", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := s.renderer.Render(w, ws.Snapshot(r.Context())); err != nil {
		slog.Error("failed to render page", "error", err, "workspace_id", ws.ID())
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func (s *Server) handlePageSelect(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	id, err := structureParam(r)
	if err == nil {
		err = ws.Select(r.Context(), id)
	}
	if err != nil {
		pageError(w, err)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handlePageReset(w http.ResponseWriter, r *http.Request) {
	WorkspaceFromContext(r.Context()).Reset(r.Context())
	redirectHome(w, r)
}

func (s *Server) handlePageAdd(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	id, err := structureParam(r)
	if err == nil {
		_, err = ws.Add(r.Context(), id)
	}
	if err != nil {
		pageError(w, err)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handlePageRemove(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	id, err := structureParam(r)
	if err != nil {
		pageError(w, err)
		return
	}

	index := -1
	if raw := r.FormValue("index"); raw != "" {
		index, err = strconv.Atoi(raw)
		if err != nil || index < 0 {
			http.Error(w, "invalid index", http.StatusBadRequest)
			return
		}
	}

	if _, err := ws.Remove(r.Context(), id, index); err != nil {
		pageError(w, err)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handlePageGenerate(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	// A second click while busy is ignored, the page already shows the spinner
	if _, err := ws.GenerateAsync(r.Context(), s.generator, s.model); err != nil && !errors.Is(err, workspace.ErrGenerationInProgress) {
		pageError(w, err)
		return
	}
	redirectHome(w, r)
}

func (s *Server) handlePageSave(w http.ResponseWriter, r *http.Request) {
	WorkspaceFromContext(r.Context()).SaveCurrent(r.Context())
	redirectHome(w, r)
}

func (s *Server) handlePageLoadSaved(w http.ResponseWriter, r *http.Request) {
	WorkspaceFromContext(r.Context()).LoadSaved(r.Context(), chi.URLParam(r, "savedID"))
	redirectHome(w, r)
}

func (s *Server) handlePageDeleteSaved(w http.ResponseWriter, r *http.Request) {
	WorkspaceFromContext(r.Context()).DeleteSaved(r.Context(), chi.URLParam(r, "savedID"))
	redirectHome(w, r)
}
