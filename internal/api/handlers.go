package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/ds-visualizer/internal/catalog"
	"github.com/terra-clan/ds-visualizer/internal/models"
	"github.com/terra-clan/ds-visualizer/internal/simulator"
	"github.com/terra-clan/ds-visualizer/internal/workspace"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// respondDomainError maps domain errors to the JSON envelope
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, catalog.ErrUnknownStructure):
		respondError(w, http.StatusNotFound, "unknown_structure", err.Error())
	case errors.Is(err, simulator.ErrIndexRequired):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case errors.Is(err, workspace.ErrSavedSchemaNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, workspace.ErrGenerationInProgress):
		respondError(w, http.StatusConflict, "generation_in_progress", err.Error())
	default:
		slog.Error("request failed", "error", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// decodeOptionalJSON decodes the body into v; an empty body leaves v untouched
func decodeOptionalJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// structureParam resolves the {id} URL parameter
func structureParam(r *http.Request) (models.StructureID, error) {
	return catalog.ParseStructureID(chi.URLParam(r, "id"))
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Ping(r.Context()); err != nil {
		slog.Warn("store not ready", "error", err)
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

// Workspace handlers

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	respondJSON(w, http.StatusOK, ws.Snapshot(r.Context()))
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	var req models.SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "id is required")
		return
	}

	id, err := catalog.ParseStructureID(req.ID)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	if err := ws.Select(r.Context(), id); err != nil {
		respondDomainError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ws.Snapshot(r.Context()))
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	ws.Reset(r.Context())
	respondJSON(w, http.StatusOK, ws.Snapshot(r.Context()))
}

func (s *Server) handleStructureState(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	id, err := structureParam(r)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	st, err := ws.StructureState(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, st)
}

func (s *Server) handleAdd(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	id, err := structureParam(r)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	changed, err := ws.Add(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	s.respondMutation(w, r, ws, id, changed)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	id, err := structureParam(r)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	var req models.RemoveRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	index := -1
	if req.Index != nil {
		if *req.Index < 0 {
			respondError(w, http.StatusBadRequest, "invalid_request", "index must not be negative")
			return
		}
		index = *req.Index
	}

	changed, err := ws.Remove(r.Context(), id, index)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	s.respondMutation(w, r, ws, id, changed)
}

func (s *Server) respondMutation(w http.ResponseWriter, r *http.Request, ws *workspace.Workspace, id models.StructureID, changed bool) {
	st, err := ws.StructureState(r.Context(), id)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, models.MutationResponse{Changed: changed, State: st})
}

// Schema handlers

func schemaState(ws *workspace.Workspace) models.SchemaState {
	return models.SchemaState{
		Selected:     ws.Selection(),
		SchemaText:   ws.SchemaText(),
		Generating:   ws.Generating(),
		SavedSchemas: ws.SavedSchemas(),
	}
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, schemaState(WorkspaceFromContext(r.Context())))
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	if _, err := ws.GenerateAsync(r.Context(), s.generator, s.model); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusAccepted, schemaState(ws))
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	resp := models.SaveSchemaResponse{}
	if entry, ok := ws.SaveCurrent(r.Context()); ok {
		resp.Saved = true
		resp.Entry = &entry
	}
	resp.History = len(ws.SavedSchemas())

	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLoadSaved(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	if !ws.LoadSaved(r.Context(), chi.URLParam(r, "savedID")) {
		respondDomainError(w, workspace.ErrSavedSchemaNotFound)
		return
	}
	respondJSON(w, http.StatusOK, schemaState(ws))
}

func (s *Server) handleDeleteSaved(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())

	if !ws.DeleteSaved(r.Context(), chi.URLParam(r, "savedID")) {
		respondDomainError(w, workspace.ErrSavedSchemaNotFound)
		return
	}
	respondJSON(w, http.StatusOK, schemaState(ws))
}
