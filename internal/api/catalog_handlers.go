package api

import (
	"net/http"
)

// Catalog handlers: the static structure reference data

func (s *Server) handleListStructures(w http.ResponseWriter, r *http.Request) {
	structures := s.catalog.All()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"structures": structures,
		"footer":     s.catalog.Footer(),
		"total":      len(structures),
	})
}

func (s *Server) handleGetStructure(w http.ResponseWriter, r *http.Request) {
	id, err := structureParam(r)
	if err != nil {
		respondDomainError(w, err)
		return
	}

	info, ok := s.catalog.Lookup(id)
	if !ok {
		respondError(w, http.StatusNotFound, "unknown_structure", "structure not found")
		return
	}
	respondJSON(w, http.StatusOK, info)
}
