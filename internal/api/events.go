package api

import (
	"net/http"
)

// handleEvents streams data-changed events for the caller's workspace
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	ws := WorkspaceFromContext(r.Context())
	s.hub.ServeWS(w, r, ws.ID())
}
