package api

import (
	"crypto/sha256"
	"log/slog"
	"net/http"

	"github.com/gorilla/securecookie"
	"github.com/gorilla/sessions"

	"github.com/terra-clan/ds-visualizer/internal/config"
	"github.com/terra-clan/ds-visualizer/internal/workspace"
)

// Workspace identity
const (
	// SessionName is the cookie carrying the workspace id
	SessionName = "dsviz"
	// WorkspaceHeader lets API clients pick their workspace without cookies
	WorkspaceHeader = "X-Workspace-ID"

	sessionKeyWorkspace = "workspace_id"
)

// SessionMiddleware resolves the visitor's workspace from the session cookie
// or the X-Workspace-ID header
type SessionMiddleware struct {
	store   *sessions.CookieStore
	manager *workspace.Manager
}

// NewSessionMiddleware creates the cookie store. The secret is SHA-256 hashed
// into the signing key; without a secret a random key is used and cookies do
// not survive restarts.
func NewSessionMiddleware(cfg config.SessionConfig, manager *workspace.Manager) *SessionMiddleware {
	var key []byte
	if cfg.Secret != "" {
		sum := sha256.Sum256([]byte(cfg.Secret))
		key = sum[:]
	} else {
		slog.Warn("SESSION_SECRET not set, using a random session key")
		key = securecookie.GenerateRandomKey(32)
	}

	store := sessions.NewCookieStore(key)
	store.Options = &sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteLaxMode,
	}

	return &SessionMiddleware{store: store, manager: manager}
}

// Identify attaches the workspace to the request context, issuing a new
// workspace id on the first visit
func (m *SessionMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(WorkspaceHeader)
		if id != "" {
			if !workspace.ValidID(id) {
				respondError(w, http.StatusBadRequest, "invalid_request", "X-Workspace-ID must be a UUID")
				return
			}
		} else {
			id = m.cookieWorkspace(w, r)
		}

		ws := m.manager.Get(r.Context(), id)
		w.Header().Set(WorkspaceHeader, id)

		next.ServeHTTP(w, r.WithContext(ContextWithWorkspace(r.Context(), ws)))
	})
}

// cookieWorkspace reads the workspace id from the session, creating one when absent
func (m *SessionMiddleware) cookieWorkspace(w http.ResponseWriter, r *http.Request) string {
	// A cookie that fails verification still yields a usable new session
	sess, err := m.store.Get(r, SessionName)
	if err != nil {
		slog.Debug("discarding invalid session cookie", "error", err)
	}

	if id, ok := sess.Values[sessionKeyWorkspace].(string); ok && workspace.ValidID(id) {
		return id
	}

	id := workspace.NewID()
	sess.Values[sessionKeyWorkspace] = id
	if err := sess.Save(r, w); err != nil {
		slog.Error("failed to save session", "error", err)
	}
	slog.Info("workspace created", "workspace_id", id)
	return id
}
