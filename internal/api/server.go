package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/ds-visualizer/internal/assistant"
	"github.com/terra-clan/ds-visualizer/internal/catalog"
	"github.com/terra-clan/ds-visualizer/internal/config"
	"github.com/terra-clan/ds-visualizer/internal/events"
	"github.com/terra-clan/ds-visualizer/internal/storage"
	"github.com/terra-clan/ds-visualizer/internal/web"
	"github.com/terra-clan/ds-visualizer/internal/workspace"
)

// Dependencies are the collaborators the server routes to
type Dependencies struct {
	Catalog    *catalog.Catalog
	Workspaces *workspace.Manager
	Store      storage.Store
	Hub        *events.Hub
	Renderer   *web.Renderer
	Generator  assistant.Generator
	Model      string
}

// Server represents the HTTP server
type Server struct {
	config     config.ServerConfig
	router     *chi.Mux
	catalog    *catalog.Catalog
	workspaces *workspace.Manager
	store      storage.Store
	hub        *events.Hub
	renderer   *web.Renderer
	generator  assistant.Generator
	model      string
	session    *SessionMiddleware
}

// NewServer creates a new server
func NewServer(cfg config.ServerConfig, session config.SessionConfig, deps Dependencies) *Server {
	s := &Server{
		config:     cfg,
		catalog:    deps.Catalog,
		workspaces: deps.Workspaces,
		store:      deps.Store,
		hub:        deps.Hub,
		renderer:   deps.Renderer,
		generator:  deps.Generator,
		model:      deps.Model,
		session:    NewSessionMiddleware(session, deps.Workspaces),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// setupRouter configures all routes and middleware
func (s *Server) setupRouter() {
	r := chi.NewRouter()

	// Middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	// The event stream is long-lived and stays outside the request timeout
	r.With(s.session.Identify).Get("/ws", s.handleEvents)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		// Page routes: form posts redirect back to the page
		r.Group(func(r chi.Router) {
			r.Use(s.session.Identify)

			r.Get("/", s.handlePage)
			r.Post("/select/{id}", s.handlePageSelect)
			r.Post("/reset", s.handlePageReset)
			r.Post("/structures/{id}/add", s.handlePageAdd)
			r.Post("/structures/{id}/remove", s.handlePageRemove)
			r.Route("/schema", func(r chi.Router) {
				r.Post("/generate", s.handlePageGenerate)
				r.Post("/save", s.handlePageSave)
				r.Post("/saved/{savedID}/load", s.handlePageLoadSaved)
				r.Post("/saved/{savedID}/delete", s.handlePageDeleteSaved)
			})
		})

		r.Route("/api/v1", func(r chi.Router) {
			r.Use(cors.Handler(cors.Options{
				AllowedOrigins:   []string{"*"},
				AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
				AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID", WorkspaceHeader},
				ExposedHeaders:   []string{"X-Request-ID", WorkspaceHeader},
				AllowCredentials: true,
				MaxAge:           300,
			}))

			// Catalog: reference data, no workspace involved
			r.Get("/structures", s.handleListStructures)
			r.Get("/structures/{id}", s.handleGetStructure)

			r.Group(func(r chi.Router) {
				r.Use(s.session.Identify)

				// Workspace
				r.Get("/state", s.handleState)
				r.Delete("/state", s.handleReset)
				r.Put("/selection", s.handleSelect)

				// Structures
				r.Get("/structures/{id}/state", s.handleStructureState)
				r.Post("/structures/{id}/add", s.handleAdd)
				r.Post("/structures/{id}/remove", s.handleRemove)

				// Schema assistant
				r.Route("/schema", func(r chi.Router) {
					r.Get("/", s.handleSchema)
					r.Post("/generate", s.handleGenerate)
					r.Post("/save", s.handleSave)
					r.Post("/saved/{savedID}/load", s.handleLoadSaved)
					r.Delete("/saved/{savedID}", s.handleDeleteSaved)
				})
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
