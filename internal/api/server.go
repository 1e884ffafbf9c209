// It defines the API server, sets up the routes (endpoints)
// using chi, and links them to the handler functions.

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/athulyan/docforge-go/internal/core"
	"github.com/athulyan/docforge-go/internal/store"
)

// Server holds the dependencies for our API.
type Server struct {
	app   *core.App
	store *store.Store
}

// NewServer creates a new Server instance.
func NewServer(app *core.App) *Server {
	return &Server{
		app:   app,
		store: app.Store(),
	}
}

// Router sets up and returns the main router for the application.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)    // Logs requests to the console
	r.Use(middleware.Recoverer) // Recovers from panics
	r.Use(middleware.Timeout(5 * time.Minute))

	r.Route("/api", func(r chi.Router) {
		r.Post("/documents", s.handleSubmitDocument)
		r.Post("/documents/batch", s.handleProcessBatch)
		r.Get("/documents", s.handleListDocuments)
		r.Get("/documents/{jobID}", s.handleGetDocument)

		r.Get("/jobs", s.handleListJobs)
		r.Get("/jobs/{jobID}", s.handleGetJobStatus)
		r.Get("/jobs/{jobID}/result", s.handleGetJobResult)
		r.Post("/jobs/{jobID}/cancel", s.handleCancelJob)

		r.Get("/formats", s.handleListFormats)
	})

	// WebSocket route
	r.Get("/ws/progress", func(w http.ResponseWriter, r *http.Request) {
		s.app.WsHub().ServeWs(w, r)
	})

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		if err := s.app.DB().Ping(); err != nil {
			RespondWithError(w, http.StatusServiceUnavailable, "Database connection failed")
			return
		}
		RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	return r
}
