package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/mdnotion/internal/config"
	"github.com/dgallion1/mdnotion/internal/notion"
	"github.com/dgallion1/mdnotion/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for mdnotion.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	notion       *notion.Client
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, client *notion.Client, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		notion:       client,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.ServerAPIKey, s.log))

		r.Post("/api/convert", s.handleConvert)

		r.Post("/api/upload", s.handleUpload)
		r.Post("/api/upload/batch", s.handleBatchUpload)
		r.Get("/api/upload/{jobID}/status", s.handleUploadStatus)

		r.Get("/api/pages", s.handleListPages)
		r.Get("/api/stats/notion", s.handleNotionStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
