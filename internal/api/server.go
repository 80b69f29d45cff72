package api

import (
	"log/slog"
	"net/http"

	"github.com/dsgnlab/linkograph/internal/config"
	"github.com/dsgnlab/linkograph/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP API server for the linkograph service.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
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
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/protocols", s.handleUpload)
		r.Get("/api/jobs/{jobID}", s.handleJobStatus)

		r.Get("/api/protocols", s.handleListProtocols)
		r.Get("/api/protocols/{studyID}", s.handleGetProtocol)
		r.Delete("/api/protocols/{studyID}", s.handleDeleteProtocol)

		r.Get("/api/protocols/{studyID}/moves", s.handleMoves)
		r.Get("/api/protocols/{studyID}/metrics", s.handleMetrics)
		r.Get("/api/protocols/{studyID}/critical", s.handleCritical)
		r.Get("/api/protocols/{studyID}/patterns", s.handlePatterns)
		r.Get("/api/protocols/{studyID}/report", s.handleReport)
		r.Get("/api/protocols/{studyID}/linkograph", s.handleLinkograph)

		r.Get("/api/protocols/{studyID}/links.csv", s.handleExportLinks)
		r.Put("/api/protocols/{studyID}/links", s.handleAddLink)
		r.Delete("/api/protocols/{studyID}/links", s.handleRemoveLink)

		r.Get("/api/archive/studies", s.handleArchiveList)
		r.Delete("/api/archive/studies/{studyID}", s.handleArchiveDelete)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}
