// Package api serves the will intake API and the manual search and ingest
// endpoints.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dgallion1/fennec/internal/auth"
	"github.com/dgallion1/fennec/internal/config"
	"github.com/dgallion1/fennec/internal/enrich"
	"github.com/dgallion1/fennec/internal/pipeline"
	"github.com/dgallion1/fennec/internal/retrieval"
	"github.com/dgallion1/fennec/internal/store"
	"github.com/dgallion1/fennec/internal/will"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

const (
	appName     = "Fennec Will Builder API"
	serviceName = "will-builder-api"
)

// WillService stores submitted wills for their authors.
type WillService interface {
	SubmitWill(ctx context.Context, email string, content *will.WillContent) (*store.Will, error)
	GetWill(ctx context.Context, email, id string) (*store.Will, error)
}

// ManualSearcher answers similarity queries over the manual.
type ManualSearcher interface {
	Search(ctx context.Context, query string, k int, jurisdiction string) ([]retrieval.Result, error)
}

// Pinger reports backend reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the components the server routes to. Orchestrator and LLMStats
// may be nil; their endpoints then answer 503.
type Deps struct {
	Store        Pinger
	Validator    *will.Validator
	Wills        WillService
	Verifier     *auth.Verifier
	Searcher     ManualSearcher
	Orchestrator *pipeline.Orchestrator
	LLMStats     *enrich.LLMStats
	LLMModel     string
}

// Server is the HTTP API server for fennec.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
	now    func() time.Time
}

// NewServer creates and configures the HTTP server.
func NewServer(deps Deps, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
		now:  time.Now,
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
	r.Use(logRequests(s.log))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Public endpoints.
	r.Get("/", s.handleRoot)
	r.Get("/health", s.handleHealth)
	r.Post("/api/v1/wills/validate", s.handleValidateWill)

	// Will authors.
	r.Group(func(r chi.Router) {
		r.Use(auth.RequireUser(s.deps.Verifier, s.log))

		r.Post("/api/v1/wills", s.handleSubmitWill)
		r.Post("/api/v1/testator", s.handleSubmitWill)
		r.Get("/api/v1/wills/{willID}", s.handleGetWill)
	})

	// Internal tooling.
	r.Group(func(r chi.Router) {
		r.Use(requireAPIKey(s.cfg.FennecAPIKey, s.log))

		r.Get("/api/v1/manual/search", s.handleManualSearch)
		r.Post("/api/v1/manual/ingest", s.handleIngest)
		r.Get("/api/v1/manual/ingest/{jobID}/status", s.handleIngestStatus)
		r.Get("/api/v1/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"message": appName,
		"version": s.cfg.AppVersion,
		"status":  "active",
		"docs":    "/docs",
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	status, db, code := "healthy", "ok", http.StatusOK
	if s.deps.Store != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.Store.Ping(ctx); err != nil {
			s.log.Warn("health check: store unreachable", "error", err)
			status, db, code = "degraded", "unreachable", http.StatusServiceUnavailable
		}
	}
	writeJSON(w, code, map[string]any{
		"status":    status,
		"timestamp": s.now().UTC(),
		"service":   serviceName,
		"db":        db,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	writeJSON(w, code, map[string]string{"detail": msg})
}
