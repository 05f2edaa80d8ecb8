// Package httpserver provides the HTTP API of the paper discovery service.
package httpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/helixir/paper-discovery-service/internal/aggregator"
	"github.com/helixir/paper-discovery-service/internal/database"
	"github.com/helixir/paper-discovery-service/internal/domain"
	"github.com/helixir/paper-discovery-service/internal/llm"
	"github.com/helixir/paper-discovery-service/internal/notify"
	"github.com/helixir/paper-discovery-service/internal/observability"
	"github.com/helixir/paper-discovery-service/internal/papersources"
)

// SearchService runs aggregated searches and owns the session history.
type SearchService interface {
	Search(ctx context.Context, req aggregator.Request) (*aggregator.Outcome, error)
	History(ctx context.Context) ([]domain.HistoryEntry, error)
	ClearHistory(ctx context.Context) error
}

// Assistant answers the LLM endpoints. Errors are surfaced to callers, so
// this is the raw assistant rather than the fallback wrapper.
type Assistant interface {
	Configured() bool
	SearchSuggestions(ctx context.Context, query string) ([]llm.SearchSuggestion, error)
	AnalyzePaper(ctx context.Context, title, abstract string) (*llm.PaperAnalysis, error)
	ResearchInsights(ctx context.Context, papers []domain.Paper) (string, error)
	StreamInsights(ctx context.Context, papers []domain.Paper, onChunk func(chunk string) error) error
}

// ArXivFeed fetches the unparsed arXiv Atom feed.
type ArXivFeed interface {
	Raw(ctx context.Context, query string, maxResults int) ([]byte, error)
}

// Notifier delivers shared results.
type Notifier interface {
	Configured() bool
	Send(ctx context.Context, chatID, text string) (*notify.Result, error)
}

// SourceCatalog resolves the registered paper sources.
type SourceCatalog interface {
	Get(sourceType domain.SourceType) papersources.PaperSource
}

// HealthChecker reports the state of the local store.
type HealthChecker interface {
	Health(ctx context.Context) database.HealthStatus
}

// Deps are the collaborators the HTTP handlers call into. DB may be nil when
// nothing uses the SQLite store.
type Deps struct {
	Search    SearchService
	Assistant Assistant
	ArXiv     ArXivFeed
	Notifier  Notifier
	Sources   SourceCatalog
	DB        HealthChecker
	Metrics   *observability.Metrics
}

// Server is the HTTP API server.
type Server struct {
	router     chi.Router
	httpServer *http.Server
	deps       Deps
	validate   *validator.Validate
	logger     zerolog.Logger
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// NewServer creates a new HTTP server with all dependencies.
func NewServer(cfg Config, deps Deps, logger zerolog.Logger) *Server {
	s := &Server{
		deps:     deps,
		validate: newValidator(),
		logger:   logger.With().Str("component", "http-server").Logger(),
	}

	s.router = s.buildRouter()

	s.httpServer = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(requestContextMiddleware)
	r.Use(s.accessLogMiddleware)

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api", func(r chi.Router) {
		r.Get("/arxiv", s.proxyArXiv)

		r.Post("/llm", s.handleLLM)
		r.Post("/llm/stream", s.streamInsights)

		r.Post("/search", s.search)
		r.Get("/sources", s.listSources)
		r.Get("/history", s.listHistory)
		r.Delete("/history", s.clearHistory)

		r.Post("/search-ieee", s.searchIEEE)
		r.Post("/telegram/send", s.sendTelegram)
	})

	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	})
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Not found")
	})

	return r
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.httpServer.Addr).Msg("HTTP server starting")
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on HTTP address: %w", err)
	}
	return s.httpServer.Serve(ln)
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// healthHandler reports liveness.
func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessHandler pings the SQLite store when one is in use.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	if s.deps.DB == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}

	health := s.deps.DB.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{
			"status":   "not_ready",
			"database": health.Status,
			"error":    health.Error,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":   "ready",
		"database": "healthy",
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, statusCode int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Best-effort; headers already sent.
		_ = err
	}
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, errorResponse{Error: message})
}

// writeErrorDetails writes a JSON error response carrying upstream details.
func writeErrorDetails(w http.ResponseWriter, statusCode int, message, details string) {
	writeJSON(w, statusCode, errorResponse{Error: message, Details: details})
}
