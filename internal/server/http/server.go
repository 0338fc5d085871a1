// Package httpserver provides the HTTP JSON API of the PhD talent service.
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
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/helixir/phd-talent-service/internal/database"
	"github.com/helixir/phd-talent-service/internal/domain"
	"github.com/helixir/phd-talent-service/internal/llm"
	"github.com/helixir/phd-talent-service/internal/observability"
	"github.com/helixir/phd-talent-service/internal/pipeline"
	"github.com/helixir/phd-talent-service/internal/service"
)

// TalentService is the set of views served by the API.
// It is implemented by *service.TalentService.
type TalentService interface {
	Search(ctx context.Context, filters domain.SearchFilters) (pipeline.SearchResult, error)
	GetCandidate(ctx context.Context, id string) (*domain.Candidate, error)
	Chat(ctx context.Context, candidateID string, messages []llm.Message) (*service.ChatReply, error)
	AcademicOutput(ctx context.Context, q service.ComparisonQuery) ([]domain.AcademicOutputPoint, error)
	ConferenceDistribution(ctx context.Context, q service.ComparisonQuery) ([]domain.ConferenceCount, error)
	TopicHeatmap(ctx context.Context, q service.ComparisonQuery) ([]domain.HeatmapCell, error)
	EmergingTopics(ctx context.Context, q service.ComparisonQuery) ([]domain.EmergingTopicCount, error)
}

// HealthChecker reports database health. It is implemented by *database.DB.
type HealthChecker interface {
	Health(ctx context.Context) database.HealthStatus
}

var (
	_ TalentService = (*service.TalentService)(nil)
	_ HealthChecker = (*database.DB)(nil)
)

// Server is the HTTP REST API server.
type Server struct {
	router      chi.Router
	httpServer  *http.Server
	service     TalentService
	health      HealthChecker
	logger      zerolog.Logger
	metrics     *observability.Metrics
	chatLimiter *rate.Limiter
}

// Config holds HTTP server configuration.
type Config struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	// ChatRPS and ChatBurst bound chat requests across all clients.
	// A non-positive ChatRPS disables the limit.
	ChatRPS   float64
	ChatBurst int
}

// NewServer creates a new HTTP server with all dependencies.
// metrics may be nil (metrics recording will be skipped).
func NewServer(
	cfg Config,
	svc TalentService,
	health HealthChecker,
	logger zerolog.Logger,
	metrics *observability.Metrics,
) *Server {
	s := &Server{
		service: svc,
		health:  health,
		logger:  observability.WithComponent(logger, "http-server"),
		metrics: metrics,
	}
	if cfg.ChatRPS > 0 {
		burst := cfg.ChatBurst
		if burst <= 0 {
			burst = 1
		}
		s.chatLimiter = rate.NewLimiter(rate.Limit(cfg.ChatRPS), burst)
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

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// buildRouter creates the chi router with all middleware and routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(correlationIDMiddleware)
	r.Use(requestLoggingMiddleware(s.logger, s.metrics))
	r.Use(jsonContentTypeMiddleware)

	r.Get("/healthz", s.healthHandler)
	r.Get("/readyz", s.readinessHandler)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/universities", s.searchUniversities)
		r.Get("/candidates/{candidateID}", s.getCandidate)
		r.With(rateLimitMiddleware(s.chatLimiter, "chat")).Post("/candidates/{candidateID}/chat", s.chatWithCandidate)

		r.Route("/comparison", func(r chi.Router) {
			r.Get("/academic-output", s.academicOutput)
			r.Get("/conferences", s.conferenceDistribution)
			r.Get("/topic-heatmap", s.topicHeatmap)
			r.Get("/emerging-topics", s.emergingTopics)
		})
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

// healthHandler returns basic liveness status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// readinessResponse is the /readyz body.
type readinessResponse struct {
	Status   string                `json:"status"`
	Database database.HealthStatus `json:"database"`
}

// readinessHandler returns readiness status including database connectivity
// and connection pool statistics.
func (s *Server) readinessHandler(w http.ResponseWriter, r *http.Request) {
	health := s.health.Health(r.Context())
	if health.Status != "healthy" {
		writeJSON(w, http.StatusServiceUnavailable, readinessResponse{Status: "not_ready", Database: health})
		return
	}
	writeJSON(w, http.StatusOK, readinessResponse{Status: "ready", Database: health})
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
	writeJSON(w, statusCode, map[string]string{
		"error": message,
	})
}
