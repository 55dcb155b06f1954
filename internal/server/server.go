package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/malik-dev28/OTA-AI/internal/config"
	"github.com/malik-dev28/OTA-AI/internal/conversation"
	"github.com/malik-dev28/OTA-AI/internal/flights"
	"github.com/malik-dev28/OTA-AI/internal/store"
	"github.com/malik-dev28/OTA-AI/internal/types"
)

// Responder produces the chat endpoint's reply.
type Responder interface {
	Respond(ctx context.Context, prompt string, history []string) (string, error)
}

// Extractor backs the intent-extraction endpoint.
type Extractor interface {
	Extract(ctx context.Context, text string, today time.Time) *types.FlightQuery
}

// Deps are the collaborators the handlers call into.
type Deps struct {
	Responder Responder
	Extractor Extractor
	Pipeline  *conversation.Pipeline
	Sessions  *conversation.Registry
	Flights   flights.Searcher
	History   store.HistoryStore
	Now       func() time.Time
}

type Server struct {
	router *chi.Mux
	cfg    config.Config
	deps   Deps
	logger *zap.Logger
}

func NewServer(cfg config.Config, deps Deps, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{cfg.AllowedOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With", sessionHeader},
		ExposedHeaders:   []string{sessionHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	s := &Server{router: r, cfg: cfg, deps: deps, logger: logger}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Get("/api/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	// Assistant API
	s.router.Post("/api/chat", s.handleChat)
	s.router.Post("/api/analyze-flight", s.handleAnalyzeFlight)

	// Session-scoped conversation
	s.router.Get("/api/session", s.handleSession)
	s.router.Put("/api/session/input", s.handleSessionInput)
	s.router.Post("/api/session/reset", s.handleSessionReset)
	s.router.Delete("/api/session/history", s.handleSessionHistoryClear)
	s.router.Post("/api/turns", s.handleTurn)

	s.router.Get("/api/flights/results", s.handleFlightResults)
}

func (s *Server) Router() http.Handler { return s.router }

// handleHealth also pings the history backend when it is an external
// service.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if hc, ok := s.deps.History.(store.HealthChecker); ok {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := hc.HealthCheck(ctx); err != nil {
			s.logger.Warn("history backend unhealthy", zap.Error(err))
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, types.ErrorResponse{Error: msg})
}
