// Package api exposes the supervisor's reports and manual commands over
// a local HTTP endpoint.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"

	"github.com/wangwenjie1314/sentinel/internal/diag"
	"github.com/wangwenjie1314/sentinel/internal/health"
	"github.com/wangwenjie1314/sentinel/internal/recovery"
	"github.com/wangwenjie1314/sentinel/internal/stability"
)

// Server serves stability reports, diagnoses, and manual commands.
type Server struct {
	router     chi.Router
	orch       *stability.Orchestrator
	tool       *diag.Tool
	aggregator *health.Aggregator
	logger     *slog.Logger
}

// ServerOption configures the server.
type ServerOption func(*Server)

// WithLogger sets the server logger.
func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates the API server.
func NewServer(orch *stability.Orchestrator, tool *diag.Tool, aggregator *health.Aggregator, opts ...ServerOption) *Server {
	s := &Server{
		orch:       orch,
		tool:       tool,
		aggregator: aggregator,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	s.router = s.setupRouter()
	return s
}

// Handler returns the HTTP handler for the server.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRouter configures the Chi router with all routes and middleware.
func (s *Server) setupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(s.loggingMiddleware)

	// The endpoint binds to loopback; CORS allows local tooling pages.
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	})
	r.Use(corsHandler.Handler)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/report", func(r chi.Router) {
			r.Get("/stability", s.handleStabilityReport)
			r.Get("/health", s.handleHealthReport)
		})

		r.Route("/diagnosis", func(r chi.Router) {
			r.Get("/quick", s.handleQuickDiagnosis)
			r.Get("/comprehensive", s.handleComprehensiveDiagnosis)
		})

		r.Get("/export", s.handleExport)

		r.Route("/actions", func(r chi.Router) {
			r.Post("/check", s.handleCheck)
			r.Post("/recover", s.handleRecover)
			r.Post("/repair", s.handleRepair)
			r.Post("/clear-history", s.handleClearHistory)
		})
	})

	return r
}

// loggingMiddleware logs HTTP requests.
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			s.logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"duration", time.Since(start),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

// respondJSON sends a JSON response.
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// respondError sends a JSON error response.
func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// handleHealthz reports the supervisor process itself is alive.
func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleStabilityReport(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.orch.Report())
}

func (s *Server) handleHealthReport(w http.ResponseWriter, _ *http.Request) {
	snapshot, ok := s.aggregator.Latest()
	if !ok {
		respondError(w, http.StatusNotFound, "no health check has run yet")
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"snapshot":        snapshot,
		"trend":           s.aggregator.Trend(),
		"long_term_trend": s.aggregator.LongTermTrend(),
	})
}

func (s *Server) handleQuickDiagnosis(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, s.tool.Quick())
}

func (s *Server) handleComprehensiveDiagnosis(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.tool.Comprehensive(r.Context()))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	format := diag.Format(r.URL.Query().Get("format"))
	data, err := s.tool.ExportData(r.Context(), format)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	contentType := "application/json"
	if format == diag.FormatYAML {
		contentType = "application/yaml"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	snapshot, err := s.orch.CheckNow(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleRecover(w http.ResponseWriter, r *http.Request) {
	outcome, err := s.orch.PerformRecovery(r.Context())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, outcome)
}

type repairRequest struct {
	Strategy string `json:"strategy"`
}

func (s *Server) handleRepair(w http.ResponseWriter, r *http.Request) {
	var req repairRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch recovery.Type(req.Strategy) {
	case recovery.TypeComponentReset, recovery.TypeCacheCleanup,
		recovery.TypePreferencesReset, recovery.TypeNetworkReset:
	default:
		respondError(w, http.StatusBadRequest, "unknown strategy "+req.Strategy)
		return
	}

	succeeded, err := s.orch.Repair(r.Context(), recovery.Type(req.Strategy))
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"strategy":  req.Strategy,
		"succeeded": succeeded,
	})
}

func (s *Server) handleClearHistory(w http.ResponseWriter, r *http.Request) {
	if err := s.orch.ClearHistory(r.Context()); err != nil {
		respondError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}

// ListenAndServe starts the HTTP server and shuts it down when ctx ends.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("starting diagnostics API server", "addr", addr)
	return srv.ListenAndServe()
}
