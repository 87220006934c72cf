package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/deadweight/argon/internal/governance"
	"github.com/deadweight/argon/pkg/domain"
	"github.com/deadweight/argon/pkg/engine"
)

// Version reported by the health endpoint.
const Version = "0.2.0"

// Server maps the HTTP API onto engine operations.
type Server struct {
	engine  *engine.Engine
	limiter *governance.RateLimiter
	metrics *Metrics
	logger  *slog.Logger
}

// New creates a Server. limiter may be nil to disable rate limiting.
func New(e *engine.Engine, limiter *governance.RateLimiter, logger *slog.Logger) *Server {
	return &Server{engine: e, limiter: limiter, metrics: NewMetrics(), logger: logger}
}

// Metrics exposes the API collectors for the admin scrape endpoint.
func (s *Server) Metrics() *Metrics {
	return s.metrics
}

// Routes builds the API handler.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.HandleFunc("GET /api/jobs/{id}", s.handleGetJob)

	mux.HandleFunc("POST /api/analyze/motion", s.handleAnalyzeMotion)
	mux.HandleFunc("POST /api/analyze/expression", s.handleAnalyzeExpression)
	mux.HandleFunc("POST /api/analyze/face", s.handleAnalyzeFace)
	mux.HandleFunc("POST /api/analyze/segment", s.handleAnalyzeSegment)

	mux.HandleFunc("POST /api/transfer/expression", s.limited("transfer", s.handleTransferExpression))
	mux.HandleFunc("POST /api/transfer/sequence", s.limited("transfer", s.handleTransferSequence))

	mux.HandleFunc("POST /api/generate/image", s.limited("generate", s.handleGenerateImage))
	mux.HandleFunc("POST /api/generate/pose", s.limited("generate", s.handleGeneratePose))

	mux.HandleFunc("GET /api/loras", s.handleListAdapters)
	mux.HandleFunc("POST /api/loras/download", s.handleDownloadAdapter)

	return s.metrics.Middleware(mux)
}

// limited wraps a handler with the named route's token bucket.
func (s *Server) limited(routeID string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.limiter != nil && !s.limiter.Allow(routeID) {
			s.writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next(w, r)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("response encode failed", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, code, msg string) {
	s.writeJSON(w, status, map[string]any{
		"ok":    false,
		"error": domain.ErrorResponse{Code: code, Message: msg},
	})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, http.StatusBadRequest, "bad_request", "invalid JSON body")
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":       true,
		"version":  Version,
		"status":   "ok",
		"executor": s.engine.Ready(r.Context()),
	})
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	job, err := s.engine.Jobs().Get(id)
	if err != nil {
		if errors.Is(err, domain.ErrJobNotFound) {
			s.writeError(w, http.StatusNotFound, "not_found", "job "+id+" not found")
			return
		}
		s.writeError(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"ok":        true,
		"id":        job.ID,
		"type":      job.Kind,
		"status":    job.Status,
		"result":    job.Result,
		"error":     job.Error,
		"createdAt": job.CreatedAt,
	})
}
