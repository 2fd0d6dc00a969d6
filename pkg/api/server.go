package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/planwheel/planwheel/pkg/plan"
	"github.com/planwheel/planwheel/pkg/telemetry"
)

// PlanSource provides the live plan managers, highest priority first.
type PlanSource interface {
	Managers() []plan.PlanManager
}

// Server is the HTTP control surface over a set of managed plans. It is a
// stateless façade: every request resolves its targets against the current
// plan trees and applies Element operations directly.
type Server struct {
	logger  zerolog.Logger
	source  PlanSource
	metrics *telemetry.Metrics

	httpServer *http.Server
}

// NewServer creates a control surface over the given plan source. metrics
// may be nil.
func NewServer(source PlanSource, metrics *telemetry.Metrics, logger zerolog.Logger) *Server {
	return &Server{
		logger:  logger.With().Str("component", "api").Logger(),
		source:  source,
		metrics: metrics,
	}
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/plans", s.handleListPlans)
	mux.HandleFunc("GET /v1/plans/{name}", s.handleGetPlan)
	mux.HandleFunc("POST /v1/plans/{name}/start", s.handleStart)
	mux.HandleFunc("POST /v1/plans/{name}/stop", s.handleStop)
	mux.HandleFunc("POST /v1/plans/{name}/continue", s.handleContinue)
	mux.HandleFunc("POST /v1/plans/{name}/interrupt", s.handleInterrupt)
	mux.HandleFunc("POST /v1/plans/{name}/forceComplete", s.handleForceComplete)
	mux.HandleFunc("POST /v1/plans/{name}/restart", s.handleRestart)

	// Deprecated unprefixed aliases, forwarding to the deploy plan.
	mux.HandleFunc("GET /v1/plan", s.handleGetPlan)
	mux.HandleFunc("POST /v1/plan/start", s.handleStart)
	mux.HandleFunc("POST /v1/plan/stop", s.handleStop)
	mux.HandleFunc("POST /v1/plan/continue", s.handleContinue)
	mux.HandleFunc("POST /v1/plan/interrupt", s.handleInterrupt)
	mux.HandleFunc("POST /v1/plan/forceComplete", s.handleForceComplete)
	mux.HandleFunc("POST /v1/plan/restart", s.handleRestart)

	mux.HandleFunc("GET /healthz", s.handleHealth)
	if s.metrics != nil {
		if h := s.metrics.Handler(); h != nil {
			mux.Handle("GET /metrics", h)
		}
	}

	return mux
}

// ListenAndServe runs the control surface until the context is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.httpServer.ListenAndServe()
	}()
	s.logger.Info().Str("addr", addr).Msg("Control API listening")

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error().Err(err).Msg("Failed to encode response")
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) recordCommand(command, outcome string) {
	if s.metrics != nil {
		s.metrics.RecordCommand(command, outcome)
	}
}
