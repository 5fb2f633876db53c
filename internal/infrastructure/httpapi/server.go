package httpapi

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"ReviewPulse/internal/domain"
	"ReviewPulse/internal/metrics"
	"ReviewPulse/internal/usecase"
)

// RunTrigger is the manual/backfill invocation path, shared with the
// scheduled one so runs can never overlap.
type RunTrigger interface {
	TriggerRun(ctx context.Context, opts usecase.RunOptions) (domain.BatchRunReport, error)
}

// Server exposes the operator surface: manual run trigger, health,
// and Prometheus metrics.
type Server struct {
	server   *http.Server
	logger   zerolog.Logger
	location *time.Location
}

// Config wires the admin server.
type Config struct {
	Addr     string
	Trigger  RunTrigger
	DB       *sql.DB
	Location *time.Location
}

// NewServer builds the admin HTTP server.
func NewServer(logger zerolog.Logger, cfg Config) *Server {
	s := &Server{
		logger:   logger,
		location: cfg.Location,
	}
	if s.location == nil {
		s.location = time.UTC
	}

	router := chi.NewRouter()
	router.Use(requestLogger(logger))
	router.Use(middleware.Recoverer)

	router.Post("/v1/runs", s.triggerRun(cfg.Trigger))
	router.Get("/healthz", s.health(cfg.DB))
	router.Handle("/metrics", promhttp.Handler())

	s.server = &http.Server{Addr: cfg.Addr, Handler: router}
	return s
}

// Start serves until ctx is canceled, then shuts down with a deadline.
func (s *Server) Start(ctx context.Context) error {
	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info().Str("addr", s.server.Addr).Msg("starting admin server")
		serverErrors <- s.server.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := s.server.Shutdown(shutdownCtx); err != nil {
			s.logger.Error().Err(err).Msg("graceful shutdown failed")
			return s.server.Close()
		}
	}

	return nil
}

type runRequest struct {
	Period  string   `json:"period,omitempty"`
	Tenants []string `json:"tenants,omitempty"`
	Force   bool     `json:"force,omitempty"`
}

func (s *Server) triggerRun(trigger RunTrigger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req runRequest
		// An empty body means a plain "run yesterday for everyone".
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		var opts usecase.RunOptions
		if req.Period != "" {
			period, err := domain.ParsePeriod(req.Period, s.location)
			if err != nil {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			opts.Period = period
		}
		for _, t := range req.Tenants {
			opts.Tenants = append(opts.Tenants, domain.TenantID(t))
		}
		opts.Force = req.Force

		report, err := trigger.TriggerRun(r.Context(), opts)
		switch {
		case errors.Is(err, usecase.ErrRunInProgress):
			metrics.RunsTotal.WithLabelValues(metrics.RunResultRejected).Inc()
			writeError(w, http.StatusConflict, err.Error())
			return
		case errors.Is(err, domain.ErrTenantListUnavailable):
			writeJSON(w, http.StatusBadGateway, report)
			return
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}

		writeJSON(w, http.StatusOK, report)
	}
}

func (s *Server) health(db *sql.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if db != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := db.PingContext(ctx); err != nil {
				writeError(w, http.StatusServiceUnavailable, "database unreachable")
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func requestLogger(logger zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			reqLogger := logger.With().
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", req.RemoteAddr).
				Logger()

			ctx := reqLogger.WithContext(req.Context())
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
