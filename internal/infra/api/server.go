package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"course-marketplace/internal/config"
)

// HealthFunc reports whether the backing stores are reachable.
type HealthFunc func(ctx context.Context) error

type Server struct {
	router chi.Router
	server *http.Server
	log    *zerolog.Logger
}

// NewServer builds the public HTTP surface: health, metrics and whatever the
// mount functions register on the shared router.
func NewServer(cfg config.HTTPConfig, health HealthFunc, logger *zerolog.Logger, mounts ...func(chi.Router)) *Server {
	l := logger.With().Str("component", "HTTPServer").Logger()

	r := chi.NewRouter()
	r.Use(
		TraceID(&l),
		RequestLog(&l),
		Recover(&l),
		Timeout(cfg.RequestTimeout),
	)
	r.Get("/health", healthHandler(health))
	r.Handle("/metrics", promhttp.Handler())
	for _, mount := range mounts {
		mount(r)
	}

	s := &Server{router: r, log: &l}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return s
}

func (s *Server) Handler() http.Handler { return s.router }

// Start blocks until the server stops. A graceful shutdown returns nil.
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.server.Addr).Msg("HTTP server listening")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func healthHandler(health HealthFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			if err := health(r.Context()); err != nil {
				http.Error(w, "unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprint(w, "OK")
	}
}
