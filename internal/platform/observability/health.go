package observability

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/lueurxax/idea-miner/internal/core/domain"
)

const (
	shutdownTimeout   = 5 * time.Second
	readHeaderTimeout = 10 * time.Second

	bodyOK = "OK"
)

// Pinger reports whether the datastore is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TriggerFunc runs one batch invocation.
type TriggerFunc func(ctx context.Context) domain.Status

// Server exposes liveness, readiness, Prometheus metrics and the batch trigger.
type Server struct {
	db      Pinger
	trigger TriggerFunc
	port    int
	logger  *zerolog.Logger
}

// NewServer creates the HTTP server. trigger may be nil, in which case /process is not mounted.
func NewServer(db Pinger, trigger TriggerFunc, port int, logger *zerolog.Logger) *Server {
	return &Server{
		db:      db,
		trigger: trigger,
		port:    port,
		logger:  logger,
	}
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeText(w, http.StatusOK, bodyOK)
	})

	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := s.db.Ping(r.Context()); err != nil {
			writeText(w, http.StatusServiceUnavailable, fmt.Sprintf("DB error: %v", err))

			return
		}

		writeText(w, http.StatusOK, bodyOK)
	})

	r.Handle("/metrics", promhttp.Handler())

	if s.trigger != nil {
		r.Post("/process", s.handleProcess)
		r.Get("/process", s.handleProcess)
	}

	return r
}

// handleProcess runs one batch synchronously. The body is the bare status string.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	status := s.trigger(r.Context())

	code := http.StatusOK
	if status == domain.StatusError {
		code = http.StatusInternalServerError
	}

	s.logger.Info().Str("status", string(status)).Str("remote", r.RemoteAddr).Msg("batch triggered over HTTP")

	writeText(w, code, string(status))
}

// Start serves until ctx is canceled.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)

		defer cancel()

		//nolint:errcheck,contextcheck // shutdown is best-effort, non-inherited context intentional
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info().Int("port", s.port).Msg("HTTP server starting")

	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	return nil
}

func writeText(w http.ResponseWriter, code int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(code)
	_, _ = fmt.Fprint(w, body)
}
