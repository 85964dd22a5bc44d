package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mohammed-shakir/geoserver-catalog/internal/core/health"
	middleware "github.com/mohammed-shakir/geoserver-catalog/internal/core/middleware"
	"github.com/mohammed-shakir/geoserver-catalog/internal/metrics"
)

type Options struct {
	Addr    string
	Logger  *slog.Logger
	Metrics *metrics.Provider
	// Ready backs /readyz; without it only /healthz is served.
	Ready health.ReadinessReporter
}

// NewRouter builds the base router with recovery, request logging and the
// operational endpoints. Callers mount their own routes on it.
func NewRouter(opts Options) chi.Router {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := chi.NewRouter()
	r.Use(middleware.Recover(logger))
	r.Use(middleware.Logging(logger))

	r.Get("/healthz", health.Liveness())
	if opts.Ready != nil {
		r.Get("/readyz", health.Readiness(opts.Ready))
	}
	if opts.Metrics != nil {
		r.Method(http.MethodGet, opts.Metrics.Path(), opts.Metrics.Handler())
	}
	return r
}

// sets up http and starts serving
func Run(ctx context.Context, opts Options, mount func(chi.Router)) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	r := NewRouter(opts)
	if mount != nil {
		mount(r)
	}

	srv := &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http listen", "addr", opts.Addr)
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		return nil
	case err := <-errCh:
		return err
	}
}
