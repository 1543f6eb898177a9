// Package server assembles the todoboard HTTP handler and runs the listener.
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"todoboard/internal/adapters/exports"
	"todoboard/internal/adapters/todos"
	"todoboard/internal/config"
	"todoboard/internal/logging"
	"todoboard/internal/observability"
	"todoboard/internal/todo"
	"todoboard/internal/web"
)

const (
	msgPageNotFound = "Page not found"
	msgInternal     = "Internal server error"
)

// Deps are the collaborators of the HTTP surface. Store is required; the rest
// are optional.
type Deps struct {
	Store       todo.Store
	Exporter    *exports.Exporter
	Renderer    *web.Renderer
	Metrics     *observability.Metrics
	MetricsPath string
	Logger      logging.Logger
}

// NewHandler builds the routed handler wrapped in the middleware chain:
// request id, access log, panic recovery, metrics.
func NewHandler(d Deps) http.Handler {
	logger := logging.OrNoop(d.Logger)
	pages := pageRenderer{renderer: d.Renderer, logger: logger}
	mux := http.NewServeMux()

	var renderer todos.Renderer
	if d.Renderer != nil {
		renderer = d.Renderer
	}
	todos.NewHandler(d.Store, renderer, logger).Register(mux)
	if d.Exporter != nil {
		exports.NewHandler(d.Exporter, logger).Register(mux)
	}
	mux.Handle("GET "+web.StaticPrefix, web.Static())
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/todos", http.StatusFound)
	})
	if d.Metrics != nil {
		path := d.MetricsPath
		if path == "" {
			path = config.DefaultMetricsPath
		}
		mux.Handle("GET "+path, d.Metrics.Handler())
	}
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		pages.error(w, r, http.StatusNotFound, msgPageNotFound)
	})

	var h http.Handler = mux
	if d.Metrics != nil {
		h = d.Metrics.Middleware(h)
	}
	h = recoverer(logger, pages)(h)
	h = accessLog(logger)(h)
	return requestID(h)
}

// pageRenderer writes HTML error pages, falling back to plain text.
type pageRenderer struct {
	renderer *web.Renderer
	logger   logging.Logger
}

func (p pageRenderer) error(w http.ResponseWriter, r *http.Request, status int, message string) {
	if p.renderer != nil {
		err := p.renderer.Error(w, status, message)
		if err == nil {
			return
		}
		p.logger.Error("render error page", "path", r.URL.Path, "err", err)
	}
	http.Error(w, message, status)
}

// Run listens on cfg.Addr and serves until ctx is cancelled.
func Run(ctx context.Context, cfg config.Server, handler http.Handler, logger logging.Logger) error {
	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr, err)
	}
	return Serve(ctx, ln, cfg, handler, logger)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully
// within cfg.ShutdownTimeout.
func Serve(ctx context.Context, ln net.Listener, cfg config.Server, handler http.Handler, logger logging.Logger) error {
	logger = logging.OrNoop(logger)
	readHeader := cfg.ReadHeaderTimeout.Duration
	if readHeader <= 0 {
		readHeader = config.DefaultReadHeaderTimeout
	}
	shutdown := cfg.ShutdownTimeout.Duration
	if shutdown <= 0 {
		shutdown = config.DefaultShutdownTimeout
	}
	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: readHeader,
		BaseContext:       func(net.Listener) context.Context { return context.WithoutCancel(ctx) },
	}

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	logger.Info("server listening", "addr", ln.Addr().String())

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	logger.Info("shutting down", "timeout", shutdown.String())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdown)
	defer cancel()
	start := time.Now()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	logger.Info("server stopped", "took", time.Since(start).String())
	return nil
}
