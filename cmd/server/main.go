package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"
	"golang.org/x/sync/errgroup"

	"github.com/janisto/huma-hello/internal/config"
	"github.com/janisto/huma-hello/internal/http/api"
	"github.com/janisto/huma-hello/internal/http/health"
	"github.com/janisto/huma-hello/internal/http/v1/routes"
	applog "github.com/janisto/huma-hello/internal/platform/logging"
	"github.com/janisto/huma-hello/internal/platform/metrics"
	appmiddleware "github.com/janisto/huma-hello/internal/platform/middleware"
	"github.com/janisto/huma-hello/internal/platform/respond"
	"github.com/janisto/huma-hello/internal/platform/static"
)

// Version can be overridden at build time: -ldflags "-X main.Version=1.2.3"
var Version = "dev"

const maxBodyBytes = 1 << 20

func main() {
	if err := applog.Err(); err != nil {
		applog.LogError(context.Background(), "logger init error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		exit(fmt.Errorf("load config: %w", err))
	}
	applog.SetLevel(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		exit(err)
	}
	applog.LogInfo(context.Background(), "server exited")
	_ = applog.Sync()
}

func exit(err error) {
	applog.LogError(context.Background(), "fatal", err)
	_ = applog.Sync()
	os.Exit(1)
}

// run binds the configured address and serves until ctx is done.
func run(ctx context.Context, cfg config.Config) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Addr(), err)
	}
	if info, statErr := os.Stat(cfg.StaticDir); statErr != nil || !info.IsDir() {
		applog.LogWarn(ctx, "static directory unavailable, fallback serves problem 404s",
			zap.String("dir", cfg.StaticDir))
	}

	var rec *metrics.Recorder
	if cfg.Metrics {
		rec = metrics.New()
	}
	return serve(ctx, cfg, ln, newRouter(cfg, os.DirFS(cfg.StaticDir), rec))
}

// newRouter assembles middleware, routes and the static fallback.
// rec may be nil to disable metrics.
func newRouter(cfg config.Config, assets fs.FS, rec *metrics.Recorder) http.Handler {
	router := chi.NewRouter()
	router.NotFound(static.New(assets, cfg.NotFoundFile).ServeHTTP)
	router.MethodNotAllowed(respond.MethodNotAllowedHandler())

	router.Use(
		appmiddleware.Security(api.DocsPath),
		appmiddleware.Vary(),
		appmiddleware.CORS(),
		appmiddleware.RequestID(),
		// Trust X-Forwarded-For / X-Real-IP only behind a reverse proxy.
		chimiddleware.RealIP,
		// GET routes also answer HEAD; net/http drops the body.
		chimiddleware.GetHead,
		chimiddleware.RequestSize(maxBodyBytes),
		applog.RequestLogger(cfg.ProjectID),
		applog.AccessLogger(),
	)
	if rec != nil {
		router.Use(rec.Middleware())
	}
	router.Use(respond.Recoverer())

	router.Get("/health", health.Handler)
	if rec != nil {
		router.Method(http.MethodGet, "/metrics", rec.Handler())
	}

	routes.Register(api.New(router, Version))
	return router
}

func newServer(cfg config.Config, handler http.Handler) *http.Server {
	if cfg.H2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
	}
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    64 << 10,
	}
}

// serve runs the server on ln until ctx is done or serving fails, then shuts
// down gracefully within cfg.ShutdownTimeout.
func serve(ctx context.Context, cfg config.Config, ln net.Listener, handler http.Handler) error {
	srv := newServer(cfg, handler)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		applog.LogInfo(gctx, "server listening",
			zap.String("addr", ln.Addr().String()),
			zap.Bool("h2c", cfg.H2C),
			zap.String("version", Version),
		)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		applog.LogInfo(context.Background(), "shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}
