// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/quire/internal/api"
	"github.com/starford/quire/internal/journal"
	"github.com/starford/quire/internal/reload"
	"github.com/starford/quire/internal/sse"
	"github.com/starford/quire/internal/templates"
)

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := app.logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: cfg.App.LogLevel,
		}))
	}
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("posts_dir", cfg.Posts.Dir),
		slog.String("templates_dir", cfg.Templates.Dir),
		slog.Bool("watch", cfg.Templates.Watch),
		slog.String("journal_path", cfg.Journal.Path),
		slog.String("log_level", cfg.App.LogLevel.String()))

	repo, err := OpenPosts(cfg, logger)
	if err != nil {
		return err
	}

	// The initial template set must build; later reload failures are not fatal.
	views, err := templates.NewStore(cfg.Templates.Dir, cfg.Templates.Pattern)
	if err != nil {
		return fmt.Errorf("init templates: %w", err)
	}
	logger.Info("Templates loaded", slog.Int("count", len(views.Current().Files())))

	// SSE broker.
	broker := sse.NewBroker()
	defer broker.Close()

	reloadOpts := []reload.Option{
		reload.WithLogger(logger),
		reload.WithAssets(reload.ShellBuilder{
			Command: cfg.Assets.BuildCommand,
			Timeout: cfg.Assets.BuildTimeout,
		}),
		reload.WithObserver(broker.PublishCycle),
	}

	var history api.ReloadHistory
	if cfg.Journal.Enabled() {
		db, err := journal.Open(cfg.Journal.Path)
		if err != nil {
			return fmt.Errorf("init journal: %w", err)
		}
		defer db.Close()
		history = db
		reloadOpts = append(reloadOpts, reload.WithObserver(db.Observer(func(err error) {
			logger.Warn("journal write failed", slog.String("error", err.Error()))
		})))
	}

	reloader := reload.New(views, reloadOpts...)

	// Build API service and router.
	svc := api.NewService(repo, views, cfg.App.Title, cfg.Templates.Watch)
	var events http.Handler
	if cfg.Templates.Watch {
		events = broker
	}
	apiRouter := api.NewRouter(api.NewHandler(svc, history), events, cfg.Assets.Dir)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Mount("/health", api.NewHealthRouter(views, reloader))
	r.Mount("/", apiRouter)

	httpServer := &http.Server{
		Addr:              cfg.App.HTTP.Address(),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	listener, err := net.Listen("tcp", httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", httpServer.Addr, err)
	}

	logger.Info("Server starting...", slog.String("http_address", listener.Addr().String()))

	ctx, stop := context.WithCancel(ctx)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	// Template hot reload: watcher produces signals, one reloader consumes them.
	if cfg.Templates.Watch {
		signals := make(chan struct{}, 1)
		g.Go(func() error {
			if err := reload.Watch(gCtx, cfg.Templates.Dir, logger, signals); err != nil {
				return fmt.Errorf("template watcher: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			return reloader.Run(gCtx, signals)
		})
	}

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", listener.Addr().String()))
		if app.ready != nil {
			app.ready(listener.Addr().String())
		}
		if err := httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(quit)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		// Open SSE streams only end when their clients go away.
		broker.Close()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		// Stop the watcher and reloader too.
		stop()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
