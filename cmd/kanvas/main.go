package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/kanvasboard/kanvas/internal/adapter/github"
	"github.com/kanvasboard/kanvas/internal/adapter/gitlab"
	khttp "github.com/kanvasboard/kanvas/internal/adapter/http"
	knats "github.com/kanvasboard/kanvas/internal/adapter/nats"
	kotel "github.com/kanvasboard/kanvas/internal/adapter/otel"
	"github.com/kanvasboard/kanvas/internal/adapter/postgres"
	"github.com/kanvasboard/kanvas/internal/adapter/ws"
	"github.com/kanvasboard/kanvas/internal/config"
	"github.com/kanvasboard/kanvas/internal/domain/integration"
	"github.com/kanvasboard/kanvas/internal/logger"
	"github.com/kanvasboard/kanvas/internal/middleware"
	"github.com/kanvasboard/kanvas/internal/port/gitprovider"
	"github.com/kanvasboard/kanvas/internal/service"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "admin" {
		if err := runAdmin(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
		return
	}

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	log, logCloser := logger.New(cfg.Logging)
	defer logCloser.Close()
	slog.SetDefault(log)
	log.Info("config loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Logging.Level,
		"pg_max_conns", cfg.Postgres.MaxConns,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Telemetry ---
	otelShutdown, err := kotel.Init(ctx, cfg.Telemetry, cfg.Logging.Service)
	if err != nil {
		return fmt.Errorf("telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = otelShutdown(shutdownCtx)
	}()

	var metrics *kotel.Metrics
	if cfg.Telemetry.Enabled {
		metrics, err = kotel.NewMetrics()
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
	}

	// --- Infrastructure ---

	pool, err := postgres.NewPool(ctx, cfg.Postgres)
	if err != nil {
		return fmt.Errorf("postgres: %w", err)
	}
	defer pool.Close()
	log.Info("postgres connected")

	if err := postgres.RunMigrations(ctx, cfg.Postgres.DSN); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	log.Info("migrations applied")

	sink, err := knats.Connect(cfg.NATS.URL)
	if err != nil {
		return fmt.Errorf("nats: %w", err)
	}
	defer func() { _ = sink.Close() }()

	hub := ws.NewHub()
	unsubscribe, err := sink.BridgeTo(hub)
	if err != nil {
		return fmt.Errorf("broadcast bridge: %w", err)
	}
	defer unsubscribe()

	githubClient, err := github.NewClient(cfg.GitHub)
	if err != nil {
		return fmt.Errorf("github client: %w", err)
	}
	providers := map[integration.Provider]gitprovider.Client{
		integration.ProviderGitHub: githubClient,
		integration.ProviderGitLab: gitlab.NewClient(cfg.GitLab.BaseURL),
	}

	// --- Services ---

	boardStore := postgres.NewBoardStore(pool)
	integrationStore := postgres.NewIntegrationStore(pool)
	chatStore := postgres.NewChatStore(pool)

	handlers := &khttp.Handlers{
		Boards:       service.NewBoardService(boardStore, sink),
		Integrations: service.NewIntegrationService(integrationStore, boardStore, providers, cfg.Server.PublicURL),
		Chat:         service.NewChatService(chatStore, boardStore, sink),
		Reconciler:   service.NewReconcilerService(boardStore, githubClient, sink, metrics),
		Registry:     integrationStore,
		Hub:          hub,
		Metrics:      metrics,
		DB:           pool,
		NATS:         sink,
	}

	// --- HTTP ---

	r := chi.NewRouter()
	r.Use(khttp.CORS(cfg.Server.CORSOrigin))
	r.Use(khttp.Logger)
	r.Use(middleware.RequestID)
	r.Use(middleware.Identity)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)
	if cfg.Telemetry.Enabled {
		r.Use(kotel.HTTPMiddleware(cfg.Logging.Service))
	}

	khttp.MountRoutes(r, handlers)

	addr := ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
