package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/support-tickets/internal/api/http"
	"github.com/spec-kit/support-tickets/internal/api/http/handlers"
	"github.com/spec-kit/support-tickets/internal/auth"
	"github.com/spec-kit/support-tickets/internal/config"
	"github.com/spec-kit/support-tickets/internal/domain"
	"github.com/spec-kit/support-tickets/internal/events"
	"github.com/spec-kit/support-tickets/internal/observability"
	"github.com/spec-kit/support-tickets/internal/persistence"
	"github.com/spec-kit/support-tickets/internal/repository"
	"github.com/spec-kit/support-tickets/internal/repository/memory"
	"github.com/spec-kit/support-tickets/internal/service"
	"github.com/spec-kit/support-tickets/internal/storage"
	"github.com/spec-kit/support-tickets/internal/worker"
)

func newServeCmd() *cobra.Command {
	var seedProjects []string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			return runServe(cmd.Context(), cfg, seedProjects)
		},
	}
	cmd.Flags().StringSliceVar(&seedProjects, "seed-project", nil,
		"tenantId/projectId pairs created at startup when running without Postgres")
	return cmd
}

func runServe(parent context.Context, cfg *config.Config, seedProjects []string) error {
	if parent == nil {
		parent = context.Background()
	}
	logger, err := observability.NewLogger(cfg.Logger, cfg.App)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return fmt.Errorf("connect postgres: %w", err)
	}
	defer pg.Close()

	var store repository.Store
	if pg.Enabled() {
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, cfg.Postgres.DSN, logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}
		store = repository.NewPostgresStore(pg.Pool)
	} else {
		memStore := memory.NewStore()
		if err := seedMemoryStore(memStore, seedProjects); err != nil {
			return err
		}
		store = memStore
	}

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	signer, err := storage.NewSigner(cfg.Storage)
	if err != nil {
		return fmt.Errorf("init object signer: %w", err)
	}
	if !cfg.Storage.Configured() {
		logger.Warn("object storage not configured; presign endpoints will fail")
	}
	downloadCached := false
	if redis.Enabled() {
		signer = storage.NewCachingSigner(signer, storage.NewRedisURLCache(redis.Client), logger, func(hit bool) {
			if hit {
				metrics.RecordPresign("download", "hit")
			} else {
				metrics.RecordPresign("download", "miss")
			}
		})
		downloadCached = true
	}

	eventWorker := worker.NewEventWorker(events.NewInMemoryDispatcher(), 256, logger)
	notifications := service.NewNotificationService(eventWorker, logger, cfg.Notification)
	notifications.RegisterHandlers()

	ticketService := service.NewTicketService(service.TicketDependencies{
		Store:              store,
		Signer:             signer,
		Dispatcher:         eventWorker,
		Metrics:            metrics,
		Logger:             logger,
		AttachmentMaxBytes: cfg.Attachment.MaxBytes,
		PresignTTL:         cfg.Storage.PresignTTL,
		DownloadCached:     downloadCached,
	})

	tokens, err := auth.NewTokenManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("init token verifier: %w", err)
	}

	app := httptransport.NewApp(cfg.App.Name, httptransport.AppDependencies{
		Logger:         logger,
		Metrics:        metrics,
		RequestTimeout: cfg.App.RequestTimeout,
		Routes: httptransport.RouteConfig{
			Health: handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Dependency{
				"postgres": pg,
				"redis":    redis,
			}),
			Me:             handlers.NewMeHandler(),
			Tickets:        handlers.NewTicketsHandler(ticketService),
			AuthMiddleware: auth.NewAuthMiddleware(tokens),
		},
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}))
	metricsSrv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return eventWorker.Run(gctx)
	})
	g.Go(func() error {
		logger.Info("http server listening", zap.String("addr", cfg.App.Addr()))
		return app.Listen(cfg.App.Addr())
	})
	g.Go(func() error {
		logger.Info("metrics server listening", zap.String("addr", cfg.Metrics.Addr))
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
		defer cancel()
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			logger.Warn("http shutdown", zap.Error(err))
		}
		if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("metrics shutdown", zap.Error(err))
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

func seedMemoryStore(store *memory.Store, pairs []string) error {
	for _, pair := range pairs {
		tenantID, projectID, ok := strings.Cut(pair, "/")
		if !ok || tenantID == "" || projectID == "" {
			return fmt.Errorf("invalid --seed-project %q, want tenantId/projectId", pair)
		}
		store.AddProject(domain.Project{ID: projectID, TenantID: tenantID, Name: projectID})
	}
	return nil
}
