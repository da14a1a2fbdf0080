package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/person-admin/internal/api/http"
	"github.com/spec-kit/person-admin/internal/api/http/handlers"
	"github.com/spec-kit/person-admin/internal/auth"
	"github.com/spec-kit/person-admin/internal/config"
	"github.com/spec-kit/person-admin/internal/events"
	"github.com/spec-kit/person-admin/internal/listview"
	"github.com/spec-kit/person-admin/internal/observability"
	"github.com/spec-kit/person-admin/internal/persistence"
	"github.com/spec-kit/person-admin/internal/queryapi"
	"github.com/spec-kit/person-admin/internal/repository"
	"github.com/spec-kit/person-admin/internal/service"
	"github.com/spec-kit/person-admin/internal/worker"
)

const (
	adminBasePath       = "/admin/people"
	viewJanitorInterval = time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, cfg.App.Name, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), cfg.Postgres.MigrationsDir, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	personRepo := repository.NewPersonRepository(pg.PoolHandle())
	personService := service.NewPersonService(cfg.Cache, service.PersonDependencies{
		PersonRepo: personRepo,
		Cache:      redis,
		Logger:     logger,
		Metrics:    metrics,
	})

	dispatcher := events.NewInMemoryDispatcher()
	worker.StartAuditWorker(service.NewAuditService(dispatcher, logger, metrics))

	if err := auth.ValidateAdminHash(cfg.Auth.AdminPasswordHash); err != nil {
		logger.Fatal("invalid ADMIN_PASSWORD_HASH", zap.Error(err))
	}
	authService := service.NewAuthService(cfg.Auth)
	tokens := authService.TokenManager()
	if authService.Open() {
		logger.Warn("ADMIN_PASSWORD_HASH not set; admin pages are open")
	}

	registry := listview.NewRegistry(listview.Dependencies{
		Querier:    queryapi.NewClient(cfg.QueryAPI.BaseURL, cfg.QueryAPI.Timeout(), tokens),
		Dispatcher: dispatcher,
		Logger:     logger,
		Metrics:    metrics,
		BasePath:   adminBasePath,
	}, cfg.View.IdleTTL())
	worker.StartViewJanitor(ctx, registry, viewJanitorInterval, logger)

	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	healthHandler := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
		"postgres": pg,
		"redis":    redis,
	})
	adminHandler := handlers.NewAdminHandler(registry, handlers.AdminOptions{
		BasePath:   adminBasePath,
		AutoHideMs: cfg.View.SnackbarAutoHideMs,
		CanLogout:  !authService.Open(),
	}, logger)

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:    healthHandler,
		People:    handlers.NewPeopleHandler(personService),
		Admin:     adminHandler,
		Auth:      handlers.NewAuthHandler(authService, adminBasePath, cfg.App.Env == "production"),
		APIAuth:   auth.NewAuthMiddleware(tokens, false),
		AdminAuth: auth.NewAuthMiddleware(tokens, authService.Open()),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	cancel()
	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
