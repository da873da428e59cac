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

	"github.com/spec-kit/maintenance-service/internal/analysis"
	httptransport "github.com/spec-kit/maintenance-service/internal/api/http"
	"github.com/spec-kit/maintenance-service/internal/api/http/handlers"
	"github.com/spec-kit/maintenance-service/internal/config"
	"github.com/spec-kit/maintenance-service/internal/events"
	"github.com/spec-kit/maintenance-service/internal/observability"
	"github.com/spec-kit/maintenance-service/internal/persistence"
	"github.com/spec-kit/maintenance-service/internal/repository"
	"github.com/spec-kit/maintenance-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger, cfg.App.Name)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	if err := cfg.Validate(); err != nil {
		logger.Fatal("invalid configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	requestRepo, closeStore := openStore(ctx, cfg, logger)
	defer closeStore()

	dispatcher := events.NewInMemoryDispatcher()
	readiness := map[string]handlers.Pinger{"storage": requestRepo}

	var sink service.EventSink
	if cfg.Redis.Enabled() {
		redis := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer redis.Close()
		sink = events.NewRedisPublisher(redis.Client, cfg.Redis.EventsKey)
		readiness["redis"] = redis
	}
	service.NewNotificationService(dispatcher, logger, sink).RegisterHandlers()

	maintenanceService := service.NewMaintenanceService(service.MaintenanceDependencies{
		RequestRepo: requestRepo,
		Analyzer:    analysis.NewClient(cfg.Analysis),
		Dispatcher:  dispatcher,
		Logger:      logger,
	})

	metrics := observability.NewMetrics()
	app := fiber.New(fiber.Config{
		AppName:               cfg.App.Name,
		DisableStartupMessage: true,
	})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:   handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, readiness),
		Metrics:  handlers.NewMetricsHandler(metrics),
		Requests: handlers.NewRequestsHandler(maintenanceService),
	})

	go func() {
		logger.Info("listening",
			zap.String("addr", cfg.App.Addr()),
			zap.String("storage", cfg.Storage.Driver),
			zap.String("analysis_endpoint", cfg.Analysis.Endpoint()))
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown incomplete", zap.Error(err))
	}
}

// openStore connects the configured ticket store. The returned func
// releases it.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.MaintenanceRequestRepository, func()) {
	switch cfg.Storage.Driver {
	case config.StoragePostgres:
		pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
		if err != nil {
			logger.Fatal("failed to connect postgres", zap.Error(err))
		}
		if cfg.Postgres.RunMigrations {
			if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
				logger.Fatal("failed to run migrations", zap.Error(err))
			}
		}
		return repository.NewPostgresRequestRepository(pg.PoolHandle()), pg.Close

	case config.StorageSQLite:
		db, err := persistence.NewSQLite(ctx, cfg.SQLite, logger)
		if err != nil {
			logger.Fatal("failed to open sqlite", zap.Error(err))
		}
		return repository.NewSQLiteRequestRepository(db), func() { _ = db.Close() }

	default:
		client, err := persistence.NewDynamoDB(ctx, cfg.DynamoDB, logger)
		if err != nil {
			logger.Fatal("failed to configure dynamodb", zap.Error(err))
		}
		return repository.NewDynamoRequestRepository(client, cfg.DynamoDB.Table, cfg.DynamoDB.PriorityIndex), func() {}
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
