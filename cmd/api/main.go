package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/civiops/helpdesk-service/internal/api/http"
	"github.com/civiops/helpdesk-service/internal/api/http/handlers"
	"github.com/civiops/helpdesk-service/internal/auth"
	"github.com/civiops/helpdesk-service/internal/config"
	"github.com/civiops/helpdesk-service/internal/events"
	"github.com/civiops/helpdesk-service/internal/observability"
	"github.com/civiops/helpdesk-service/internal/persistence"
	"github.com/civiops/helpdesk-service/internal/repository"
	"github.com/civiops/helpdesk-service/internal/service"
	"github.com/civiops/helpdesk-service/internal/worker"
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

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	metrics := observability.NewMetrics()
	dispatcher := events.NewInMemoryDispatcher()

	pool := pg.PoolHandle()
	identityRepo := repository.NewIdentityRepository(pool)
	organizationRepo := repository.NewOrganizationRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	equipmentRepo := repository.NewEquipmentRepository(pool)
	recoveryStore := repository.NewRecoveryCodeStore(redis.Client)

	authService := service.NewAuthService(*cfg, service.AuthDependencies{
		IdentityRepo: identityRepo,
		RecoveryRepo: recoveryStore,
		Dispatcher:   dispatcher,
	})
	directoryService := service.NewDirectoryService(identityRepo, organizationRepo, cfg.Auth.BcryptCost)
	ticketService := service.NewTicketService(service.TicketDependencies{
		TicketRepo:   ticketRepo,
		IdentityRepo: identityRepo,
		Dispatcher:   dispatcher,
		Metrics:      metrics,
	})
	retentionService := service.NewRetentionService(ticketRepo, dispatcher, metrics, logger, cfg.Retention.Window())
	reportService := service.NewReportService(ticketRepo, retentionService)
	notificationService := service.NewNotificationService(dispatcher, logger, cfg.Notification)
	inventoryService := service.NewInventoryService(equipmentRepo)

	worker.StartNotificationWorker(notificationService)
	worker.StartRetentionWorker(ctx, retentionService, logger, cfg.Retention.SweepInterval())

	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), identityRepo)

	app := fiber.New()
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Sessions:       handlers.NewSessionsHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService),
		Directory:      handlers.NewDirectoryHandler(directoryService),
		Reports:        handlers.NewReportsHandler(reportService),
		Maintenance:    handlers.NewMaintenanceHandler(retentionService),
		Inventory:      handlers.NewInventoryHandler(inventoryService),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
