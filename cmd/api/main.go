package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	httptransport "github.com/deskflow/support-desk/internal/api/http"
	"github.com/deskflow/support-desk/internal/api/http/handlers"
	"github.com/deskflow/support-desk/internal/auth"
	"github.com/deskflow/support-desk/internal/config"
	"github.com/deskflow/support-desk/internal/events"
	"github.com/deskflow/support-desk/internal/notify"
	"github.com/deskflow/support-desk/internal/observability"
	"github.com/deskflow/support-desk/internal/persistence"
	"github.com/deskflow/support-desk/internal/repository"
	"github.com/deskflow/support-desk/internal/repository/memory"
	"github.com/deskflow/support-desk/internal/service"
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

	if pg.Enabled() && cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.Pool, logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	redis := persistence.NewRedis(cfg.Redis, logger)
	defer redis.Close()

	repos, uow := buildStore(*cfg, pg, logger)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := observability.NewMetrics(registry)

	var unread notify.UnreadCache = notify.NoopUnreadCache{}
	if redis.Enabled() {
		unread = notify.NewRedisUnreadCache(redis.Client, cfg.Redis.UnreadTTL())
	}

	eventBus := events.NewInMemoryDispatcher(logger)
	sink := notify.NewDispatcher(notify.DispatcherDependencies{
		Notifications: repos.Notifications,
		Email:         notify.NewSMTPSender(cfg.Notification.Email),
		SMS:           notify.NewSMSIRSender(cfg.Notification.SMS),
		Cache:         unread,
		Metrics:       metrics,
		Logger:        logger,
		DefaultRegion: cfg.Notification.DefaultRegion,
	})

	assignmentService := service.NewAssignmentService(service.AssignmentDependencies{
		UnitOfWork: uow,
		Repos:      repos,
		Metrics:    metrics,
		Logger:     logger,
	})
	ticketService := service.NewTicketService(service.TicketDependencies{
		UnitOfWork:  uow,
		Repos:       repos,
		Assignments: assignmentService,
		Dispatcher:  eventBus,
		Metrics:     metrics,
		Logger:      logger,
	})
	commentService := service.NewCommentService(service.CommentDependencies{
		UnitOfWork: uow,
		Repos:      repos,
		Dispatcher: eventBus,
		Logger:     logger,
	})
	userService := service.NewUserService(service.UserDependencies{
		UnitOfWork: uow,
		Repos:      repos,
		Dispatcher: eventBus,
		Cache:      unread,
		Logger:     logger,
	})
	notificationService := service.NewNotificationService(service.NotificationDependencies{
		Dispatcher:  eventBus,
		Notifier:    sink,
		Repos:       repos,
		Assignments: assignmentService,
		Cache:       unread,
		Logger:      logger,
	})
	notificationService.RegisterHandlers()

	authService := service.NewAuthService(*cfg, service.AuthDependencies{UserRepo: repos.Users})
	authMiddleware := auth.NewAuthMiddleware(authService.TokenManager(), repos.Users)

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	routes := httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, redis),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(ticketService, commentService, assignmentService),
		Notifications:  handlers.NewNotificationsHandler(notificationService),
		AdminUsers:     handlers.NewAdminUsersHandler(userService),
		Dashboards:     handlers.NewDashboardHandler(service.NewDashboardService(service.DashboardDependencies{Repos: repos})),
		AuthMiddleware: authMiddleware,
	}
	if cfg.Metrics.Enabled {
		routes.MetricsGatherer = registry
		routes.MetricsPath = cfg.Metrics.Path
	}
	httptransport.RegisterRoutes(app, routes)

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		logger.Warn("shutdown", zap.Error(err))
	}
}

// buildStore returns Postgres repositories when a pool is open and the
// in-memory store otherwise.
func buildStore(cfg config.Config, pg *persistence.Postgres, logger *zap.Logger) (repository.Repositories, repository.UnitOfWork) {
	if pg.Enabled() {
		return repository.NewRepositories(pg.Pool), repository.NewUnitOfWork(pg.Pool)
	}

	store := memory.NewStore()
	if cfg.App.SeedDemoData {
		hash, err := auth.HashPassword(cfg.App.DemoPassword, cfg.Auth.BcryptCost)
		if err != nil {
			logger.Fatal("failed to hash demo password", zap.Error(err))
		}
		demo := store.SeedDemo(hash, time.Now().UTC())
		logger.Info("seeded demo data",
			zap.String("admin", demo.Admin.Email),
			zap.String("agent", demo.Agent.Email),
			zap.String("customer", demo.Customer.Email),
			zap.String("category_id", demo.Category.ID),
			zap.String("location_id", demo.Location.ID))
	}
	return store.Repositories(), store.UnitOfWork()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
