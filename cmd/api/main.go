package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/automation-service/internal/api/http"
	"github.com/spec-kit/automation-service/internal/api/http/handlers"
	"github.com/spec-kit/automation-service/internal/auth"
	"github.com/spec-kit/automation-service/internal/config"
	"github.com/spec-kit/automation-service/internal/engine"
	"github.com/spec-kit/automation-service/internal/events"
	"github.com/spec-kit/automation-service/internal/observability"
	"github.com/spec-kit/automation-service/internal/persistence"
	"github.com/spec-kit/automation-service/internal/repository"
	"github.com/spec-kit/automation-service/internal/service"
	"github.com/spec-kit/automation-service/internal/sla"
	"github.com/spec-kit/automation-service/internal/worker"
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

	rdb := persistence.NewRedis(cfg.Redis, logger)
	defer rdb.Close()

	metrics := observability.NewMetrics()

	pool := pg.PoolHandle()
	ruleRepo := repository.NewRuleRepository(pool)
	policyRepo := repository.NewSLAPolicyRepository(pool)
	trackingRepo := repository.NewSLATrackingRepository(pool)
	ticketRepo := repository.NewTicketRepository(pool)
	auditRepo := repository.NewAuditRepository(pool)
	settingsRepo := repository.NewSettingsRepository(pool)

	ruleCache := repository.NewCachedRuleSource(ruleRepo, rdb.Client, cfg.Engine.RuleCacheTTL(), logger)

	notifier := service.NewNotificationService(rdb.Client, cfg.Notification, logger, metrics)
	slaService := service.NewSLAService(policyRepo, trackingRepo, ticketRepo, settingsRepo, auditRepo,
		cfg.Sweep.DefaultWarningPercent, logger)
	automationService := service.NewAutomationService(ruleRepo, ruleCache, auditRepo, logger)

	tracker := sla.NewTracker(policyRepo, trackingRepo, logger)
	monitor := sla.NewMonitor(trackingRepo, slaService, notifier, logger, metrics, cfg.Sweep.BatchSize)

	executor := engine.NewExecutor(ticketRepo, auditRepo, notifier, logger, metrics)
	ruleEngine := engine.NewEngine(ruleCache, ticketRepo, executor, logger, metrics)
	dispatcher := engine.NewDispatcher(ruleEngine, tracker, ticketRepo,
		cfg.Engine.MaxConcurrentTickets, cfg.Sweep.BatchSize, logger)

	bus := events.NewInMemoryDispatcher()
	dispatcher.RegisterHandlers(bus)

	consumer := events.NewStreamConsumer(rdb.Client, bus, cfg.Ingest, logger, metrics)
	if err := consumer.Start(ctx); err != nil {
		logger.Fatal("failed to start ticket event consumer", zap.Error(err))
	}

	sweeper := worker.NewSweeper(logger, metrics,
		&worker.Job{
			Name:     "hourly_check",
			Interval: cfg.Sweep.HourlyCheckInterval(),
			Run:      dispatcher.HourlyCheck,
		},
		&worker.Job{
			Name:     "sla_sweep",
			Interval: cfg.Sweep.SLASweepInterval(),
			Run: func(ctx context.Context) error {
				stats, err := monitor.Sweep(ctx)
				if err != nil {
					return err
				}
				logger.Debug("sla sweep finished",
					zap.Int("checked", stats.Checked),
					zap.Int("warned", stats.Warned),
					zap.Int("breached", stats.Breached))
				return nil
			},
		},
	)
	sweeper.Start(ctx)

	authMiddleware := auth.NewAuthMiddleware(auth.NewTokenManager(cfg.Auth.JWTSecret))

	app := fiber.New(fiber.Config{AppName: cfg.App.Name})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rdb),
		Rules:          handlers.NewRulesHandler(automationService),
		SLA:            handlers.NewSLAHandler(slaService),
		Audit:          handlers.NewAuditHandler(auditRepo, metrics),
		AuthMiddleware: authMiddleware,
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
	cancel()
	consumer.Stop()
	sweeper.Stop()
	dispatcher.Drain()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
