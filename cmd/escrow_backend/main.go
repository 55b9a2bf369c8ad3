package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/robfig/cron/v3"

	"github.com/shiftnurse/escrow_backend/internal/adapters/gateway"
	portssvc "github.com/shiftnurse/escrow_backend/internal/core/ports/services"
	"github.com/shiftnurse/escrow_backend/internal/core/services"
	"github.com/shiftnurse/escrow_backend/internal/handlers"
	"github.com/shiftnurse/escrow_backend/internal/middleware"
	"github.com/shiftnurse/escrow_backend/internal/repositories/database/pgsql"
	"github.com/shiftnurse/escrow_backend/internal/utils"
	"github.com/shiftnurse/escrow_backend/pkg/config"
	"github.com/shiftnurse/escrow_backend/pkg/database"

	migrate "github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/jackc/pgx/v5/stdlib"
)

// @title ShiftNurse Escrow Backend API
// @version 1.0
// @description Escrow-based payments and scheduled payouts for the nurse event marketplace.

// @host localhost:8080
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

// @security BearerAuth
func main() {
	// Initialize structured logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Error("Failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Initialize database connection pool (for application use)
	dbPool, err := database.NewPgxPool(context.Background(), cfg.DatabaseURL, cfg.EnableDBCheck)
	if err != nil {
		logger.Error("Failed to initialize database pool", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer dbPool.Close()
	logger.Info("Database connection pool established.")

	if err := runMigrations(cfg, logger); err != nil {
		logger.Error("Failed to apply migrations", slog.String("error", err.Error()))
		os.Exit(1)
	}

	if cfg.IsProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	posthogClient := utils.InitializePosthogClient(cfg.PosthogAPIKey, logger)
	defer posthogClient.Close()

	// The real gateway adapter is used whenever a URL is configured; the stub
	// keeps local development working without any external dependency.
	var paymentGateway portssvc.PaymentGateway
	if cfg.PaymentGatewayURL != "" {
		paymentGateway = gateway.NewHTTPGateway(cfg.PaymentGatewayURL, cfg.PaymentGatewayAPIKey)
	} else {
		logger.Warn("Using the in-process stub gateway")
		paymentGateway = gateway.NewStubGateway()
	}

	repos := pgsql.NewRepositoryProvider(dbPool)
	serviceContainer := services.NewServiceContainer(cfg, repos, paymentGateway, posthogClient)

	r := gin.New()

	// Global middleware (logging, recovery)
	r.Use(middleware.StructuredLoggingMiddleware(logger), gin.Recovery())
	r.Use(cors.Default())
	r.Use(middleware.PosthogMiddleware(posthogClient))

	if err := r.SetTrustedProxies(nil); err != nil {
		logger.Error("Failed to set trusted proxies", slog.String("error", err.Error()))
		os.Exit(1)
	}

	handlers.RegisterRoutes(r, cfg, serviceContainer)

	if cfg.SchedulerEnabled {
		scheduler := startPayoutScheduler(cfg, serviceContainer.Batch, logger)
		defer scheduler.Stop()
	}

	logger.Info("Server starting", slog.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Error("Server failed to run", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

// runMigrations applies all pending "up" migrations before the server accepts
// traffic. It opens a temporary database/sql connection via the pgx stdlib
// driver so it stays compatible with the main pool.
func runMigrations(cfg *config.Config, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	migrationDB, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := migrationDB.Close(); cerr != nil {
			logger.Error("Error closing migration DB connection", slog.String("error", cerr.Error()))
		}
	}()
	if err := migrationDB.Ping(); err != nil {
		return err
	}

	driver, err := postgres.WithInstance(migrationDB, &postgres.Config{})
	if err != nil {
		return err
	}

	m, err := migrate.NewWithDatabaseInstance("file://migrations", "postgres", driver)
	if err != nil {
		return err
	}

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		return err
	}

	sourceErr, dbErr := m.Close()
	if sourceErr != nil {
		return sourceErr
	}
	if dbErr != nil {
		return dbErr
	}

	if err == migrate.ErrNoChange {
		logger.Info("No new migrations to apply.")
	} else {
		logger.Info("Database migrations applied successfully.")
	}
	return nil
}

// startPayoutScheduler runs the payout batch on the configured cron spec. A
// run that fails is only logged; the next tick starts fresh.
func startPayoutScheduler(cfg *config.Config, batch portssvc.BatchPayoutSvc, logger *slog.Logger) *cron.Cron {
	scheduler := cron.New()

	batchLogger := logger.With(slog.String("component", "payout_scheduler"))
	_, err := scheduler.AddFunc(cfg.SchedulerCronSpec, func() {
		ctx := middleware.ContextWithLogger(context.Background(), batchLogger)

		report, err := batch.RunScheduledPayouts(ctx, time.Now().UTC())
		if err != nil {
			batchLogger.Error("Scheduled payout run failed", slog.String("error", err.Error()))
			return
		}
		batchLogger.Info("Scheduled payout run finished",
			slog.Int("processed", report.Processed),
			slog.Int("succeeded", report.Succeeded),
			slog.Int("failed", report.Failed),
			slog.Int("skipped", report.Skipped),
		)
	})
	if err != nil {
		batchLogger.Error("Invalid cron spec, scheduler disabled",
			slog.String("spec", cfg.SchedulerCronSpec), slog.String("error", err.Error()))
		return scheduler
	}

	scheduler.Start()
	batchLogger.Info("Payout scheduler started", slog.String("spec", cfg.SchedulerCronSpec))
	return scheduler
}
