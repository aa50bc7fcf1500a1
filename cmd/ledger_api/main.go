package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/contribution-ledger/internal/config"
	"github.com/contribution-ledger/internal/data/mongo"
	"github.com/contribution-ledger/internal/data/postgres"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/contribution-ledger/internal/ledger_api"
	"github.com/contribution-ledger/internal/logger"
	"github.com/contribution-ledger/internal/platform/persistence"
	"github.com/facebookgo/clock"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ledger_api")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"ledger_timezone", cfg.Ledger.Timezone,
	)

	// Initialize databases with app context; migrations run before the pool opens
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	paymentRepo := postgres.NewPaymentRepository(log, postgresDB)
	dayLockRepo := postgres.NewDayLockRepository(log, postgresDB)
	serviceTypeRepo := postgres.NewServiceTypeRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	if err := auditRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure audit indexes", "error", err)
		os.Exit(1)
	}

	// Initialize services
	clk := clock.New()
	settings := service.NewSettings(&cfg.Ledger)

	services := ledger_api.Services{
		Payments:     service.NewPaymentService(postgresDB, paymentRepo, dayLockRepo, serviceTypeRepo, outboxRepo, clk, settings, log),
		Corrections:  service.NewCorrectionService(postgresDB, paymentRepo, dayLockRepo, outboxRepo, clk, settings, log),
		DayLocks:     service.NewDayLockService(postgresDB, dayLockRepo, outboxRepo, clk, settings, log),
		ServiceTypes: service.NewServiceTypeService(serviceTypeRepo, clk, settings, log),
		Exports:      service.NewExportService(postgresDB, paymentRepo, log),
		Audit:        service.NewAuditQueryService(auditRepo, settings),
	}

	// Initialize REST server
	server, err := ledger_api.NewServer(log, cfg, services, ledger_api.HealthChecks{
		Postgres: postgresDB,
		Mongo:    mongoDB,
		Outbox:   outboxRepo,
	})
	if err != nil {
		log.Error("Failed to initialize REST server", "error", err)
		os.Exit(1)
	}
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before closing the stores they use
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
