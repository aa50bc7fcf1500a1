package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/contribution-ledger/internal/config"
	"github.com/contribution-ledger/internal/data/mongo"
	"github.com/contribution-ledger/internal/data/postgres"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/contribution-ledger/internal/ledger_worker/audit_relay"
	"github.com/contribution-ledger/internal/ledger_worker/intake"
	"github.com/contribution-ledger/internal/ledger_worker/scheduler"
	"github.com/contribution-ledger/internal/logger"
	"github.com/contribution-ledger/internal/platform/messaging/consumers"
	"github.com/contribution-ledger/internal/platform/messaging/producers"
	"github.com/contribution-ledger/internal/platform/persistence"
	"github.com/facebookgo/clock"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("ledger_worker")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Ledger Worker",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
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

	// Initialize Kafka producers
	auditEvents, err := producers.NewAuditEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize audit event Kafka producer", "error", err)
		os.Exit(1)
	}

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// A disabled DLQ must reach the handler as a nil interface, not a typed nil
	var deadLetters producers.DeadLetterPublisher
	if dlqProducer != nil {
		deadLetters = dlqProducer
	}

	// Initialize ledger services
	clk := clock.New()
	settings := service.NewSettings(&cfg.Ledger)
	paymentService := service.NewPaymentService(postgresDB, paymentRepo, dayLockRepo, serviceTypeRepo, outboxRepo, clk, settings, log)
	dayLockService := service.NewDayLockService(postgresDB, dayLockRepo, outboxRepo, clk, settings, log)

	// Day-close scheduler
	dayCloser, err := scheduler.NewDayCloser(&cfg.Scheduler, settings.Location, dayLockService, clk, log)
	if err != nil {
		log.Error("Failed to initialize day close scheduler", "error", err)
		os.Exit(1)
	}

	// Audit relay
	relay := audit_relay.NewRelay(
		&cfg.Outbox,
		postgresDB,
		outboxRepo,
		audit_relay.NewSinkPublisher(auditRepo, auditEvents, log),
		log,
	)

	// Payment intake
	pooledProcessor, err := intake.NewPooledProcessor(
		intake.NewRecordingProcessor(paymentService, log),
		&cfg.WorkerPool,
		log,
	)
	if err != nil {
		log.Error("Failed to initialize intake worker pool", "error", err)
		os.Exit(1)
	}
	requestHandler := intake.NewPaymentRequestHandler(log, pooledProcessor, deadLetters)
	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	// Create error channel for service errors
	errChan := make(chan error, 1)

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting day close scheduler",
			"schedule", cfg.Scheduler.DayCloseSchedule,
			"timezone", cfg.Ledger.Timezone,
		)
		dayCloser.Start(appCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting audit relay",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		relay.Start(appCtx)
	}()

	log.Info("Starting Kafka consumer",
		"topic", cfg.Kafka.IntakeTopic,
		"group", cfg.Kafka.ConsumerGroup,
	)
	if err := kafkaConsumer.Subscribe(appCtx, requestHandler.HandleMessage); err != nil {
		errChan <- fmt.Errorf("kafka consumer error: %w", err)
	}

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")

	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		<-kafkaConsumer.Done()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	log.Info("Shutting down intake worker pool", "running_workers", pooledProcessor.Running())
	pooledProcessor.Shutdown()

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	if dlqProducer != nil {
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = auditEvents.Close(); err != nil {
		log.Error("Error closing audit event Kafka producer", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serviceErr != nil {
		log.Error("Ledger Worker shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Ledger Worker shutdown completed with errors")
	} else {
		log.Info("Ledger Worker shutdown completed successfully")
	}
}
