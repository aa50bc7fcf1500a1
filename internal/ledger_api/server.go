package ledger_api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/contribution-ledger/internal/config"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/contribution-ledger/internal/ledger_api/handler"
	"github.com/contribution-ledger/internal/ledger_api/middleware"
	"github.com/gin-gonic/gin"
)

// Services bundles the ledger operations exposed over HTTP
type Services struct {
	Payments     service.PaymentService
	Corrections  service.CorrectionService
	DayLocks     service.DayLockService
	ServiceTypes service.ServiceTypeService
	Exports      service.ExportService
	Audit        service.AuditQueryService
}

// HealthChecks are the stores probed by the health endpoint
type HealthChecks struct {
	Postgres handler.Pinger
	Mongo    handler.Pinger
	Outbox   handler.OutboxCounter
}

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger // For structured logging
	httpServer *http.Server // Underlying HTTP server
	httpRouter *gin.Engine  // Gin router instance
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services, checks HealthChecks) (*Server, error) {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	writeLimiter, err := middleware.NewRateLimiter(cfg.Auth.RateLimit)
	if err != nil {
		return nil, err
	}

	httpRouter := gin.New()

	setupRouter(log, httpRouter, cfg.Auth.JWTSecret, writeLimiter, handlers{
		payments:     handler.NewPaymentHandler(log, services.Payments),
		corrections:  handler.NewCorrectionHandler(log, services.Corrections),
		dayLocks:     handler.NewDayLockHandler(log, services.DayLocks),
		serviceTypes: handler.NewServiceTypeHandler(log, services.ServiceTypes),
		exports:      handler.NewExportHandler(log, services.Exports),
		audit:        handler.NewAuditHandler(log, services.Audit),
		health:       handler.NewHealthHandler(log, checks.Postgres, checks.Mongo, checks.Outbox),
	})

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}, nil
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.httpRouter
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server, waiting for in-flight requests until ctx expires
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}
	return nil
}
