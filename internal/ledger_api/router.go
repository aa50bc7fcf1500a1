package ledger_api

import (
	"log/slog"

	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/ledger_api/handler"
	"github.com/contribution-ledger/internal/ledger_api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
)

// handlers groups every HTTP handler the router mounts
type handlers struct {
	payments     *handler.PaymentHandler
	corrections  *handler.CorrectionHandler
	dayLocks     *handler.DayLockHandler
	serviceTypes *handler.ServiceTypeHandler
	exports      *handler.ExportHandler
	audit        *handler.AuditHandler
	health       *handler.HealthHandler
}

// setupRouter configures API routes and middleware for the application.
// Every /api/v1 route requires a bearer token; writes also need a capability and are rate limited.
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	jwtSecret string,
	writeLimiter *limiter.Limiter,
	h handlers,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	throttle := middleware.RateLimit(writeLimiter, logger)
	can := middleware.RequireCapability

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	v1.Use(middleware.Authenticate(jwtSecret, logger))
	{
		// Ledger store and correction engine
		payments := v1.Group("/payments")
		{
			payments.POST("", can(shared.CapabilityRecord), throttle, h.payments.Record)
			payments.GET("", h.payments.List)
			payments.GET("/summary", h.payments.Summary)
			payments.GET("/:id", h.payments.GetByID)
			payments.GET("/:id/lineage", h.payments.Lineage)
			payments.POST("/:id/corrections", can(shared.CapabilityCorrect), throttle, h.corrections.Create)
		}

		v1.GET("/exports/payments", h.exports.Payments)

		// Day lock manager
		dayLocks := v1.Group("/day-locks")
		{
			dayLocks.POST("", can(shared.CapabilityLockDay), throttle, h.dayLocks.Lock)
			dayLocks.GET("", h.dayLocks.ListLocked)
			dayLocks.GET("/:date", h.dayLocks.Status)
			dayLocks.POST("/:date/unlock", can(shared.CapabilityUnlockDay), throttle, h.dayLocks.Unlock)
		}

		// Service type registry
		serviceTypes := v1.Group("/service-types")
		{
			serviceTypes.GET("", h.serviceTypes.ListActive)
			serviceTypes.POST("", can(shared.CapabilityManageServiceTypes), throttle, h.serviceTypes.Register)
			serviceTypes.POST("/:code/deactivate", can(shared.CapabilityManageServiceTypes), throttle, h.serviceTypes.Deactivate)
		}

		auditRecords := v1.Group("/audit-records")
		{
			auditRecords.GET("", h.audit.List)
			auditRecords.GET("/:id", h.audit.GetByID)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", h.health.Check)
}
