package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/gin-gonic/gin"
)

// Pinger checks that a backing store is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingFunc adapts a function to the Pinger interface
type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error { return f(ctx) }

// OutboxCounter reports audit outbox backlog
type OutboxCounter interface {
	CountByStatus(ctx context.Context, status shared.OutboxStatus) (int64, error)
}

// HealthHandler reports liveness of the API and its stores
type HealthHandler struct {
	postgres Pinger
	mongo    Pinger
	outbox   OutboxCounter
	timeout  time.Duration
	logger   *slog.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(logger *slog.Logger, postgres, mongo Pinger, outbox OutboxCounter) *HealthHandler {
	return &HealthHandler{
		postgres: postgres,
		mongo:    mongo,
		outbox:   outbox,
		timeout:  2 * time.Second,
		logger:   logger,
	}
}

// Check pings every store. Undeliverable audit messages are reported but do not fail the check.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}

	for name, pinger := range map[string]Pinger{"postgres": h.postgres, "mongodb": h.mongo} {
		if err := pinger.Ping(ctx); err != nil {
			h.logger.Error("Health check failed", "store", name, "error", err)
			checks[name] = "DOWN"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "UP"
	}

	failed, err := h.outbox.CountByStatus(ctx, shared.OutboxStatusFailedToPublish)
	if err != nil {
		h.logger.Warn("Failed to count undeliverable audit messages", "error", err)
		failed = -1
	}

	overall := "UP"
	if status != http.StatusOK {
		overall = "DOWN"
	}
	c.JSON(status, gin.H{
		"status":                overall,
		"checks":                checks,
		"audit_outbox_failures": failed,
	})
}
