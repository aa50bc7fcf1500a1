package audit_relay

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/contribution-ledger/internal/config"
	"github.com/contribution-ledger/internal/domain/outbox"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// Relay moves staged audit records from the outbox to the audit sink
type Relay struct {
	db               persistence.TxRunner
	outboxRepo       outbox.Repository
	publisher        AuditPublisher
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

func NewRelay(
	cfg *config.OutboxConfig,
	db persistence.TxRunner,
	outboxRepo outbox.Repository,
	publisher AuditPublisher,
	logger *slog.Logger,
) *Relay {
	return &Relay{
		db:               db,
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (r *Relay) Start(ctx context.Context) {
	r.logger.Info("Starting audit relay",
		"poll_interval", r.pollInterval.String(),
		"batch_size", r.batchSize,
		"max_retry_attempts", r.maxRetryAttempts,
	)
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Audit relay stopping due to context cancellation.")
			return
		case <-ticker.C:
			if _, err := r.ProcessPending(ctx); err != nil {
				r.logger.Error("Error during batch processing of pending audit records", "error", err)
			}
		}
	}
}

// ProcessPending delivers one batch and returns the number of records delivered.
// Rows are claimed with SKIP LOCKED, so several relays can run side by side.
func (r *Relay) ProcessPending(ctx context.Context) (int, error) {
	delivered := 0
	err := r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		repo := r.outboxRepo.WithTx(tx)

		messages, err := repo.GetPending(ctx, r.batchSize)
		if err != nil {
			return fmt.Errorf("failed to get pending outbox messages: %w", err)
		}
		if len(messages) == 0 {
			r.logger.Debug("No pending audit records found.")
			return nil
		}

		r.logger.Info("Fetched pending audit records", "count", len(messages))
		for _, msg := range messages {
			ok, err := r.deliver(ctx, repo, msg)
			if err != nil {
				return err
			}
			if ok {
				delivered++
			}
		}
		return nil
	})
	return delivered, err
}

// deliver returns an error only when the outbox row itself could not be updated
func (r *Relay) deliver(ctx context.Context, repo outbox.Repository, msg *outbox.Message) (bool, error) {
	record, err := msg.GetAuditRecord()
	if err != nil {
		r.logger.Error("Undecodable audit outbox payload, marking as FAILED_TO_PUBLISH",
			"outbox_id", msg.ID, "audit_id", msg.AuditID.String(), "error", err,
		)
		if errUpdate := repo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
			return false, fmt.Errorf("failed to mark outbox %d as FAILED_TO_PUBLISH: %w", msg.ID, errUpdate)
		}
		msg.MarkAsFailed()
		return false, nil
	}

	logger := r.logger
	if record.CorrelationID != "" {
		logger = r.logger.With("correlation_id", record.CorrelationID)
	}

	if err := r.publisher.Publish(ctx, record); err != nil {
		logger.Warn("Failed to deliver audit record",
			"outbox_id", msg.ID, "audit_id", msg.AuditID.String(), "current_attempts", msg.Attempts, "error", err,
		)
		if errInc := repo.IncrementAttempts(ctx, msg.ID, err.Error()); errInc != nil {
			return false, fmt.Errorf("failed to increment attempts for outbox %d: %w", msg.ID, errInc)
		}
		msg.IncrementAttempts(err)

		if msg.Attempts >= r.maxRetryAttempts {
			logger.Error("Audit record undeliverable after max retry attempts, marking as FAILED_TO_PUBLISH",
				"outbox_id", msg.ID,
				"audit_id", msg.AuditID.String(),
				"action", string(msg.Action),
				"attempts_made", msg.Attempts,
				"last_error", msg.LastError,
			)
			if errUpdate := repo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); errUpdate != nil {
				return false, fmt.Errorf("failed to mark outbox %d as FAILED_TO_PUBLISH: %w", msg.ID, errUpdate)
			}
			msg.MarkAsFailed()
		}
		return false, nil
	}

	if err := repo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusProcessed); err != nil {
		return false, fmt.Errorf("audit record %s delivered, but failed to mark outbox %d as PROCESSED: %w",
			msg.AuditID.String(), msg.ID, err)
	}
	msg.MarkAsProcessed()

	logger.Info("Audit record delivered and marked as PROCESSED", "outbox_id", msg.ID, "audit_id", msg.AuditID.String())
	return true, nil
}
