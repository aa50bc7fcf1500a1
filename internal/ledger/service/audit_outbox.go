package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/outbox"
	"github.com/jackc/pgx/v5"
)

// auditOutbox stages audit records in the writing transaction. The worker's
// audit relay delivers them to the audit sink after commit.
type auditOutbox struct {
	outboxRepo outbox.Repository
	logger     *slog.Logger
}

func newAuditOutbox(outboxRepo outbox.Repository, logger *slog.Logger) *auditOutbox {
	return &auditOutbox{
		outboxRepo: outboxRepo,
		logger:     logger,
	}
}

func (o *auditOutbox) write(ctx context.Context, tx pgx.Tx, record *audit.Record, correlationID string) error {
	record.WithCorrelationID(correlationID)

	message, err := outbox.NewMessage(record)
	if err != nil {
		o.logger.Error("Failed to create audit outbox message (marshal payload)",
			"audit_id", record.ID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create audit outbox payload for %s: %w", record.ID.String(), err)
	}

	if err := o.outboxRepo.WithTx(tx).Create(ctx, message); err != nil {
		return fmt.Errorf("failed to stage audit record %s: %w", record.ID.String(), err)
	}

	o.logger.Debug("Audit record staged",
		"audit_id", record.ID.String(),
		"action", string(record.Action),
		"subject_id", record.SubjectID,
		"correlation_id", correlationID,
	)
	return nil
}
