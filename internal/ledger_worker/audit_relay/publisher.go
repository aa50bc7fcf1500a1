package audit_relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/platform/messaging/producers"
)

// AuditPublisher delivers an audit record to the audit sink
type AuditPublisher interface {
	Publish(ctx context.Context, record *audit.Record) error
}

// SinkPublisher appends records to the audit store and announces them on the audit topic
type SinkPublisher struct {
	auditRepo audit.Repository
	events    producers.MessagePublisher
	logger    *slog.Logger
}

// NewSinkPublisher creates a new publisher. events may be nil to skip the topic.
func NewSinkPublisher(
	auditRepo audit.Repository,
	events producers.MessagePublisher,
	logger *slog.Logger,
) AuditPublisher {
	return &SinkPublisher{
		auditRepo: auditRepo,
		events:    events,
		logger:    logger,
	}
}

// Publish is safe to repeat: a record already in the store is not appended
// again, and the event is re-sent.
func (p *SinkPublisher) Publish(ctx context.Context, record *audit.Record) error {
	logger := p.logger
	if record.CorrelationID != "" {
		logger = p.logger.With("correlation_id", record.CorrelationID)
	}

	if err := p.auditRepo.Append(ctx, record); err != nil {
		if !errors.Is(err, audit.ErrDuplicateRecord{}) {
			logger.Error("Failed to append audit record", "audit_id", record.ID.String(), "error", err)
			return fmt.Errorf("failed to append audit record %s: %w", record.ID.String(), err)
		}
		logger.Info("Audit record already stored", "audit_id", record.ID.String())
	}

	if p.events == nil {
		return nil
	}

	key := string(record.SubjectType) + ":" + record.SubjectID
	if err := p.events.Publish(ctx, key, record); err != nil {
		logger.Error("Failed to publish audit event", "audit_id", record.ID.String(), "error", err)
		return fmt.Errorf("failed to publish audit event %s: %w", record.ID.String(), err)
	}

	logger.Debug("Audit record delivered",
		"audit_id", record.ID.String(),
		"action", string(record.Action),
		"subject_id", record.SubjectID,
	)
	return nil
}
