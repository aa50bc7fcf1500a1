package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/outbox"
	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/servicetype"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/platform/pagination"
	"github.com/contribution-ledger/internal/platform/persistence"
	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// PaymentServiceImpl implements the PaymentService interface
type PaymentServiceImpl struct {
	db              persistence.TxRunner
	paymentRepo     payment.Repository
	dayLockRepo     daylock.Repository
	serviceTypeRepo servicetype.Repository
	auditOutbox     *auditOutbox
	clock           clock.Clock
	settings        Settings
	logger          *slog.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	db persistence.TxRunner,
	paymentRepo payment.Repository,
	dayLockRepo daylock.Repository,
	serviceTypeRepo servicetype.Repository,
	outboxRepo outbox.Repository,
	clk clock.Clock,
	settings Settings,
	logger *slog.Logger,
) PaymentService {
	return &PaymentServiceImpl{
		db:              db,
		paymentRepo:     paymentRepo,
		dayLockRepo:     dayLockRepo,
		serviceTypeRepo: serviceTypeRepo,
		auditOutbox:     newAuditOutbox(outboxRepo, logger),
		clock:           clk,
		settings:        settings,
		logger:          logger,
	}
}

// Record validates and appends a payment entry together with its audit record
func (s *PaymentServiceImpl) Record(ctx context.Context, cmd RecordPayment) (*payment.Entry, bool, error) {
	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	if cmd.ActorRef == "" {
		return nil, false, audit.ErrEmptyActor
	}

	postedDate := s.settings.today(s.clock)
	if cmd.PostedDate != nil {
		postedDate = *cmd.PostedDate
	}

	entry, err := payment.NewEntry(cmd.PayerRef, cmd.Amount, servicetype.NormalizeCode(cmd.ServiceType), cmd.Method, postedDate, cmd.Memo)
	if err != nil {
		return nil, false, err
	}
	if err := entry.SetIdempotencyKey(cmd.IdempotencyKey); err != nil {
		return nil, false, err
	}
	entry.ActorRef = cmd.ActorRef
	entry.CreatedAt = s.clock.Now().UTC()

	if cmd.IdempotencyKey != "" {
		existing, err := s.paymentRepo.GetByIdempotencyKey(ctx, cmd.IdempotencyKey)
		if err != nil {
			return nil, false, err
		}
		if existing != nil {
			s.logger.Info("Idempotent replay of payment",
				"entry_id", existing.ID.String(),
				"idempotency_key", cmd.IdempotencyKey,
			)
			return existing, false, nil
		}
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := ensureDayWritable(ctx, s.dayLockRepo.WithTx(tx), entry.PostedDate); err != nil {
			return err
		}
		if err := ensureServiceTypeActive(ctx, s.serviceTypeRepo.WithTx(tx), entry.ServiceType); err != nil {
			return err
		}
		if err := s.paymentRepo.WithTx(tx).Insert(ctx, entry); err != nil {
			return err
		}

		record, err := audit.PaymentRecorded(entry, cmd.ActorRef)
		if err != nil {
			return err
		}
		return s.auditOutbox.write(ctx, tx, record, cmd.CorrelationID)
	})
	if err != nil {
		// A concurrent request with the same key won the insert
		if errors.As(err, &payment.ErrDuplicateIdempotencyKey{}) {
			existing, getErr := s.paymentRepo.GetByIdempotencyKey(ctx, cmd.IdempotencyKey)
			if getErr == nil && existing != nil {
				return existing, false, nil
			}
		}
		return nil, false, err
	}

	s.logger.Info("Payment recorded",
		"entry_id", entry.ID.String(),
		"posted_date", shared.FormatDate(entry.PostedDate),
		"service_type", entry.ServiceType,
		"actor", entry.ActorRef,
		"correlation_id", cmd.CorrelationID,
	)
	return entry, true, nil
}

// Get retrieves an entry by its ID, returns ErrEntryNotFound if not found
func (s *PaymentServiceImpl) Get(ctx context.Context, id uuid.UUID) (*payment.Entry, error) {
	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	return s.paymentRepo.GetByID(ctx, id)
}

// Query returns one page of matching entries. The next page token encodes the
// last returned entry's position, so pages stay stable while entries are appended.
func (s *PaymentServiceImpl) Query(ctx context.Context, filter payment.Filter, pageToken string, pageSize int) (*PaymentPage, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}

	page := payment.PageRequest{}
	if pageToken != "" {
		pos, err := pagination.DecodeToken(pageToken)
		if err != nil {
			return nil, err
		}
		page.After = &payment.Cursor{PostedDate: pos.PostedDate, CreatedAt: pos.CreatedAt, ID: pos.ID}
	}

	size := s.settings.pageSize(pageSize)
	page.Limit = size + 1

	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	entries, err := s.paymentRepo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}

	result := &PaymentPage{Entries: entries}
	if len(entries) > size {
		result.Entries = entries[:size]
		last := payment.CursorOf(result.Entries[size-1])
		result.NextPageToken = pagination.EncodeToken(pagination.Position{
			PostedDate: last.PostedDate,
			CreatedAt:  last.CreatedAt,
			ID:         last.ID,
		})
	}
	return result, nil
}

// Summarize aggregates matching entries inside a read-only snapshot
func (s *PaymentServiceImpl) Summarize(ctx context.Context, filter payment.Filter, groupBy shared.GroupBy) (*payment.Summary, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	summarizer, err := payment.NewSummarizer(groupBy)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	err = s.db.ExecuteSnapshot(ctx, func(tx pgx.Tx) error {
		return s.paymentRepo.WithTx(tx).Stream(ctx, filter, func(e *payment.Entry) error {
			summarizer.Add(e)
			return nil
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to summarize payments: %w", err)
	}

	return summarizer.Summary(), nil
}

// Lineage resolves the lineage of any of its members
func (s *PaymentServiceImpl) Lineage(ctx context.Context, id uuid.UUID) (*payment.Lineage, error) {
	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	entry, err := s.paymentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	entries, err := s.paymentRepo.ListLineage(ctx, entry.RootID)
	if err != nil {
		return nil, err
	}

	return payment.NewLineage(entry.RootID, entries)
}
