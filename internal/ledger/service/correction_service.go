package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/outbox"
	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/platform/persistence"
	"github.com/facebookgo/clock"
	"github.com/jackc/pgx/v5"
)

// CorrectionServiceImpl implements the CorrectionService interface
type CorrectionServiceImpl struct {
	db          persistence.TxRunner
	paymentRepo payment.Repository
	dayLockRepo daylock.Repository
	auditOutbox *auditOutbox
	clock       clock.Clock
	settings    Settings
	logger      *slog.Logger
}

// NewCorrectionService creates a new correction service
func NewCorrectionService(
	db persistence.TxRunner,
	paymentRepo payment.Repository,
	dayLockRepo daylock.Repository,
	outboxRepo outbox.Repository,
	clk clock.Clock,
	settings Settings,
	logger *slog.Logger,
) CorrectionService {
	return &CorrectionServiceImpl{
		db:          db,
		paymentRepo: paymentRepo,
		dayLockRepo: dayLockRepo,
		auditOutbox: newAuditOutbox(outboxRepo, logger),
		clock:       clk,
		settings:    settings,
		logger:      logger,
	}
}

// Correct appends an adjustment so the target's lineage sums to cmd.NewAmount.
// The lineage root row stays locked until commit, so concurrent corrections of
// the same lineage observe each other's deltas.
func (s *CorrectionServiceImpl) Correct(ctx context.Context, cmd CorrectPayment) (*CorrectionResult, error) {
	if strings.TrimSpace(cmd.Reason) == "" {
		return nil, payment.ErrEmptyReason
	}
	if err := payment.ValidateNewAmount(cmd.NewAmount); err != nil {
		return nil, err
	}
	if cmd.ActorRef == "" {
		return nil, audit.ErrEmptyActor
	}

	postedDate := s.settings.today(s.clock)
	if cmd.PostedDate != nil {
		postedDate = *cmd.PostedDate
	}

	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	var result *CorrectionResult
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		payments := s.paymentRepo.WithTx(tx)

		target, err := payments.GetByID(ctx, cmd.TargetID)
		if err != nil {
			if errors.As(err, &payment.ErrEntryNotFound{}) {
				return payment.ErrOriginalNotFound{ID: cmd.TargetID}
			}
			return err
		}

		if err := payments.LockLineage(ctx, target.RootID); err != nil {
			return err
		}

		current, err := payments.SumLineage(ctx, target.RootID)
		if err != nil {
			return err
		}

		correction, err := payment.NewCorrection(target, cmd.NewAmount.Sub(current), postedDate, cmd.Reason)
		if err != nil {
			return err
		}
		correction.ActorRef = cmd.ActorRef
		correction.CreatedAt = s.clock.Now().UTC()

		if err := ensureDayWritable(ctx, s.dayLockRepo.WithTx(tx), correction.PostedDate); err != nil {
			return err
		}
		if err := payments.Insert(ctx, correction); err != nil {
			return err
		}

		record, err := audit.PaymentCorrected(correction, target, cmd.NewAmount, cmd.ActorRef)
		if err != nil {
			return err
		}
		if err := s.auditOutbox.write(ctx, tx, record, cmd.CorrelationID); err != nil {
			return err
		}

		result = &CorrectionResult{
			Correction:     correction,
			Target:         target,
			PreviousValue:  current,
			EffectiveValue: current.Add(correction.Amount),
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Payment corrected",
		"correction_id", result.Correction.ID.String(),
		"target_id", result.Target.ID.String(),
		"root_id", result.Correction.RootID.String(),
		"previous_value", result.PreviousValue.StringFixed(payment.AmountScale),
		"effective_value", result.EffectiveValue.StringFixed(payment.AmountScale),
		"actor", cmd.ActorRef,
		"correlation_id", cmd.CorrelationID,
	)
	return result, nil
}
