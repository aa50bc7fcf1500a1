package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/outbox"
	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/platform/persistence"
	"github.com/facebookgo/clock"
	"github.com/jackc/pgx/v5"
)

// DayLockServiceImpl implements the DayLockService interface
type DayLockServiceImpl struct {
	db          persistence.TxRunner
	dayLockRepo daylock.Repository
	auditOutbox *auditOutbox
	clock       clock.Clock
	settings    Settings
	logger      *slog.Logger
}

// NewDayLockService creates a new day lock service
func NewDayLockService(
	db persistence.TxRunner,
	dayLockRepo daylock.Repository,
	outboxRepo outbox.Repository,
	clk clock.Clock,
	settings Settings,
	logger *slog.Logger,
) DayLockService {
	return &DayLockServiceImpl{
		db:          db,
		dayLockRepo: dayLockRepo,
		auditOutbox: newAuditOutbox(outboxRepo, logger),
		clock:       clk,
		settings:    settings,
		logger:      logger,
	}
}

// IsLocked reports whether writes to date are rejected
func (s *DayLockServiceImpl) IsLocked(ctx context.Context, date time.Time) (bool, error) {
	lock, err := s.Status(ctx, date)
	if err != nil {
		return false, err
	}
	return lock.Locked, nil
}

// Status returns the persisted lock state of date
func (s *DayLockServiceImpl) Status(ctx context.Context, date time.Time) (*daylock.DayLock, error) {
	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	return currentLock(ctx, s.dayLockRepo, shared.NormalizeDate(date))
}

// Lock closes date for writes. It waits for in-flight writes to the date to commit.
func (s *DayLockServiceImpl) Lock(ctx context.Context, cmd LockDay) (*daylock.DayLock, error) {
	date := shared.NormalizeDate(cmd.Date)

	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	var result *daylock.DayLock
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		locks := s.dayLockRepo.WithTx(tx)
		if err := locks.AcquireExclusive(ctx, date); err != nil {
			return err
		}

		lock, err := currentLock(ctx, locks, date)
		if err != nil {
			return err
		}
		if err := lock.Lock(cmd.ActorRef, s.clock.Now()); err != nil {
			return err
		}
		if err := locks.Save(ctx, lock); err != nil {
			return err
		}

		record, err := audit.DayLocked(lock, cmd.ActorRef)
		if err != nil {
			return err
		}
		if err := s.auditOutbox.write(ctx, tx, record, cmd.CorrelationID); err != nil {
			return err
		}

		result = lock
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Day locked",
		"date", shared.FormatDate(date),
		"actor", cmd.ActorRef,
		"correlation_id", cmd.CorrelationID,
	)
	return result, nil
}

// Unlock reopens date for writes
func (s *DayLockServiceImpl) Unlock(ctx context.Context, cmd UnlockDay) (*daylock.DayLock, error) {
	if strings.TrimSpace(cmd.Justification) == "" {
		return nil, daylock.ErrMissingJustification
	}
	date := shared.NormalizeDate(cmd.Date)

	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	var result *daylock.DayLock
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		locks := s.dayLockRepo.WithTx(tx)
		if err := locks.AcquireExclusive(ctx, date); err != nil {
			return err
		}

		lock, err := currentLock(ctx, locks, date)
		if err != nil {
			return err
		}
		if err := lock.Unlock(cmd.ActorRef, cmd.Justification, s.clock.Now()); err != nil {
			return err
		}
		if err := locks.Save(ctx, lock); err != nil {
			return err
		}

		record, err := audit.DayUnlocked(lock, cmd.ActorRef)
		if err != nil {
			return err
		}
		if err := s.auditOutbox.write(ctx, tx, record, cmd.CorrelationID); err != nil {
			return err
		}

		result = lock
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Warn("Day unlocked",
		"date", shared.FormatDate(date),
		"actor", cmd.ActorRef,
		"justification", cmd.Justification,
		"correlation_id", cmd.CorrelationID,
	)
	return result, nil
}

// ListLocked returns the locked days in [from, to]
func (s *DayLockServiceImpl) ListLocked(ctx context.Context, from, to time.Time) ([]*daylock.DayLock, error) {
	from, to = shared.NormalizeDate(from), shared.NormalizeDate(to)
	if from.After(to) {
		return nil, payment.ErrInvalidDateRange
	}

	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	return s.dayLockRepo.ListLocked(ctx, from, to)
}

func currentLock(ctx context.Context, locks daylock.Repository, date time.Time) (*daylock.DayLock, error) {
	lock, err := locks.GetByDate(ctx, date)
	if err != nil {
		if errors.As(err, &daylock.ErrLockNotFound{}) {
			return daylock.Unlocked(date), nil
		}
		return nil, err
	}
	return lock, nil
}
