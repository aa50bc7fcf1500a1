package service

import (
	"context"
	"errors"
	"time"

	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/servicetype"
)

// ensureDayWritable holds the date's advisory lock in shared mode for the rest
// of the transaction and fails with ErrDayLocked if the day is locked. A
// concurrent Lock on the same date waits for this transaction to finish.
func ensureDayWritable(ctx context.Context, locks daylock.Repository, date time.Time) error {
	if err := locks.AcquireShared(ctx, date); err != nil {
		return err
	}

	lock, err := locks.GetByDate(ctx, date)
	if err != nil {
		if errors.As(err, &daylock.ErrLockNotFound{}) {
			return nil
		}
		return err
	}

	return lock.CheckWritable()
}

// ensureServiceTypeActive fails with ErrUnknownServiceType unless code names an active service type
func ensureServiceTypeActive(ctx context.Context, serviceTypes servicetype.Repository, code string) error {
	st, err := serviceTypes.GetByCode(ctx, code)
	if err != nil {
		if errors.As(err, &servicetype.ErrUnknownCode{}) {
			return servicetype.ErrUnknownServiceType{Code: code}
		}
		return err
	}
	if !st.Active {
		return servicetype.ErrUnknownServiceType{Code: code}
	}
	return nil
}
