package daylock

import (
	"context"
	"time"

	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/jackc/pgx/v5"
)

// Repository manages day lock persistence. The Acquire methods take a
// transaction-scoped lock on the date; writers posting to a day hold it
// shared while lock and unlock hold it exclusively.
type Repository interface {
	AcquireShared(ctx context.Context, date time.Time) error
	AcquireExclusive(ctx context.Context, date time.Time) error
	GetByDate(ctx context.Context, date time.Time) (*DayLock, error)
	Save(ctx context.Context, lock *DayLock) error
	ListLocked(ctx context.Context, from, to time.Time) ([]*DayLock, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrLockNotFound indicates no lock row exists for the date
type ErrLockNotFound struct {
	Date time.Time
}

func (e ErrLockNotFound) Error() string {
	return "no day lock recorded for " + shared.FormatDate(e.Date)
}

// ErrDayLocked indicates an entry was posted to a locked day
type ErrDayLocked struct {
	Date     time.Time
	LockedAt time.Time
}

func (e ErrDayLocked) Error() string {
	return "day " + shared.FormatDate(e.Date) + " is locked since " + e.LockedAt.Format(time.RFC3339)
}

// Is implements the errors.Is interface for ErrDayLocked
func (e ErrDayLocked) Is(target error) bool {
	t, ok := target.(ErrDayLocked)
	if !ok {
		return false
	}
	if t.Date.IsZero() {
		return true
	}
	return e.Date.Equal(t.Date)
}

// ErrAlreadyLocked indicates a lock was requested on a locked day
type ErrAlreadyLocked struct {
	Date     time.Time
	LockedAt time.Time
}

func (e ErrAlreadyLocked) Error() string {
	return "day " + shared.FormatDate(e.Date) + " is already locked"
}

// Is implements the errors.Is interface for ErrAlreadyLocked
func (e ErrAlreadyLocked) Is(target error) bool {
	t, ok := target.(ErrAlreadyLocked)
	if !ok {
		return false
	}
	if t.Date.IsZero() {
		return true
	}
	return e.Date.Equal(t.Date)
}

// ErrNotLocked indicates an unlock was requested on a day that is not locked
type ErrNotLocked struct {
	Date time.Time
}

func (e ErrNotLocked) Error() string {
	return "day " + shared.FormatDate(e.Date) + " is not locked"
}

// Is implements the errors.Is interface for ErrNotLocked
func (e ErrNotLocked) Is(target error) bool {
	t, ok := target.(ErrNotLocked)
	if !ok {
		return false
	}
	if t.Date.IsZero() {
		return true
	}
	return e.Date.Equal(t.Date)
}
