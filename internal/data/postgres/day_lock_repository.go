package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// dayLockKeyPrefix namespaces the advisory lock keys derived from dates
const dayLockKeyPrefix = "day_lock:"

const dayLockColumns = `lock_date, locked, locked_at, locked_by, unlock_justification, unlocked_by, unlocked_at, updated_at`

// DayLockRepository implements the daylock.Repository interface for PostgreSQL
type DayLockRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewDayLockRepository creates a new PostgreSQL day lock repository
func NewDayLockRepository(logger *slog.Logger, db *persistence.PostgresDB) daylock.Repository {
	return &DayLockRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *DayLockRepository) WithTx(tx pgx.Tx) daylock.Repository {
	return &DayLockRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// AcquireShared takes the date's advisory lock in shared mode until the
// transaction ends. Concurrent writers to the same day do not block each other.
func (r *DayLockRepository) AcquireShared(ctx context.Context, date time.Time) error {
	query := `SELECT pg_advisory_xact_lock_shared(hashtext($1))`

	if _, err := r.querier.Exec(ctx, query, dayLockKey(date)); err != nil {
		r.logger.Error("Failed to acquire shared day lock", "date", shared.FormatDate(date), "error", err)
		return fmt.Errorf("failed to acquire shared day lock: %w", err)
	}
	return nil
}

// AcquireExclusive takes the date's advisory lock exclusively until the
// transaction ends, waiting for in-flight writers to that day to finish.
func (r *DayLockRepository) AcquireExclusive(ctx context.Context, date time.Time) error {
	query := `SELECT pg_advisory_xact_lock(hashtext($1))`

	if _, err := r.querier.Exec(ctx, query, dayLockKey(date)); err != nil {
		r.logger.Error("Failed to acquire exclusive day lock", "date", shared.FormatDate(date), "error", err)
		return fmt.Errorf("failed to acquire exclusive day lock: %w", err)
	}
	return nil
}

// GetByDate retrieves the lock row for a date
func (r *DayLockRepository) GetByDate(ctx context.Context, date time.Time) (*daylock.DayLock, error) {
	query := `SELECT ` + dayLockColumns + `
		FROM day_locks
		WHERE lock_date = $1
	`

	lock, err := scanDayLock(r.querier.QueryRow(ctx, query, date))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, daylock.ErrLockNotFound{Date: date}
		}
		r.logger.Error("Failed to get day lock", "date", shared.FormatDate(date), "error", err)
		return nil, fmt.Errorf("failed to get day lock: %w", err)
	}

	return lock, nil
}

// Save inserts or replaces the lock row for the date. The primary key on
// lock_date keeps a single row per day.
func (r *DayLockRepository) Save(ctx context.Context, lock *daylock.DayLock) error {
	query := `
		INSERT INTO day_locks (lock_date, locked, locked_at, locked_by, unlock_justification, unlocked_by, unlocked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (lock_date) DO UPDATE
		SET locked = EXCLUDED.locked,
			locked_at = EXCLUDED.locked_at,
			locked_by = EXCLUDED.locked_by,
			unlock_justification = EXCLUDED.unlock_justification,
			unlocked_by = EXCLUDED.unlocked_by,
			unlocked_at = EXCLUDED.unlocked_at,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.querier.Exec(ctx, query,
		lock.Date,
		lock.Locked,
		lock.LockedAt,
		lock.LockedBy,
		lock.UnlockJustification,
		lock.UnlockedBy,
		lock.UnlockedAt,
		lock.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to save day lock", "date", shared.FormatDate(lock.Date), "error", err)
		return fmt.Errorf("failed to save day lock: %w", err)
	}

	return nil
}

// ListLocked returns the locked days within [from, to]
func (r *DayLockRepository) ListLocked(ctx context.Context, from, to time.Time) ([]*daylock.DayLock, error) {
	query := `SELECT ` + dayLockColumns + `
		FROM day_locks
		WHERE locked AND lock_date BETWEEN $1 AND $2
		ORDER BY lock_date ASC
	`

	rows, err := r.querier.Query(ctx, query, from, to)
	if err != nil {
		r.logger.Error("Failed to list locked days", "error", err)
		return nil, fmt.Errorf("failed to list locked days: %w", err)
	}
	defer rows.Close()

	var locks []*daylock.DayLock
	for rows.Next() {
		lock, err := scanDayLock(rows)
		if err != nil {
			r.logger.Error("Failed to scan day lock", "error", err)
			return nil, fmt.Errorf("failed to scan day lock: %w", err)
		}
		locks = append(locks, lock)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over day locks: %w", err)
	}

	return locks, nil
}

func scanDayLock(row pgx.Row) (*daylock.DayLock, error) {
	var lock daylock.DayLock
	err := row.Scan(
		&lock.Date,
		&lock.Locked,
		&lock.LockedAt,
		&lock.LockedBy,
		&lock.UnlockJustification,
		&lock.UnlockedBy,
		&lock.UnlockedAt,
		&lock.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &lock, nil
}

func dayLockKey(date time.Time) string {
	return dayLockKeyPrefix + shared.FormatDate(date)
}
