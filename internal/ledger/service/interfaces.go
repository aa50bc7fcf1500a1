package service

import (
	"context"
	"io"
	"time"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/servicetype"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// PaymentService defines the ledger store operations
type PaymentService interface {
	// Record appends a new payment entry. The returned flag is false when an
	// entry already recorded under the same idempotency key is returned instead.
	// Returns ErrDayLocked if the posted date is locked and ErrUnknownServiceType
	// if the service type is missing or inactive.
	Record(ctx context.Context, cmd RecordPayment) (*payment.Entry, bool, error)

	// Get retrieves an entry by its ID
	// Returns ErrEntryNotFound if the entry doesn't exist
	Get(ctx context.Context, id uuid.UUID) (*payment.Entry, error)

	// Query returns one page of entries ordered by posted date then creation time, newest first
	Query(ctx context.Context, filter payment.Filter, pageToken string, pageSize int) (*PaymentPage, error)

	// Summarize aggregates the entries matching filter from one consistent snapshot
	Summarize(ctx context.Context, filter payment.Filter, groupBy shared.GroupBy) (*payment.Summary, error)

	// Lineage resolves any member of a lineage to the whole lineage and its effective value
	Lineage(ctx context.Context, id uuid.UUID) (*payment.Lineage, error)
}

// CorrectionService defines the correction engine
type CorrectionService interface {
	// Correct appends an adjustment entry bringing the target's lineage to NewAmount.
	// Returns ErrOriginalNotFound, ErrEmptyReason, ErrNoChange or ErrDayLocked.
	Correct(ctx context.Context, cmd CorrectPayment) (*CorrectionResult, error)
}

// DayLockService defines the day lock manager
type DayLockService interface {
	IsLocked(ctx context.Context, date time.Time) (bool, error)

	// Status returns the day's lock row, or the implicit unlocked state when none exists
	Status(ctx context.Context, date time.Time) (*daylock.DayLock, error)

	// Lock returns ErrAlreadyLocked if the day is locked
	Lock(ctx context.Context, cmd LockDay) (*daylock.DayLock, error)

	// Unlock returns ErrMissingJustification or ErrNotLocked
	Unlock(ctx context.Context, cmd UnlockDay) (*daylock.DayLock, error)

	// ListLocked returns the locked days within [from, to]
	ListLocked(ctx context.Context, from, to time.Time) ([]*daylock.DayLock, error)
}

// ServiceTypeService defines the service type registry
type ServiceTypeService interface {
	// Register returns ErrDuplicateCode if the code is taken
	Register(ctx context.Context, code, label string) (*servicetype.ServiceType, error)

	// Deactivate returns ErrUnknownCode if the code was never registered
	Deactivate(ctx context.Context, code string) error

	ListActive(ctx context.Context) ([]*servicetype.ServiceType, error)
}

// ExportService defines the reconciliation export
type ExportService interface {
	// Export visits every entry matching filter in query order from one consistent snapshot
	Export(ctx context.Context, filter payment.Filter, fn func(*payment.Entry) error) error

	// WriteCSV renders the export as CSV with a header row and returns the number of entries written
	WriteCSV(ctx context.Context, filter payment.Filter, w io.Writer) (int, error)
}

// AuditQueryService reads the audit sink
type AuditQueryService interface {
	Get(ctx context.Context, id uuid.UUID) (*audit.Record, error)
	ListBySubject(ctx context.Context, subjectType shared.SubjectType, subjectID string, page, perPage int) ([]*audit.Record, error)
}
