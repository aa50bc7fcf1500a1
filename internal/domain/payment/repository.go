package payment

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

// Appender is the only write path to payment entries. Entries are never
// updated or deleted, so no such operation exists on any repository type.
type Appender interface {
	Insert(ctx context.Context, entry *Entry) error
}

// Reader exposes read access to payment entries
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	GetByIdempotencyKey(ctx context.Context, key string) (*Entry, error)
	ListLineage(ctx context.Context, rootID uuid.UUID) ([]*Entry, error)
	SumLineage(ctx context.Context, rootID uuid.UUID) (decimal.Decimal, error)
	List(ctx context.Context, filter Filter, page PageRequest) ([]*Entry, error)

	// Stream visits every entry matching filter in query order
	Stream(ctx context.Context, filter Filter, fn func(*Entry) error) error
}

// Repository combines append and read access with transactional scoping
type Repository interface {
	Appender
	Reader

	// LockLineage serializes corrections of one lineage for the rest of the transaction
	LockLineage(ctx context.Context, rootID uuid.UUID) error
	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates missing payment entry
type ErrEntryNotFound struct {
	ID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "payment entry not found: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// If the target ID is empty, consider it a match for any ErrEntryNotFound
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}

// ErrOriginalNotFound indicates the target of a correction does not exist
type ErrOriginalNotFound struct {
	ID uuid.UUID
}

func (e ErrOriginalNotFound) Error() string {
	return "original payment entry not found: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrOriginalNotFound
func (e ErrOriginalNotFound) Is(target error) bool {
	t, ok := target.(ErrOriginalNotFound)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}

// ErrDuplicateIdempotencyKey indicates an entry was already recorded under the key
type ErrDuplicateIdempotencyKey struct {
	Key string
}

func (e ErrDuplicateIdempotencyKey) Error() string {
	return "payment entry already recorded for idempotency key: " + e.Key
}
