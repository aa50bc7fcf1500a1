package audit

import (
	"context"

	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Repository is the audit sink. Records can be appended and read, never changed.
type Repository interface {
	Append(ctx context.Context, record *Record) error
	GetByID(ctx context.Context, id uuid.UUID) (*Record, error)
	ListBySubject(ctx context.Context, subjectType shared.SubjectType, subjectID string, limit, offset int) ([]*Record, error)
}

// ErrRecordNotFound indicates missing audit record
type ErrRecordNotFound struct {
	ID uuid.UUID
}

func (e ErrRecordNotFound) Error() string {
	return "audit record not found: " + e.ID.String()
}

// ErrDuplicateRecord indicates the record was already appended
type ErrDuplicateRecord struct {
	ID uuid.UUID
}

func (e ErrDuplicateRecord) Error() string {
	return "duplicate audit record: " + e.ID.String()
}

// Is implements the errors.Is interface for ErrDuplicateRecord
func (e ErrDuplicateRecord) Is(target error) bool {
	t, ok := target.(ErrDuplicateRecord)
	if !ok {
		return false
	}
	if t.ID == uuid.Nil {
		return true
	}
	return e.ID == t.ID
}
