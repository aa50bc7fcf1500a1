package servicetype

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// Repository defines service type persistence operations. Service types
// are deactivated, never deleted, so historical entries keep a valid code.
type Repository interface {
	Create(ctx context.Context, serviceType *ServiceType) error
	GetByCode(ctx context.Context, code string) (*ServiceType, error)
	Deactivate(ctx context.Context, code string) error
	ListActive(ctx context.Context) ([]*ServiceType, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrDuplicateCode indicates code uniqueness violation
type ErrDuplicateCode struct {
	Code string
}

func (e ErrDuplicateCode) Error() string {
	return "service type already exists: " + e.Code
}

// ErrUnknownCode indicates a registry operation on a code that was never registered
type ErrUnknownCode struct {
	Code string
}

func (e ErrUnknownCode) Error() string {
	return "service type not found: " + e.Code
}

// ErrUnknownServiceType indicates a payment referenced a code that is missing or inactive
type ErrUnknownServiceType struct {
	Code string
}

func (e ErrUnknownServiceType) Error() string {
	return "unknown or inactive service type: " + e.Code
}
