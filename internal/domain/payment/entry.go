package payment

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Common errors
var (
	ErrInvalidAmount      = errors.New("amount must be positive")
	ErrEmptyPayerRef      = errors.New("payer reference cannot be empty")
	ErrEmptyServiceType   = errors.New("service type code cannot be empty")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrReservedMethod     = errors.New("adjustment method is reserved for corrections")
	ErrMissingPostedDate  = errors.New("posted date is required")
	ErrEmptyReason        = errors.New("correction reason cannot be empty")
	ErrNegativeNewAmount  = errors.New("new amount cannot be negative")
	ErrNoChange           = errors.New("new amount equals the current effective value")
	ErrMemoTooLong        = errors.New("memo cannot exceed 500 characters")
	ErrInvalidAmountScale = errors.New("amount cannot have more than 2 decimal places")
	ErrPayerRefTooLong    = errors.New("payer reference cannot exceed 128 characters")
	ErrIdempotencyKeyLong = errors.New("idempotency key cannot exceed 128 characters")
)

// MaxMemoLength bounds the free-text memo stored with an entry
const MaxMemoLength = 500

// MaxRefLength bounds payer references and idempotency keys
const MaxRefLength = 128

// AmountScale is the number of decimal places amounts are stored with
const AmountScale = 2

// Entry represents one immutable record of money received.
// Corrections are entries with Method ADJUSTMENT and CorrectionOf set; RootID
// identifies the original entry every member of a lineage descends from.
type Entry struct {
	ID             uuid.UUID            `json:"id"`
	RootID         uuid.UUID            `json:"root_id"`
	PayerRef       string               `json:"payer_ref"`
	Amount         decimal.Decimal      `json:"amount"`
	ServiceType    string               `json:"service_type"`
	Method         shared.PaymentMethod `json:"method"`
	PostedDate     time.Time            `json:"posted_date"`
	Memo           string               `json:"memo,omitempty"`
	CorrectionOf   *uuid.UUID           `json:"correction_of,omitempty"`
	IdempotencyKey string               `json:"idempotency_key,omitempty"`
	ActorRef       string               `json:"actor_ref"`
	CreatedAt      time.Time            `json:"created_at"`
}

// NewEntry creates an original (non-correction) payment entry
func NewEntry(payerRef string, amount decimal.Decimal, serviceType string, method shared.PaymentMethod, postedDate time.Time, memo string) (*Entry, error) {
	payerRef = strings.TrimSpace(payerRef)
	if payerRef == "" {
		return nil, ErrEmptyPayerRef
	}
	if utf8.RuneCountInString(payerRef) > MaxRefLength {
		return nil, ErrPayerRefTooLong
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !hasValidScale(amount) {
		return nil, ErrInvalidAmountScale
	}
	serviceType = strings.TrimSpace(serviceType)
	if serviceType == "" {
		return nil, ErrEmptyServiceType
	}
	if !method.IsValid() {
		return nil, ErrInvalidMethod
	}
	if method == shared.PaymentMethodAdjustment {
		return nil, ErrReservedMethod
	}
	if postedDate.IsZero() {
		return nil, ErrMissingPostedDate
	}
	if len(memo) > MaxMemoLength {
		return nil, ErrMemoTooLong
	}

	id := uuid.New()
	return &Entry{
		ID:          id,
		RootID:      id,
		PayerRef:    payerRef,
		Amount:      amount.Round(AmountScale),
		ServiceType: serviceType,
		Method:      method,
		PostedDate:  shared.NormalizeDate(postedDate),
		Memo:        memo,
		CreatedAt:   time.Now().UTC(),
	}, nil
}

// NewCorrection creates an adjustment entry pointing at target. The delta is the
// signed difference between the desired lineage total and its current effective value.
func NewCorrection(target *Entry, delta decimal.Decimal, postedDate time.Time, reason string) (*Entry, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, ErrEmptyReason
	}
	if len(reason) > MaxMemoLength {
		return nil, ErrMemoTooLong
	}
	if delta.IsZero() {
		return nil, ErrNoChange
	}
	if postedDate.IsZero() {
		return nil, ErrMissingPostedDate
	}

	targetID := target.ID
	return &Entry{
		ID:           uuid.New(),
		RootID:       target.RootID,
		PayerRef:     target.PayerRef,
		Amount:       delta.Round(AmountScale),
		ServiceType:  target.ServiceType,
		Method:       shared.PaymentMethodAdjustment,
		PostedDate:   shared.NormalizeDate(postedDate),
		Memo:         reason,
		CorrectionOf: &targetID,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// IsCorrection reports whether the entry adjusts another entry
func (e *Entry) IsCorrection() bool {
	return e.CorrectionOf != nil
}

// SetIdempotencyKey attaches the client supplied key that deduplicates retried records
func (e *Entry) SetIdempotencyKey(key string) error {
	if utf8.RuneCountInString(key) > MaxRefLength {
		return ErrIdempotencyKeyLong
	}
	e.IdempotencyKey = key
	return nil
}

// IsRoot reports whether the entry is the original of its lineage
func (e *Entry) IsRoot() bool {
	return e.ID == e.RootID
}

// ValidateNewAmount checks the desired lineage total supplied to a correction
func ValidateNewAmount(newAmount decimal.Decimal) error {
	if newAmount.IsNegative() {
		return ErrNegativeNewAmount
	}
	if !hasValidScale(newAmount) {
		return ErrInvalidAmountScale
	}
	return nil
}

func hasValidScale(amount decimal.Decimal) bool {
	return amount.Equal(amount.Round(AmountScale))
}
