package service

import (
	"time"

	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RecordPayment is the input of PaymentService.Record
type RecordPayment struct {
	PayerRef       string
	Amount         decimal.Decimal
	ServiceType    string
	Method         shared.PaymentMethod
	PostedDate     *time.Time // Defaults to today in the ledger timezone
	Memo           string
	IdempotencyKey string
	ActorRef       string
	CorrelationID  string
}

// CorrectPayment is the input of CorrectionService.Correct
type CorrectPayment struct {
	TargetID      uuid.UUID
	NewAmount     decimal.Decimal
	Reason        string
	PostedDate    *time.Time // Defaults to today in the ledger timezone
	ActorRef      string
	CorrelationID string
}

// CorrectionResult describes an appended correction
type CorrectionResult struct {
	Correction     *payment.Entry
	Target         *payment.Entry
	PreviousValue  decimal.Decimal // Lineage effective value before the correction
	EffectiveValue decimal.Decimal // Lineage effective value after the correction
}

// LockDay is the input of DayLockService.Lock
type LockDay struct {
	Date          time.Time
	ActorRef      string
	CorrelationID string
}

// UnlockDay is the input of DayLockService.Unlock
type UnlockDay struct {
	Date          time.Time
	ActorRef      string
	Justification string
	CorrelationID string
}

// PaymentPage is one page of a payment query
type PaymentPage struct {
	Entries       []*payment.Entry
	NextPageToken string // Empty on the last page
}
