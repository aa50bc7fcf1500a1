package audit

import (
	"errors"
	"strings"
	"time"

	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyActor    = errors.New("audit record requires an actor reference")
	ErrInvalidAction = errors.New("invalid audit action")
)

// Record is an append-only description of one ledger or day lock state change
type Record struct {
	ID            uuid.UUID          `json:"id"`
	Action        shared.AuditAction `json:"action"`
	ActorRef      string             `json:"actor_ref"`
	SubjectType   shared.SubjectType `json:"subject_type"`
	SubjectID     string             `json:"subject_id"`
	Payload       map[string]any     `json:"payload"`
	CorrelationID string             `json:"correlation_id,omitempty"`
	OccurredAt    time.Time          `json:"occurred_at"`
}

// NewRecord creates an audit record stamped with a fresh id
func NewRecord(action shared.AuditAction, actorRef string, subjectType shared.SubjectType, subjectID string, payload map[string]any, occurredAt time.Time) (*Record, error) {
	switch action {
	case shared.AuditActionPaymentRecorded, shared.AuditActionPaymentCorrected,
		shared.AuditActionDayLocked, shared.AuditActionDayUnlocked:
	default:
		return nil, ErrInvalidAction
	}
	if strings.TrimSpace(actorRef) == "" {
		return nil, ErrEmptyActor
	}

	return &Record{
		ID:          uuid.New(),
		Action:      action,
		ActorRef:    actorRef,
		SubjectType: subjectType,
		SubjectID:   subjectID,
		Payload:     payload,
		OccurredAt:  occurredAt.UTC(),
	}, nil
}

// WithCorrelationID tags the record with the request that caused it
func (r *Record) WithCorrelationID(correlationID string) *Record {
	r.CorrelationID = correlationID
	return r
}

// PaymentRecorded describes the insertion of an original entry
func PaymentRecorded(entry *payment.Entry, actorRef string) (*Record, error) {
	return NewRecord(shared.AuditActionPaymentRecorded, actorRef,
		shared.SubjectTypePaymentEntry, entry.ID.String(), entrySnapshot(entry), entry.CreatedAt)
}

// PaymentCorrected describes a correction, referencing both the new entry and its target
func PaymentCorrected(correction, target *payment.Entry, effectiveValue decimal.Decimal, actorRef string) (*Record, error) {
	payload := entrySnapshot(correction)
	payload["target_id"] = target.ID.String()
	payload["target_amount"] = target.Amount.StringFixed(payment.AmountScale)
	payload["effective_value"] = effectiveValue.StringFixed(payment.AmountScale)

	return NewRecord(shared.AuditActionPaymentCorrected, actorRef,
		shared.SubjectTypePaymentEntry, correction.ID.String(), payload, correction.CreatedAt)
}

// DayLocked describes a day transitioning to locked
func DayLocked(lock *daylock.DayLock, actorRef string) (*Record, error) {
	payload := map[string]any{
		"date":      shared.FormatDate(lock.Date),
		"locked":    lock.Locked,
		"locked_by": lock.LockedBy,
	}
	return NewRecord(shared.AuditActionDayLocked, actorRef,
		shared.SubjectTypeDayLock, shared.FormatDate(lock.Date), payload, lock.UpdatedAt)
}

// DayUnlocked describes a day transitioning back to unlocked
func DayUnlocked(lock *daylock.DayLock, actorRef string) (*Record, error) {
	payload := map[string]any{
		"date":          shared.FormatDate(lock.Date),
		"locked":        lock.Locked,
		"justification": lock.UnlockJustification,
		"unlocked_by":   lock.UnlockedBy,
	}
	return NewRecord(shared.AuditActionDayUnlocked, actorRef,
		shared.SubjectTypeDayLock, shared.FormatDate(lock.Date), payload, lock.UpdatedAt)
}

func entrySnapshot(e *payment.Entry) map[string]any {
	snapshot := map[string]any{
		"id":           e.ID.String(),
		"root_id":      e.RootID.String(),
		"payer_ref":    e.PayerRef,
		"amount":       e.Amount.StringFixed(payment.AmountScale),
		"service_type": e.ServiceType,
		"method":       string(e.Method),
		"posted_date":  shared.FormatDate(e.PostedDate),
		"memo":         e.Memo,
	}
	if e.CorrectionOf != nil {
		snapshot["correction_of"] = e.CorrectionOf.String()
	}
	return snapshot
}
