package shared

import (
	"time"
)

// PaymentRequest defines a Kafka message asking the ledger to record a payment.
// Amount is a decimal string so no precision is lost in transit.
type PaymentRequest struct {
	RequestID     string    `json:"request_id" validate:"required,max=128"`
	PayerRef      string    `json:"payer_ref" validate:"required,max=128"`
	Amount        string    `json:"amount" validate:"required,numeric"`
	ServiceType   string    `json:"service_type" validate:"required,max=32"`
	Method        string    `json:"method" validate:"required"`
	PostedDate    string    `json:"posted_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Memo          string    `json:"memo,omitempty" validate:"max=500"`
	ActorRef      string    `json:"actor_ref" validate:"required"`
	CorrelationID string    `json:"correlation_id"`
	Timestamp     time.Time `json:"timestamp"`
}
