package intake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/servicetype"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/shopspring/decimal"
)

var ErrInvalidRequest = errors.New("invalid payment request")

// Processor records one payment request
type Processor interface {
	Process(ctx context.Context, request *shared.PaymentRequest) error
}

// PaymentRecorder is the part of the payment service intake needs
type PaymentRecorder interface {
	Record(ctx context.Context, cmd service.RecordPayment) (*payment.Entry, bool, error)
}

// RecordingProcessor turns payment requests into ledger entries
type RecordingProcessor struct {
	recorder PaymentRecorder
	logger   *slog.Logger
}

func NewRecordingProcessor(recorder PaymentRecorder, logger *slog.Logger) *RecordingProcessor {
	return &RecordingProcessor{
		recorder: recorder,
		logger:   logger,
	}
}

// Process records the request. The request id is the idempotency key, so a
// redelivered message returns the entry recorded the first time.
func (p *RecordingProcessor) Process(ctx context.Context, request *shared.PaymentRequest) error {
	cmd, err := toRecordPayment(request)
	if err != nil {
		return err
	}

	entry, created, err := p.recorder.Record(ctx, cmd)
	if err != nil {
		return err
	}

	logger := p.logger
	if request.CorrelationID != "" {
		logger = p.logger.With("correlation_id", request.CorrelationID)
	}
	if !created {
		logger.Info("Payment request already recorded", "request_id", request.RequestID, "entry_id", entry.ID.String())
		return nil
	}
	logger.Info("Payment request recorded", "request_id", request.RequestID, "entry_id", entry.ID.String())
	return nil
}

func toRecordPayment(request *shared.PaymentRequest) (service.RecordPayment, error) {
	amount, err := decimal.NewFromString(request.Amount)
	if err != nil {
		return service.RecordPayment{}, fmt.Errorf("%w: amount %q: %v", ErrInvalidRequest, request.Amount, err)
	}

	method, ok := shared.ParsePaymentMethod(request.Method)
	if !ok {
		return service.RecordPayment{}, payment.ErrInvalidMethod
	}

	var postedDate *time.Time
	if request.PostedDate != "" {
		date, err := shared.ParseDate(request.PostedDate)
		if err != nil {
			return service.RecordPayment{}, err
		}
		postedDate = &date
	}

	return service.RecordPayment{
		PayerRef:       request.PayerRef,
		Amount:         amount,
		ServiceType:    request.ServiceType,
		Method:         method,
		PostedDate:     postedDate,
		Memo:           request.Memo,
		IdempotencyKey: request.RequestID,
		ActorRef:       request.ActorRef,
		CorrelationID:  request.CorrelationID,
	}, nil
}

// isPermanent reports whether retrying the request can never succeed
// without an operator changing the request or the ledger state.
func isPermanent(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, shared.ErrInvalidDate),
		errors.Is(err, payment.ErrInvalidAmount),
		errors.Is(err, payment.ErrInvalidAmountScale),
		errors.Is(err, payment.ErrEmptyPayerRef),
		errors.Is(err, payment.ErrPayerRefTooLong),
		errors.Is(err, payment.ErrIdempotencyKeyLong),
		errors.Is(err, payment.ErrEmptyServiceType),
		errors.Is(err, payment.ErrInvalidMethod),
		errors.Is(err, payment.ErrReservedMethod),
		errors.Is(err, payment.ErrMissingPostedDate),
		errors.Is(err, payment.ErrMemoTooLong),
		errors.Is(err, audit.ErrEmptyActor),
		errors.Is(err, daylock.ErrDayLocked{}):
		return true
	}
	return errors.As(err, &servicetype.ErrUnknownServiceType{})
}
