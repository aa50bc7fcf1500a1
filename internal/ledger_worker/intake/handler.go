package intake

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/platform/messaging/producers"
	"github.com/go-playground/validator/v10"
)

// PaymentRequestHandler handles payment request messages from Kafka
type PaymentRequestHandler struct {
	processor Processor
	producer  producers.DeadLetterPublisher
	validate  *validator.Validate
	logger    *slog.Logger
}

// NewPaymentRequestHandler creates a new handler. producer may be nil when no DLQ is configured.
func NewPaymentRequestHandler(
	logger *slog.Logger,
	processor Processor,
	producer producers.DeadLetterPublisher,
) *PaymentRequestHandler {
	return &PaymentRequestHandler{
		processor: processor,
		producer:  producer,
		validate:  validator.New(),
		logger:    logger,
	}
}

// HandleMessage processes one Kafka message. Requests that can never succeed
// go to the DLQ and are committed; other failures are left uncommitted.
func (h *PaymentRequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.PaymentRequest
	if err := json.Unmarshal(value, &request); err != nil {
		return h.reject(ctx, key, value, "Failed to unmarshal payment request from Kafka message", err)
	}
	if err := h.validate.Struct(&request); err != nil {
		return h.reject(ctx, key, value, "Payment request failed validation", err)
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}

	logger.Info("Received payment request for processing",
		"request_id", request.RequestID,
		"service_type", request.ServiceType,
		"method", request.Method,
		"amount", request.Amount,
	)

	if err := h.processor.Process(ctx, &request); err != nil {
		if isPermanent(err) {
			return h.reject(ctx, key, value, "Payment request rejected by ledger", err)
		}
		logger.Error("Failed to process payment request",
			"request_id", request.RequestID,
			"error", err,
		)
		return fmt.Errorf("processing payment request %s failed: %w", request.RequestID, err)
	}

	return nil
}

func (h *PaymentRequestHandler) reject(ctx context.Context, key, value []byte, reason string, cause error) error {
	h.logger.Error(reason,
		"error", cause,
		"message_key", string(key),
	)

	if h.producer != nil {
		dlqReason := fmt.Sprintf("%s: %s", reason, cause.Error())
		if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, dlqReason); dlqErr != nil {
			h.logger.Error("Failed to publish message to DLQ",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", string(key),
			)
		} else {
			h.logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", dlqReason)
			return nil
		}
	}

	return fmt.Errorf("%s: %w", reason, cause)
}
