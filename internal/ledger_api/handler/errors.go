package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/servicetype"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/contribution-ledger/internal/ledger_api/middleware"
	"github.com/contribution-ledger/internal/platform/pagination"
	"github.com/gin-gonic/gin"
)

// validationCodes maps caller-correctable errors to their API error codes
var validationCodes = []struct {
	err  error
	code string
}{
	{payment.ErrInvalidAmount, "INVALID_AMOUNT"},
	{payment.ErrInvalidAmountScale, "INVALID_AMOUNT"},
	{payment.ErrNegativeNewAmount, "INVALID_AMOUNT"},
	{payment.ErrEmptyReason, "EMPTY_REASON"},
	{payment.ErrNoChange, "NO_CHANGE"},
	{payment.ErrEmptyPayerRef, "VALIDATION_ERROR"},
	{payment.ErrPayerRefTooLong, "VALIDATION_ERROR"},
	{payment.ErrIdempotencyKeyLong, "VALIDATION_ERROR"},
	{payment.ErrEmptyServiceType, "VALIDATION_ERROR"},
	{payment.ErrInvalidMethod, "INVALID_METHOD"},
	{payment.ErrReservedMethod, "INVALID_METHOD"},
	{payment.ErrMissingPostedDate, "VALIDATION_ERROR"},
	{payment.ErrMemoTooLong, "VALIDATION_ERROR"},
	{payment.ErrInvalidDateRange, "INVALID_DATE_RANGE"},
	{payment.ErrInvalidGroupBy, "VALIDATION_ERROR"},
	{daylock.ErrMissingJustification, "MISSING_JUSTIFICATION"},
	{daylock.ErrEmptyActor, "VALIDATION_ERROR"},
	{audit.ErrEmptyActor, "VALIDATION_ERROR"},
	{servicetype.ErrInvalidCode, "VALIDATION_ERROR"},
	{servicetype.ErrEmptyLabel, "VALIDATION_ERROR"},
	{shared.ErrInvalidDate, "INVALID_DATE"},
	{pagination.ErrInvalidToken, "INVALID_PAGE_TOKEN"},
	{service.ErrInvalidSubjectType, "VALIDATION_ERROR"},
}

// respondError translates a service error into the API error envelope.
// Infrastructure errors are logged with context and answered generically.
func respondError(c *gin.Context, logger *slog.Logger, err error, operation string) {
	for _, v := range validationCodes {
		if errors.Is(err, v.err) {
			RespondWithError(c, http.StatusBadRequest, v.code, v.err.Error())
			return
		}
	}

	var (
		dayLocked      daylock.ErrDayLocked
		alreadyLocked  daylock.ErrAlreadyLocked
		notLocked      daylock.ErrNotLocked
		unknownType    servicetype.ErrUnknownServiceType
		duplicateCode  servicetype.ErrDuplicateCode
		unknownCode    servicetype.ErrUnknownCode
		originalAbsent payment.ErrOriginalNotFound
		entryAbsent    payment.ErrEntryNotFound
		recordAbsent   audit.ErrRecordNotFound
	)

	switch {
	case errors.As(err, &dayLocked):
		RespondConflict(c, "DAY_LOCKED", dayLocked.Error(), lockDetails(dayLocked.Date, dayLocked.LockedAt))
	case errors.As(err, &alreadyLocked):
		RespondConflict(c, "ALREADY_LOCKED", alreadyLocked.Error(), lockDetails(alreadyLocked.Date, alreadyLocked.LockedAt))
	case errors.As(err, &notLocked):
		RespondConflict(c, "NOT_LOCKED", notLocked.Error(), map[string]any{"date": shared.FormatDate(notLocked.Date)})
	case errors.As(err, &duplicateCode):
		RespondConflict(c, "DUPLICATE_CODE", duplicateCode.Error(), map[string]any{"code": duplicateCode.Code})
	case errors.As(err, &unknownType):
		RespondWithErrorDetails(c, http.StatusBadRequest, "UNKNOWN_SERVICE_TYPE", unknownType.Error(), map[string]any{"code": unknownType.Code})
	case errors.As(err, &originalAbsent):
		RespondWithError(c, http.StatusNotFound, "ORIGINAL_NOT_FOUND", originalAbsent.Error())
	case errors.As(err, &entryAbsent):
		RespondNotFound(c, "Payment entry not found")
	case errors.As(err, &unknownCode):
		RespondNotFound(c, "Service type not found")
	case errors.As(err, &recordAbsent):
		RespondNotFound(c, "Audit record not found")
	case errors.Is(err, context.DeadlineExceeded):
		logger.Error("Ledger operation timed out",
			"operation", operation,
			"error", err,
			"correlation_id", middleware.GetCorrelationID(c),
		)
		RespondServiceUnavailable(c)
	default:
		logger.Error("Ledger operation failed",
			"operation", operation,
			"error", err,
			"correlation_id", middleware.GetCorrelationID(c),
		)
		RespondInternalError(c)
	}
}

func lockDetails(date, lockedAt time.Time) map[string]any {
	details := map[string]any{"date": shared.FormatDate(date)}
	if !lockedAt.IsZero() {
		details["locked_at"] = lockedAt.UTC().Format(time.RFC3339)
	}
	return details
}
