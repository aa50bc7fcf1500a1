package handler

import (
	"log/slog"
	"net/http"

	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/contribution-ledger/internal/ledger_api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// IdempotencyKeyHeader carries the client supplied idempotency key of a record request
const IdempotencyKeyHeader = "Idempotency-Key"

// PaymentHandler handles HTTP requests for ledger store operations
type PaymentHandler struct {
	paymentService service.PaymentService
	logger         *slog.Logger
}

// NewPaymentHandler creates a new payment handler
func NewPaymentHandler(logger *slog.Logger, paymentService service.PaymentService) *PaymentHandler {
	return &PaymentHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// Record appends a payment entry. A replayed Idempotency-Key answers 200 with the original entry.
func (h *PaymentHandler) Record(c *gin.Context) {
	var req RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	amount, err := parseAmount(req.Amount)
	if err != nil {
		respondError(c, h.logger, err, "record payment")
		return
	}
	method, ok := shared.ParsePaymentMethod(req.Method)
	if !ok {
		RespondWithError(c, http.StatusBadRequest, "INVALID_METHOD", "Invalid payment method "+req.Method)
		return
	}
	postedDate, err := parseOptionalDate(req.PostedDate)
	if err != nil {
		respondError(c, h.logger, err, "record payment")
		return
	}

	entry, created, err := h.paymentService.Record(c.Request.Context(), service.RecordPayment{
		PayerRef:       req.PayerRef,
		Amount:         amount,
		ServiceType:    req.ServiceType,
		Method:         method,
		PostedDate:     postedDate,
		Memo:           req.Memo,
		IdempotencyKey: c.GetHeader(IdempotencyKeyHeader),
		ActorRef:       middleware.GetActor(c),
		CorrelationID:  middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondError(c, h.logger, err, "record payment")
		return
	}

	if !created {
		RespondOK(c, mapEntryToResponse(entry))
		return
	}
	RespondCreated(c, mapEntryToResponse(entry))
}

// GetByID retrieves a payment entry by its ID, returns 404 if not found
func (h *PaymentHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	entry, err := h.paymentService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "get payment")
		return
	}
	RespondOK(c, mapEntryToResponse(entry))
}

// List returns one page of payments, newest posted date first
func (h *PaymentHandler) List(c *gin.Context) {
	var query PaymentListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	filter, err := query.toFilter()
	if err != nil {
		respondError(c, h.logger, err, "list payments")
		return
	}

	page, err := h.paymentService.Query(c.Request.Context(), filter, query.PageToken, query.PageSize)
	if err != nil {
		respondError(c, h.logger, err, "list payments")
		return
	}

	RespondWithPage(c, mapEntriesToResponse(page.Entries), MetaInfo{
		Count:         len(page.Entries),
		NextPageToken: page.NextPageToken,
	})
}

// Summary aggregates the payments matching the filter by one dimension
func (h *PaymentHandler) Summary(c *gin.Context) {
	var query SummaryQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	filter, err := query.toFilter()
	if err != nil {
		respondError(c, h.logger, err, "summarize payments")
		return
	}

	summary, err := h.paymentService.Summarize(c.Request.Context(), filter, shared.GroupBy(query.GroupBy))
	if err != nil {
		respondError(c, h.logger, err, "summarize payments")
		return
	}
	RespondOK(c, mapSummaryToResponse(summary))
}

// Lineage returns the lineage any entry belongs to together with its effective value
func (h *PaymentHandler) Lineage(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	lineage, err := h.paymentService.Lineage(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "get lineage")
		return
	}
	RespondOK(c, mapLineageToResponse(lineage))
}

func (h *PaymentHandler) parseID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid payment ID")
		return uuid.Nil, false
	}
	return id, true
}
