package handler

import (
	"log/slog"

	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/contribution-ledger/internal/ledger_api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CorrectionHandler handles HTTP requests for the correction engine
type CorrectionHandler struct {
	correctionService service.CorrectionService
	logger            *slog.Logger
}

// NewCorrectionHandler creates a new correction handler
func NewCorrectionHandler(logger *slog.Logger, correctionService service.CorrectionService) *CorrectionHandler {
	return &CorrectionHandler{
		correctionService: correctionService,
		logger:            logger,
	}
}

// Create appends an adjustment entry bringing the target's lineage to the requested total
func (h *CorrectionHandler) Create(c *gin.Context) {
	targetID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid payment ID")
		return
	}

	var req CorrectPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	newAmount, err := parseAmount(req.NewAmount)
	if err != nil {
		respondError(c, h.logger, err, "correct payment")
		return
	}
	postedDate, err := parseOptionalDate(req.PostedDate)
	if err != nil {
		respondError(c, h.logger, err, "correct payment")
		return
	}

	result, err := h.correctionService.Correct(c.Request.Context(), service.CorrectPayment{
		TargetID:      targetID,
		NewAmount:     newAmount,
		Reason:        req.Reason,
		PostedDate:    postedDate,
		ActorRef:      middleware.GetActor(c),
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondError(c, h.logger, err, "correct payment")
		return
	}
	RespondCreated(c, mapCorrectionToResponse(result))
}
