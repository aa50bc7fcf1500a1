package handler

import (
	"log/slog"

	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/contribution-ledger/internal/ledger_api/middleware"
	"github.com/gin-gonic/gin"
)

// ExportHandler streams reconciliation exports
type ExportHandler struct {
	exportService service.ExportService
	logger        *slog.Logger
}

// NewExportHandler creates a new export handler
func NewExportHandler(logger *slog.Logger, exportService service.ExportService) *ExportHandler {
	return &ExportHandler{
		exportService: exportService,
		logger:        logger,
	}
}

// Payments streams every payment matching the filter as CSV in list order
func (h *ExportHandler) Payments(c *gin.Context) {
	var query PaymentFilterQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	filter, err := query.toFilter()
	if err != nil {
		respondError(c, h.logger, err, "export payments")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="payments.csv"`)

	written, err := h.exportService.WriteCSV(c.Request.Context(), filter, c.Writer)
	if err != nil {
		if !c.Writer.Written() {
			c.Writer.Header().Del("Content-Type")
			c.Writer.Header().Del("Content-Disposition")
			respondError(c, h.logger, err, "export payments")
			return
		}
		// Headers are already sent; the truncated body is the only signal left to the client.
		h.logger.Error("Payment export aborted mid-stream",
			"error", err,
			"rows_written", written,
			"correlation_id", middleware.GetCorrelationID(c),
		)
		c.Abort()
		return
	}
}
