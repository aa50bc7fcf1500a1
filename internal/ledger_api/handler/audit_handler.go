package handler

import (
	"log/slog"

	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// AuditHandler serves reads of the audit sink
type AuditHandler struct {
	auditService service.AuditQueryService
	logger       *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logger *slog.Logger, auditService service.AuditQueryService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// List returns the audit trail of one subject, newest first
func (h *AuditHandler) List(c *gin.Context) {
	var query AuditListQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	records, err := h.auditService.ListBySubject(
		c.Request.Context(),
		shared.SubjectType(query.SubjectType),
		query.SubjectID,
		query.Page,
		query.PerPage,
	)
	if err != nil {
		respondError(c, h.logger, err, "list audit records")
		return
	}

	responses := make([]AuditRecordResponse, 0, len(records))
	for _, record := range records {
		responses = append(responses, mapAuditRecordToResponse(record))
	}
	RespondWithPage(c, responses, MetaInfo{
		Page:    query.Page,
		PerPage: query.PerPage,
		Count:   len(responses),
	})
}

// GetByID retrieves one audit record
func (h *AuditHandler) GetByID(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		RespondBadRequest(c, "Invalid audit record ID")
		return
	}

	record, err := h.auditService.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err, "get audit record")
		return
	}
	RespondOK(c, mapAuditRecordToResponse(record))
}
