package handler

import (
	"log/slog"

	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/gin-gonic/gin"
)

// ServiceTypeHandler handles HTTP requests for the service type registry
type ServiceTypeHandler struct {
	serviceTypeService service.ServiceTypeService
	logger             *slog.Logger
}

// NewServiceTypeHandler creates a new service type handler
func NewServiceTypeHandler(logger *slog.Logger, serviceTypeService service.ServiceTypeService) *ServiceTypeHandler {
	return &ServiceTypeHandler{
		serviceTypeService: serviceTypeService,
		logger:             logger,
	}
}

// Register adds a new active service type
func (h *ServiceTypeHandler) Register(c *gin.Context) {
	var req RegisterServiceTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	serviceType, err := h.serviceTypeService.Register(c.Request.Context(), req.Code, req.Label)
	if err != nil {
		respondError(c, h.logger, err, "register service type")
		return
	}
	RespondCreated(c, mapServiceTypeToResponse(serviceType))
}

// Deactivate stops a service type from accepting new payments
func (h *ServiceTypeHandler) Deactivate(c *gin.Context) {
	if err := h.serviceTypeService.Deactivate(c.Request.Context(), c.Param("code")); err != nil {
		respondError(c, h.logger, err, "deactivate service type")
		return
	}
	RespondNoContent(c)
}

// ListActive returns every service type payments may be recorded against
func (h *ServiceTypeHandler) ListActive(c *gin.Context) {
	serviceTypes, err := h.serviceTypeService.ListActive(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "list service types")
		return
	}

	responses := make([]ServiceTypeResponse, 0, len(serviceTypes))
	for _, st := range serviceTypes {
		responses = append(responses, mapServiceTypeToResponse(st))
	}
	RespondWithPage(c, responses, MetaInfo{Count: len(responses)})
}
