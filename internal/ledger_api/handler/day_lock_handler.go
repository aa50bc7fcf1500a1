package handler

import (
	"log/slog"

	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/contribution-ledger/internal/ledger_api/middleware"
	"github.com/gin-gonic/gin"
)

// DayLockHandler handles HTTP requests for the day lock manager
type DayLockHandler struct {
	dayLockService service.DayLockService
	logger         *slog.Logger
}

// NewDayLockHandler creates a new day lock handler
func NewDayLockHandler(logger *slog.Logger, dayLockService service.DayLockService) *DayLockHandler {
	return &DayLockHandler{
		dayLockService: dayLockService,
		logger:         logger,
	}
}

// Lock closes a day for new entries
func (h *DayLockHandler) Lock(c *gin.Context) {
	var req LockDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	date, err := shared.ParseDate(req.Date)
	if err != nil {
		respondError(c, h.logger, err, "lock day")
		return
	}

	lock, err := h.dayLockService.Lock(c.Request.Context(), service.LockDay{
		Date:          date,
		ActorRef:      middleware.GetActor(c),
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondError(c, h.logger, err, "lock day")
		return
	}
	RespondOK(c, mapDayLockToResponse(lock))
}

// Unlock reopens a locked day. The justification is mandatory.
func (h *DayLockHandler) Unlock(c *gin.Context) {
	date, err := shared.ParseDate(c.Param("date"))
	if err != nil {
		respondError(c, h.logger, err, "unlock day")
		return
	}

	var req UnlockDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	lock, err := h.dayLockService.Unlock(c.Request.Context(), service.UnlockDay{
		Date:          date,
		ActorRef:      middleware.GetActor(c),
		Justification: req.Justification,
		CorrelationID: middleware.GetCorrelationID(c),
	})
	if err != nil {
		respondError(c, h.logger, err, "unlock day")
		return
	}
	RespondOK(c, mapDayLockToResponse(lock))
}

// Status reports whether a day is locked along with its lock metadata
func (h *DayLockHandler) Status(c *gin.Context) {
	date, err := shared.ParseDate(c.Param("date"))
	if err != nil {
		respondError(c, h.logger, err, "day lock status")
		return
	}

	lock, err := h.dayLockService.Status(c.Request.Context(), date)
	if err != nil {
		respondError(c, h.logger, err, "day lock status")
		return
	}
	RespondOK(c, mapDayLockToResponse(lock))
}

// ListLocked returns the locked days within a date range
func (h *DayLockHandler) ListLocked(c *gin.Context) {
	var query DayLockRangeQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}
	from, err := shared.ParseDate(query.From)
	if err != nil {
		respondError(c, h.logger, err, "list locked days")
		return
	}
	to, err := shared.ParseDate(query.To)
	if err != nil {
		respondError(c, h.logger, err, "list locked days")
		return
	}

	locks, err := h.dayLockService.ListLocked(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, h.logger, err, "list locked days")
		return
	}

	responses := make([]DayLockResponse, 0, len(locks))
	for _, lock := range locks {
		responses = append(responses, mapDayLockToResponse(lock))
	}
	RespondWithPage(c, responses, MetaInfo{Count: len(responses)})
}
