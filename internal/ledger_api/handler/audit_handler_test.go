package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAuditHandler_List(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAuditQueryService)
		handler := NewAuditHandler(logger, mockService)

		record := &audit.Record{
			ID:            uuid.New(),
			Action:        shared.AuditActionDayLocked,
			ActorRef:      "system",
			SubjectType:   shared.SubjectTypeDayLock,
			SubjectID:     "2025-01-10",
			Payload:       map[string]any{"date": "2025-01-10"},
			CorrelationID: "day-close-2025-01-10",
			OccurredAt:    time.Date(2025, 1, 11, 2, 5, 0, 0, time.UTC),
		}
		mockService.On("ListBySubject", mock.Anything, shared.SubjectTypeDayLock, "2025-01-10", 2, 5).
			Return([]*audit.Record{record}, nil)

		router := setupTestRouter()
		router.GET("/audit-records", handler.List)

		req, _ := http.NewRequest(http.MethodGet, "/audit-records?subject_type=DAY_LOCK&subject_id=2025-01-10&page=2&per_page=5", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var response []AuditRecordResponse
		meta := decodeData(t, rr.Body.Bytes(), &response)
		require.Len(t, response, 1)
		assert.Equal(t, "DAY_LOCKED", response[0].Action)
		assert.Equal(t, "day-close-2025-01-10", response[0].CorrelationID)
		require.NotNil(t, meta)
		assert.Equal(t, 2, meta.Page)
		assert.Equal(t, 5, meta.PerPage)
		mockService.AssertExpectations(t)
	})

	t.Run("InvalidSubjectType", func(t *testing.T) {
		mockService := new(MockAuditQueryService)
		handler := NewAuditHandler(logger, mockService)
		mockService.On("ListBySubject", mock.Anything, shared.SubjectType("ACCOUNT"), "x", 1, 20).
			Return(nil, service.ErrInvalidSubjectType)

		router := setupTestRouter()
		router.GET("/audit-records", handler.List)

		req, _ := http.NewRequest(http.MethodGet, "/audit-records?subject_type=ACCOUNT&subject_id=x", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("MissingSubject", func(t *testing.T) {
		mockService := new(MockAuditQueryService)
		handler := NewAuditHandler(logger, mockService)

		router := setupTestRouter()
		router.GET("/audit-records", handler.List)

		req, _ := http.NewRequest(http.MethodGet, "/audit-records?subject_type=DAY_LOCK", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}

func TestAuditHandler_GetByID(t *testing.T) {
	logger := newTestLogger()

	t.Run("NotFound", func(t *testing.T) {
		mockService := new(MockAuditQueryService)
		handler := NewAuditHandler(logger, mockService)
		id := uuid.New()
		mockService.On("Get", mock.Anything, id).Return(nil, audit.ErrRecordNotFound{ID: id})

		router := setupTestRouter()
		router.GET("/audit-records/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/audit-records/"+id.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockAuditQueryService)
		handler := NewAuditHandler(logger, mockService)
		record := &audit.Record{
			ID:          uuid.New(),
			Action:      shared.AuditActionPaymentRecorded,
			ActorRef:    testActor,
			SubjectType: shared.SubjectTypePaymentEntry,
			SubjectID:   uuid.NewString(),
			OccurredAt:  time.Now(),
		}
		mockService.On("Get", mock.Anything, record.ID).Return(record, nil)

		router := setupTestRouter()
		router.GET("/audit-records/:id", handler.GetByID)

		req, _ := http.NewRequest(http.MethodGet, "/audit-records/"+record.ID.String(), nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		var response AuditRecordResponse
		decodeData(t, rr.Body.Bytes(), &response)
		assert.Equal(t, record.ID.String(), response.ID)
	})
}
