package handler

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contribution-ledger/internal/domain/servicetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestServiceTypeHandler_Register(t *testing.T) {
	logger := newTestLogger()
	now := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)

	newRequest := func(body string) *http.Request {
		req, _ := http.NewRequest(http.MethodPost, "/service-types", bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
		return req
	}

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockServiceTypeService)
		handler := NewServiceTypeHandler(logger, mockService)
		mockService.On("Register", mock.Anything, "tithe", "Tithe").Return(&servicetype.ServiceType{
			Code: "TITHE", Label: "Tithe", Active: true, CreatedAt: now, UpdatedAt: now,
		}, nil)

		router := setupTestRouter()
		router.POST("/service-types", handler.Register)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, newRequest(`{"code":"tithe","label":"Tithe"}`))

		assert.Equal(t, http.StatusCreated, rr.Code)
		var response ServiceTypeResponse
		decodeData(t, rr.Body.Bytes(), &response)
		assert.Equal(t, "TITHE", response.Code)
		assert.True(t, response.Active)
		mockService.AssertExpectations(t)
	})

	t.Run("DuplicateCode", func(t *testing.T) {
		mockService := new(MockServiceTypeService)
		handler := NewServiceTypeHandler(logger, mockService)
		mockService.On("Register", mock.Anything, "TITHE", "Tithe").Return(nil, servicetype.ErrDuplicateCode{Code: "TITHE"})

		router := setupTestRouter()
		router.POST("/service-types", handler.Register)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, newRequest(`{"code":"TITHE","label":"Tithe"}`))

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Equal(t, "DUPLICATE_CODE", decodeError(t, rr.Body.Bytes()).Code)
	})

	t.Run("InvalidCode", func(t *testing.T) {
		mockService := new(MockServiceTypeService)
		handler := NewServiceTypeHandler(logger, mockService)
		mockService.On("Register", mock.Anything, "bad code!", "Bad").Return(nil, servicetype.ErrInvalidCode)

		router := setupTestRouter()
		router.POST("/service-types", handler.Register)

		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, newRequest(`{"code":"bad code!","label":"Bad"}`))

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Equal(t, "VALIDATION_ERROR", decodeError(t, rr.Body.Bytes()).Code)
	})
}

func TestServiceTypeHandler_Deactivate(t *testing.T) {
	logger := newTestLogger()

	t.Run("Success", func(t *testing.T) {
		mockService := new(MockServiceTypeService)
		handler := NewServiceTypeHandler(logger, mockService)
		mockService.On("Deactivate", mock.Anything, "TITHE").Return(nil)

		router := setupTestRouter()
		router.POST("/service-types/:code/deactivate", handler.Deactivate)

		req, _ := http.NewRequest(http.MethodPost, "/service-types/TITHE/deactivate", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		mockService.AssertExpectations(t)
	})

	t.Run("UnknownCode", func(t *testing.T) {
		mockService := new(MockServiceTypeService)
		handler := NewServiceTypeHandler(logger, mockService)
		mockService.On("Deactivate", mock.Anything, "GHOST").Return(servicetype.ErrUnknownCode{Code: "GHOST"})

		router := setupTestRouter()
		router.POST("/service-types/:code/deactivate", handler.Deactivate)

		req, _ := http.NewRequest(http.MethodPost, "/service-types/GHOST/deactivate", nil)
		rr := httptest.NewRecorder()
		router.ServeHTTP(rr, req)

		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestServiceTypeHandler_ListActive(t *testing.T) {
	logger := newTestLogger()
	mockService := new(MockServiceTypeService)
	handler := NewServiceTypeHandler(logger, mockService)
	mockService.On("ListActive", mock.Anything).Return([]*servicetype.ServiceType{
		{Code: "SPONSORSHIP", Label: "Sponsorship", Active: true},
		{Code: "TITHE", Label: "Tithe", Active: true},
	}, nil)

	router := setupTestRouter()
	router.GET("/service-types", handler.ListActive)

	req, _ := http.NewRequest(http.MethodGet, "/service-types", nil)
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	var response []ServiceTypeResponse
	decodeData(t, rr.Body.Bytes(), &response)
	require.Len(t, response, 2)
	assert.Equal(t, "SPONSORSHIP", response[0].Code)
}
