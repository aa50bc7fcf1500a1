package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/servicetype"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/contribution-ledger/internal/ledger_api/middleware"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) Record(ctx context.Context, cmd service.RecordPayment) (*payment.Entry, bool, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*payment.Entry), args.Bool(1), args.Error(2)
}

func (m *MockPaymentService) Get(ctx context.Context, id uuid.UUID) (*payment.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Entry), args.Error(1)
}

func (m *MockPaymentService) Query(ctx context.Context, filter payment.Filter, pageToken string, pageSize int) (*service.PaymentPage, error) {
	args := m.Called(ctx, filter, pageToken, pageSize)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaymentPage), args.Error(1)
}

func (m *MockPaymentService) Summarize(ctx context.Context, filter payment.Filter, groupBy shared.GroupBy) (*payment.Summary, error) {
	args := m.Called(ctx, filter, groupBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Summary), args.Error(1)
}

func (m *MockPaymentService) Lineage(ctx context.Context, id uuid.UUID) (*payment.Lineage, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Lineage), args.Error(1)
}

type MockCorrectionService struct {
	mock.Mock
}

func (m *MockCorrectionService) Correct(ctx context.Context, cmd service.CorrectPayment) (*service.CorrectionResult, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.CorrectionResult), args.Error(1)
}

type MockDayLockService struct {
	mock.Mock
}

func (m *MockDayLockService) IsLocked(ctx context.Context, date time.Time) (bool, error) {
	args := m.Called(ctx, date)
	return args.Bool(0), args.Error(1)
}

func (m *MockDayLockService) Status(ctx context.Context, date time.Time) (*daylock.DayLock, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*daylock.DayLock), args.Error(1)
}

func (m *MockDayLockService) Lock(ctx context.Context, cmd service.LockDay) (*daylock.DayLock, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*daylock.DayLock), args.Error(1)
}

func (m *MockDayLockService) Unlock(ctx context.Context, cmd service.UnlockDay) (*daylock.DayLock, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*daylock.DayLock), args.Error(1)
}

func (m *MockDayLockService) ListLocked(ctx context.Context, from, to time.Time) ([]*daylock.DayLock, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*daylock.DayLock), args.Error(1)
}

type MockServiceTypeService struct {
	mock.Mock
}

func (m *MockServiceTypeService) Register(ctx context.Context, code, label string) (*servicetype.ServiceType, error) {
	args := m.Called(ctx, code, label)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*servicetype.ServiceType), args.Error(1)
}

func (m *MockServiceTypeService) Deactivate(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockServiceTypeService) ListActive(ctx context.Context) ([]*servicetype.ServiceType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*servicetype.ServiceType), args.Error(1)
}

type MockExportService struct {
	mock.Mock
}

func (m *MockExportService) Export(ctx context.Context, filter payment.Filter, fn func(*payment.Entry) error) error {
	args := m.Called(ctx, filter, fn)
	return args.Error(0)
}

func (m *MockExportService) WriteCSV(ctx context.Context, filter payment.Filter, w io.Writer) (int, error) {
	args := m.Called(ctx, filter, w)
	return args.Int(0), args.Error(1)
}

type MockAuditQueryService struct {
	mock.Mock
}

func (m *MockAuditQueryService) Get(ctx context.Context, id uuid.UUID) (*audit.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Record), args.Error(1)
}

func (m *MockAuditQueryService) ListBySubject(ctx context.Context, subjectType shared.SubjectType, subjectID string, page, perPage int) ([]*audit.Record, error) {
	args := m.Called(ctx, subjectType, subjectID, page, perPage)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Record), args.Error(1)
}

const testActor = "clerk-1"

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// setupTestRouter returns a router that authenticates every request as testActor
func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ActorKey, testActor)
		c.Next()
	})
	return r
}

func decodeData(t *testing.T, body []byte, out interface{}) *MetaInfo {
	t.Helper()
	var envelope struct {
		Data json.RawMessage `json:"data"`
		Meta *MetaInfo       `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(body, &envelope))
	require.NotEmpty(t, envelope.Data, "'data' field should not be empty")
	require.NoError(t, json.Unmarshal(envelope.Data, out))
	return envelope.Meta
}

func decodeError(t *testing.T, body []byte) ErrorInfo {
	t.Helper()
	var response Response
	require.NoError(t, json.Unmarshal(body, &response))
	require.NotNil(t, response.Error, "'error' field should not be nil")
	return *response.Error
}

func calendarDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newTestEntry(amount string, posted time.Time) *payment.Entry {
	id := uuid.New()
	return &payment.Entry{
		ID:          id,
		RootID:      id,
		PayerRef:    "P1",
		Amount:      decimal.RequireFromString(amount),
		ServiceType: "TITHE",
		Method:      shared.PaymentMethodCash,
		PostedDate:  posted,
		ActorRef:    testActor,
		CreatedAt:   time.Date(2025, 1, 10, 9, 30, 0, 0, time.UTC),
	}
}
