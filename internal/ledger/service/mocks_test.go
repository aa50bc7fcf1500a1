package service

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/outbox"
	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/servicetype"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/facebookgo/clock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type MockPaymentRepository struct {
	mock.Mock
}

func (m *MockPaymentRepository) Insert(ctx context.Context, entry *payment.Entry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Entry), args.Error(1)
}

func (m *MockPaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Entry, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Entry), args.Error(1)
}

func (m *MockPaymentRepository) ListLineage(ctx context.Context, rootID uuid.UUID) ([]*payment.Entry, error) {
	args := m.Called(ctx, rootID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Entry), args.Error(1)
}

func (m *MockPaymentRepository) SumLineage(ctx context.Context, rootID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, rootID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockPaymentRepository) List(ctx context.Context, filter payment.Filter, page payment.PageRequest) ([]*payment.Entry, error) {
	args := m.Called(ctx, filter, page)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*payment.Entry), args.Error(1)
}

func (m *MockPaymentRepository) Stream(ctx context.Context, filter payment.Filter, fn func(*payment.Entry) error) error {
	args := m.Called(ctx, filter, fn)
	return args.Error(0)
}

func (m *MockPaymentRepository) LockLineage(ctx context.Context, rootID uuid.UUID) error {
	args := m.Called(ctx, rootID)
	return args.Error(0)
}

func (m *MockPaymentRepository) WithTx(tx pgx.Tx) payment.Repository {
	args := m.Called(tx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(payment.Repository)
}

type MockDayLockRepository struct {
	mock.Mock
}

func (m *MockDayLockRepository) AcquireShared(ctx context.Context, date time.Time) error {
	args := m.Called(ctx, date)
	return args.Error(0)
}

func (m *MockDayLockRepository) AcquireExclusive(ctx context.Context, date time.Time) error {
	args := m.Called(ctx, date)
	return args.Error(0)
}

func (m *MockDayLockRepository) GetByDate(ctx context.Context, date time.Time) (*daylock.DayLock, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*daylock.DayLock), args.Error(1)
}

func (m *MockDayLockRepository) Save(ctx context.Context, lock *daylock.DayLock) error {
	args := m.Called(ctx, lock)
	return args.Error(0)
}

func (m *MockDayLockRepository) ListLocked(ctx context.Context, from, to time.Time) ([]*daylock.DayLock, error) {
	args := m.Called(ctx, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*daylock.DayLock), args.Error(1)
}

func (m *MockDayLockRepository) WithTx(tx pgx.Tx) daylock.Repository {
	args := m.Called(tx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(daylock.Repository)
}

type MockServiceTypeRepository struct {
	mock.Mock
}

func (m *MockServiceTypeRepository) Create(ctx context.Context, st *servicetype.ServiceType) error {
	args := m.Called(ctx, st)
	return args.Error(0)
}

func (m *MockServiceTypeRepository) GetByCode(ctx context.Context, code string) (*servicetype.ServiceType, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*servicetype.ServiceType), args.Error(1)
}

func (m *MockServiceTypeRepository) Deactivate(ctx context.Context, code string) error {
	args := m.Called(ctx, code)
	return args.Error(0)
}

func (m *MockServiceTypeRepository) ListActive(ctx context.Context) ([]*servicetype.ServiceType, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*servicetype.ServiceType), args.Error(1)
}

func (m *MockServiceTypeRepository) WithTx(tx pgx.Tx) servicetype.Repository {
	args := m.Called(tx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(servicetype.Repository)
}

type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepository) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepository) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepository) IncrementAttempts(ctx context.Context, id int64, lastError string) error {
	args := m.Called(ctx, id, lastError)
	return args.Error(0)
}

func (m *MockOutboxRepository) CountByStatus(ctx context.Context, status shared.OutboxStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOutboxRepository) WithTx(tx pgx.Tx) outbox.Repository {
	args := m.Called(tx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(outbox.Repository)
}

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Append(ctx context.Context, record *audit.Record) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockAuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*audit.Record, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*audit.Record), args.Error(1)
}

func (m *MockAuditRepository) ListBySubject(ctx context.Context, subjectType shared.SubjectType, subjectID string, limit, offset int) ([]*audit.Record, error) {
	args := m.Called(ctx, subjectType, subjectID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*audit.Record), args.Error(1)
}

// fakeTxRunner runs units of work without a database. Repository mocks
// return themselves from WithTx, so the nil transaction is never used.
type fakeTxRunner struct {
	txCalls       int
	snapshotCalls int
	snapshotErr   error
}

func (f *fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.txCalls++
	return fn(nil)
}

func (f *fakeTxRunner) ExecuteSnapshot(ctx context.Context, fn func(tx pgx.Tx) error) error {
	f.snapshotCalls++
	if f.snapshotErr != nil {
		return f.snapshotErr
	}
	return fn(nil)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestClock(at time.Time) *clock.Mock {
	clk := clock.NewMock()
	clk.Add(at.Sub(clk.Now()))
	return clk
}

func newTestSettings() Settings {
	return Settings{
		Location:         time.UTC,
		OperationTimeout: 5 * time.Second,
		DefaultPageSize:  2,
		MaxPageSize:      3,
	}
}

func calendarDay(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func newTestEntry(amount string, postedDate time.Time) *payment.Entry {
	e, err := payment.NewEntry("PAYER-1", decimal.RequireFromString(amount), "TUITION", shared.PaymentMethodCash, postedDate, "")
	if err != nil {
		panic(err)
	}
	e.ActorRef = "clerk-1"
	return e
}

func activeServiceType(code string) *servicetype.ServiceType {
	return &servicetype.ServiceType{Code: code, Label: code, Active: true}
}
