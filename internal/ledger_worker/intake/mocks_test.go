package intake

import (
	"context"
	"io"
	"log/slog"

	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/stretchr/testify/mock"
)

type MockProcessor struct {
	mock.Mock
}

func (m *MockProcessor) Process(ctx context.Context, request *shared.PaymentRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) Record(ctx context.Context, cmd service.RecordPayment) (*payment.Entry, bool, error) {
	args := m.Called(ctx, cmd)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*payment.Entry), args.Bool(1), args.Error(2)
}

type MockDLQProducer struct {
	mock.Mock
}

func (m *MockDLQProducer) PublishToDLQ(ctx context.Context, key string, originalMessageValue []byte, reason string) error {
	args := m.Called(ctx, key, originalMessageValue, reason)
	return args.Error(0)
}

func (m *MockDLQProducer) Close() error {
	return m.Called().Error(0)
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func validRequest() shared.PaymentRequest {
	return shared.PaymentRequest{
		RequestID:     "req-42",
		PayerRef:      "STUDENT-7",
		Amount:        "150.50",
		ServiceType:   "tuition",
		Method:        "transfer",
		PostedDate:    "2024-03-15",
		ActorRef:      "bank-import",
		CorrelationID: "corr-42",
	}
}
