package producers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockKafkaWriter mocks KafkaWriter interface
type MockKafkaWriter struct {
	mock.Mock
}

func (m *MockKafkaWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	args := m.Called(ctx, msgs)
	return args.Error(0)
}

func (m *MockKafkaWriter) Close() error {
	args := m.Called()
	return args.Error(0)
}

func TestAuditEventProducer_Publish(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	topic := "test-audit"
	ctx := context.Background()

	t.Run("SuccessfulPublish", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &AuditEventProducer{logger: logger, writer: mockWriter, topic: topic}

		key := "PAYMENT_ENTRY:123"
		value := map[string]string{"action": "PAYMENT_RECORDED", "actor_ref": "clerk-1"}
		expectedJSONValue, _ := json.Marshal(value)

		mockWriter.On("WriteMessages", ctx, mock.MatchedBy(func(msgs []kafka.Message) bool {
			if len(msgs) != 1 {
				return false
			}
			msg := msgs[0]
			return string(msg.Key) == key &&
				string(msg.Value) == string(expectedJSONValue) &&
				len(msg.Headers) == 1 && msg.Headers[0].Key == "content-type"
		})).Return(nil).Once()

		err := producer.Publish(ctx, key, value)
		require.NoError(t, err)
		mockWriter.AssertExpectations(t)
	})

	t.Run("MarshalError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &AuditEventProducer{logger: logger, writer: mockWriter, topic: topic}

		err := producer.Publish(ctx, "key", make(chan int))

		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to marshal audit event")
		mockWriter.AssertNotCalled(t, "WriteMessages", mock.Anything, mock.Anything)
	})

	t.Run("WriterError", func(t *testing.T) {
		mockWriter := new(MockKafkaWriter)
		producer := &AuditEventProducer{logger: logger, writer: mockWriter, topic: topic}
		writerErr := errors.New("broker unavailable")
		mockWriter.On("WriteMessages", ctx, mock.AnythingOfType("[]kafka.Message")).Return(writerErr).Once()

		err := producer.Publish(ctx, "key", map[string]string{})

		assert.ErrorIs(t, err, writerErr)
		mockWriter.AssertExpectations(t)
	})
}

func TestAuditEventProducer_Close(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	mockWriter := new(MockKafkaWriter)
	producer := &AuditEventProducer{logger: logger, writer: mockWriter, topic: "audit"}
	mockWriter.On("Close").Return(nil).Once()

	assert.NoError(t, producer.Close())
	mockWriter.AssertExpectations(t)
}
