package audit_relay

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestRecord(t *testing.T) *audit.Record {
	record, err := audit.NewRecord(shared.AuditActionPaymentRecorded, "clerk-1",
		shared.SubjectTypePaymentEntry, uuid.NewString(), map[string]any{"amount": "25.00"}, time.Now())
	require.NoError(t, err)
	return record
}

func TestSinkPublisher_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("AppendsAndAnnounces", func(t *testing.T) {
		auditRepo, events := new(MockAuditRepo), new(MockMessagePublisher)
		publisher := NewSinkPublisher(auditRepo, events, newTestLogger())
		record := newTestRecord(t)

		auditRepo.On("Append", mock.Anything, record).Return(nil).Once()
		events.On("Publish", mock.Anything, "PAYMENT_ENTRY:"+record.SubjectID, record).Return(nil).Once()

		require.NoError(t, publisher.Publish(ctx, record))
		auditRepo.AssertExpectations(t)
		events.AssertExpectations(t)
	})

	t.Run("DuplicateRecordStillAnnounced", func(t *testing.T) {
		auditRepo, events := new(MockAuditRepo), new(MockMessagePublisher)
		publisher := NewSinkPublisher(auditRepo, events, newTestLogger())
		record := newTestRecord(t)

		auditRepo.On("Append", mock.Anything, record).Return(audit.ErrDuplicateRecord{ID: record.ID}).Once()
		events.On("Publish", mock.Anything, mock.Anything, record).Return(nil).Once()

		require.NoError(t, publisher.Publish(ctx, record))
		events.AssertExpectations(t)
	})

	t.Run("StoreError", func(t *testing.T) {
		auditRepo, events := new(MockAuditRepo), new(MockMessagePublisher)
		publisher := NewSinkPublisher(auditRepo, events, newTestLogger())
		record := newTestRecord(t)
		storeErr := errors.New("no reachable servers")

		auditRepo.On("Append", mock.Anything, record).Return(storeErr).Once()

		err := publisher.Publish(ctx, record)

		assert.ErrorIs(t, err, storeErr)
		events.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("EventError", func(t *testing.T) {
		auditRepo, events := new(MockAuditRepo), new(MockMessagePublisher)
		publisher := NewSinkPublisher(auditRepo, events, newTestLogger())
		record := newTestRecord(t)
		kafkaErr := errors.New("leader not available")

		auditRepo.On("Append", mock.Anything, record).Return(nil).Once()
		events.On("Publish", mock.Anything, mock.Anything, record).Return(kafkaErr).Once()

		assert.ErrorIs(t, publisher.Publish(ctx, record), kafkaErr)
	})

	t.Run("NoEventPublisher", func(t *testing.T) {
		auditRepo := new(MockAuditRepo)
		publisher := NewSinkPublisher(auditRepo, nil, newTestLogger())
		record := newTestRecord(t)

		auditRepo.On("Append", mock.Anything, record).Return(nil).Once()

		require.NoError(t, publisher.Publish(ctx, record))
	})
}
