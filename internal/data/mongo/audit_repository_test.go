package mongo

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/shared"
)

func newTestRecord(t *testing.T) *audit.Record {
	t.Helper()
	record, err := audit.NewRecord(
		shared.AuditActionDayLocked,
		"system",
		shared.SubjectTypeDayLock,
		"2025-01-10",
		map[string]any{"date": "2025-01-10"},
		time.Date(2025, 1, 11, 2, 5, 0, 0, time.UTC),
	)
	require.NoError(t, err)
	return record
}

func recordBSON(record *audit.Record) bson.D {
	return bson.D{
		{Key: "_id", Value: record.ID.String()},
		{Key: "action", Value: string(record.Action)},
		{Key: "actor_ref", Value: record.ActorRef},
		{Key: "subject_type", Value: string(record.SubjectType)},
		{Key: "subject_id", Value: record.SubjectID},
		{Key: "payload", Value: bson.D{{Key: "date", Value: "2025-01-10"}}},
		{Key: "occurred_at", Value: record.OccurredAt},
	}
}

func TestNewAuditRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("constructs", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		assert.NotNil(t, repo)
	})
}

func TestAuditRepository_Append(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("success", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		record := newTestRecord(t)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		err := repo.Append(ctx, record)

		assert.NoError(mt, err)
		started := mt.GetStartedEvent()
		require.NotNil(mt, started)
		assert.Equal(mt, "insert", started.CommandName)
	})

	mt.Run("duplicate", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		record := newTestRecord(t)
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "duplicate key error",
		}))

		err := repo.Append(ctx, record)

		assert.ErrorIs(mt, err, audit.ErrDuplicateRecord{ID: record.ID})
	})

	mt.Run("server error", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{
			Code:    2,
			Message: "bad value",
			Name:    "BadValue",
		}))

		err := repo.Append(ctx, newTestRecord(t))

		assert.ErrorContains(mt, err, "failed to append audit record")
	})
}

func TestAuditRepository_GetByID(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := mtest.TestDb + "." + AuditCollectionName

	mt.Run("found", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		record := newTestRecord(t)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, recordBSON(record)))

		got, err := repo.GetByID(ctx, record.ID)

		require.NoError(mt, err)
		assert.Equal(mt, record.ID, got.ID)
		assert.Equal(mt, shared.AuditActionDayLocked, got.Action)
		assert.Equal(mt, "system", got.ActorRef)
		assert.Equal(mt, "2025-01-10", got.Payload["date"])
		assert.True(mt, record.OccurredAt.Equal(got.OccurredAt))
	})

	mt.Run("not found", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		id := uuid.New()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		got, err := repo.GetByID(ctx, id)

		assert.Nil(mt, got)
		assert.Equal(mt, audit.ErrRecordNotFound{ID: id}, err)
	})
}

func TestAuditRepository_ListBySubject(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()
	ns := mtest.TestDb + "." + AuditCollectionName

	mt.Run("returns records in server order", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		first, second := newTestRecord(t), newTestRecord(t)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, recordBSON(first), recordBSON(second)))

		records, err := repo.ListBySubject(ctx, shared.SubjectTypeDayLock, "2025-01-10", 20, 0)

		require.NoError(mt, err)
		require.Len(mt, records, 2)
		assert.Equal(mt, first.ID, records[0].ID)
		assert.Equal(mt, second.ID, records[1].ID)
	})

	mt.Run("empty", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch))

		records, err := repo.ListBySubject(ctx, shared.SubjectTypePaymentEntry, uuid.NewString(), 20, 0)

		require.NoError(mt, err)
		assert.Empty(mt, records)
	})

	mt.Run("corrupt id", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		bad := bson.D{{Key: "_id", Value: "not-a-uuid"}, {Key: "action", Value: "DAY_LOCKED"}}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, ns, mtest.FirstBatch, bad))

		_, err := repo.ListBySubject(ctx, shared.SubjectTypeDayLock, "2025-01-10", 20, 0)

		assert.ErrorContains(mt, err, "invalid audit record id")
	})
}

func TestAuditRepository_EnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates subject index", func(mt *mtest.T) {
		repo := NewAuditRepository(slog.Default(), mt.DB)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		assert.NoError(mt, repo.EnsureIndexes(context.Background()))
		assert.Equal(mt, "createIndexes", mt.GetStartedEvent().CommandName)
	})
}
