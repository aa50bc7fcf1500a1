package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/shared"
)

const (
	// AuditCollectionName is the name of the audit collection in MongoDB
	AuditCollectionName = "audit_records"
)

// recordDocument is the stored shape of an audit record. The record id doubles
// as the document id so redelivery of the same record is rejected by the server.
type recordDocument struct {
	ID            string    `bson:"_id"`
	Action        string    `bson:"action"`
	ActorRef      string    `bson:"actor_ref"`
	SubjectType   string    `bson:"subject_type"`
	SubjectID     string    `bson:"subject_id"`
	Payload       bson.M    `bson:"payload"`
	CorrelationID string    `bson:"correlation_id,omitempty"`
	OccurredAt    time.Time `bson:"occurred_at"`
}

func toDocument(record *audit.Record) recordDocument {
	return recordDocument{
		ID:            record.ID.String(),
		Action:        string(record.Action),
		ActorRef:      record.ActorRef,
		SubjectType:   string(record.SubjectType),
		SubjectID:     record.SubjectID,
		Payload:       bson.M(record.Payload),
		CorrelationID: record.CorrelationID,
		OccurredAt:    record.OccurredAt.UTC(),
	}
}

func (d recordDocument) toRecord() (*audit.Record, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid audit record id %q: %w", d.ID, err)
	}

	payload := make(map[string]any, len(d.Payload))
	for k, v := range d.Payload {
		payload[k] = v
	}

	return &audit.Record{
		ID:            id,
		Action:        shared.AuditAction(d.Action),
		ActorRef:      d.ActorRef,
		SubjectType:   shared.SubjectType(d.SubjectType),
		SubjectID:     d.SubjectID,
		Payload:       payload,
		CorrelationID: d.CorrelationID,
		OccurredAt:    d.OccurredAt,
	}, nil
}

// AuditRepository implements the audit.Repository interface for MongoDB
type AuditRepository struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewAuditRepository creates a new MongoDB audit repository
func NewAuditRepository(logger *slog.Logger, db *mongo.Database) *AuditRepository {
	return &AuditRepository{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the subject lookup index used by ListBySubject
func (r *AuditRepository) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(AuditCollectionName)

	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "subject_type", Value: 1},
			{Key: "subject_id", Value: 1},
			{Key: "occurred_at", Value: -1},
		},
		Options: options.Index().SetName("subject_lookup"),
	})
	if err != nil {
		r.logger.Error("Failed to create audit indexes", "error", err)
		return fmt.Errorf("failed to create audit indexes: %w", err)
	}

	return nil
}

// Append stores a record. Returns ErrDuplicateRecord if the record id was already stored.
func (r *AuditRepository) Append(ctx context.Context, record *audit.Record) error {
	collection := r.db.Collection(AuditCollectionName)

	_, err := collection.InsertOne(ctx, toDocument(record))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return audit.ErrDuplicateRecord{ID: record.ID}
		}
		r.logger.Error("Failed to append audit record",
			"audit_id", record.ID.String(),
			"action", string(record.Action),
			"error", err)
		return fmt.Errorf("failed to append audit record: %w", err)
	}

	return nil
}

// GetByID retrieves an audit record by its id.
// Returns ErrRecordNotFound if no record exists.
func (r *AuditRepository) GetByID(ctx context.Context, id uuid.UUID) (*audit.Record, error) {
	collection := r.db.Collection(AuditCollectionName)

	var doc recordDocument
	err := collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, audit.ErrRecordNotFound{ID: id}
		}
		r.logger.Error("Failed to get audit record",
			"audit_id", id.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get audit record: %w", err)
	}

	return doc.toRecord()
}

// ListBySubject retrieves paginated audit records about one subject.
// Results are sorted by occurrence time in descending order (newest first).
func (r *AuditRepository) ListBySubject(ctx context.Context, subjectType shared.SubjectType, subjectID string, limit, offset int) ([]*audit.Record, error) {
	collection := r.db.Collection(AuditCollectionName)

	filter := bson.M{
		"subject_type": string(subjectType),
		"subject_id":   subjectID,
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "occurred_at", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list audit records",
			"subject_type", string(subjectType),
			"subject_id", subjectID,
			"error", err)
		return nil, fmt.Errorf("failed to list audit records: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []recordDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode audit records",
			"subject_type", string(subjectType),
			"subject_id", subjectID,
			"error", err)
		return nil, fmt.Errorf("failed to decode audit records: %w", err)
	}

	records := make([]*audit.Record, 0, len(docs))
	for _, doc := range docs {
		record, err := doc.toRecord()
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}

	return records, nil
}
