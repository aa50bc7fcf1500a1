package outbox

import (
	"encoding/json"
	"time"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Message carries an audit record from the writing transaction to the audit sink
type Message struct {
	ID            int64               `json:"id"`
	AuditID       uuid.UUID           `json:"audit_id"`
	Action        shared.AuditAction  `json:"action"`
	Payload       json.RawMessage     `json:"payload"`
	Status        shared.OutboxStatus `json:"status"`
	Attempts      int                 `json:"attempts"`
	LastError     string              `json:"last_error,omitempty"`
	CreatedAt     time.Time           `json:"created_at"`
	LastAttemptAt *time.Time          `json:"last_attempt_at,omitempty"`
}

func NewMessage(record *audit.Record) (*Message, error) {
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}

	return &Message{
		AuditID:   record.ID,
		Action:    record.Action,
		Payload:   payload,
		Status:    shared.OutboxStatusPending,
		Attempts:  0,
		CreatedAt: time.Now(),
	}, nil
}

func (m *Message) IncrementAttempts(cause error) {
	m.Attempts++
	if cause != nil {
		m.LastError = cause.Error()
	}
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsProcessed() {
	m.Status = shared.OutboxStatusProcessed
	now := time.Now()
	m.LastAttemptAt = &now
}

func (m *Message) MarkAsFailed() {
	m.Status = shared.OutboxStatusFailedToPublish
	now := time.Now()
	m.LastAttemptAt = &now
}

// GetAuditRecord extracts the audit record from the payload
func (m *Message) GetAuditRecord() (*audit.Record, error) {
	var record audit.Record
	if err := json.Unmarshal(m.Payload, &record); err != nil {
		return nil, err
	}
	return &record, nil
}
