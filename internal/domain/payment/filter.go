package payment

import (
	"errors"
	"time"

	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

var ErrInvalidDateRange = errors.New("from date must not be after to date")

// Filter narrows payment queries, summaries and exports. Zero values match everything.
type Filter struct {
	From        *time.Time
	To          *time.Time
	ServiceType string
	PayerRef    string
	Method      shared.PaymentMethod
}

// Validate checks the filter for contradictory bounds
func (f Filter) Validate() error {
	if f.From != nil && f.To != nil && f.From.After(*f.To) {
		return ErrInvalidDateRange
	}
	if f.Method != "" && !f.Method.IsValid() {
		return ErrInvalidMethod
	}
	return nil
}

// Cursor marks the position after which the next page starts, in
// (posted_date DESC, created_at DESC, id DESC) order.
type Cursor struct {
	PostedDate time.Time
	CreatedAt  time.Time
	ID         uuid.UUID
}

// CursorOf returns the cursor positioned at e
func CursorOf(e *Entry) Cursor {
	return Cursor{PostedDate: e.PostedDate, CreatedAt: e.CreatedAt, ID: e.ID}
}

// PageRequest selects one page of a query
type PageRequest struct {
	After *Cursor
	Limit int
}
