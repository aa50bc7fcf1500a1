package handler

import (
	"time"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/daylock"
	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/servicetype"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/ledger/service"
	"github.com/shopspring/decimal"
)

// RecordPaymentRequest represents a request to record a payment
type RecordPaymentRequest struct {
	PayerRef    string `json:"payer_ref" binding:"required,max=128"`
	Amount      string `json:"amount" binding:"required"`
	ServiceType string `json:"service_type" binding:"required"`
	Method      string `json:"method" binding:"required"`
	PostedDate  string `json:"posted_date" binding:"omitempty,datetime=2006-01-02"`
	Memo        string `json:"memo" binding:"max=500"`
}

// CorrectPaymentRequest represents a request to correct a payment lineage to a new total
type CorrectPaymentRequest struct {
	NewAmount  string `json:"new_amount" binding:"required"`
	Reason     string `json:"reason"`
	PostedDate string `json:"posted_date" binding:"omitempty,datetime=2006-01-02"`
}

// LockDayRequest represents a request to lock a calendar day
type LockDayRequest struct {
	Date string `json:"date" binding:"required,datetime=2006-01-02"`
}

// UnlockDayRequest represents a request to unlock a calendar day
type UnlockDayRequest struct {
	Justification string `json:"justification"`
}

// RegisterServiceTypeRequest represents a request to add a service type
type RegisterServiceTypeRequest struct {
	Code  string `json:"code" binding:"required,max=32"`
	Label string `json:"label" binding:"required"`
}

// PaymentFilterQuery holds the filters shared by list, summary and export
type PaymentFilterQuery struct {
	From        string `form:"from" binding:"omitempty,datetime=2006-01-02"`
	To          string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	ServiceType string `form:"service_type"`
	PayerRef    string `form:"payer_ref"`
	Method      string `form:"method"`
}

// PaymentListQuery represents the query string of the payment list endpoint
type PaymentListQuery struct {
	PaymentFilterQuery
	PageToken string `form:"page_token"`
	PageSize  int    `form:"page_size" binding:"omitempty,min=1"`
}

// SummaryQuery represents the query string of the summary endpoint
type SummaryQuery struct {
	PaymentFilterQuery
	GroupBy string `form:"group_by,default=service_type"`
}

// DayLockRangeQuery represents the query string of the locked days endpoint
type DayLockRangeQuery struct {
	From string `form:"from" binding:"required,datetime=2006-01-02"`
	To   string `form:"to" binding:"required,datetime=2006-01-02"`
}

// AuditListQuery represents the query string of the audit list endpoint
type AuditListQuery struct {
	SubjectType string `form:"subject_type" binding:"required"`
	SubjectID   string `form:"subject_id" binding:"required"`
	PaginationParams
}

// PaginationParams represents pagination parameters for offset-paged list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1"`
	PerPage int `form:"per_page,default=20" binding:"min=1,max=100"`
}

// PaymentResponse represents a payment entry in API responses
type PaymentResponse struct {
	ID           string `json:"id"`
	RootID       string `json:"root_id"`
	CorrectionOf string `json:"correction_of,omitempty"`
	PayerRef     string `json:"payer_ref"`
	Amount       string `json:"amount"`
	ServiceType  string `json:"service_type"`
	Method       string `json:"method"`
	PostedDate   string `json:"posted_date"`
	Memo         string `json:"memo,omitempty"`
	ActorRef     string `json:"actor_ref"`
	CreatedAt    string `json:"created_at"`
}

// CorrectionResponse represents an appended correction in API responses
type CorrectionResponse struct {
	Correction     PaymentResponse `json:"correction"`
	PreviousValue  string          `json:"previous_value"`
	EffectiveValue string          `json:"effective_value"`
}

// LineageResponse represents a payment lineage in API responses
type LineageResponse struct {
	RootID         string            `json:"root_id"`
	EffectiveValue string            `json:"effective_value"`
	Entries        []PaymentResponse `json:"entries"`
}

// SummaryRowResponse represents one group of a summary
type SummaryRowResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
	Total string `json:"total"`
}

// SummaryResponse represents an aggregated view of payments
type SummaryResponse struct {
	GroupBy string               `json:"group_by"`
	Rows    []SummaryRowResponse `json:"rows"`
	Count   int                  `json:"count"`
	Total   string               `json:"total"`
}

// DayLockResponse represents the lock state of a day
type DayLockResponse struct {
	Date                string `json:"date"`
	Locked              bool   `json:"locked"`
	LockedAt            string `json:"locked_at,omitempty"`
	LockedBy            string `json:"locked_by,omitempty"`
	UnlockJustification string `json:"unlock_justification,omitempty"`
	UnlockedBy          string `json:"unlocked_by,omitempty"`
	UnlockedAt          string `json:"unlocked_at,omitempty"`
}

// ServiceTypeResponse represents a service type in API responses
type ServiceTypeResponse struct {
	Code      string `json:"code"`
	Label     string `json:"label"`
	Active    bool   `json:"active"`
	CreatedAt string `json:"created_at"`
}

// AuditRecordResponse represents an audit record in API responses
type AuditRecordResponse struct {
	ID            string         `json:"id"`
	Action        string         `json:"action"`
	ActorRef      string         `json:"actor_ref"`
	SubjectType   string         `json:"subject_type"`
	SubjectID     string         `json:"subject_id"`
	Payload       map[string]any `json:"payload"`
	CorrelationID string         `json:"correlation_id,omitempty"`
	OccurredAt    string         `json:"occurred_at"`
}

// toFilter converts the query string into a domain filter
func (q PaymentFilterQuery) toFilter() (payment.Filter, error) {
	var filter payment.Filter
	if q.From != "" {
		from, err := shared.ParseDate(q.From)
		if err != nil {
			return filter, err
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := shared.ParseDate(q.To)
		if err != nil {
			return filter, err
		}
		filter.To = &to
	}
	if q.Method != "" {
		method, ok := shared.ParsePaymentMethod(q.Method)
		if !ok {
			return filter, payment.ErrInvalidMethod
		}
		filter.Method = method
	}
	if q.ServiceType != "" {
		filter.ServiceType = servicetype.NormalizeCode(q.ServiceType)
	}
	filter.PayerRef = q.PayerRef
	return filter, filter.Validate()
}

// parseAmount parses a decimal amount string, reporting malformed input as an invalid amount
func parseAmount(s string) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, payment.ErrInvalidAmount
	}
	return amount, nil
}

// parseOptionalDate parses an optional YYYY-MM-DD date
func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	date, err := shared.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &date, nil
}

func formatAmount(d decimal.Decimal) string {
	return d.StringFixed(payment.AmountScale)
}

func mapEntryToResponse(entry *payment.Entry) PaymentResponse {
	response := PaymentResponse{
		ID:          entry.ID.String(),
		RootID:      entry.RootID.String(),
		PayerRef:    entry.PayerRef,
		Amount:      formatAmount(entry.Amount),
		ServiceType: entry.ServiceType,
		Method:      string(entry.Method),
		PostedDate:  shared.FormatDate(entry.PostedDate),
		Memo:        entry.Memo,
		ActorRef:    entry.ActorRef,
		CreatedAt:   entry.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
	if entry.CorrectionOf != nil {
		response.CorrectionOf = entry.CorrectionOf.String()
	}
	return response
}

func mapEntriesToResponse(entries []*payment.Entry) []PaymentResponse {
	responses := make([]PaymentResponse, 0, len(entries))
	for _, entry := range entries {
		responses = append(responses, mapEntryToResponse(entry))
	}
	return responses
}

func mapCorrectionToResponse(result *service.CorrectionResult) CorrectionResponse {
	return CorrectionResponse{
		Correction:     mapEntryToResponse(result.Correction),
		PreviousValue:  formatAmount(result.PreviousValue),
		EffectiveValue: formatAmount(result.EffectiveValue),
	}
}

func mapLineageToResponse(lineage *payment.Lineage) LineageResponse {
	return LineageResponse{
		RootID:         lineage.Root.ID.String(),
		EffectiveValue: formatAmount(lineage.EffectiveValue),
		Entries:        mapEntriesToResponse(lineage.Entries),
	}
}

func mapSummaryToResponse(summary *payment.Summary) SummaryResponse {
	response := SummaryResponse{
		GroupBy: string(summary.GroupBy),
		Rows:    make([]SummaryRowResponse, 0, len(summary.Rows)),
		Count:   summary.EntryCount,
		Total:   formatAmount(summary.GrandTotal),
	}
	for _, row := range summary.Rows {
		response.Rows = append(response.Rows, SummaryRowResponse{
			Key:   row.Key,
			Count: row.Count,
			Total: formatAmount(row.Total),
		})
	}
	return response
}

func mapDayLockToResponse(lock *daylock.DayLock) DayLockResponse {
	response := DayLockResponse{
		Date:                shared.FormatDate(lock.Date),
		Locked:              lock.Locked,
		LockedBy:            lock.LockedBy,
		UnlockJustification: lock.UnlockJustification,
		UnlockedBy:          lock.UnlockedBy,
	}
	if lock.LockedAt != nil {
		response.LockedAt = lock.LockedAt.UTC().Format(time.RFC3339)
	}
	if lock.UnlockedAt != nil {
		response.UnlockedAt = lock.UnlockedAt.UTC().Format(time.RFC3339)
	}
	return response
}

func mapServiceTypeToResponse(st *servicetype.ServiceType) ServiceTypeResponse {
	return ServiceTypeResponse{
		Code:      st.Code,
		Label:     st.Label,
		Active:    st.Active,
		CreatedAt: st.CreatedAt.UTC().Format(time.RFC3339),
	}
}

func mapAuditRecordToResponse(record *audit.Record) AuditRecordResponse {
	return AuditRecordResponse{
		ID:            record.ID.String(),
		Action:        string(record.Action),
		ActorRef:      record.ActorRef,
		SubjectType:   string(record.SubjectType),
		SubjectID:     record.SubjectID,
		Payload:       record.Payload,
		CorrelationID: record.CorrelationID,
		OccurredAt:    record.OccurredAt.UTC().Format(time.RFC3339Nano),
	}
}
