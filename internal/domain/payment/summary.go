package payment

import (
	"errors"
	"sort"

	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/shopspring/decimal"
)

var ErrInvalidGroupBy = errors.New("group_by must be one of service_type, method, day")

// SummaryRow is the aggregate of every entry sharing one grouping key
type SummaryRow struct {
	Key   string          `json:"key"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// Summary holds the aggregate rows for one group-by dimension
type Summary struct {
	GroupBy    shared.GroupBy  `json:"group_by"`
	Rows       []SummaryRow    `json:"rows"`
	GrandTotal decimal.Decimal `json:"grand_total"`
	EntryCount int             `json:"entry_count"`
}

// Summarizer accumulates entries into a Summary one at a time, so totals
// are computed from exactly the entries a query over the same range returns.
type Summarizer struct {
	groupBy shared.GroupBy
	rows    map[string]*SummaryRow
	total   decimal.Decimal
	count   int
}

// NewSummarizer creates a summarizer for the given dimension
func NewSummarizer(groupBy shared.GroupBy) (*Summarizer, error) {
	if !groupBy.IsValid() {
		return nil, ErrInvalidGroupBy
	}
	return &Summarizer{
		groupBy: groupBy,
		rows:    make(map[string]*SummaryRow),
		total:   decimal.Zero,
	}, nil
}

// Add folds one entry into the summary
func (s *Summarizer) Add(e *Entry) {
	key := s.keyOf(e)
	row, ok := s.rows[key]
	if !ok {
		row = &SummaryRow{Key: key, Total: decimal.Zero}
		s.rows[key] = row
	}
	row.Total = row.Total.Add(e.Amount)
	row.Count++
	s.total = s.total.Add(e.Amount)
	s.count++
}

// Summary returns the accumulated rows ordered by key
func (s *Summarizer) Summary() *Summary {
	rows := make([]SummaryRow, 0, len(s.rows))
	for _, row := range s.rows {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Key < rows[j].Key })

	return &Summary{
		GroupBy:    s.groupBy,
		Rows:       rows,
		GrandTotal: s.total,
		EntryCount: s.count,
	}
}

func (s *Summarizer) keyOf(e *Entry) string {
	switch s.groupBy {
	case shared.GroupByMethod:
		return string(e.Method)
	case shared.GroupByDay:
		return shared.FormatDate(e.PostedDate)
	default:
		return e.ServiceType
	}
}
