package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// ExportColumns is the header row of the CSV export. Column order is part of
// the export contract consumed by reconciliation tooling.
var ExportColumns = []string{
	"id",
	"root_id",
	"correction_of",
	"payer_ref",
	"amount",
	"service_type",
	"method",
	"posted_date",
	"memo",
	"actor_ref",
	"created_at",
}

// ExportServiceImpl implements the ExportService interface
type ExportServiceImpl struct {
	db          persistence.TxRunner
	paymentRepo payment.Repository
	logger      *slog.Logger
}

// NewExportService creates a new export service
func NewExportService(db persistence.TxRunner, paymentRepo payment.Repository, logger *slog.Logger) ExportService {
	return &ExportServiceImpl{
		db:          db,
		paymentRepo: paymentRepo,
		logger:      logger,
	}
}

// Export streams matching entries from a read-only snapshot. Exports can be
// large, so only the caller's context bounds the run.
func (s *ExportServiceImpl) Export(ctx context.Context, filter payment.Filter, fn func(*payment.Entry) error) error {
	if err := filter.Validate(); err != nil {
		return err
	}

	return s.db.ExecuteSnapshot(ctx, func(tx pgx.Tx) error {
		return s.paymentRepo.WithTx(tx).Stream(ctx, filter, fn)
	})
}

// WriteCSV writes the header row followed by one row per entry. Nothing reaches
// w until the snapshot yields its first row or completes, so a failure to open
// the snapshot leaves w untouched.
func (s *ExportServiceImpl) WriteCSV(ctx context.Context, filter payment.Filter, w io.Writer) (int, error) {
	cw := csv.NewWriter(w)

	rows := 0
	err := s.Export(ctx, filter, func(e *payment.Entry) error {
		if rows == 0 {
			if err := cw.Write(ExportColumns); err != nil {
				return fmt.Errorf("failed to write export header: %w", err)
			}
		}
		rows++
		return cw.Write(exportRecord(e))
	})
	if err == nil && rows == 0 {
		err = cw.Write(ExportColumns)
	}
	if err != nil {
		if rows > 0 {
			cw.Flush()
		}
		s.logger.Error("Export failed", "rows_written", rows, "error", err)
		return rows, err
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		s.logger.Error("Export failed", "rows_written", rows, "error", err)
		return rows, err
	}

	s.logger.Info("Export completed", "rows_written", rows)
	return rows, nil
}

func exportRecord(e *payment.Entry) []string {
	correctionOf := ""
	if e.CorrectionOf != nil {
		correctionOf = e.CorrectionOf.String()
	}
	return []string{
		e.ID.String(),
		e.RootID.String(),
		correctionOf,
		e.PayerRef,
		e.Amount.StringFixed(payment.AmountScale),
		e.ServiceType,
		string(e.Method),
		shared.FormatDate(e.PostedDate),
		e.Memo,
		e.ActorRef,
		e.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
