// Package postgres provides PostgreSQL implementations of the domain repositories.
// Payment entries are only ever inserted and read here; the table itself rejects
// UPDATE and DELETE through a trigger installed by the migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/contribution-ledger/internal/domain/payment"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/contribution-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
)

const uniqueViolationCode = "23505"

const paymentEntryColumns = `id, root_id, payer_ref, amount, service_type, method, posted_date, memo, correction_of, idempotency_key, actor_ref, created_at`

// PaymentRepository implements the payment.Repository interface for PostgreSQL
type PaymentRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewPaymentRepository creates a new PostgreSQL payment repository
func NewPaymentRepository(logger *slog.Logger, db *persistence.PostgresDB) payment.Repository {
	return &PaymentRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *PaymentRepository) WithTx(tx pgx.Tx) payment.Repository {
	return &PaymentRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Insert appends a new entry. A reused idempotency key yields ErrDuplicateIdempotencyKey.
func (r *PaymentRepository) Insert(ctx context.Context, entry *payment.Entry) error {
	query := `
		INSERT INTO payment_entries (id, root_id, payer_ref, amount, service_type, method, posted_date, memo, correction_of, idempotency_key, actor_ref, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.querier.Exec(ctx, query,
		entry.ID,
		entry.RootID,
		entry.PayerRef,
		entry.Amount,
		entry.ServiceType,
		string(entry.Method),
		entry.PostedDate,
		entry.Memo,
		entry.CorrectionOf,
		nullIfEmpty(entry.IdempotencyKey),
		entry.ActorRef,
		entry.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode && entry.IdempotencyKey != "" {
			return payment.ErrDuplicateIdempotencyKey{Key: entry.IdempotencyKey}
		}
		r.logger.Error("Failed to insert payment entry", "id", entry.ID.String(), "error", err)
		return fmt.Errorf("failed to insert payment entry: %w", err)
	}

	return nil
}

// GetByID retrieves an entry by its ID
func (r *PaymentRepository) GetByID(ctx context.Context, id uuid.UUID) (*payment.Entry, error) {
	query := `SELECT ` + paymentEntryColumns + `
		FROM payment_entries
		WHERE id = $1
	`

	entry, err := scanEntry(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payment.ErrEntryNotFound{ID: id}
		}
		r.logger.Error("Failed to get payment entry", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get payment entry: %w", err)
	}

	return entry, nil
}

// GetByIdempotencyKey returns the entry recorded under key, or nil when none exists
func (r *PaymentRepository) GetByIdempotencyKey(ctx context.Context, key string) (*payment.Entry, error) {
	query := `SELECT ` + paymentEntryColumns + `
		FROM payment_entries
		WHERE idempotency_key = $1
	`

	entry, err := scanEntry(r.querier.QueryRow(ctx, query, key))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error("Failed to get payment entry by idempotency key", "key", key, "error", err)
		return nil, fmt.Errorf("failed to get payment entry by idempotency key: %w", err)
	}

	return entry, nil
}

// LockLineage takes a row lock on the lineage root until the transaction ends.
// The row itself is never modified.
func (r *PaymentRepository) LockLineage(ctx context.Context, rootID uuid.UUID) error {
	query := `
		SELECT id
		FROM payment_entries
		WHERE id = $1
		FOR UPDATE
	`

	var id uuid.UUID
	if err := r.querier.QueryRow(ctx, query, rootID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payment.ErrEntryNotFound{ID: rootID}
		}
		r.logger.Error("Failed to lock lineage", "root_id", rootID.String(), "error", err)
		return fmt.Errorf("failed to lock lineage: %w", err)
	}

	return nil
}

// SumLineage returns the effective value of a lineage
func (r *PaymentRepository) SumLineage(ctx context.Context, rootID uuid.UUID) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM payment_entries
		WHERE root_id = $1
	`

	var total decimal.Decimal
	if err := r.querier.QueryRow(ctx, query, rootID).Scan(&total); err != nil {
		r.logger.Error("Failed to sum lineage", "root_id", rootID.String(), "error", err)
		return decimal.Zero, fmt.Errorf("failed to sum lineage: %w", err)
	}

	return total, nil
}

// ListLineage returns every entry of a lineage in creation order
func (r *PaymentRepository) ListLineage(ctx context.Context, rootID uuid.UUID) ([]*payment.Entry, error) {
	query := `SELECT ` + paymentEntryColumns + `
		FROM payment_entries
		WHERE root_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.querier.Query(ctx, query, rootID)
	if err != nil {
		r.logger.Error("Failed to list lineage", "root_id", rootID.String(), "error", err)
		return nil, fmt.Errorf("failed to list lineage: %w", err)
	}

	return collectEntries(rows)
}

// List returns one page of entries ordered by posted date then creation time, newest first
func (r *PaymentRepository) List(ctx context.Context, filter payment.Filter, page payment.PageRequest) ([]*payment.Entry, error) {
	where, args := buildEntryFilter(filter)
	if page.After != nil {
		where = append(where, fmt.Sprintf("(posted_date, created_at, id) < ($%d, $%d, $%d)", len(args)+1, len(args)+2, len(args)+3))
		args = append(args, page.After.PostedDate, page.After.CreatedAt, page.After.ID)
	}
	args = append(args, page.Limit)

	query := `SELECT ` + paymentEntryColumns + `
		FROM payment_entries` + whereClause(where) + `
		ORDER BY posted_date DESC, created_at DESC, id DESC
		LIMIT $` + strconv.Itoa(len(args))

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list payment entries", "error", err)
		return nil, fmt.Errorf("failed to list payment entries: %w", err)
	}

	return collectEntries(rows)
}

// Stream visits every matching entry in list order without materializing the result set
func (r *PaymentRepository) Stream(ctx context.Context, filter payment.Filter, fn func(*payment.Entry) error) error {
	where, args := buildEntryFilter(filter)
	query := `SELECT ` + paymentEntryColumns + `
		FROM payment_entries` + whereClause(where) + `
		ORDER BY posted_date DESC, created_at DESC, id DESC
	`

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to stream payment entries", "error", err)
		return fmt.Errorf("failed to stream payment entries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan payment entry", "error", err)
			return fmt.Errorf("failed to scan payment entry: %w", err)
		}
		if err := fn(entry); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over payment entries", "error", err)
		return fmt.Errorf("error iterating over payment entries: %w", err)
	}

	return nil
}

func buildEntryFilter(filter payment.Filter) ([]string, []interface{}) {
	var where []string
	var args []interface{}

	add := func(condition string, value interface{}) {
		args = append(args, value)
		where = append(where, fmt.Sprintf(condition, len(args)))
	}

	if filter.From != nil {
		add("posted_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("posted_date <= $%d", *filter.To)
	}
	if filter.ServiceType != "" {
		add("service_type = $%d", filter.ServiceType)
	}
	if filter.PayerRef != "" {
		add("payer_ref = $%d", filter.PayerRef)
	}
	if filter.Method != "" {
		add("method = $%d", string(filter.Method))
	}

	return where, args
}

func whereClause(conditions []string) string {
	if len(conditions) == 0 {
		return ""
	}
	return "\n\t\tWHERE " + strings.Join(conditions, " AND ")
}

func scanEntry(row pgx.Row) (*payment.Entry, error) {
	var entry payment.Entry
	var method string
	var idempotencyKey *string

	err := row.Scan(
		&entry.ID,
		&entry.RootID,
		&entry.PayerRef,
		&entry.Amount,
		&entry.ServiceType,
		&method,
		&entry.PostedDate,
		&entry.Memo,
		&entry.CorrectionOf,
		&idempotencyKey,
		&entry.ActorRef,
		&entry.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Method = shared.PaymentMethod(method)
	if idempotencyKey != nil {
		entry.IdempotencyKey = *idempotencyKey
	}
	return &entry, nil
}

func collectEntries(rows pgx.Rows) ([]*payment.Entry, error) {
	defer rows.Close()

	var entries []*payment.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over payment entries: %w", err)
	}

	return entries, nil
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
