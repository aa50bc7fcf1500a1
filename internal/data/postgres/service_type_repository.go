package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/contribution-ledger/internal/domain/servicetype"
	"github.com/contribution-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// ServiceTypeRepository implements the servicetype.Repository interface for PostgreSQL
type ServiceTypeRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewServiceTypeRepository creates a new PostgreSQL service type repository
func NewServiceTypeRepository(logger *slog.Logger, db *persistence.PostgresDB) servicetype.Repository {
	return &ServiceTypeRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *ServiceTypeRepository) WithTx(tx pgx.Tx) servicetype.Repository {
	return &ServiceTypeRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create registers a service type, failing with ErrDuplicateCode if the code is taken
func (r *ServiceTypeRepository) Create(ctx context.Context, st *servicetype.ServiceType) error {
	query := `
		INSERT INTO service_types (code, label, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.querier.Exec(ctx, query, st.Code, st.Label, st.Active, st.CreatedAt, st.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return servicetype.ErrDuplicateCode{Code: st.Code}
		}
		r.logger.Error("Failed to create service type", "code", st.Code, "error", err)
		return fmt.Errorf("failed to create service type: %w", err)
	}

	return nil
}

// GetByCode retrieves a service type regardless of its active flag
func (r *ServiceTypeRepository) GetByCode(ctx context.Context, code string) (*servicetype.ServiceType, error) {
	query := `
		SELECT code, label, active, created_at, updated_at
		FROM service_types
		WHERE code = $1
	`

	var st servicetype.ServiceType
	err := r.querier.QueryRow(ctx, query, code).Scan(&st.Code, &st.Label, &st.Active, &st.CreatedAt, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, servicetype.ErrUnknownCode{Code: code}
		}
		r.logger.Error("Failed to get service type", "code", code, "error", err)
		return nil, fmt.Errorf("failed to get service type: %w", err)
	}

	return &st, nil
}

// Deactivate clears the active flag. The row is kept for historical entries.
func (r *ServiceTypeRepository) Deactivate(ctx context.Context, code string) error {
	query := `
		UPDATE service_types
		SET active = FALSE, updated_at = $1
		WHERE code = $2
	`

	result, err := r.querier.Exec(ctx, query, time.Now().UTC(), code)
	if err != nil {
		r.logger.Error("Failed to deactivate service type", "code", code, "error", err)
		return fmt.Errorf("failed to deactivate service type: %w", err)
	}

	if result.RowsAffected() == 0 {
		return servicetype.ErrUnknownCode{Code: code}
	}

	return nil
}

// ListActive returns the active service types ordered by code
func (r *ServiceTypeRepository) ListActive(ctx context.Context) ([]*servicetype.ServiceType, error) {
	query := `
		SELECT code, label, active, created_at, updated_at
		FROM service_types
		WHERE active
		ORDER BY code ASC
	`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list service types", "error", err)
		return nil, fmt.Errorf("failed to list service types: %w", err)
	}
	defer rows.Close()

	var serviceTypes []*servicetype.ServiceType
	for rows.Next() {
		var st servicetype.ServiceType
		if err := rows.Scan(&st.Code, &st.Label, &st.Active, &st.CreatedAt, &st.UpdatedAt); err != nil {
			r.logger.Error("Failed to scan service type", "error", err)
			return nil, fmt.Errorf("failed to scan service type: %w", err)
		}
		serviceTypes = append(serviceTypes, &st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating over service types: %w", err)
	}

	return serviceTypes, nil
}
