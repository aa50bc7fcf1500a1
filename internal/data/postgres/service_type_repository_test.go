package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/contribution-ledger/internal/domain/servicetype"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServiceTypeRepo(t *testing.T) (*ServiceTypeRepository, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return &ServiceTypeRepository{querier: mock, logger: newTestLogger()}, mock
}

func TestServiceTypeRepository_Create(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`INSERT INTO service_types (code, label, active, created_at, updated_at)`)
	st, err := servicetype.NewServiceType("BUILDING_FUND", "Building Fund")
	require.NoError(t, err)

	t.Run("success", func(t *testing.T) {
		repo, mock := newServiceTypeRepo(t)
		mock.ExpectExec(query).
			WithArgs("BUILDING_FUND", "Building Fund", true, st.CreatedAt, st.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, repo.Create(ctx, st))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("duplicate", func(t *testing.T) {
		repo, mock := newServiceTypeRepo(t)
		mock.ExpectExec(query).WillReturnError(&pgconn.PgError{Code: "23505"})

		err := repo.Create(ctx, st)

		assert.ErrorAs(t, err, &servicetype.ErrDuplicateCode{})
	})
}

func TestServiceTypeRepository_GetByCode(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`FROM service_types WHERE code = $1`)
	now := time.Now()

	t.Run("inactive types are still returned", func(t *testing.T) {
		repo, mock := newServiceTypeRepo(t)
		mock.ExpectQuery(query).WithArgs("SPONSORSHIP").WillReturnRows(
			pgxmock.NewRows([]string{"code", "label", "active", "created_at", "updated_at"}).
				AddRow("SPONSORSHIP", "Sponsorship", false, now, now))

		st, err := repo.GetByCode(ctx, "SPONSORSHIP")

		require.NoError(t, err)
		assert.False(t, st.Active)
	})

	t.Run("unknown", func(t *testing.T) {
		repo, mock := newServiceTypeRepo(t)
		mock.ExpectQuery(query).WithArgs("NOPE").WillReturnError(pgx.ErrNoRows)

		_, err := repo.GetByCode(ctx, "NOPE")

		assert.ErrorAs(t, err, &servicetype.ErrUnknownCode{})
	})
}

func TestServiceTypeRepository_Deactivate(t *testing.T) {
	ctx := context.Background()
	query := regexp.QuoteMeta(`UPDATE service_types SET active = FALSE, updated_at = $1 WHERE code = $2`)

	t.Run("success", func(t *testing.T) {
		repo, mock := newServiceTypeRepo(t)
		mock.ExpectExec(query).WithArgs(pgxmock.AnyArg(), "TITHE").WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.Deactivate(ctx, "TITHE"))
	})

	t.Run("unknown", func(t *testing.T) {
		repo, mock := newServiceTypeRepo(t)
		mock.ExpectExec(query).WithArgs(pgxmock.AnyArg(), "NOPE").WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Deactivate(ctx, "NOPE")

		var unknown servicetype.ErrUnknownCode
		require.ErrorAs(t, err, &unknown)
		assert.Equal(t, "NOPE", unknown.Code)
	})

	t.Run("db error", func(t *testing.T) {
		repo, mock := newServiceTypeRepo(t)
		mock.ExpectExec(query).WillReturnError(errors.New("db error"))

		assert.ErrorContains(t, repo.Deactivate(ctx, "TITHE"), "failed to deactivate service type")
	})
}

func TestServiceTypeRepository_ListActive(t *testing.T) {
	ctx := context.Background()
	repo, mock := newServiceTypeRepo(t)
	now := time.Now()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM service_types WHERE active ORDER BY code ASC`)).
		WillReturnRows(pgxmock.NewRows([]string{"code", "label", "active", "created_at", "updated_at"}).
			AddRow("CONTRIBUTION", "Contribution", true, now, now).
			AddRow("TITHE", "Tithe", true, now, now))

	list, err := repo.ListActive(ctx)

	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "TITHE", list[1].Code)
}
