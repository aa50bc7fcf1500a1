package service

import (
	"context"
	"testing"
	"time"

	"github.com/contribution-ledger/internal/domain/servicetype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestServiceTypeServiceImpl_Register(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		repo := new(MockServiceTypeRepository)
		svc := NewServiceTypeService(repo, newTestClock(now), newTestSettings(), newTestLogger())

		repo.On("Create", mock.Anything, mock.MatchedBy(func(st *servicetype.ServiceType) bool {
			return st.Code == "TUITION" && st.Label == "Tuition fees" && st.Active
		})).Return(nil).Once()

		st, err := svc.Register(ctx, " tuition ", "Tuition fees")

		require.NoError(t, err)
		assert.Equal(t, "TUITION", st.Code)
		assert.Equal(t, now, st.CreatedAt)
		repo.AssertExpectations(t)
	})

	t.Run("InvalidCode", func(t *testing.T) {
		repo := new(MockServiceTypeRepository)
		svc := NewServiceTypeService(repo, newTestClock(now), newTestSettings(), newTestLogger())

		_, err := svc.Register(ctx, "no spaces allowed", "Label")

		assert.Equal(t, servicetype.ErrInvalidCode, err)
		repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("DuplicateCode", func(t *testing.T) {
		repo := new(MockServiceTypeRepository)
		svc := NewServiceTypeService(repo, newTestClock(now), newTestSettings(), newTestLogger())

		repo.On("Create", mock.Anything, mock.Anything).Return(servicetype.ErrDuplicateCode{Code: "TUITION"}).Once()

		_, err := svc.Register(ctx, "TUITION", "Tuition")

		assert.Equal(t, servicetype.ErrDuplicateCode{Code: "TUITION"}, err)
	})
}

func TestServiceTypeServiceImpl_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("NormalizesCode", func(t *testing.T) {
		repo := new(MockServiceTypeRepository)
		svc := NewServiceTypeService(repo, newTestClock(time.Now()), newTestSettings(), newTestLogger())

		repo.On("Deactivate", mock.Anything, "LIBRARY_FINE").Return(nil).Once()

		require.NoError(t, svc.Deactivate(ctx, "library_fine"))
		repo.AssertExpectations(t)
	})

	t.Run("UnknownCode", func(t *testing.T) {
		repo := new(MockServiceTypeRepository)
		svc := NewServiceTypeService(repo, newTestClock(time.Now()), newTestSettings(), newTestLogger())

		repo.On("Deactivate", mock.Anything, "GHOST").Return(servicetype.ErrUnknownCode{Code: "GHOST"}).Once()

		err := svc.Deactivate(ctx, "ghost")

		assert.Equal(t, servicetype.ErrUnknownCode{Code: "GHOST"}, err)
	})
}

func TestServiceTypeServiceImpl_ListActive(t *testing.T) {
	repo := new(MockServiceTypeRepository)
	svc := NewServiceTypeService(repo, newTestClock(time.Now()), newTestSettings(), newTestLogger())
	active := []*servicetype.ServiceType{activeServiceType("TUITION"), activeServiceType("UNIFORM")}

	repo.On("ListActive", mock.Anything).Return(active, nil).Once()

	got, err := svc.ListActive(context.Background())

	require.NoError(t, err)
	assert.Equal(t, active, got)
}
