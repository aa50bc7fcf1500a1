package service

import (
	"context"
	"log/slog"

	"github.com/contribution-ledger/internal/domain/servicetype"
	"github.com/facebookgo/clock"
)

// ServiceTypeServiceImpl implements the ServiceTypeService interface
type ServiceTypeServiceImpl struct {
	serviceTypeRepo servicetype.Repository
	clock           clock.Clock
	settings        Settings
	logger          *slog.Logger
}

// NewServiceTypeService creates a new service type service
func NewServiceTypeService(serviceTypeRepo servicetype.Repository, clk clock.Clock, settings Settings, logger *slog.Logger) ServiceTypeService {
	return &ServiceTypeServiceImpl{
		serviceTypeRepo: serviceTypeRepo,
		clock:           clk,
		settings:        settings,
		logger:          logger,
	}
}

// Register creates an active service type, returns ErrDuplicateCode if the code exists
func (s *ServiceTypeServiceImpl) Register(ctx context.Context, code, label string) (*servicetype.ServiceType, error) {
	st, err := servicetype.NewServiceType(code, label)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().UTC()
	st.CreatedAt, st.UpdatedAt = now, now

	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	if err := s.serviceTypeRepo.Create(ctx, st); err != nil {
		return nil, err
	}

	s.logger.Info("Service type registered", "code", st.Code)
	return st, nil
}

// Deactivate stops new payments from referencing code. Existing entries keep it.
func (s *ServiceTypeServiceImpl) Deactivate(ctx context.Context, code string) error {
	code = servicetype.NormalizeCode(code)

	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	if err := s.serviceTypeRepo.Deactivate(ctx, code); err != nil {
		return err
	}

	s.logger.Info("Service type deactivated", "code", code)
	return nil
}

// ListActive returns the service types payments may currently reference
func (s *ServiceTypeServiceImpl) ListActive(ctx context.Context) ([]*servicetype.ServiceType, error) {
	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	return s.serviceTypeRepo.ListActive(ctx)
}
