package service

import (
	"context"
	"errors"

	"github.com/contribution-ledger/internal/domain/audit"
	"github.com/contribution-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

var ErrInvalidSubjectType = errors.New("subject_type must be one of PAYMENT_ENTRY, DAY_LOCK")

// AuditQueryServiceImpl implements the AuditQueryService interface
type AuditQueryServiceImpl struct {
	auditRepo audit.Repository
	settings  Settings
}

// NewAuditQueryService creates a new audit query service
func NewAuditQueryService(auditRepo audit.Repository, settings Settings) AuditQueryService {
	return &AuditQueryServiceImpl{
		auditRepo: auditRepo,
		settings:  settings,
	}
}

// Get retrieves an audit record, returns ErrRecordNotFound if not found
func (s *AuditQueryServiceImpl) Get(ctx context.Context, id uuid.UUID) (*audit.Record, error) {
	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	return s.auditRepo.GetByID(ctx, id)
}

// ListBySubject returns a subject's audit trail, newest first. Pages are 1-based.
func (s *AuditQueryServiceImpl) ListBySubject(ctx context.Context, subjectType shared.SubjectType, subjectID string, page, perPage int) ([]*audit.Record, error) {
	switch subjectType {
	case shared.SubjectTypePaymentEntry, shared.SubjectTypeDayLock:
	default:
		return nil, ErrInvalidSubjectType
	}
	if page < 1 {
		page = 1
	}
	perPage = s.settings.pageSize(perPage)

	ctx, cancel := s.settings.withTimeout(ctx)
	defer cancel()

	return s.auditRepo.ListBySubject(ctx, subjectType, subjectID, perPage, (page-1)*perPage)
}
