package services

import (
	"context"

	"sistema-vacunacion/internal/adapters/persistence/repositories"
	"sistema-vacunacion/internal/core/domain"
)

// AuditService reads the audit log (bitácora)
type AuditService struct {
	auditRepo repositories.AuditRepository
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo repositories.AuditRepository) *AuditService {
	return &AuditService{auditRepo: auditRepo}
}

// AuditQuery represents audit log filters as received from the client
type AuditQuery struct {
	From   string
	To     string
	Actor  string
	Action string
}

// List pages through the audit log newest first. "to" includes the whole day.
func (s *AuditService) List(ctx context.Context, query AuditQuery, offset, limit int) ([]*repositories.AuditRow, int64, error) {
	from, err := domain.ParseOptionalDate(query.From)
	if err != nil {
		return nil, 0, err
	}
	to, err := domain.ParseOptionalDate(query.To)
	if err != nil {
		return nil, 0, err
	}
	if to != nil {
		end := to.AddDate(0, 0, 1)
		to = &end
	}

	rows, total, err := s.auditRepo.List(ctx, repositories.AuditFilter{
		From:   from,
		To:     to,
		Actor:  query.Actor,
		Action: query.Action,
	}, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	if rows == nil {
		rows = []*repositories.AuditRow{}
	}
	return rows, total, nil
}
