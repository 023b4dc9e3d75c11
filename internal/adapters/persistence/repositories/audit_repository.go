package repositories

import (
	"context"
	"strings"

	"sistema-vacunacion/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

const auditRowColumns = "audit_log.id, audit_log.action, audit_log.actor, audit_log.subject_user_id, " +
	"users.full_name AS subject_name, audit_log.created_at"

// auditRepository implements AuditRepository interface
type auditRepository struct {
	db *gorm.DB
}

// NewAuditRepository creates a new audit log repository
func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(ctx context.Context, entry *models.AuditEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

// List pages through the log newest first
func (r *auditRepository) List(ctx context.Context, filter AuditFilter, offset, limit int) ([]*AuditRow, int64, error) {
	var rows []*AuditRow
	var total int64

	err := r.filtered(ctx, filter).Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = r.filtered(ctx, filter).
		Select(auditRowColumns).
		Order("audit_log.created_at DESC, audit_log.id DESC").
		Offset(offset).
		Limit(limit).
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}

// Recent returns the newest entries
func (r *auditRepository) Recent(ctx context.Context, limit int) ([]*AuditRow, error) {
	var rows []*AuditRow
	err := r.filtered(ctx, AuditFilter{}).
		Select(auditRowColumns).
		Order("audit_log.created_at DESC, audit_log.id DESC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *auditRepository) filtered(ctx context.Context, filter AuditFilter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Table("audit_log").
		Joins("LEFT JOIN users ON users.id = audit_log.subject_user_id")

	if filter.From != nil {
		query = query.Where("audit_log.created_at >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("audit_log.created_at < ?", *filter.To)
	}
	if actor := strings.TrimSpace(filter.Actor); actor != "" {
		like := "%" + actor + "%"
		query = query.Where("(LOWER(audit_log.actor) LIKE LOWER(?) OR LOWER(users.full_name) LIKE LOWER(?))", like, like)
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		query = query.Where("LOWER(audit_log.action) LIKE LOWER(?)", "%"+action+"%")
	}
	return query
}
