package repositories

import (
	"context"
	"time"

	"sistema-vacunacion/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// historyRepository implements HistoryRepository interface
type historyRepository struct {
	db *gorm.DB
}

// NewHistoryRepository creates a new dose history repository
func NewHistoryRepository(db *gorm.DB) HistoryRepository {
	return &historyRepository{db: db}
}

func (r *historyRepository) Create(ctx context.Context, record *models.HistoryRecord) error {
	return r.db.WithContext(ctx).Omit("User", "Vaccine").Create(record).Error
}

func (r *historyRepository) GetByID(ctx context.Context, id uint) (*models.HistoryRecord, error) {
	var record models.HistoryRecord
	err := r.db.WithContext(ctx).
		Preload("User").
		Preload("Vaccine").
		Where("id = ?", id).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// FindByTriple finds the record of one dose of one vaccine for one user
func (r *historyRepository) FindByTriple(ctx context.Context, userID, vaccineID uint, dose string) (*models.HistoryRecord, error) {
	var record models.HistoryRecord
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND vaccine_id = ? AND dose = ?", userID, vaccineID, dose).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListByUser lists a user's doses, newest application first
func (r *historyRepository) ListByUser(ctx context.Context, userID uint) ([]*models.HistoryRecord, error) {
	var records []*models.HistoryRecord
	err := r.db.WithContext(ctx).
		Preload("Vaccine").
		Where("user_id = ?", userID).
		Order("application_date DESC, id DESC").
		Find(&records).Error
	return records, err
}

func (r *historyRepository) List(ctx context.Context, filter HistoryFilter, offset, limit int) ([]*models.HistoryRecord, int64, error) {
	var records []*models.HistoryRecord
	var total int64

	err := applyHistoryFilter(r.db.WithContext(ctx).Model(&models.HistoryRecord{}), filter).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = applyHistoryFilter(r.db.WithContext(ctx), filter).
		Preload("User").
		Preload("Vaccine").
		Order("application_date DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func applyHistoryFilter(query *gorm.DB, filter HistoryFilter) *gorm.DB {
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.From != nil {
		query = query.Where("application_date >= ?", *filter.From)
	}
	if filter.To != nil {
		query = query.Where("application_date <= ?", *filter.To)
	}
	return query
}

// UpdateApplication edits the date and responsible party of a record
func (r *historyRepository) UpdateApplication(ctx context.Context, id uint, date time.Time, responsible string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.HistoryRecord{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"application_date":  date,
			"responsible_party": responsible,
		})
	return result.RowsAffected > 0, result.Error
}

func (r *historyRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.HistoryRecord{}, id)
	return result.RowsAffected > 0, result.Error
}

func (r *historyRepository) CountByUser(ctx context.Context, userID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.HistoryRecord{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *historyRepository) CountByVaccine(ctx context.Context, vaccineID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.HistoryRecord{}).Where("vaccine_id = ?", vaccineID).Count(&count).Error
	return count, err
}

// CountByVaccineOn counts doses of a vaccine applied on one calendar day
func (r *historyRepository) CountByVaccineOn(ctx context.Context, vaccineID uint, day time.Time) (int64, error) {
	var count int64
	start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC)
	err := r.db.WithContext(ctx).
		Model(&models.HistoryRecord{}).
		Where("vaccine_id = ? AND application_date >= ? AND application_date < ?", vaccineID, start, start.AddDate(0, 0, 1)).
		Count(&count).Error
	return count, err
}
