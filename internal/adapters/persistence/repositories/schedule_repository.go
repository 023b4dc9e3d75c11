package repositories

import (
	"context"

	"sistema-vacunacion/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// scheduleRepository implements ScheduleRepository interface
type scheduleRepository struct {
	db *gorm.DB
}

// NewScheduleRepository creates a new dose schedule repository
func NewScheduleRepository(db *gorm.DB) ScheduleRepository {
	return &scheduleRepository{db: db}
}

func (r *scheduleRepository) Create(ctx context.Context, schedule *models.DoseSchedule) error {
	return r.db.WithContext(ctx).Omit("Vaccine").Create(schedule).Error
}

func (r *scheduleRepository) GetByID(ctx context.Context, id uint) (*models.DoseSchedule, error) {
	var schedule models.DoseSchedule
	err := r.db.WithContext(ctx).Preload("Vaccine").Where("id = ?", id).First(&schedule).Error
	if err != nil {
		return nil, err
	}
	return &schedule, nil
}

// List returns schedules, optionally only those of one vaccine
func (r *scheduleRepository) List(ctx context.Context, vaccineID *uint) ([]*models.DoseSchedule, error) {
	var schedules []*models.DoseSchedule
	query := r.db.WithContext(ctx).Preload("Vaccine")
	if vaccineID != nil {
		query = query.Where("vaccine_id = ?", *vaccineID)
	}
	err := query.Order("vaccine_id, id").Find(&schedules).Error
	return schedules, err
}

func (r *scheduleRepository) Update(ctx context.Context, schedule *models.DoseSchedule) error {
	return r.db.WithContext(ctx).
		Model(schedule).
		Select("VaccineID", "RecommendedAge", "RiskGroup", "DoseType").
		Updates(schedule).Error
}

func (r *scheduleRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.DoseSchedule{}, id)
	return result.RowsAffected > 0, result.Error
}
