package repositories

import (
	"context"

	"sistema-vacunacion/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

// appliedVaccineRepository implements AppliedVaccineRepository interface
type appliedVaccineRepository struct {
	db *gorm.DB
}

// NewAppliedVaccineRepository creates a new applied vaccine register repository
func NewAppliedVaccineRepository(db *gorm.DB) AppliedVaccineRepository {
	return &appliedVaccineRepository{db: db}
}

func (r *appliedVaccineRepository) Create(ctx context.Context, record *models.AppliedVaccine) error {
	return r.db.WithContext(ctx).Omit("User").Create(record).Error
}

func (r *appliedVaccineRepository) GetByID(ctx context.Context, id uint) (*models.AppliedVaccine, error) {
	var record models.AppliedVaccine
	err := r.db.WithContext(ctx).Preload("User").Where("id = ?", id).First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *appliedVaccineRepository) List(ctx context.Context, filter HistoryFilter, offset, limit int) ([]*models.AppliedVaccine, int64, error) {
	var records []*models.AppliedVaccine
	var total int64

	err := applyHistoryFilter(r.db.WithContext(ctx).Model(&models.AppliedVaccine{}), filter).
		Count(&total).Error
	if err != nil {
		return nil, 0, err
	}

	err = applyHistoryFilter(r.db.WithContext(ctx), filter).
		Preload("User").
		Order("application_date DESC, id DESC").
		Offset(offset).
		Limit(limit).
		Find(&records).Error
	if err != nil {
		return nil, 0, err
	}

	return records, total, nil
}

func (r *appliedVaccineRepository) Update(ctx context.Context, record *models.AppliedVaccine) error {
	return r.db.WithContext(ctx).
		Model(record).
		Select("VaccineName", "ApplicationDate", "Dose", "Lot", "ResponsibleParty", "Notes", "Route", "Site").
		Updates(record).Error
}

func (r *appliedVaccineRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.AppliedVaccine{}, id)
	return result.RowsAffected > 0, result.Error
}
