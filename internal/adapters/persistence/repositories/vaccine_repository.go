package repositories

import (
	"context"

	"sistema-vacunacion/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// vaccineRepository implements VaccineRepository interface
type vaccineRepository struct {
	db *gorm.DB
}

// NewVaccineRepository creates a new vaccine repository
func NewVaccineRepository(db *gorm.DB) VaccineRepository {
	return &vaccineRepository{db: db}
}

func (r *vaccineRepository) Create(ctx context.Context, vaccine *models.Vaccine) error {
	return r.db.WithContext(ctx).Create(vaccine).Error
}

func (r *vaccineRepository) GetByID(ctx context.Context, id uint) (*models.Vaccine, error) {
	var vaccine models.Vaccine
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&vaccine).Error
	if err != nil {
		return nil, err
	}
	return &vaccine, nil
}

// GetForUpdate reads a vaccine row and locks it until the surrounding transaction ends.
// SQLite has no row locks; its writer lock already serializes the transaction.
func (r *vaccineRepository) GetForUpdate(ctx context.Context, id uint) (*models.Vaccine, error) {
	var vaccine models.Vaccine
	query := r.db.WithContext(ctx)
	if r.db.Dialector.Name() != "sqlite" {
		query = query.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	if err := query.Where("id = ?", id).First(&vaccine).Error; err != nil {
		return nil, err
	}
	return &vaccine, nil
}

func (r *vaccineRepository) List(ctx context.Context) ([]*models.Vaccine, error) {
	var vaccines []*models.Vaccine
	err := r.db.WithContext(ctx).Order("name").Find(&vaccines).Error
	return vaccines, err
}

// Update saves the catalogue columns; stock and active flag have their own operations
func (r *vaccineRepository) Update(ctx context.Context, vaccine *models.Vaccine) error {
	return r.db.WithContext(ctx).
		Model(vaccine).
		Select("Name", "Manufacturer", "RequiredDoses", "IntervalDays", "Lot", "LotDate", "ResponsibleParty").
		Updates(vaccine).Error
}

func (r *vaccineRepository) Delete(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).Delete(&models.Vaccine{}, id)
	return result.RowsAffected > 0, result.Error
}

func (r *vaccineRepository) SetActive(ctx context.Context, id uint, active bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Vaccine{}).
		Where("id = ?", id).
		Update("is_active", active).Error
}

// SetStock overwrites the stock count; false when the vaccine does not exist
func (r *vaccineRepository) SetStock(ctx context.Context, id uint, stock int) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Vaccine{}).
		Where("id = ?", id).
		Update("stock_available", stock)
	return result.RowsAffected > 0, result.Error
}

// DecrementStock takes one unit out of stock. It never drives stock negative:
// false means nothing was left to take.
func (r *vaccineRepository) DecrementStock(ctx context.Context, id uint) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Vaccine{}).
		Where("id = ? AND stock_available > 0", id).
		Update("stock_available", gorm.Expr("stock_available - 1"))
	return result.RowsAffected > 0, result.Error
}

func (r *vaccineRepository) IncrementStock(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).
		Model(&models.Vaccine{}).
		Where("id = ?", id).
		Update("stock_available", gorm.Expr("stock_available + 1")).Error
}

// ListLowStock lists active vaccines at or below the threshold
func (r *vaccineRepository) ListLowStock(ctx context.Context, threshold int) ([]*models.Vaccine, error) {
	var vaccines []*models.Vaccine
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND stock_available <= ?", true, threshold).
		Order("stock_available, name").
		Find(&vaccines).Error
	return vaccines, err
}
