package repositories

import (
	"context"

	"gorm.io/gorm"
)

// gormUnitOfWork implements UnitOfWork on a gorm transaction
type gormUnitOfWork struct {
	db *gorm.DB
}

// NewUnitOfWork creates a unit of work over the given connection
func NewUnitOfWork(db *gorm.DB) UnitOfWork {
	return &gormUnitOfWork{db: db}
}

// Do commits when fn returns nil and rolls back otherwise
func (u *gormUnitOfWork) Do(ctx context.Context, fn func(repos *TxRepositories) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&TxRepositories{
			Vaccines: NewVaccineRepository(tx),
			History:  NewHistoryRepository(tx),
			Audit:    NewAuditRepository(tx),
		})
	})
}
