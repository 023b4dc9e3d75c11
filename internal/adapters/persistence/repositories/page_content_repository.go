package repositories

import (
	"context"

	"sistema-vacunacion/internal/adapters/persistence/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// pageContentRepository implements PageContentRepository interface
type pageContentRepository struct {
	db *gorm.DB
}

// NewPageContentRepository creates a new page content repository
func NewPageContentRepository(db *gorm.DB) PageContentRepository {
	return &pageContentRepository{db: db}
}

func (r *pageContentRepository) GetBySlug(ctx context.Context, slug string) (*models.PageContent, error) {
	var content models.PageContent
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&content).Error
	if err != nil {
		return nil, err
	}
	return &content, nil
}

// Save inserts the page or replaces the stored document of an existing slug
func (r *pageContentRepository) Save(ctx context.Context, content *models.PageContent) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			DoUpdates: clause.AssignmentColumns([]string{"document", "updated_by", "updated_at"}),
		}).
		Create(content).Error
}
