package repository

import (
	"context"

	"github.com/aman-churiwal/getyoursite/internal/models"
	"github.com/aman-churiwal/getyoursite/internal/storage"
	"gorm.io/gorm/clause"
)

type SiteSectionRepository struct {
	db *storage.Postgres
}

func NewSiteSectionRepository(db *storage.Postgres) *SiteSectionRepository {
	return &SiteSectionRepository{db: db}
}

func (r *SiteSectionRepository) List(ctx context.Context) ([]models.SiteSection, error) {
	var sections []models.SiteSection
	err := r.db.DB.WithContext(ctx).
		Order("name ASC").
		Find(&sections).Error

	return sections, err
}

// Upsert replaces the stored document for one section.
func (r *SiteSectionRepository) Upsert(ctx context.Context, section *models.SiteSection) error {
	return r.db.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}},
			DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
		}).
		Create(section).Error
}
