package repository

import (
	"context"
	"errors"

	"github.com/aman-churiwal/getyoursite/internal/models"
	"github.com/aman-churiwal/getyoursite/internal/storage"
	"gorm.io/gorm"
)

type AdminUserRepository struct {
	db *storage.Postgres
}

func NewAdminUserRepository(db *storage.Postgres) *AdminUserRepository {
	return &AdminUserRepository{db: db}
}

func (r *AdminUserRepository) Create(ctx context.Context, user *models.AdminUser) error {
	return r.db.DB.WithContext(ctx).Create(user).Error
}

// Retrieves an admin by username
func (r *AdminUserRepository) FindByUsername(ctx context.Context, username string) (*models.AdminUser, error) {
	var user models.AdminUser
	err := r.db.DB.WithContext(ctx).
		Where("username = ?", username).
		First(&user).Error

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *AdminUserRepository) UpdatePasswordHash(ctx context.Context, username, hash string) error {
	return r.db.DB.WithContext(ctx).
		Model(&models.AdminUser{}).
		Where("username = ?", username).
		Update("password_hash", hash).Error
}
