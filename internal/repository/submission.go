package repository

import (
	"context"

	"github.com/aman-churiwal/getyoursite/internal/models"
	"github.com/aman-churiwal/getyoursite/internal/storage"
	"github.com/google/uuid"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500
)

// SubmissionRepository is the durable submission store. Every call goes to
// the database; nothing is cached.
type SubmissionRepository struct {
	db *storage.Postgres
}

func NewSubmissionRepository(db *storage.Postgres) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// Insert persists a new unread submission and returns its id.
func (r *SubmissionRepository) Insert(ctx context.Context, submission *models.Submission) (uuid.UUID, error) {
	submission.Read = false
	if err := r.db.DB.WithContext(ctx).Create(submission).Error; err != nil {
		return uuid.Nil, err
	}
	return submission.ID, nil
}

// List returns up to limit submissions, newest first.
func (r *SubmissionRepository) List(ctx context.Context, limit, offset int) ([]models.Submission, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	submissions := make([]models.Submission, 0)
	err := r.db.DB.WithContext(ctx).
		Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&submissions).Error

	return submissions, err
}

// MarkRead flags a submission as read. Unknown or malformed ids are a no-op.
func (r *SubmissionRepository) MarkRead(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}

	return r.db.DB.WithContext(ctx).
		Model(&models.Submission{}).
		Where("id = ?", parsed).
		Update("read", true).Error
}

// Delete removes a submission. Unknown or malformed ids are a no-op.
func (r *SubmissionRepository) Delete(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil
	}

	return r.db.DB.WithContext(ctx).
		Where("id = ?", parsed).
		Delete(&models.Submission{}).Error
}

func (r *SubmissionRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.Submission{}).
		Count(&count).Error

	return count, err
}

func (r *SubmissionRepository) CountUnread(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.DB.WithContext(ctx).
		Model(&models.Submission{}).
		Where("read = ?", false).
		Count(&count).Error

	return count, err
}
