package repository

import (
	"context"
	"errors"

	"viralpik/internal/models"

	"gorm.io/gorm"
)

// CommentRepository stores the discussion thread under each asset.
type CommentRepository interface {
	Create(ctx context.Context, comment *models.Comment) error
	GetByID(ctx context.Context, id uint) (*models.Comment, error)
	// ListByAsset returns one page, newest first, and the thread's total size.
	ListByAsset(ctx context.Context, assetID uint, limit, offset int) ([]*models.Comment, int64, error)
	// DeleteOwned soft-deletes id only when userID wrote it.
	DeleteOwned(ctx context.Context, id, userID uint) error
}

type commentRepository struct {
	db *gorm.DB
}

func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, comment *models.Comment) error {
	err := r.db.WithContext(ctx).Omit("User").Create(comment).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *commentRepository) GetByID(ctx context.Context, id uint) (*models.Comment, error) {
	var comment models.Comment
	err := r.db.WithContext(ctx).Preload("User").Take(&comment, id).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return nil, models.NewNotFoundError("Comment", id)
	case err != nil:
		return nil, models.NewInternalError(err)
	}
	return &comment, nil
}

func (r *commentRepository) ListByAsset(ctx context.Context, assetID uint, limit, offset int) ([]*models.Comment, int64, error) {
	limit, offset = clampPage(limit, offset)
	thread := readDB(r.db).WithContext(ctx).Model(&models.Comment{}).Where("asset_id = ?", assetID).
		Session(&gorm.Session{})

	var total int64
	if err := thread.Count(&total).Error; err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	comments := make([]*models.Comment, 0, min(limit, int(total)))
	if total == 0 {
		return comments, 0, nil
	}
	err := thread.Preload("User").
		Order("created_at DESC, id DESC").
		Limit(limit).Offset(offset).
		Find(&comments).Error
	if err != nil {
		return nil, 0, models.NewInternalError(err)
	}
	return comments, total, nil
}

func (r *commentRepository) DeleteOwned(ctx context.Context, id, userID uint) error {
	res := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	return nil
}
