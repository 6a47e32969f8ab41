package repository

import (
	"context"
	"time"

	"viralpik/internal/cache"
	"viralpik/internal/models"

	"gorm.io/gorm"
)

// DownloadRepository records authorized downloads.
type DownloadRepository interface {
	Record(ctx context.Context, d *models.Download) error
	CountSince(ctx context.Context, userID uint, since time.Time) (int64, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Download, error)
	CountAll(ctx context.Context, since time.Time) (int64, error)
}

type downloadRepository struct {
	db *gorm.DB
}

// NewDownloadRepository returns a new DownloadRepository implementation.
func NewDownloadRepository(db *gorm.DB) DownloadRepository {
	return &downloadRepository{db: db}
}

// Record stores the audit row and bumps the asset download counter in one transaction.
func (r *downloadRepository) Record(ctx context.Context, d *models.Download) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(d).Error; err != nil {
			return err
		}
		return tx.Model(&models.Asset{}).Where("id = ?", d.AssetID).
			UpdateColumn("download_count", gorm.Expr("download_count + 1")).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateAsset(ctx, d.AssetID)
	return nil
}

func (r *downloadRepository) CountSince(ctx context.Context, userID uint, since time.Time) (int64, error) {
	var n int64
	if err := r.db.WithContext(ctx).Model(&models.Download{}).
		Where("user_id = ? AND created_at >= ?", userID, since).
		Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}

func (r *downloadRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Download, error) {
	limit, offset = clampPage(limit, offset)
	var out []models.Download
	if err := readDB(r.db).WithContext(ctx).Where("user_id = ?", userID).
		Order("created_at DESC").Limit(limit).Offset(offset).
		Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *downloadRepository) CountAll(ctx context.Context, since time.Time) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Download{}).
		Where("created_at >= ?", since).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
