package repository

import (
	"context"
	"errors"

	"viralpik/internal/models"

	"gorm.io/gorm"
)

// CollectionRepository defines persistence operations for collections.
type CollectionRepository interface {
	Create(ctx context.Context, c *models.Collection) error
	GetByID(ctx context.Context, id uint) (*models.Collection, error)
	ListByOwner(ctx context.Context, ownerID uint, includePrivate bool) ([]models.Collection, error)
	Update(ctx context.Context, c *models.Collection) error
	Delete(ctx context.Context, id uint) error
	AddAsset(ctx context.Context, collectionID, assetID uint) error
	RemoveAsset(ctx context.Context, collectionID, assetID uint) error
	ListAssets(ctx context.Context, collectionID uint, limit, offset int) ([]models.Asset, error)
}

type collectionRepository struct {
	db *gorm.DB
}

// NewCollectionRepository returns a new CollectionRepository implementation.
func NewCollectionRepository(db *gorm.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

const collectionWithCount = `collections.*, (SELECT COUNT(*) FROM collection_assets ca WHERE ca.collection_id = collections.id) AS asset_count`

func (r *collectionRepository) Create(ctx context.Context, c *models.Collection) error {
	if err := r.db.WithContext(ctx).Omit("Assets").Create(c).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *collectionRepository) GetByID(ctx context.Context, id uint) (*models.Collection, error) {
	var c models.Collection
	err := readDB(r.db).WithContext(ctx).Select(collectionWithCount).First(&c, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.NewNotFoundError("Collection", id)
		}
		return nil, models.NewInternalError(err)
	}
	return &c, nil
}

func (r *collectionRepository) ListByOwner(ctx context.Context, ownerID uint, includePrivate bool) ([]models.Collection, error) {
	q := readDB(r.db).WithContext(ctx).Select(collectionWithCount).Where("owner_id = ?", ownerID)
	if !includePrivate {
		q = q.Where("is_public = ?", true)
	}
	var out []models.Collection
	if err := q.Order("updated_at DESC").Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *collectionRepository) Update(ctx context.Context, c *models.Collection) error {
	if err := r.db.WithContext(ctx).Model(c).
		Select("name", "description", "is_public").
		Updates(c).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *collectionRepository) Delete(ctx context.Context, id uint) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("collection_id = ?", id).Delete(&models.CollectionAsset{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Collection{}, id).Error
	})
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *collectionRepository) AddAsset(ctx context.Context, collectionID, assetID uint) error {
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO collection_assets (collection_id, asset_id, created_at) VALUES (?, ?, NOW()) ON CONFLICT DO NOTHING`,
		collectionID, assetID,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return r.db.WithContext(ctx).Model(&models.Collection{}).Where("id = ?", collectionID).
		Update("updated_at", gorm.Expr("NOW()")).Error
}

func (r *collectionRepository) RemoveAsset(ctx context.Context, collectionID, assetID uint) error {
	if err := r.db.WithContext(ctx).
		Where("collection_id = ? AND asset_id = ?", collectionID, assetID).
		Delete(&models.CollectionAsset{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *collectionRepository) ListAssets(ctx context.Context, collectionID uint, limit, offset int) ([]models.Asset, error) {
	limit, offset = clampPage(limit, offset)
	var assets []models.Asset
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN collection_assets ON collection_assets.asset_id = assets.id AND collection_assets.collection_id = ?", collectionID).
		Where("assets.status = ?", models.AssetStatusApproved).
		Preload("Creator").
		Order("collection_assets.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&assets).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return assets, nil
}
