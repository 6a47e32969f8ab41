package repository

import (
	"context"

	"viralpik/internal/cache"
	"viralpik/internal/models"

	"gorm.io/gorm"
)

// SocialRepository persists likes, saves and follows together with the
// denormalized counters they drive.
type SocialRepository interface {
	Like(ctx context.Context, userID, assetID uint) (bool, error)
	Unlike(ctx context.Context, userID, assetID uint) (bool, error)
	Save(ctx context.Context, userID, assetID uint, collectionID *uint) error
	Unsave(ctx context.Context, userID, assetID uint) error
	ListSaved(ctx context.Context, userID uint, limit, offset int) ([]models.Asset, error)
	Follow(ctx context.Context, followerID, followingID uint) (bool, error)
	Unfollow(ctx context.Context, followerID, followingID uint) (bool, error)
	IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error)
	ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.Profile, error)
	ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.Profile, error)
}

type socialRepository struct {
	db *gorm.DB
}

// NewSocialRepository returns a new SocialRepository implementation.
func NewSocialRepository(db *gorm.DB) SocialRepository {
	return &socialRepository{db: db}
}

// Like records a like and bumps like_count. It reports whether a new like was created.
func (r *socialRepository) Like(ctx context.Context, userID, assetID uint) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`INSERT INTO likes (user_id, asset_id, created_at) VALUES (?, ?, NOW()) ON CONFLICT (user_id, asset_id) DO NOTHING`,
			userID, assetID,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		return tx.Exec(`UPDATE assets SET like_count = like_count + 1 WHERE id = ?`, assetID).Error
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if created {
		cache.InvalidateAsset(ctx, assetID)
	}
	return created, nil
}

// Unlike removes a like. It reports whether a like existed.
func (r *socialRepository) Unlike(ctx context.Context, userID, assetID uint) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Unscoped().Where("user_id = ? AND asset_id = ?", userID, assetID).Delete(&models.Like{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		return tx.Exec(`UPDATE assets SET like_count = GREATEST(like_count - 1, 0) WHERE id = ?`, assetID).Error
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if removed {
		cache.InvalidateAsset(ctx, assetID)
	}
	return removed, nil
}

func (r *socialRepository) Save(ctx context.Context, userID, assetID uint, collectionID *uint) error {
	err := r.db.WithContext(ctx).Exec(
		`INSERT INTO saves (user_id, asset_id, collection_id, created_at) VALUES (?, ?, ?, NOW())
		 ON CONFLICT (user_id, asset_id) DO UPDATE SET collection_id = EXCLUDED.collection_id`,
		userID, assetID, collectionID,
	).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *socialRepository) Unsave(ctx context.Context, userID, assetID uint) error {
	if err := r.db.WithContext(ctx).Unscoped().
		Where("user_id = ? AND asset_id = ?", userID, assetID).
		Delete(&models.Save{}).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *socialRepository) ListSaved(ctx context.Context, userID uint, limit, offset int) ([]models.Asset, error) {
	limit, offset = clampPage(limit, offset)
	var assets []models.Asset
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN saves ON saves.asset_id = assets.id AND saves.user_id = ?", userID).
		Preload("Creator").
		Order("saves.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&assets).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	for i := range assets {
		assets[i].Saved = true
	}
	return assets, nil
}

// Follow creates the edge and bumps both counters. Self-follows are rejected
// by the chk_follow_no_self constraint.
func (r *socialRepository) Follow(ctx context.Context, followerID, followingID uint) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Exec(
			`INSERT INTO follows (follower_id, following_id, created_at) VALUES (?, ?, NOW()) ON CONFLICT (follower_id, following_id) DO NOTHING`,
			followerID, followingID,
		)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		if err := tx.Exec(`UPDATE profiles SET following_count = following_count + 1 WHERE id = ?`, followerID).Error; err != nil {
			return err
		}
		return tx.Exec(`UPDATE profiles SET follower_count = follower_count + 1 WHERE id = ?`, followingID).Error
	})
	if err != nil {
		if isCheckViolation(err) {
			return false, models.NewValidationError("cannot follow yourself")
		}
		return false, models.NewInternalError(err)
	}
	if created {
		cache.InvalidateProfile(ctx, followerID)
		cache.InvalidateProfile(ctx, followingID)
	}
	return created, nil
}

func (r *socialRepository) Unfollow(ctx context.Context, followerID, followingID uint) (bool, error) {
	removed := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("follower_id = ? AND following_id = ?", followerID, followingID).Delete(&models.Follow{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		removed = true
		if err := tx.Exec(`UPDATE profiles SET following_count = GREATEST(following_count - 1, 0) WHERE id = ?`, followerID).Error; err != nil {
			return err
		}
		return tx.Exec(`UPDATE profiles SET follower_count = GREATEST(follower_count - 1, 0) WHERE id = ?`, followingID).Error
	})
	if err != nil {
		return false, models.NewInternalError(err)
	}
	if removed {
		cache.InvalidateProfile(ctx, followerID)
		cache.InvalidateProfile(ctx, followingID)
	}
	return removed, nil
}

func (r *socialRepository) IsFollowing(ctx context.Context, followerID, followingID uint) (bool, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Follow{}).
		Where("follower_id = ? AND following_id = ?", followerID, followingID).
		Count(&n).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return n > 0, nil
}

func (r *socialRepository) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.Profile, error) {
	return r.listEdge(ctx, "follows.follower_id = profiles.id AND follows.following_id = ?", userID, limit, offset)
}

func (r *socialRepository) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.Profile, error) {
	return r.listEdge(ctx, "follows.following_id = profiles.id AND follows.follower_id = ?", userID, limit, offset)
}

func (r *socialRepository) listEdge(ctx context.Context, on string, userID uint, limit, offset int) ([]models.Profile, error) {
	limit, offset = clampPage(limit, offset)
	var profiles []models.Profile
	err := readDB(r.db).WithContext(ctx).
		Joins("JOIN follows ON "+on, userID).
		Order("follows.created_at DESC").
		Limit(limit).Offset(offset).
		Find(&profiles).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}
