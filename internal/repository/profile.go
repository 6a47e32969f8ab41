package repository

import (
	"context"
	"errors"

	"viralpik/internal/cache"
	"viralpik/internal/models"

	"gorm.io/gorm"
)

// ProfileRepository defines persistence operations for profiles.
type ProfileRepository interface {
	GetByID(ctx context.Context, id uint) (*models.Profile, error)
	GetByEmail(ctx context.Context, email string) (*models.Profile, error)
	GetByUsername(ctx context.Context, username string) (*models.Profile, error)
	UsernameTaken(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, profile *models.Profile) error
	Update(ctx context.Context, profile *models.Profile) error
	UpdatePassword(ctx context.Context, id uint, hash string) error
	SetCreatorApproval(ctx context.Context, id uint, approved, canEarn bool) error
	SetTier(ctx context.Context, id uint, tier models.Tier) error
	ListCreators(ctx context.Context, pendingOnly bool, limit, offset int) ([]models.Profile, error)
	Count(ctx context.Context) (int64, error)
}

type profileRepository struct {
	db *gorm.DB
}

// NewProfileRepository returns a new ProfileRepository implementation.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	var profile models.Profile
	err := cache.Aside(ctx, cache.ProfileKey(id), &profile, cache.ProfileTTL, func() error {
		if err := readDB(r.db).WithContext(ctx).First(&profile, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Profile", id)
			}
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetByEmail returns nil, nil when no profile matches.
func (r *profileRepository) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return r.findOne(ctx, "email = ?", email)
}

// GetByUsername returns nil, nil when no profile matches.
func (r *profileRepository) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return r.findOne(ctx, "username = ?", username)
}

func (r *profileRepository) findOne(ctx context.Context, query string, arg any) (*models.Profile, error) {
	var profile models.Profile
	if err := readDB(r.db).WithContext(ctx).Where(query, arg).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

// UsernameTaken includes soft-deleted profiles so names are never recycled.
func (r *profileRepository) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var count int64
	if err := readDB(r.db).WithContext(ctx).Unscoped().Model(&models.Profile{}).
		Where("username = ?", username).Count(&count).Error; err != nil {
		return false, models.NewInternalError(err)
	}
	return count > 0, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.Profile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("username or email already in use")
		}
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) Update(ctx context.Context, profile *models.Profile) error {
	err := r.db.WithContext(ctx).Model(profile).
		Select("username", "display_name", "bio", "avatar_url", "website", "youtube_url", "tiktok_url", "instagram_url", "twitter_url", "is_creator").
		Updates(profile).Error
	if err != nil {
		if isUniqueViolation(err) {
			return models.NewConflictError("username already in use")
		}
		return models.NewInternalError(err)
	}
	cache.InvalidateProfile(ctx, profile.ID)
	return nil
}

func (r *profileRepository) UpdatePassword(ctx context.Context, id uint, hash string) error {
	if err := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).
		Update("password", hash).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) SetCreatorApproval(ctx context.Context, id uint, approved, canEarn bool) error {
	result := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).
		Updates(map[string]any{"is_approved": approved, "can_earn": canEarn})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Profile", id)
	}
	cache.InvalidateProfile(ctx, id)
	return nil
}

func (r *profileRepository) SetTier(ctx context.Context, id uint, tier models.Tier) error {
	if !tier.Valid() {
		return models.NewValidationError("unknown tier " + string(tier))
	}
	result := r.db.WithContext(ctx).Model(&models.Profile{}).Where("id = ?", id).Update("tier", tier)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Profile", id)
	}
	cache.InvalidateProfile(ctx, id)
	return nil
}

func (r *profileRepository) ListCreators(ctx context.Context, pendingOnly bool, limit, offset int) ([]models.Profile, error) {
	limit, offset = clampPage(limit, offset)
	q := readDB(r.db).WithContext(ctx).Where("is_creator = ?", true)
	if pendingOnly {
		q = q.Where("is_approved = ?", false)
	}
	var profiles []models.Profile
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&profiles).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return profiles, nil
}

func (r *profileRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := readDB(r.db).WithContext(ctx).Model(&models.Profile{}).Count(&n).Error; err != nil {
		return 0, models.NewInternalError(err)
	}
	return n, nil
}
