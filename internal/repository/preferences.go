package repository

import (
	"context"
	"errors"

	"viralpik/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PreferencesRepository stores the persisted settings fields.
type PreferencesRepository interface {
	Get(ctx context.Context, userID uint) (*models.UserPreferences, error)
	Upsert(ctx context.Context, prefs *models.UserPreferences) error
}

type preferencesRepository struct {
	db *gorm.DB
}

// NewPreferencesRepository returns a new PreferencesRepository implementation.
func NewPreferencesRepository(db *gorm.DB) PreferencesRepository {
	return &preferencesRepository{db: db}
}

// Get returns stored preferences, or the defaults when none were saved.
func (r *preferencesRepository) Get(ctx context.Context, userID uint) (*models.UserPreferences, error) {
	var prefs models.UserPreferences
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&prefs).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		defaults := models.DefaultPreferences(userID)
		return &defaults, nil
	}
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &prefs, nil
}

func (r *preferencesRepository) Upsert(ctx context.Context, prefs *models.UserPreferences) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"email_notifications", "marketing_emails", "default_feed_sort", "nsfw_filter", "language", "updated_at"}),
	}).Create(prefs).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
