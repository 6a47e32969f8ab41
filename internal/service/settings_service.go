package service

import (
	"context"
	"fmt"
	"slices"

	"viralpik/internal/models"
	"viralpik/internal/repository"
)

var supportedLanguages = []string{"en", "es", "fr", "de", "pt", "ja"}

// SettingsService reads and writes the persisted user preferences.
type SettingsService struct {
	prefsRepo repository.PreferencesRepository
}

// SettingsPatch carries the fields a client wants to change. Nil fields are kept.
// Decorative fields are not part of the patch and are never stored.
type SettingsPatch struct {
	EmailNotifications *bool   `json:"email_notifications"`
	MarketingEmails    *bool   `json:"marketing_emails"`
	DefaultFeedSort    *string `json:"default_feed_sort" validate:"omitempty,oneof=new popular trending"`
	NSFWFilter         *bool   `json:"nsfw_filter"`
	Language           *string `json:"language" validate:"omitempty,len=2"`
}

func NewSettingsService(prefsRepo repository.PreferencesRepository) *SettingsService {
	return &SettingsService{prefsRepo: prefsRepo}
}

func (s *SettingsService) Get(ctx context.Context, userID uint) (*models.UserPreferences, error) {
	return s.prefsRepo.Get(ctx, userID)
}

func (s *SettingsService) Update(ctx context.Context, userID uint, patch SettingsPatch) (*models.UserPreferences, error) {
	prefs, err := s.prefsRepo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	if patch.EmailNotifications != nil {
		prefs.EmailNotifications = *patch.EmailNotifications
	}
	if patch.MarketingEmails != nil {
		prefs.MarketingEmails = *patch.MarketingEmails
	}
	if patch.DefaultFeedSort != nil {
		switch *patch.DefaultFeedSort {
		case models.FeedSortNew, models.FeedSortPopular, models.FeedSortTrending:
			prefs.DefaultFeedSort = *patch.DefaultFeedSort
		default:
			return nil, models.NewValidationError(fmt.Sprintf("unknown feed sort %q", *patch.DefaultFeedSort))
		}
	}
	if patch.NSFWFilter != nil {
		prefs.NSFWFilter = *patch.NSFWFilter
	}
	if patch.Language != nil {
		if !slices.Contains(supportedLanguages, *patch.Language) {
			return nil, models.NewValidationError(fmt.Sprintf("unsupported language %q", *patch.Language))
		}
		prefs.Language = *patch.Language
	}

	prefs.UserID = userID
	if err := s.prefsRepo.Upsert(ctx, prefs); err != nil {
		return nil, err
	}
	return prefs, nil
}

// Schema lists every settings field and whether it is persisted.
func (s *SettingsService) Schema() []models.SettingField {
	return models.SettingsSchema
}
