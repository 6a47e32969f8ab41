package service

import (
	"context"
	"strings"

	"viralpik/internal/models"
	"viralpik/internal/repository"
	"viralpik/internal/validation"
)

type ProfileService struct {
	profileRepo repository.ProfileRepository
	socialRepo  repository.SocialRepository
}

type UpdateProfileInput struct {
	UserID       uint
	Username     string
	DisplayName  string
	Bio          string
	AvatarURL    string
	Website      string
	YouTubeURL   string
	TikTokURL    string
	InstagramURL string
	TwitterURL   string
}

func NewProfileService(profileRepo repository.ProfileRepository, socialRepo repository.SocialRepository) *ProfileService {
	return &ProfileService{profileRepo: profileRepo, socialRepo: socialRepo}
}

// GetProfile returns a profile with IsFollowing filled for the viewer.
func (s *ProfileService) GetProfile(ctx context.Context, id, viewerID uint) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if viewerID != 0 && viewerID != id {
		following, err := s.socialRepo.IsFollowing(ctx, viewerID, id)
		if err != nil {
			return nil, err
		}
		profile.IsFollowing = following
	}
	if viewerID != id {
		profile.Email = ""
	}
	return profile, nil
}

func (s *ProfileService) GetByUsername(ctx context.Context, username string, viewerID uint) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByUsername(ctx, validation.NormalizeUsername(username))
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, models.NewNotFoundError("Profile", username)
	}
	return s.GetProfile(ctx, profile.ID, viewerID)
}

func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Profile, error) {
	profile, err := s.profileRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	const maxBioLen = 500
	const maxDisplayNameLen = 80

	if in.Username != "" {
		username := validation.NormalizeUsername(in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if username != profile.Username {
			taken, err := s.profileRepo.UsernameTaken(ctx, username)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, models.NewConflictError("Username is already taken")
			}
			profile.Username = username
		}
	}
	if in.DisplayName != "" {
		if len(in.DisplayName) > maxDisplayNameLen {
			return nil, models.NewValidationError("Display name too long (max 80 characters)")
		}
		profile.DisplayName = strings.TrimSpace(in.DisplayName)
	}
	if in.Bio != "" {
		if len(in.Bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		profile.Bio = in.Bio
	}
	if in.AvatarURL != "" {
		profile.AvatarURL = in.AvatarURL
	}
	if in.Website != "" {
		profile.Website = in.Website
	}
	if in.YouTubeURL != "" {
		profile.YouTubeURL = in.YouTubeURL
	}
	if in.TikTokURL != "" {
		profile.TikTokURL = in.TikTokURL
	}
	if in.InstagramURL != "" {
		profile.InstagramURL = in.InstagramURL
	}
	if in.TwitterURL != "" {
		profile.TwitterURL = in.TwitterURL
	}

	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UsernameAvailable reports whether a username is well-formed and unused.
// Malformed names are reported unavailable without a lookup.
func (s *ProfileService) UsernameAvailable(ctx context.Context, username string) (bool, error) {
	username = validation.NormalizeUsername(username)
	if err := validation.ValidateUsername(username); err != nil {
		return false, nil
	}
	taken, err := s.profileRepo.UsernameTaken(ctx, username)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// SetCreatorApproval is the admin action that lets a creator publish and earn.
func (s *ProfileService) SetCreatorApproval(ctx context.Context, id uint, approved, canEarn bool) (*models.Profile, error) {
	if canEarn && !approved {
		return nil, models.NewValidationError("can_earn requires an approved creator")
	}
	if err := s.profileRepo.SetCreatorApproval(ctx, id, approved, canEarn); err != nil {
		return nil, err
	}
	return s.profileRepo.GetByID(ctx, id)
}

func (s *ProfileService) SetTier(ctx context.Context, id uint, tier models.Tier) (*models.Profile, error) {
	if err := s.profileRepo.SetTier(ctx, id, tier); err != nil {
		return nil, err
	}
	return s.profileRepo.GetByID(ctx, id)
}

func (s *ProfileService) ListCreators(ctx context.Context, pendingOnly bool, limit, offset int) ([]models.Profile, error) {
	return s.profileRepo.ListCreators(ctx, pendingOnly, limit, offset)
}
