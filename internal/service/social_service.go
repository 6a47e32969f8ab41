package service

import (
	"context"

	"viralpik/internal/models"
	"viralpik/internal/repository"
)

// SocialService handles likes, saves and follows.
type SocialService struct {
	socialRepo     repository.SocialRepository
	assetRepo      repository.AssetRepository
	profileRepo    repository.ProfileRepository
	collectionRepo repository.CollectionRepository
}

// LikeResult is the like state after a toggle.
type LikeResult struct {
	Liked     bool  `json:"liked"`
	LikeCount int64 `json:"like_count"`
}

// FollowResult is the follow state after a toggle.
type FollowResult struct {
	Following     bool  `json:"following"`
	FollowerCount int64 `json:"follower_count"`
	Created       bool  `json:"-"`
}

func NewSocialService(
	socialRepo repository.SocialRepository,
	assetRepo repository.AssetRepository,
	profileRepo repository.ProfileRepository,
	collectionRepo repository.CollectionRepository,
) *SocialService {
	return &SocialService{
		socialRepo:     socialRepo,
		assetRepo:      assetRepo,
		profileRepo:    profileRepo,
		collectionRepo: collectionRepo,
	}
}

func (s *SocialService) approvedAsset(ctx context.Context, assetID uint) (*models.Asset, error) {
	asset, err := s.assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != models.AssetStatusApproved {
		return nil, models.NewNotFoundError("Asset", assetID)
	}
	return asset, nil
}

// SetLiked likes or unlikes an asset. Repeating the current state is a no-op.
func (s *SocialService) SetLiked(ctx context.Context, userID, assetID uint, liked bool) (*LikeResult, error) {
	asset, err := s.approvedAsset(ctx, assetID)
	if err != nil {
		return nil, err
	}

	count := asset.LikeCount
	if liked {
		created, err := s.socialRepo.Like(ctx, userID, assetID)
		if err != nil {
			return nil, err
		}
		if created {
			count++
		}
	} else {
		removed, err := s.socialRepo.Unlike(ctx, userID, assetID)
		if err != nil {
			return nil, err
		}
		if removed && count > 0 {
			count--
		}
	}
	return &LikeResult{Liked: liked, LikeCount: count}, nil
}

// SetSaved saves or unsaves an asset. A save may target one of the user's collections.
func (s *SocialService) SetSaved(ctx context.Context, userID, assetID uint, saved bool, collectionID *uint) error {
	if _, err := s.approvedAsset(ctx, assetID); err != nil {
		return err
	}
	if !saved {
		return s.socialRepo.Unsave(ctx, userID, assetID)
	}

	if collectionID != nil {
		c, err := s.collectionRepo.GetByID(ctx, *collectionID)
		if err != nil {
			return err
		}
		if c.OwnerID != userID {
			return models.NewForbiddenError("You can only save into your own collections")
		}
		if err := s.collectionRepo.AddAsset(ctx, c.ID, assetID); err != nil {
			return err
		}
	}
	return s.socialRepo.Save(ctx, userID, assetID, collectionID)
}

func (s *SocialService) ListSaved(ctx context.Context, userID uint, limit, offset int) ([]models.Asset, error) {
	return s.socialRepo.ListSaved(ctx, userID, limit, offset)
}

// SetFollowing follows or unfollows a profile. Following yourself is rejected.
func (s *SocialService) SetFollowing(ctx context.Context, followerID, targetID uint, follow bool) (*FollowResult, error) {
	if followerID == targetID {
		return nil, models.NewValidationError("cannot follow yourself")
	}
	target, err := s.profileRepo.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}

	count := target.FollowerCount
	res := &FollowResult{Following: follow}
	if follow {
		created, err := s.socialRepo.Follow(ctx, followerID, targetID)
		if err != nil {
			return nil, err
		}
		if created {
			count++
		}
		res.Created = created
	} else {
		removed, err := s.socialRepo.Unfollow(ctx, followerID, targetID)
		if err != nil {
			return nil, err
		}
		if removed && count > 0 {
			count--
		}
	}
	res.FollowerCount = count
	return res, nil
}

func (s *SocialService) ListFollowers(ctx context.Context, userID uint, limit, offset int) ([]models.Profile, error) {
	if _, err := s.profileRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.socialRepo.ListFollowers(ctx, userID, limit, offset)
}

func (s *SocialService) ListFollowing(ctx context.Context, userID uint, limit, offset int) ([]models.Profile, error) {
	if _, err := s.profileRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.socialRepo.ListFollowing(ctx, userID, limit, offset)
}
