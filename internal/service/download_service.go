package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"viralpik/internal/config"
	"viralpik/internal/models"
	"viralpik/internal/observability"
	"viralpik/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Unlimited is the quota value for tiers without a daily limit.
const Unlimited = -1

// DownloadGrant authorizes one download.
type DownloadGrant struct {
	DownloadURL string      `json:"downloadUrl"`
	Remaining   int         `json:"remaining"`
	Tier        models.Tier `json:"tier"`
}

// DownloadService enforces the per-tier daily download quota.
type DownloadService struct {
	assetRepo    repository.AssetRepository
	profileRepo  repository.ProfileRepository
	downloadRepo repository.DownloadRepository
	rdb          *redis.Client
	limits       map[models.Tier]int
	now          func() time.Time
}

func NewDownloadService(
	assetRepo repository.AssetRepository,
	profileRepo repository.ProfileRepository,
	downloadRepo repository.DownloadRepository,
	rdb *redis.Client,
	cfg *config.Config,
) *DownloadService {
	limits := map[models.Tier]int{
		models.TierFree:     5,
		models.TierPro:      50,
		models.TierBusiness: Unlimited,
	}
	if cfg != nil {
		limits[models.TierFree] = cfg.DownloadLimitFree
		limits[models.TierPro] = cfg.DownloadLimitPro
		limits[models.TierBusiness] = cfg.DownloadLimitBusiness
	}
	return &DownloadService{
		assetRepo:    assetRepo,
		profileRepo:  profileRepo,
		downloadRepo: downloadRepo,
		rdb:          rdb,
		limits:       limits,
		now:          time.Now,
	}
}

// Limit returns the daily quota for tier. Negative means unlimited.
func (s *DownloadService) Limit(tier models.Tier) int {
	if l, ok := s.limits[tier]; ok {
		return l
	}
	return s.limits[models.TierFree]
}

func quotaKey(userID uint, day time.Time) string {
	return fmt.Sprintf("dl:%d:%s", userID, day.Format("20060102"))
}

// Authorize checks the user's quota for today and records the download.
// An exhausted quota returns *models.RateLimitError.
func (s *DownloadService) Authorize(ctx context.Context, userID, assetID uint) (*DownloadGrant, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	asset, err := s.assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != models.AssetStatusApproved && asset.CreatorID != userID && !profile.IsAdmin {
		return nil, models.NewNotFoundError("Asset", assetID)
	}

	tier := profile.EffectiveTier()
	limit := s.Limit(tier)
	remaining := Unlimited
	if limit >= 0 {
		used, err := s.consume(ctx, userID, limit)
		if err != nil {
			return nil, err
		}
		if used > limit {
			observability.DownloadAuthorizations.WithLabelValues(string(tier), "limited").Inc()
			return nil, &models.RateLimitError{Tier: tier, Limit: limit}
		}
		remaining = limit - used
	}

	if err := s.downloadRepo.Record(ctx, &models.Download{
		UserID:  userID,
		AssetID: assetID,
		Tier:    tier,
	}); err != nil {
		s.release(ctx, userID, limit)
		return nil, err
	}

	observability.DownloadAuthorizations.WithLabelValues(string(tier), "granted").Inc()
	return &DownloadGrant{DownloadURL: asset.FileURL, Remaining: remaining, Tier: tier}, nil
}

// consume takes one unit of today's quota and returns the count including it.
// Without redis the audit table is counted instead.
func (s *DownloadService) consume(ctx context.Context, userID uint, limit int) (int, error) {
	now := s.now().UTC()
	if s.rdb == nil {
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		n, err := s.downloadRepo.CountSince(ctx, userID, day)
		if err != nil {
			return 0, err
		}
		return int(n) + 1, nil
	}

	key := quotaKey(userID, now)
	ctx, span := observability.StartCacheSpan(ctx, "incr", key)
	defer span.End()
	n, err := s.rdb.Incr(ctx, key).Result()
	if err != nil {
		span.RecordError(err)
		return 0, models.NewInternalError(err)
	}
	if n == 1 {
		s.rdb.Expire(ctx, key, 25*time.Hour)
	}
	if int(n) > limit {
		// rejected attempts are not counted
		s.rdb.Decr(ctx, key)
	}
	return int(n), nil
}

func (s *DownloadService) release(ctx context.Context, userID uint, limit int) {
	if s.rdb == nil || limit < 0 {
		return
	}
	s.rdb.Decr(ctx, quotaKey(userID, s.now().UTC()))
}

// Remaining reports today's unused quota without consuming any.
func (s *DownloadService) Remaining(ctx context.Context, userID uint) (int, models.Tier, error) {
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return 0, "", err
	}
	tier := profile.EffectiveTier()
	limit := s.Limit(tier)
	if limit < 0 {
		return Unlimited, tier, nil
	}

	now := s.now().UTC()
	var used int64
	if s.rdb != nil {
		used, err = s.rdb.Get(ctx, quotaKey(userID, now)).Int64()
		if errors.Is(err, redis.Nil) {
			used, err = 0, nil
		}
		if err != nil {
			return 0, tier, models.NewInternalError(err)
		}
	} else {
		day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
		if used, err = s.downloadRepo.CountSince(ctx, userID, day); err != nil {
			return 0, tier, err
		}
	}
	if rem := limit - int(used); rem > 0 {
		return rem, tier, nil
	}
	return 0, tier, nil
}

func (s *DownloadService) History(ctx context.Context, userID uint, limit, offset int) ([]models.Download, error) {
	return s.downloadRepo.ListByUser(ctx, userID, limit, offset)
}
