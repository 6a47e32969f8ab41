package service

import (
	"context"
	"time"

	"viralpik/internal/repository"
)

// AdminStats is the moderation dashboard summary. Every number is an aggregate
// over stored rows.
type AdminStats struct {
	Assets         repository.AssetStats `json:"assets"`
	Users          int64                 `json:"users"`
	DownloadsToday int64                 `json:"downloads_today"`
	Downloads7d    int64                 `json:"downloads_7d"`
}

type AdminService struct {
	assetRepo    repository.AssetRepository
	profileRepo  repository.ProfileRepository
	downloadRepo repository.DownloadRepository
	now          func() time.Time
}

func NewAdminService(
	assetRepo repository.AssetRepository,
	profileRepo repository.ProfileRepository,
	downloadRepo repository.DownloadRepository,
) *AdminService {
	return &AdminService{
		assetRepo:    assetRepo,
		profileRepo:  profileRepo,
		downloadRepo: downloadRepo,
		now:          time.Now,
	}
}

func (s *AdminService) Stats(ctx context.Context) (*AdminStats, error) {
	assets, err := s.assetRepo.Stats(ctx, 0)
	if err != nil {
		return nil, err
	}
	users, err := s.profileRepo.Count(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	today, err := s.downloadRepo.CountAll(ctx, day)
	if err != nil {
		return nil, err
	}
	week, err := s.downloadRepo.CountAll(ctx, day.AddDate(0, 0, -6))
	if err != nil {
		return nil, err
	}

	return &AdminStats{
		Assets:         *assets,
		Users:          users,
		DownloadsToday: today,
		Downloads7d:    week,
	}, nil
}
