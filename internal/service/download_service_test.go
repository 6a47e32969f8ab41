package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"viralpik/internal/config"
	"viralpik/internal/models"
	"viralpik/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func profileWithTier(tier models.Tier) *profileRepoStub {
	repo := noopProfileRepo()
	repo.getByIDFn = func(_ context.Context, id uint) (*models.Profile, error) {
		return &models.Profile{ID: id, Tier: tier}, nil
	}
	return repo
}

var fixedNow = time.Date(2026, 3, 14, 15, 0, 0, 0, time.UTC)

func TestDownloadService_Authorize_FreeTierLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, rdb := testutil.Redis(t)

	var recorded int
	downloads := noopDownloadRepo()
	downloads.recordFn = func(_ context.Context, d *models.Download) error {
		assert.Equal(t, models.TierFree, d.Tier)
		recorded++
		return nil
	}

	svc := NewDownloadService(noopAssetRepo(), profileWithTier(models.TierFree), downloads, rdb, nil)
	svc.now = func() time.Time { return fixedNow }

	for i := 1; i <= 5; i++ {
		grant, err := svc.Authorize(ctx, 7, 3)
		require.NoError(t, err)
		assert.Equal(t, 5-i, grant.Remaining)
		assert.Equal(t, models.TierFree, grant.Tier)
		assert.NotEmpty(t, grant.DownloadURL)
	}

	_, err := svc.Authorize(ctx, 7, 3)
	var rl *models.RateLimitError
	require.True(t, errors.As(err, &rl), "expected RateLimitError, got %v", err)
	assert.Equal(t, models.TierFree, rl.Tier)
	assert.Equal(t, 5, rl.Limit)
	assert.Equal(t, 5, recorded)

	// rejected attempts leave the counter at the limit
	got, err := mr.Get("dl:7:20260314")
	require.NoError(t, err)
	assert.Equal(t, "5", got)
	assert.Greater(t, mr.TTL("dl:7:20260314"), 24*time.Hour)
}

func TestDownloadService_Authorize_NextDayResets(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	_, rdb := testutil.Redis(t)

	cfg := &config.Config{DownloadLimitFree: 1, DownloadLimitPro: 50, DownloadLimitBusiness: -1}
	svc := NewDownloadService(noopAssetRepo(), profileWithTier(models.TierFree), noopDownloadRepo(), rdb, cfg)
	now := fixedNow
	svc.now = func() time.Time { return now }

	_, err := svc.Authorize(ctx, 7, 3)
	require.NoError(t, err)
	_, err = svc.Authorize(ctx, 7, 3)
	require.Error(t, err)

	now = now.Add(24 * time.Hour)
	grant, err := svc.Authorize(ctx, 7, 3)
	require.NoError(t, err)
	assert.Equal(t, 0, grant.Remaining)
}

func TestDownloadService_Authorize_BusinessUnlimited(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, rdb := testutil.Redis(t)

	svc := NewDownloadService(noopAssetRepo(), profileWithTier(models.TierBusiness), noopDownloadRepo(), rdb, nil)
	for i := 0; i < 20; i++ {
		grant, err := svc.Authorize(ctx, 9, 3)
		require.NoError(t, err)
		assert.Equal(t, Unlimited, grant.Remaining)
	}
	assert.Empty(t, mr.Keys())
}

func TestDownloadService_Authorize_PendingAssetHidden(t *testing.T) {
	t.Parallel()

	assets := noopAssetRepo()
	assets.getByIDFn = func(_ context.Context, id uint) (*models.Asset, error) {
		return &models.Asset{ID: id, CreatorID: 2, Status: models.AssetStatusPending}, nil
	}
	svc := NewDownloadService(assets, profileWithTier(models.TierPro), noopDownloadRepo(), nil, nil)

	_, err := svc.Authorize(context.Background(), 7, 3)
	assertNotFoundError(t, err)

	_, err = svc.Authorize(context.Background(), 2, 3)
	require.NoError(t, err)
}

func TestDownloadService_Authorize_RecordFailureReleasesQuota(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, rdb := testutil.Redis(t)

	downloads := noopDownloadRepo()
	downloads.recordFn = func(_ context.Context, _ *models.Download) error {
		return errors.New("db down")
	}
	svc := NewDownloadService(noopAssetRepo(), profileWithTier(models.TierFree), downloads, rdb, nil)
	svc.now = func() time.Time { return fixedNow }

	_, err := svc.Authorize(ctx, 7, 3)
	require.Error(t, err)

	got, err := mr.Get("dl:7:20260314")
	require.NoError(t, err)
	assert.Equal(t, "0", got)
}

func TestDownloadService_Authorize_WithoutRedisCountsAudit(t *testing.T) {
	t.Parallel()

	downloads := noopDownloadRepo()
	downloads.countSinceFn = func(_ context.Context, userID uint, since time.Time) (int64, error) {
		assert.Equal(t, uint(7), userID)
		assert.Equal(t, time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC), since)
		return 5, nil
	}
	svc := NewDownloadService(noopAssetRepo(), profileWithTier(models.TierFree), downloads, nil, nil)
	svc.now = func() time.Time { return fixedNow }

	_, err := svc.Authorize(context.Background(), 7, 3)
	var rl *models.RateLimitError
	assert.ErrorAs(t, err, &rl)
}

func TestDownloadService_Remaining(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	mr, rdb := testutil.Redis(t)

	svc := NewDownloadService(noopAssetRepo(), profileWithTier(models.TierPro), noopDownloadRepo(), rdb, nil)
	svc.now = func() time.Time { return fixedNow }

	rem, tier, err := svc.Remaining(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 50, rem)
	assert.Equal(t, models.TierPro, tier)

	require.NoError(t, mr.Set("dl:7:20260314", "48"))
	rem, _, err = svc.Remaining(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, rem)
}

func TestDownloadService_LimitUnknownTierFallsBackToFree(t *testing.T) {
	t.Parallel()
	svc := NewDownloadService(nil, nil, nil, nil, nil)
	assert.Equal(t, 5, svc.Limit("gold"))
	assert.Equal(t, Unlimited, svc.Limit(models.TierBusiness))
}
