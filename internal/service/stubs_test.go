package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"viralpik/internal/models"
	"viralpik/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// assetRepoStub is a stub for repository.AssetRepository.
type assetRepoStub struct {
	createFn         func(context.Context, *models.Asset) error
	getByIDFn        func(context.Context, uint) (*models.Asset, error)
	listFn           func(context.Context, repository.AssetFilter) ([]models.Asset, error)
	updateStatusFn   func(context.Context, uint, models.AssetStatus, models.AssetStatus, string) error
	deleteFn         func(context.Context, uint) error
	incViewFn        func(context.Context, uint) error
	annotateFn       func(context.Context, uint, []models.Asset) error
	statsFn          func(context.Context, uint) (*repository.AssetStats, error)
	queueEnrichFn    func(context.Context, uint) error
	claimEnrichFn    func(context.Context) (*models.Asset, error)
	completeEnrichFn func(context.Context, uint, string, models.Dimensions) error
	failEnrichFn     func(context.Context, uint, int) error
}

func (s *assetRepoStub) Create(ctx context.Context, a *models.Asset) error { return s.createFn(ctx, a) }
func (s *assetRepoStub) GetByID(ctx context.Context, id uint) (*models.Asset, error) {
	return s.getByIDFn(ctx, id)
}
func (s *assetRepoStub) List(ctx context.Context, f repository.AssetFilter) ([]models.Asset, error) {
	return s.listFn(ctx, f)
}
func (s *assetRepoStub) UpdateStatus(ctx context.Context, id uint, from, to models.AssetStatus, reason string) error {
	return s.updateStatusFn(ctx, id, from, to, reason)
}
func (s *assetRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *assetRepoStub) IncrementViewCount(ctx context.Context, id uint) error {
	return s.incViewFn(ctx, id)
}
func (s *assetRepoStub) AnnotateForViewer(ctx context.Context, viewerID uint, assets []models.Asset) error {
	return s.annotateFn(ctx, viewerID, assets)
}
func (s *assetRepoStub) Stats(ctx context.Context, creatorID uint) (*repository.AssetStats, error) {
	return s.statsFn(ctx, creatorID)
}
func (s *assetRepoStub) QueueEnrichment(ctx context.Context, id uint) error {
	return s.queueEnrichFn(ctx, id)
}
func (s *assetRepoStub) ClaimNextEnrichment(ctx context.Context) (*models.Asset, error) {
	return s.claimEnrichFn(ctx)
}
func (s *assetRepoStub) CompleteEnrichment(ctx context.Context, id uint, previewURL string, dims models.Dimensions) error {
	return s.completeEnrichFn(ctx, id, previewURL, dims)
}
func (s *assetRepoStub) FailEnrichment(ctx context.Context, id uint, maxAttempts int) error {
	return s.failEnrichFn(ctx, id, maxAttempts)
}

func approvedAsset(id, creatorID uint) *models.Asset {
	return &models.Asset{ID: id, CreatorID: creatorID, Status: models.AssetStatusApproved, FileURL: "https://cdn.viralpik.test/assets/1/a.zip"}
}

func noopAssetRepo() *assetRepoStub {
	return &assetRepoStub{
		createFn:  func(_ context.Context, _ *models.Asset) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Asset, error) { return approvedAsset(id, 1), nil },
		listFn: func(_ context.Context, _ repository.AssetFilter) ([]models.Asset, error) {
			return nil, nil
		},
		updateStatusFn:   func(_ context.Context, _ uint, _, _ models.AssetStatus, _ string) error { return nil },
		deleteFn:         func(_ context.Context, _ uint) error { return nil },
		incViewFn:        func(_ context.Context, _ uint) error { return nil },
		annotateFn:       func(_ context.Context, _ uint, _ []models.Asset) error { return nil },
		statsFn:          func(_ context.Context, _ uint) (*repository.AssetStats, error) { return &repository.AssetStats{}, nil },
		queueEnrichFn:    func(_ context.Context, _ uint) error { return nil },
		claimEnrichFn:    func(_ context.Context) (*models.Asset, error) { return nil, nil },
		completeEnrichFn: func(_ context.Context, _ uint, _ string, _ models.Dimensions) error { return nil },
		failEnrichFn:     func(_ context.Context, _ uint, _ int) error { return nil },
	}
}

// profileRepoStub is a stub for repository.ProfileRepository.
type profileRepoStub struct {
	getByIDFn        func(context.Context, uint) (*models.Profile, error)
	getByEmailFn     func(context.Context, string) (*models.Profile, error)
	getByUsernameFn  func(context.Context, string) (*models.Profile, error)
	usernameTakenFn  func(context.Context, string) (bool, error)
	createFn         func(context.Context, *models.Profile) error
	updateFn         func(context.Context, *models.Profile) error
	updatePasswordFn func(context.Context, uint, string) error
	setApprovalFn    func(context.Context, uint, bool, bool) error
	setTierFn        func(context.Context, uint, models.Tier) error
	listCreatorsFn   func(context.Context, bool, int, int) ([]models.Profile, error)
	countFn          func(context.Context) (int64, error)
}

func (s *profileRepoStub) GetByID(ctx context.Context, id uint) (*models.Profile, error) {
	return s.getByIDFn(ctx, id)
}
func (s *profileRepoStub) GetByEmail(ctx context.Context, email string) (*models.Profile, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *profileRepoStub) GetByUsername(ctx context.Context, username string) (*models.Profile, error) {
	return s.getByUsernameFn(ctx, username)
}
func (s *profileRepoStub) UsernameTaken(ctx context.Context, username string) (bool, error) {
	return s.usernameTakenFn(ctx, username)
}
func (s *profileRepoStub) Create(ctx context.Context, p *models.Profile) error { return s.createFn(ctx, p) }
func (s *profileRepoStub) Update(ctx context.Context, p *models.Profile) error { return s.updateFn(ctx, p) }
func (s *profileRepoStub) UpdatePassword(ctx context.Context, id uint, hash string) error {
	return s.updatePasswordFn(ctx, id, hash)
}
func (s *profileRepoStub) SetCreatorApproval(ctx context.Context, id uint, approved, canEarn bool) error {
	return s.setApprovalFn(ctx, id, approved, canEarn)
}
func (s *profileRepoStub) SetTier(ctx context.Context, id uint, tier models.Tier) error {
	return s.setTierFn(ctx, id, tier)
}
func (s *profileRepoStub) ListCreators(ctx context.Context, pendingOnly bool, limit, offset int) ([]models.Profile, error) {
	return s.listCreatorsFn(ctx, pendingOnly, limit, offset)
}
func (s *profileRepoStub) Count(ctx context.Context) (int64, error) { return s.countFn(ctx) }

func noopProfileRepo() *profileRepoStub {
	return &profileRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.Profile, error) {
			return &models.Profile{ID: id, Username: "user", Tier: models.TierFree}, nil
		},
		getByEmailFn:     func(_ context.Context, _ string) (*models.Profile, error) { return nil, nil },
		getByUsernameFn:  func(_ context.Context, _ string) (*models.Profile, error) { return nil, nil },
		usernameTakenFn:  func(_ context.Context, _ string) (bool, error) { return false, nil },
		createFn:         func(_ context.Context, _ *models.Profile) error { return nil },
		updateFn:         func(_ context.Context, _ *models.Profile) error { return nil },
		updatePasswordFn: func(_ context.Context, _ uint, _ string) error { return nil },
		setApprovalFn:    func(_ context.Context, _ uint, _, _ bool) error { return nil },
		setTierFn:        func(_ context.Context, _ uint, _ models.Tier) error { return nil },
		listCreatorsFn:   func(_ context.Context, _ bool, _, _ int) ([]models.Profile, error) { return nil, nil },
		countFn:          func(_ context.Context) (int64, error) { return 0, nil },
	}
}

// socialRepoStub is a stub for repository.SocialRepository.
type socialRepoStub struct {
	likeFn          func(context.Context, uint, uint) (bool, error)
	unlikeFn        func(context.Context, uint, uint) (bool, error)
	saveFn          func(context.Context, uint, uint, *uint) error
	unsaveFn        func(context.Context, uint, uint) error
	listSavedFn     func(context.Context, uint, int, int) ([]models.Asset, error)
	followFn        func(context.Context, uint, uint) (bool, error)
	unfollowFn      func(context.Context, uint, uint) (bool, error)
	isFollowingFn   func(context.Context, uint, uint) (bool, error)
	listFollowersFn func(context.Context, uint, int, int) ([]models.Profile, error)
	listFollowingFn func(context.Context, uint, int, int) ([]models.Profile, error)
}

func (s *socialRepoStub) Like(ctx context.Context, u, a uint) (bool, error)   { return s.likeFn(ctx, u, a) }
func (s *socialRepoStub) Unlike(ctx context.Context, u, a uint) (bool, error) { return s.unlikeFn(ctx, u, a) }
func (s *socialRepoStub) Save(ctx context.Context, u, a uint, c *uint) error  { return s.saveFn(ctx, u, a, c) }
func (s *socialRepoStub) Unsave(ctx context.Context, u, a uint) error         { return s.unsaveFn(ctx, u, a) }
func (s *socialRepoStub) ListSaved(ctx context.Context, u uint, l, o int) ([]models.Asset, error) {
	return s.listSavedFn(ctx, u, l, o)
}
func (s *socialRepoStub) Follow(ctx context.Context, f, t uint) (bool, error) { return s.followFn(ctx, f, t) }
func (s *socialRepoStub) Unfollow(ctx context.Context, f, t uint) (bool, error) {
	return s.unfollowFn(ctx, f, t)
}
func (s *socialRepoStub) IsFollowing(ctx context.Context, f, t uint) (bool, error) {
	return s.isFollowingFn(ctx, f, t)
}
func (s *socialRepoStub) ListFollowers(ctx context.Context, u uint, l, o int) ([]models.Profile, error) {
	return s.listFollowersFn(ctx, u, l, o)
}
func (s *socialRepoStub) ListFollowing(ctx context.Context, u uint, l, o int) ([]models.Profile, error) {
	return s.listFollowingFn(ctx, u, l, o)
}

func noopSocialRepo() *socialRepoStub {
	return &socialRepoStub{
		likeFn:          func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unlikeFn:        func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		saveFn:          func(_ context.Context, _, _ uint, _ *uint) error { return nil },
		unsaveFn:        func(_ context.Context, _, _ uint) error { return nil },
		listSavedFn:     func(_ context.Context, _ uint, _, _ int) ([]models.Asset, error) { return nil, nil },
		followFn:        func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		unfollowFn:      func(_ context.Context, _, _ uint) (bool, error) { return true, nil },
		isFollowingFn:   func(_ context.Context, _, _ uint) (bool, error) { return false, nil },
		listFollowersFn: func(_ context.Context, _ uint, _, _ int) ([]models.Profile, error) { return nil, nil },
		listFollowingFn: func(_ context.Context, _ uint, _, _ int) ([]models.Profile, error) { return nil, nil },
	}
}

// collectionRepoStub is a stub for repository.CollectionRepository.
type collectionRepoStub struct {
	createFn      func(context.Context, *models.Collection) error
	getByIDFn     func(context.Context, uint) (*models.Collection, error)
	listByOwnerFn func(context.Context, uint, bool) ([]models.Collection, error)
	updateFn      func(context.Context, *models.Collection) error
	deleteFn      func(context.Context, uint) error
	addAssetFn    func(context.Context, uint, uint) error
	removeAssetFn func(context.Context, uint, uint) error
	listAssetsFn  func(context.Context, uint, int, int) ([]models.Asset, error)
}

func (s *collectionRepoStub) Create(ctx context.Context, c *models.Collection) error {
	return s.createFn(ctx, c)
}
func (s *collectionRepoStub) GetByID(ctx context.Context, id uint) (*models.Collection, error) {
	return s.getByIDFn(ctx, id)
}
func (s *collectionRepoStub) ListByOwner(ctx context.Context, ownerID uint, includePrivate bool) ([]models.Collection, error) {
	return s.listByOwnerFn(ctx, ownerID, includePrivate)
}
func (s *collectionRepoStub) Update(ctx context.Context, c *models.Collection) error {
	return s.updateFn(ctx, c)
}
func (s *collectionRepoStub) Delete(ctx context.Context, id uint) error { return s.deleteFn(ctx, id) }
func (s *collectionRepoStub) AddAsset(ctx context.Context, c, a uint) error {
	return s.addAssetFn(ctx, c, a)
}
func (s *collectionRepoStub) RemoveAsset(ctx context.Context, c, a uint) error {
	return s.removeAssetFn(ctx, c, a)
}
func (s *collectionRepoStub) ListAssets(ctx context.Context, c uint, l, o int) ([]models.Asset, error) {
	return s.listAssetsFn(ctx, c, l, o)
}

func noopCollectionRepo() *collectionRepoStub {
	return &collectionRepoStub{
		createFn: func(_ context.Context, _ *models.Collection) error { return nil },
		getByIDFn: func(_ context.Context, id uint) (*models.Collection, error) {
			return &models.Collection{ID: id, OwnerID: 1, Name: "Mine"}, nil
		},
		listByOwnerFn: func(_ context.Context, _ uint, _ bool) ([]models.Collection, error) { return nil, nil },
		updateFn:      func(_ context.Context, _ *models.Collection) error { return nil },
		deleteFn:      func(_ context.Context, _ uint) error { return nil },
		addAssetFn:    func(_ context.Context, _, _ uint) error { return nil },
		removeAssetFn: func(_ context.Context, _, _ uint) error { return nil },
		listAssetsFn:  func(_ context.Context, _ uint, _, _ int) ([]models.Asset, error) { return nil, nil },
	}
}

// downloadRepoStub is a stub for repository.DownloadRepository.
type downloadRepoStub struct {
	recordFn     func(context.Context, *models.Download) error
	countSinceFn func(context.Context, uint, time.Time) (int64, error)
	listByUserFn func(context.Context, uint, int, int) ([]models.Download, error)
	countAllFn   func(context.Context, time.Time) (int64, error)
}

func (s *downloadRepoStub) Record(ctx context.Context, d *models.Download) error {
	return s.recordFn(ctx, d)
}
func (s *downloadRepoStub) CountSince(ctx context.Context, userID uint, since time.Time) (int64, error) {
	return s.countSinceFn(ctx, userID, since)
}
func (s *downloadRepoStub) ListByUser(ctx context.Context, userID uint, l, o int) ([]models.Download, error) {
	return s.listByUserFn(ctx, userID, l, o)
}
func (s *downloadRepoStub) CountAll(ctx context.Context, since time.Time) (int64, error) {
	return s.countAllFn(ctx, since)
}

func noopDownloadRepo() *downloadRepoStub {
	return &downloadRepoStub{
		recordFn:     func(_ context.Context, _ *models.Download) error { return nil },
		countSinceFn: func(_ context.Context, _ uint, _ time.Time) (int64, error) { return 0, nil },
		listByUserFn: func(_ context.Context, _ uint, _, _ int) ([]models.Download, error) { return nil, nil },
		countAllFn:   func(_ context.Context, _ time.Time) (int64, error) { return 0, nil },
	}
}

// adminOnly returns an isAdmin func that treats exactly the given IDs as admins.
func adminOnly(ids ...uint) func(context.Context, uint) (bool, error) {
	return func(_ context.Context, userID uint) (bool, error) {
		for _, id := range ids {
			if id == userID {
				return true, nil
			}
		}
		return false, nil
	}
}

func appErrorCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	return appErr.Code
}

// assertValidationError asserts that err is an AppError with code VALIDATION_ERROR.
func assertValidationError(t *testing.T, err error) {
	t.Helper()
	assert.Equal(t, models.CodeValidation, appErrorCode(t, err))
}

// assertUnauthorizedError asserts that err is an AppError with code UNAUTHORIZED.
func assertUnauthorizedError(t *testing.T, err error) {
	t.Helper()
	assert.Equal(t, models.CodeUnauthorized, appErrorCode(t, err))
}

func assertForbiddenError(t *testing.T, err error) {
	t.Helper()
	assert.Equal(t, models.CodeForbidden, appErrorCode(t, err))
}

func assertNotFoundError(t *testing.T, err error) {
	t.Helper()
	assert.Equal(t, models.CodeNotFound, appErrorCode(t, err))
}
