package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"viralpik/internal/cache"
	"viralpik/internal/models"
	"viralpik/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AssetFilter narrows asset listings.
type AssetFilter struct {
	Status    models.AssetStatus
	Platform  models.Platform
	AssetType string
	CreatorID uint
	Tag       string
	Query     string
	Sort      string
	Limit     int
	Offset    int
}

// SortOldest orders listings first-in first-out, used by the moderation queue.
const SortOldest = "oldest"

// AssetStats aggregates moderation and engagement counters.
type AssetStats struct {
	Total     int64 `json:"total"`
	Pending   int64 `json:"pending"`
	Approved  int64 `json:"approved"`
	Rejected  int64 `json:"rejected"`
	Downloads int64 `json:"downloads"`
	Views     int64 `json:"views"`
	Likes     int64 `json:"likes"`
}

// AssetRepository defines persistence operations for assets.
type AssetRepository interface {
	Create(ctx context.Context, asset *models.Asset) error
	GetByID(ctx context.Context, id uint) (*models.Asset, error)
	List(ctx context.Context, filter AssetFilter) ([]models.Asset, error)
	UpdateStatus(ctx context.Context, id uint, from, to models.AssetStatus, reason string) error
	Delete(ctx context.Context, id uint) error
	IncrementViewCount(ctx context.Context, id uint) error
	AnnotateForViewer(ctx context.Context, viewerID uint, assets []models.Asset) error
	Stats(ctx context.Context, creatorID uint) (*AssetStats, error)

	QueueEnrichment(ctx context.Context, id uint) error
	ClaimNextEnrichment(ctx context.Context) (*models.Asset, error)
	CompleteEnrichment(ctx context.Context, id uint, previewURL string, dims models.Dimensions) error
	FailEnrichment(ctx context.Context, id uint, maxAttempts int) error
}

type assetRepository struct {
	db *gorm.DB
}

// NewAssetRepository returns a new AssetRepository implementation.
func NewAssetRepository(db *gorm.DB) AssetRepository {
	return &assetRepository{db: db}
}

func (r *assetRepository) Create(ctx context.Context, asset *models.Asset) error {
	defer observability.TrackQuery("create", "assets")()
	if err := r.db.WithContext(ctx).Create(asset).Error; err != nil {
		if isCheckViolation(err) {
			return models.NewValidationError("asset violates pack price or status constraints")
		}
		return models.NewInternalError(err)
	}
	if asset.Status == models.AssetStatusApproved {
		cache.InvalidateFeed(ctx)
	}
	return nil
}

// cachedAsset keeps the file URL, which the public JSON form drops.
type cachedAsset struct {
	models.Asset
	StoredFileURL string `json:"stored_file_url"`
}

func (r *assetRepository) GetByID(ctx context.Context, id uint) (*models.Asset, error) {
	var cached cachedAsset
	err := cache.Aside(ctx, cache.AssetKey(id), &cached, cache.AssetTTL, func() error {
		ctx, span := observability.StartQuerySpan(ctx, "get", "assets")
		defer span.End()
		defer observability.TrackQuery("get", "assets")()

		if err := readDB(r.db).WithContext(ctx).Preload("Creator").First(&cached.Asset, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return models.NewNotFoundError("Asset", id)
			}
			return models.NewInternalError(err)
		}
		cached.StoredFileURL = cached.Asset.FileURL
		return nil
	})
	if err != nil {
		return nil, err
	}
	asset := cached.Asset
	asset.FileURL = cached.StoredFileURL
	return &asset, nil
}

func (r *assetRepository) List(ctx context.Context, filter AssetFilter) ([]models.Asset, error) {
	ctx, span := observability.StartQuerySpan(ctx, "list", "assets")
	defer span.End()
	defer observability.TrackQuery("list", "assets")()

	limit, offset := clampPage(filter.Limit, filter.Offset)
	q := readDB(r.db).WithContext(ctx).Model(&models.Asset{}).Preload("Creator")

	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Platform != "" {
		q = q.Where("platform = ?", filter.Platform)
	}
	if filter.AssetType != "" {
		q = q.Where("asset_type = ?", filter.AssetType)
	}
	if filter.CreatorID != 0 {
		q = q.Where("creator_id = ?", filter.CreatorID)
	}
	if tag := strings.ToLower(strings.TrimSpace(filter.Tag)); tag != "" {
		q = q.Where("tags LIKE ?", `%"`+escapeLike(tag)+`"%`)
	}
	if term := strings.ToLower(strings.TrimSpace(filter.Query)); term != "" {
		like := "%" + escapeLike(term) + "%"
		q = q.Where("(LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR tags LIKE ?)", like, like, like)
	}

	switch filter.Sort {
	case models.FeedSortPopular:
		q = q.Order("download_count DESC").Order("id DESC")
	case models.FeedSortTrending:
		q = q.Order("like_count + view_count / 10 DESC").Order("id DESC")
	case SortOldest:
		q = q.Order("created_at ASC").Order("id ASC")
	default:
		q = q.Order("created_at DESC").Order("id DESC")
	}

	var assets []models.Asset
	if err := q.Limit(limit).Offset(offset).Find(&assets).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return assets, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`%`, `\%`, `_`, `\_`).Replace(s)
}

// UpdateStatus moves an asset from one status to another. It fails with a
// conflict when the asset is no longer in the from state.
func (r *assetRepository) UpdateStatus(ctx context.Context, id uint, from, to models.AssetStatus, reason string) error {
	if !models.CanTransition(from, to) {
		return models.NewConflictError("asset status cannot change from " + string(from) + " to " + string(to))
	}

	updates := map[string]any{"status": to, "updated_at": time.Now()}
	if to == models.AssetStatusRejected {
		updates["rejection_reason"] = reason
	}

	result := r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewConflictError("asset is no longer " + string(from))
	}

	cache.InvalidateAsset(ctx, id)
	cache.InvalidateFeed(ctx)
	return nil
}

func (r *assetRepository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Unscoped().Delete(&models.Asset{}, id)
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Asset", id)
	}
	cache.InvalidateAsset(ctx, id)
	cache.InvalidateFeed(ctx)
	return nil
}

func (r *assetRepository) IncrementViewCount(ctx context.Context, id uint) error {
	return r.bump(ctx, id, "view_count")
}

func (r *assetRepository) bump(ctx context.Context, id uint, column string) error {
	result := r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ?", id).
		UpdateColumn(column, gorm.Expr(column+" + 1"))
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	if result.RowsAffected == 0 {
		return models.NewNotFoundError("Asset", id)
	}
	cache.InvalidateAsset(ctx, id)
	return nil
}

// AnnotateForViewer fills Liked and Saved for the viewer.
func (r *assetRepository) AnnotateForViewer(ctx context.Context, viewerID uint, assets []models.Asset) error {
	if viewerID == 0 || len(assets) == 0 {
		return nil
	}
	ids := make([]uint, len(assets))
	for i := range assets {
		ids[i] = assets[i].ID
	}

	db := readDB(r.db).WithContext(ctx)
	var liked, saved []uint
	if err := db.Model(&models.Like{}).Where("user_id = ? AND asset_id IN ?", viewerID, ids).Pluck("asset_id", &liked).Error; err != nil {
		return models.NewInternalError(err)
	}
	if err := db.Model(&models.Save{}).Where("user_id = ? AND asset_id IN ?", viewerID, ids).Pluck("asset_id", &saved).Error; err != nil {
		return models.NewInternalError(err)
	}

	likedSet := toSet(liked)
	savedSet := toSet(saved)
	for i := range assets {
		assets[i].Liked = likedSet[assets[i].ID]
		assets[i].Saved = savedSet[assets[i].ID]
	}
	return nil
}

func toSet(ids []uint) map[uint]bool {
	out := make(map[uint]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// Stats aggregates counters, optionally for one creator.
func (r *assetRepository) Stats(ctx context.Context, creatorID uint) (*AssetStats, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.Asset{})
	if creatorID != 0 {
		q = q.Where("creator_id = ?", creatorID)
	}

	var stats AssetStats
	err := q.Select(`COUNT(*) AS total,
		COALESCE(SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END), 0) AS pending,
		COALESCE(SUM(CASE WHEN status = 'approved' THEN 1 ELSE 0 END), 0) AS approved,
		COALESCE(SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END), 0) AS rejected,
		COALESCE(SUM(download_count), 0) AS downloads,
		COALESCE(SUM(view_count), 0) AS views,
		COALESCE(SUM(like_count), 0) AS likes`).
		Scan(&stats).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &stats, nil
}

func (r *assetRepository) QueueEnrichment(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Model(&models.Asset{}).
		Where("id = ? AND (enrichment_status IS NULL OR enrichment_status IN ?)", id,
			[]models.EnrichmentStatus{models.EnrichmentNone, models.EnrichmentDone, models.EnrichmentFailed}).
		Updates(map[string]any{"enrichment_status": models.EnrichmentQueued, "enrich_attempts": 0})
	if result.Error != nil {
		return models.NewInternalError(result.Error)
	}
	// zero rows means already queued or running
	return nil
}

// ClaimNextEnrichment locks the oldest queued asset and marks it running.
// It returns nil when nothing is queued.
func (r *assetRepository) ClaimNextEnrichment(ctx context.Context) (*models.Asset, error) {
	var claimed *models.Asset
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var asset models.Asset
		err := tx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("enrichment_status = ?", models.EnrichmentQueued).
			Order("id ASC").
			First(&asset).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		if err != nil {
			return err
		}

		if err := tx.Model(&asset).Updates(map[string]any{
			"enrichment_status": models.EnrichmentActive,
			"enrich_attempts":   gorm.Expr("enrich_attempts + 1"),
		}).Error; err != nil {
			return err
		}
		asset.EnrichmentStatus = models.EnrichmentActive
		asset.EnrichAttempts++
		claimed = &asset
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return claimed, nil
}

func (r *assetRepository) CompleteEnrichment(ctx context.Context, id uint, previewURL string, dims models.Dimensions) error {
	updates := map[string]any{"enrichment_status": models.EnrichmentDone}
	if previewURL != "" {
		updates["preview_url"] = previewURL
	}
	if !dims.IsZero() {
		updates["width"] = dims.Width
		updates["height"] = dims.Height
	}
	if err := r.db.WithContext(ctx).Model(&models.Asset{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidateAsset(ctx, id)
	return nil
}

// FailEnrichment requeues the asset until maxAttempts is reached.
func (r *assetRepository) FailEnrichment(ctx context.Context, id uint, maxAttempts int) error {
	err := r.db.WithContext(ctx).Model(&models.Asset{}).Where("id = ?", id).
		Update("enrichment_status", gorm.Expr("CASE WHEN enrich_attempts >= ? THEN ? ELSE ? END",
			maxAttempts, models.EnrichmentFailed, models.EnrichmentQueued)).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
