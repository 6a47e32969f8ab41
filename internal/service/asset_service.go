package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"viralpik/internal/cache"
	"viralpik/internal/catalog"
	"viralpik/internal/featureflags"
	"viralpik/internal/feed"
	"viralpik/internal/models"
	"viralpik/internal/observability"
	"viralpik/internal/repository"
	"viralpik/internal/submission"
)

// AssetService owns asset creation, moderation and the public feed.
type AssetService struct {
	assetRepo repository.AssetRepository
	catalog   *catalog.Catalog
	flags     *featureflags.Manager
	rng       feed.Rand
	isAdmin   func(ctx context.Context, userID uint) (bool, error)
}

type CreateAssetInput struct {
	UserID      uint
	IsCreator   bool
	Title       string
	Description string
	Platform    models.Platform
	AssetType   string
	Tags        []string
	FileURL     string
	PreviewURL  string
	FileSize    int64
	Width       int
	Height      int
	IsPremium   bool
	Price       float64
}

type ModerateAssetInput struct {
	AdminID uint
	AssetID uint
	Approve bool
	Reason  string
}

type FeedInput struct {
	ViewerID uint
	Platform models.Platform
	Sort     string
	Limit    int
	Offset   int
}

// FeedPage is one page of the composed feed.
type FeedPage struct {
	Items      []feed.Item `json:"items"`
	HasMore    bool        `json:"has_more"`
	NextOffset int         `json:"next_offset"`
}

func NewAssetService(
	assetRepo repository.AssetRepository,
	cat *catalog.Catalog,
	flags *featureflags.Manager,
	isAdmin func(ctx context.Context, userID uint) (bool, error),
) *AssetService {
	if cat == nil {
		cat = catalog.Default()
	}
	if flags == nil {
		flags = featureflags.NewManager("")
	}
	return &AssetService{
		assetRepo: assetRepo,
		catalog:   cat,
		flags:     flags,
		isAdmin:   isAdmin,
	}
}

// SetRand replaces the randomness used for tag card counts.
func (s *AssetService) SetRand(rng feed.Rand) {
	s.rng = rng
}

func (s *AssetService) admin(ctx context.Context, userID uint) (bool, error) {
	if s.isAdmin == nil || userID == 0 {
		return false, nil
	}
	return s.isAdmin(ctx, userID)
}

// formatOf derives the upload format from the stored file URL.
func formatOf(fileURL string) string {
	if u, err := url.Parse(fileURL); err == nil && u.Path != "" {
		return submission.Extension(u.Path)
	}
	return submission.Extension(fileURL)
}

// CreateAsset re-checks the submission rules and inserts the asset with
// the status the actor is entitled to.
func (s *AssetService) CreateAsset(ctx context.Context, in CreateAssetInput) (*models.Asset, error) {
	admin, err := s.admin(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if !in.IsCreator && !admin {
		return nil, models.NewForbiddenError("Only creators can publish assets")
	}

	title := strings.TrimSpace(in.Title)
	switch {
	case title == "":
		return nil, models.NewValidationError(submission.ReasonTitleRequired)
	case len(title) > 200:
		return nil, models.NewValidationError("Title too long (max 200 characters)")
	case in.Platform == "":
		return nil, models.NewValidationError(submission.ReasonPlatform)
	case in.AssetType == "":
		return nil, models.NewValidationError(submission.ReasonAssetType)
	case in.FileURL == "":
		return nil, models.NewValidationError("file_url is required")
	}
	if _, ok := s.catalog.Lookup(in.Platform, in.AssetType); !ok {
		return nil, models.NewValidationError(submission.ReasonUnknownType)
	}

	format := formatOf(in.FileURL)
	if !submission.Allowed(format) {
		return nil, models.NewValidationError(submission.ReasonUnsupportedType)
	}
	if format == "psd" && in.PreviewURL == "" {
		return nil, models.NewValidationError(submission.ReasonPreviewRequired)
	}

	tags := submission.NormalizeTags(in.Tags)
	if len(tags) < models.MinTags || len(tags) > models.MaxTags {
		return nil, models.NewValidationError(submission.ReasonTagCount)
	}

	isPack := format == "zip"
	price := 0.0
	if in.IsPremium {
		if !isPack {
			return nil, models.NewValidationError("only packs can be premium")
		}
		if !submission.ValidPackPrice(in.Price) {
			return nil, models.NewValidationError(submission.ReasonPackPrice)
		}
		price = in.Price
	}

	asset := &models.Asset{
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		Platform:    in.Platform,
		AssetType:   in.AssetType,
		Tags:        tags,
		FileURL:     in.FileURL,
		PreviewURL:  in.PreviewURL,
		FileSize:    in.FileSize,
		Format:      format,
		IsPack:      isPack,
		IsPremium:   in.IsPremium,
		Price:       price,
		CreatorID:   in.UserID,
		Status:      submission.InitialStatus(admin, s.flags.Enabled(featureflags.AdminSelfApproval, in.UserID)),
	}
	dims := models.Dimensions{Width: in.Width, Height: in.Height}
	if dims.IsZero() {
		dims, _ = s.catalog.DefaultDimensions(in.Platform, in.AssetType)
	}
	asset.SetDimensions(dims)

	if err := s.assetRepo.Create(ctx, asset); err != nil {
		observability.AssetSubmissions.WithLabelValues("failed").Inc()
		return nil, err
	}
	observability.AssetSubmissions.WithLabelValues(string(asset.Status)).Inc()
	asset.RevealFile()
	return asset, nil
}

// visible reports whether viewerID may see a non-approved asset.
func (s *AssetService) visible(ctx context.Context, asset *models.Asset, viewerID uint) (bool, error) {
	if asset.Status == models.AssetStatusApproved {
		return true, nil
	}
	if viewerID != 0 && asset.CreatorID == viewerID {
		return true, nil
	}
	return s.admin(ctx, viewerID)
}

// GetAsset returns the asset for a detail view and counts the view.
func (s *AssetService) GetAsset(ctx context.Context, id, viewerID uint) (*models.Asset, error) {
	asset, err := s.assetRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ok, err := s.visible(ctx, asset, viewerID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, models.NewNotFoundError("Asset", id)
	}

	if err := s.assetRepo.IncrementViewCount(ctx, id); err != nil {
		return nil, err
	}
	asset.ViewCount++

	owner := viewerID != 0 && asset.CreatorID == viewerID
	if !owner {
		if owner, err = s.admin(ctx, viewerID); err != nil {
			return nil, err
		}
	}
	if owner {
		asset.RevealFile()
	}

	one := []models.Asset{*asset}
	if err := s.assetRepo.AnnotateForViewer(ctx, viewerID, one); err != nil {
		return nil, err
	}
	return &one[0], nil
}

// ListAssets lists assets. Only admins and the creator listing their own
// uploads can see anything other than approved assets.
func (s *AssetService) ListAssets(ctx context.Context, filter repository.AssetFilter, viewerID uint) ([]models.Asset, error) {
	if filter.Status != models.AssetStatusApproved {
		own := viewerID != 0 && filter.CreatorID == viewerID
		if !own {
			admin, err := s.admin(ctx, viewerID)
			if err != nil {
				return nil, err
			}
			if !admin {
				filter.Status = models.AssetStatusApproved
			}
		}
	}

	assets, err := s.assetRepo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.assetRepo.AnnotateForViewer(ctx, viewerID, assets); err != nil {
		return nil, err
	}
	return assets, nil
}

// ModerateAsset approves or rejects a pending asset.
func (s *AssetService) ModerateAsset(ctx context.Context, in ModerateAssetInput) (*models.Asset, error) {
	admin, err := s.admin(ctx, in.AdminID)
	if err != nil {
		return nil, err
	}
	if !admin {
		return nil, models.NewForbiddenError("Admin access required")
	}

	asset, err := s.assetRepo.GetByID(ctx, in.AssetID)
	if err != nil {
		return nil, err
	}

	to := models.AssetStatusRejected
	if in.Approve {
		to = models.AssetStatusApproved
	}
	reason := strings.TrimSpace(in.Reason)
	if err := s.assetRepo.UpdateStatus(ctx, asset.ID, asset.Status, to, reason); err != nil {
		return nil, err
	}

	asset.Status = to
	if to == models.AssetStatusRejected {
		asset.RejectionReason = reason
	}
	return asset, nil
}

// DeleteAsset removes an asset. Only its creator or an admin may do so.
func (s *AssetService) DeleteAsset(ctx context.Context, userID, assetID uint) (*models.Asset, error) {
	asset, err := s.assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.CreatorID != userID {
		admin, err := s.admin(ctx, userID)
		if err != nil {
			return nil, err
		}
		if !admin {
			return nil, models.NewForbiddenError("You can only delete your own assets")
		}
	}
	if err := s.assetRepo.Delete(ctx, assetID); err != nil {
		return nil, err
	}
	return asset, nil
}

// QueueEnrichment marks the asset for the background enrichment worker.
func (s *AssetService) QueueEnrichment(ctx context.Context, userID, assetID uint) error {
	asset, err := s.assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return err
	}
	if asset.CreatorID != userID {
		admin, err := s.admin(ctx, userID)
		if err != nil {
			return err
		}
		if !admin {
			return models.NewForbiddenError("You can only enrich your own assets")
		}
	}
	return s.assetRepo.QueueEnrichment(ctx, assetID)
}

// Stats aggregates asset counters for one creator, or everything when creatorID is 0.
func (s *AssetService) Stats(ctx context.Context, creatorID uint) (*repository.AssetStats, error) {
	return s.assetRepo.Stats(ctx, creatorID)
}

// Feed returns one page of approved assets with tag cards interleaved at the
// fixed feed offsets.
func (s *AssetService) Feed(ctx context.Context, in FeedInput) (*FeedPage, error) {
	filter := repository.AssetFilter{
		Status:   models.AssetStatusApproved,
		Platform: in.Platform,
		Sort:     in.Sort,
		Limit:    in.Limit,
		Offset:   in.Offset,
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 24
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var assets []models.Asset
	key := cache.FeedKey(ctx, fmt.Sprintf("%s:%s:%d:%d", filter.Platform, filter.Sort, filter.Limit, filter.Offset))
	err := cache.Aside(ctx, key, &assets, cache.FeedTTL, func() error {
		var err error
		assets, err = s.assetRepo.List(ctx, filter)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.assetRepo.AnnotateForViewer(ctx, in.ViewerID, assets); err != nil {
		return nil, err
	}

	var items []feed.Item
	if s.flags.Enabled(featureflags.FeedInterleave, in.ViewerID) {
		items = feed.ComposeFrom(assets, filter.Offset, s.catalog.TagPool, s.rng)
	} else {
		items = feed.ComposeFrom(assets, filter.Offset, nil, s.rng)
	}
	if items == nil {
		items = []feed.Item{}
	}

	return &FeedPage{
		Items:      items,
		HasMore:    len(assets) == filter.Limit,
		NextOffset: filter.Offset + len(assets),
	}, nil
}
