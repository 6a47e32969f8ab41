package server

import (
	"viralpik/internal/featureflags"
	"viralpik/internal/models"
	"viralpik/internal/repository"
	"viralpik/internal/service"

	"github.com/gofiber/fiber/v2"
)

type createAssetRequest struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Platform    models.Platform `json:"platform"`
	AssetType   string          `json:"asset_type"`
	Tags        []string        `json:"tags"`
	FileURL     string          `json:"file_url"`
	PreviewURL  string          `json:"preview_url"`
	FileSize    int64           `json:"file_size"`
	Width       int             `json:"width"`
	Height      int             `json:"height"`
	IsPremium   bool            `json:"is_premium"`
	Price       float64         `json:"price"`
}

// CreateAsset handles POST /api/assets
// @Summary Submit an asset
// @Description Inserts an asset whose file was already uploaded. Admin submissions may skip moderation.
// @Tags assets
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body createAssetRequest true "Asset metadata"
// @Success 201 {object} models.Asset
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /assets [post]
func (s *Server) CreateAsset(c *fiber.Ctx) error {
	var req createAssetRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	ctx := c.UserContext()
	userID := currentUserID(c)
	profile, err := s.profileRepo.GetByID(ctx, userID)
	if err != nil {
		return respondServiceError(c, err)
	}

	asset, err := s.assetSvc().CreateAsset(ctx, service.CreateAssetInput{
		UserID:      userID,
		IsCreator:   profile.IsCreator,
		Title:       req.Title,
		Description: req.Description,
		Platform:    req.Platform,
		AssetType:   req.AssetType,
		Tags:        req.Tags,
		FileURL:     req.FileURL,
		PreviewURL:  req.PreviewURL,
		FileSize:    req.FileSize,
		Width:       req.Width,
		Height:      req.Height,
		IsPremium:   req.IsPremium,
		Price:       req.Price,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(asset)
}

// GetAssets handles GET /api/assets
// @Summary List approved assets
// @Tags assets
// @Produce json
// @Param platform query string false "Platform filter"
// @Param type query string false "Asset type filter"
// @Param tag query string false "Tag filter"
// @Param q query string false "Search text"
// @Param sort query string false "new, popular or trending"
// @Param creator query int false "Creator ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Asset
// @Router /assets [get]
func (s *Server) GetAssets(c *fiber.Ctx) error {
	page := parsePagination(c, 24)
	filter := repository.AssetFilter{
		Status:    models.AssetStatusApproved,
		Platform:  models.Platform(c.Query("platform")),
		AssetType: c.Query("type"),
		CreatorID: uint(c.QueryInt("creator", 0)),
		Tag:       c.Query("tag"),
		Query:     c.Query("q"),
		Sort:      c.Query("sort"),
		Limit:     page.Limit,
		Offset:    page.Offset,
	}
	viewerID := s.viewerID(c)
	// creators browsing their own uploads see every status
	if filter.CreatorID != 0 && filter.CreatorID == viewerID {
		filter.Status = models.AssetStatus(c.Query("status"))
	}

	assets, err := s.assetSvc().ListAssets(c.UserContext(), filter, viewerID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(assets)
}

// GetAsset handles GET /api/assets/:id
// @Summary Get an asset
// @Description Pending and rejected assets are visible to their creator and admins only.
// @Tags assets
// @Produce json
// @Param id path int true "Asset ID"
// @Success 200 {object} models.Asset
// @Failure 404 {object} models.ErrorResponse
// @Router /assets/{id} [get]
func (s *Server) GetAsset(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	asset, err := s.assetSvc().GetAsset(c.UserContext(), id, s.viewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(asset)
}

// DeleteAsset handles DELETE /api/assets/:id
// @Summary Delete an asset
// @Tags assets
// @Security BearerAuth
// @Param id path int true "Asset ID"
// @Success 200 {object} object{message=string}
// @Failure 403 {object} models.ErrorResponse
// @Router /assets/{id} [delete]
func (s *Server) DeleteAsset(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if _, err := s.assetSvc().DeleteAsset(c.UserContext(), currentUserID(c), id); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Asset deleted"})
}

// EnrichAsset handles POST /api/enrich
// @Summary Queue background enrichment
// @Description Fire-and-forget. Answers 202 even when enrichment is switched off.
// @Tags assets
// @Accept json
// @Security BearerAuth
// @Param request body object{assetId=int} true "Asset to enrich"
// @Success 202 {object} object{queued=bool}
// @Router /enrich [post]
func (s *Server) EnrichAsset(c *fiber.Ctx) error {
	var req struct {
		AssetID uint `json:"assetId"`
	}
	if err := c.BodyParser(&req); err != nil || req.AssetID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("assetId is required"))
	}

	userID := currentUserID(c)
	if s.featureFlags != nil && !s.featureFlags.Enabled(featureflags.EnrichOnSubmit, userID) {
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": false})
	}
	if err := s.assetSvc().QueueEnrichment(c.UserContext(), userID, req.AssetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": true})
}

// GetFeed handles GET /api/feed
// @Summary Home feed
// @Description Approved assets with tag cards interleaved at fixed positions.
// @Tags feed
// @Produce json
// @Param platform query string false "Platform filter"
// @Param sort query string false "new, popular or trending"
// @Param limit query int false "Page size"
// @Param offset query int false "Absolute asset offset"
// @Success 200 {object} service.FeedPage
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page := parsePagination(c, 24)
	res, err := s.assetSvc().Feed(c.UserContext(), service.FeedInput{
		ViewerID: s.viewerID(c),
		Platform: models.Platform(c.Query("platform")),
		Sort:     c.Query("sort"),
		Limit:    page.Limit,
		Offset:   page.Offset,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}

// GetCatalog handles GET /api/catalog
func (s *Server) GetCatalog(c *fiber.Ctx) error {
	return c.JSON(s.catalog)
}

// GetMyStats handles GET /api/users/me/stats
func (s *Server) GetMyStats(c *fiber.Ctx) error {
	stats, err := s.assetSvc().Stats(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// GetModerationQueue handles GET /api/admin/assets
// @Summary Moderation queue
// @Tags admin
// @Security BearerAuth
// @Param status query string false "pending (default), approved or rejected"
// @Success 200 {array} models.Asset
// @Router /admin/assets [get]
func (s *Server) GetModerationQueue(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	status := models.AssetStatus(c.Query("status", string(models.AssetStatusPending)))
	assets, err := s.assetSvc().ListAssets(c.UserContext(), repository.AssetFilter{
		Status: status,
		Sort:   repository.SortOldest,
		Limit:  page.Limit,
		Offset: page.Offset,
	}, currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(assets)
}

// ApproveAsset handles POST /api/admin/assets/:id/approve
func (s *Server) ApproveAsset(c *fiber.Ctx) error {
	return s.moderate(c, true)
}

// RejectAsset handles POST /api/admin/assets/:id/reject
func (s *Server) RejectAsset(c *fiber.Ctx) error {
	return s.moderate(c, false)
}

func (s *Server) moderate(c *fiber.Ctx, approve bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Reason string `json:"reason"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}

	asset, err := s.assetSvc().ModerateAsset(c.UserContext(), service.ModerateAssetInput{
		AdminID: currentUserID(c),
		AssetID: id,
		Approve: approve,
		Reason:  req.Reason,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	s.publishModeration(asset)
	return c.JSON(asset)
}
