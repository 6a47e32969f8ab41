package server

import (
	"viralpik/internal/models"
	"viralpik/internal/service"

	"github.com/gofiber/fiber/v2"
)

// DownloadAsset handles POST /api/download
// @Summary Authorize a download
// @Description Consumes one unit of the caller's daily quota and returns the file URL.
// @Description An exhausted quota answers 429 with the tier and limit for the upgrade prompt.
// @Tags downloads
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{assetId=int} true "Asset to download"
// @Success 200 {object} service.DownloadGrant
// @Failure 404 {object} models.ErrorResponse
// @Failure 429 {object} models.ErrorResponse
// @Router /download [post]
func (s *Server) DownloadAsset(c *fiber.Ctx) error {
	var req struct {
		AssetID uint `json:"assetId"`
	}
	if err := c.BodyParser(&req); err != nil || req.AssetID == 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("assetId is required"))
	}

	grant, err := s.downloadSvc().Authorize(c.UserContext(), currentUserID(c), req.AssetID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(grant)
}

// GetDownloadQuota handles GET /api/downloads/quota
// @Summary Remaining downloads today
// @Tags downloads
// @Security BearerAuth
// @Success 200 {object} object{tier=string,limit=int,remaining=int,unlimited=bool}
// @Router /downloads/quota [get]
func (s *Server) GetDownloadQuota(c *fiber.Ctx) error {
	svc := s.downloadSvc()
	remaining, tier, err := svc.Remaining(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{
		"tier":      tier,
		"limit":     svc.Limit(tier),
		"remaining": remaining,
		"unlimited": remaining == service.Unlimited,
	})
}

// GetDownloadHistory handles GET /api/downloads
func (s *Server) GetDownloadHistory(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	history, err := s.downloadSvc().History(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(history)
}
