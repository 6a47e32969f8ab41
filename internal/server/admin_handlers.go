package server

import (
	"viralpik/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetAdminStats handles GET /api/admin/stats
// @Summary Platform statistics
// @Tags admin
// @Security BearerAuth
// @Success 200 {object} service.AdminStats
// @Router /admin/stats [get]
func (s *Server) GetAdminStats(c *fiber.Ctx) error {
	stats, err := s.adminSvc().Stats(c.UserContext())
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(stats)
}

// GetCreators handles GET /api/admin/creators?pending=true
func (s *Server) GetCreators(c *fiber.Ctx) error {
	page := parsePagination(c, 50)
	creators, err := s.profileSvc().ListCreators(c.UserContext(), c.QueryBool("pending", false), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(creators)
}

// SetCreatorApproval handles POST /api/admin/creators/:id/approval
// @Summary Approve a creator
// @Description can_earn requires approved.
// @Tags admin
// @Accept json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body object{approved=bool,can_earn=bool} true "Approval flags"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/creators/{id}/approval [post]
func (s *Server) SetCreatorApproval(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Approved bool `json:"approved"`
		CanEarn  bool `json:"can_earn"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	profile, err := s.profileSvc().SetCreatorApproval(c.UserContext(), id, req.Approved, req.CanEarn)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// SetUserTier handles POST /api/admin/users/:id/tier
func (s *Server) SetUserTier(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Tier models.Tier `json:"tier"`
	}
	if err := c.BodyParser(&req); err != nil || !req.Tier.Valid() {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("tier must be free, pro or business"))
	}
	profile, err := s.profileSvc().SetTier(c.UserContext(), id, req.Tier)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}
