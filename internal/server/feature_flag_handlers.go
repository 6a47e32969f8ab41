package server

import (
	"viralpik/internal/middleware"
	"viralpik/internal/models"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags handles GET /api/admin/feature-flags
// Rollouts are evaluated for the calling admin unless user_id is given.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID := uint(c.QueryInt("user_id", int(currentUserID(c))))
	return c.JSON(fiber.Map{
		"user_id":   userID,
		"rules":     s.featureFlags.Rules(),
		"evaluated": s.featureFlags.Snapshot(userID),
		"invalid":   s.featureFlags.Invalid(),
	})
}

// SetFeatureFlag handles PUT /api/admin/feature-flags/:name
// The override lives in memory until the next restart.
// @Summary Override a feature flag
// @Tags admin
// @Accept json
// @Security BearerAuth
// @Param name path string true "Flag name"
// @Param request body object{value=string} true "on, off or N%"
// @Success 200 {object} map[string]string
// @Failure 400 {object} models.ErrorResponse
// @Router /admin/feature-flags/{name} [put]
func (s *Server) SetFeatureFlag(c *fiber.Ctx) error {
	var req struct {
		Value string `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	name := c.Params("name")
	if err := s.featureFlags.Set(name, req.Value); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError(err.Error()))
	}
	middleware.Logger.InfoContext(c.UserContext(), "feature flag overridden", "flag", name, "value", req.Value)
	return c.JSON(s.featureFlags.Rules())
}
