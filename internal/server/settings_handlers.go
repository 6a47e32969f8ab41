package server

import (
	"viralpik/internal/models"
	"viralpik/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetSettings handles GET /api/settings
// @Summary Persisted preferences
// @Tags settings
// @Security BearerAuth
// @Success 200 {object} models.UserPreferences
// @Router /settings [get]
func (s *Server) GetSettings(c *fiber.Ctx) error {
	prefs, err := s.settingsSvc().Get(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(prefs)
}

// UpdateSettings handles PUT /api/settings
// @Summary Patch preferences
// @Description Only persisted fields are accepted. Decorative fields are ignored.
// @Tags settings
// @Accept json
// @Security BearerAuth
// @Param request body service.SettingsPatch true "Fields to change"
// @Success 200 {object} models.UserPreferences
// @Failure 400 {object} models.ErrorResponse
// @Router /settings [put]
func (s *Server) UpdateSettings(c *fiber.Ctx) error {
	var patch service.SettingsPatch
	if err := c.BodyParser(&patch); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	prefs, err := s.settingsSvc().Update(c.UserContext(), currentUserID(c), patch)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(prefs)
}

// GetSettingsSchema handles GET /api/settings/schema
func (s *Server) GetSettingsSchema(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"fields":     s.settingsSvc().Schema(),
		"decorative": models.DecorativeSettings(),
	})
}
