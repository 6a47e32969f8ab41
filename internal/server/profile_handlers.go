package server

import (
	"viralpik/internal/models"
	"viralpik/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetMyProfile handles GET /api/users/me
// @Summary Current profile
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.Profile
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	userID := currentUserID(c)
	profile, err := s.profileSvc().GetProfile(c.UserContext(), userID, userID)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update current profile
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body object{username=string,display_name=string,bio=string,avatar_url=string,website=string} true "Profile fields"
// @Success 200 {object} models.Profile
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Username     string `json:"username"`
		DisplayName  string `json:"display_name"`
		Bio          string `json:"bio"`
		AvatarURL    string `json:"avatar_url"`
		Website      string `json:"website"`
		YouTubeURL   string `json:"youtube_url"`
		TikTokURL    string `json:"tiktok_url"`
		InstagramURL string `json:"instagram_url"`
		TwitterURL   string `json:"twitter_url"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profileSvc().UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID:       currentUserID(c),
		Username:     req.Username,
		DisplayName:  req.DisplayName,
		Bio:          req.Bio,
		AvatarURL:    req.AvatarURL,
		Website:      req.Website,
		YouTubeURL:   req.YouTubeURL,
		TikTokURL:    req.TikTokURL,
		InstagramURL: req.InstagramURL,
		TwitterURL:   req.TwitterURL,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// GetProfile handles GET /api/users/:id
// @Summary Public profile
// @Tags users
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} models.Profile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.profileSvc().GetProfile(c.UserContext(), id, s.viewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}

// GetProfileByUsername handles GET /api/users/by-username/:username
func (s *Server) GetProfileByUsername(c *fiber.Ctx) error {
	profile, err := s.profileSvc().GetByUsername(c.UserContext(), c.Params("username"), s.viewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profile)
}
