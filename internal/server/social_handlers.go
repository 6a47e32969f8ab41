package server

import (
	"viralpik/internal/models"

	"github.com/gofiber/fiber/v2"
)

// LikeAsset handles POST /api/assets/:id/like
// @Summary Like an asset
// @Description Idempotent. Returns the like state and count after the change.
// @Tags social
// @Security BearerAuth
// @Param id path int true "Asset ID"
// @Success 200 {object} service.LikeResult
// @Failure 404 {object} models.ErrorResponse
// @Router /assets/{id}/like [post]
func (s *Server) LikeAsset(c *fiber.Ctx) error {
	return s.setLiked(c, true)
}

// UnlikeAsset handles DELETE /api/assets/:id/like
// @Summary Remove a like
// @Tags social
// @Security BearerAuth
// @Param id path int true "Asset ID"
// @Success 200 {object} service.LikeResult
// @Router /assets/{id}/like [delete]
func (s *Server) UnlikeAsset(c *fiber.Ctx) error {
	return s.setLiked(c, false)
}

func (s *Server) setLiked(c *fiber.Ctx, liked bool) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	res, err := s.socialSvc().SetLiked(c.UserContext(), currentUserID(c), id, liked)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(res)
}

// SaveAsset handles POST /api/assets/:id/save
// @Summary Save an asset
// @Description Optionally files the asset into one of the caller's collections.
// @Tags social
// @Accept json
// @Security BearerAuth
// @Param id path int true "Asset ID"
// @Param request body object{collection_id=int} false "Target collection"
// @Success 200 {object} object{saved=bool}
// @Router /assets/{id}/save [post]
func (s *Server) SaveAsset(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		CollectionID *uint `json:"collection_id"`
	}
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest,
				models.NewValidationError("Invalid request body"))
		}
	}
	if err := s.socialSvc().SetSaved(c.UserContext(), currentUserID(c), id, true, req.CollectionID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"saved": true})
}

// UnsaveAsset handles DELETE /api/assets/:id/save
func (s *Server) UnsaveAsset(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.socialSvc().SetSaved(c.UserContext(), currentUserID(c), id, false, nil); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"saved": false})
}

// GetSavedAssets handles GET /api/users/me/saved
func (s *Server) GetSavedAssets(c *fiber.Ctx) error {
	page := parsePagination(c, 24)
	assets, err := s.socialSvc().ListSaved(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(assets)
}

// FollowUser handles POST /api/users/:id/follow
// @Summary Follow a creator
// @Tags social
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} service.FollowResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id}/follow [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	return s.setFollowing(c, true)
}

// UnfollowUser handles DELETE /api/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	return s.setFollowing(c, false)
}

func (s *Server) setFollowing(c *fiber.Ctx, follow bool) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	ctx := c.UserContext()
	userID := currentUserID(c)

	res, err := s.socialSvc().SetFollowing(ctx, userID, targetID, follow)
	if err != nil {
		return respondServiceError(c, err)
	}

	if res.Created {
		payload := map[string]interface{}{"follower_id": userID}
		if follower, err := s.profileRepo.GetByID(ctx, userID); err == nil {
			payload["follower"] = profileSummary(follower)
		}
		s.publishUserEvent(targetID, EventNewFollower, payload)
	}
	return c.JSON(res)
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	profiles, err := s.socialSvc().ListFollowers(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profiles)
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	profiles, err := s.socialSvc().ListFollowing(c.UserContext(), id, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(profiles)
}
