package server

import (
	"strconv"
	"time"

	"viralpik/internal/models"
	"viralpik/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateComment handles POST /api/assets/:id/comments
// @Summary Comment on an asset
// @Tags comments
// @Accept json
// @Security BearerAuth
// @Param id path int true "Asset ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.Comment
// @Failure 400 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /assets/{id}/comments [post]
func (s *Server) CreateComment(c *fiber.Ctx) error {
	assetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	in := service.CreateCommentInput{UserID: currentUserID(c), AssetID: assetID}
	if err := c.BodyParser(&in); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid request body"))
	}

	comment, asset, err := s.commentSvc().CreateComment(c.UserContext(), in)
	if err != nil {
		return respondServiceError(c, err)
	}
	if asset.CreatorID != in.UserID {
		s.publishUserEvent(asset.CreatorID, EventNewComment, map[string]interface{}{
			"asset_id":   assetID,
			"comment":    comment,
			"updated_at": time.Now().UTC().Format(time.RFC3339Nano),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// GetComments handles GET /api/assets/:id/comments
// The thread size is returned in X-Total-Count.
// @Summary List an asset's comments
// @Tags comments
// @Param id path int true "Asset ID"
// @Param limit query int false "Page size"
// @Param offset query int false "Offset"
// @Success 200 {array} models.Comment
// @Router /assets/{id}/comments [get]
func (s *Server) GetComments(c *fiber.Ctx) error {
	assetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)

	thread, err := s.commentSvc().ListComments(c.UserContext(), assetID, page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	c.Set("X-Total-Count", strconv.FormatInt(thread.Total, 10))
	return c.JSON(thread.Comments)
}

// DeleteComment handles DELETE /api/assets/:id/comments/:commentId
func (s *Server) DeleteComment(c *fiber.Ctx) error {
	assetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	commentID, err := s.parseID(c, "commentId")
	if err != nil {
		return nil
	}
	err = s.commentSvc().DeleteComment(c.UserContext(), service.DeleteCommentInput{
		UserID:    currentUserID(c),
		AssetID:   assetID,
		CommentID: commentID,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Comment deleted"})
}
