package server

import (
	"viralpik/internal/models"
	"viralpik/internal/service"

	"github.com/gofiber/fiber/v2"
)

type collectionRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"is_public"`
}

// CreateCollection handles POST /api/collections
// @Summary Create a collection
// @Tags collections
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body collectionRequest true "Collection"
// @Success 201 {object} models.Collection
// @Failure 400 {object} models.ErrorResponse
// @Router /collections [post]
func (s *Server) CreateCollection(c *fiber.Ctx) error {
	var req collectionRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	col, err := s.collectionSvc().Create(c.UserContext(), service.CollectionInput{
		UserID:      currentUserID(c),
		Name:        req.Name,
		Description: req.Description,
		IsPublic:    req.IsPublic,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(col)
}

// UpdateCollection handles PUT /api/collections/:id
func (s *Server) UpdateCollection(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req collectionRequest
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}
	col, err := s.collectionSvc().Update(c.UserContext(), service.CollectionInput{
		UserID:       currentUserID(c),
		CollectionID: id,
		Name:         req.Name,
		Description:  req.Description,
		IsPublic:     req.IsPublic,
	})
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(col)
}

// DeleteCollection handles DELETE /api/collections/:id
func (s *Server) DeleteCollection(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.collectionSvc().Delete(c.UserContext(), id, currentUserID(c)); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Collection deleted"})
}

// GetCollection handles GET /api/collections/:id
// @Summary Get a collection
// @Description Private collections are only visible to their owner.
// @Tags collections
// @Produce json
// @Param id path int true "Collection ID"
// @Success 200 {object} models.Collection
// @Failure 404 {object} models.ErrorResponse
// @Router /collections/{id} [get]
func (s *Server) GetCollection(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	col, err := s.collectionSvc().Get(c.UserContext(), id, s.viewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(col)
}

// GetCollectionAssets handles GET /api/collections/:id/assets
func (s *Server) GetCollectionAssets(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 24)
	assets, err := s.collectionSvc().ListAssets(c.UserContext(), id, s.viewerID(c), page.Limit, page.Offset)
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(assets)
}

// GetUserCollections handles GET /api/users/:id/collections
func (s *Server) GetUserCollections(c *fiber.Ctx) error {
	ownerID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	cols, err := s.collectionSvc().ListForOwner(c.UserContext(), ownerID, s.viewerID(c))
	if err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(cols)
}

// AddCollectionAsset handles POST /api/collections/:id/assets/:assetId
func (s *Server) AddCollectionAsset(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	assetID, err := s.parseID(c, "assetId")
	if err != nil {
		return nil
	}
	if err := s.collectionSvc().AddAsset(c.UserContext(), id, currentUserID(c), assetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Asset added"})
}

// RemoveCollectionAsset handles DELETE /api/collections/:id/assets/:assetId
func (s *Server) RemoveCollectionAsset(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	assetID, err := s.parseID(c, "assetId")
	if err != nil {
		return nil
	}
	if err := s.collectionSvc().RemoveAsset(c.UserContext(), id, currentUserID(c), assetID); err != nil {
		return respondServiceError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Asset removed"})
}
