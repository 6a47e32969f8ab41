package service

import (
	"context"
	"strings"

	"viralpik/internal/models"
	"viralpik/internal/repository"
)

type CollectionService struct {
	collectionRepo repository.CollectionRepository
	assetRepo      repository.AssetRepository
}

type CollectionInput struct {
	UserID       uint
	CollectionID uint
	Name         string
	Description  string
	IsPublic     bool
}

func NewCollectionService(collectionRepo repository.CollectionRepository, assetRepo repository.AssetRepository) *CollectionService {
	return &CollectionService{collectionRepo: collectionRepo, assetRepo: assetRepo}
}

func validateCollection(in CollectionInput) (string, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return "", models.NewValidationError("Name is required")
	}
	if len(name) > 80 {
		return "", models.NewValidationError("Name too long (max 80 characters)")
	}
	if len(in.Description) > 1000 {
		return "", models.NewValidationError("Description too long (max 1000 characters)")
	}
	return name, nil
}

func (s *CollectionService) Create(ctx context.Context, in CollectionInput) (*models.Collection, error) {
	name, err := validateCollection(in)
	if err != nil {
		return nil, err
	}
	c := &models.Collection{
		OwnerID:     in.UserID,
		Name:        name,
		Description: in.Description,
		IsPublic:    in.IsPublic,
	}
	if err := s.collectionRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// Get returns a collection the viewer may see. Private collections of other
// users are reported as not found.
func (s *CollectionService) Get(ctx context.Context, id, viewerID uint) (*models.Collection, error) {
	c, err := s.collectionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !c.VisibleTo(viewerID) {
		return nil, models.NewNotFoundError("Collection", id)
	}
	return c, nil
}

func (s *CollectionService) owned(ctx context.Context, id, userID uint) (*models.Collection, error) {
	c, err := s.collectionRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.OwnerID != userID {
		return nil, models.NewForbiddenError("You can only change your own collections")
	}
	return c, nil
}

func (s *CollectionService) ListForOwner(ctx context.Context, ownerID, viewerID uint) ([]models.Collection, error) {
	return s.collectionRepo.ListByOwner(ctx, ownerID, ownerID == viewerID)
}

func (s *CollectionService) Update(ctx context.Context, in CollectionInput) (*models.Collection, error) {
	name, err := validateCollection(in)
	if err != nil {
		return nil, err
	}
	c, err := s.owned(ctx, in.CollectionID, in.UserID)
	if err != nil {
		return nil, err
	}
	c.Name = name
	c.Description = in.Description
	c.IsPublic = in.IsPublic
	if err := s.collectionRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *CollectionService) Delete(ctx context.Context, id, userID uint) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.collectionRepo.Delete(ctx, id)
}

func (s *CollectionService) AddAsset(ctx context.Context, id, userID, assetID uint) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	asset, err := s.assetRepo.GetByID(ctx, assetID)
	if err != nil {
		return err
	}
	if asset.Status != models.AssetStatusApproved {
		return models.NewNotFoundError("Asset", assetID)
	}
	return s.collectionRepo.AddAsset(ctx, id, assetID)
}

func (s *CollectionService) RemoveAsset(ctx context.Context, id, userID, assetID uint) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.collectionRepo.RemoveAsset(ctx, id, assetID)
}

func (s *CollectionService) ListAssets(ctx context.Context, id, viewerID uint, limit, offset int) ([]models.Asset, error) {
	if _, err := s.Get(ctx, id, viewerID); err != nil {
		return nil, err
	}
	return s.collectionRepo.ListAssets(ctx, id, limit, offset)
}
