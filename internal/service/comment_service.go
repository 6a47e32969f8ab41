package service

import (
	"context"
	"strings"

	"viralpik/internal/models"
	"viralpik/internal/repository"
	"viralpik/internal/validation"
)

// CommentService runs the discussion threads. Only approved assets take
// comments, and a comment can be removed by its author alone.
type CommentService struct {
	comments repository.CommentRepository
	assets   repository.AssetRepository
}

type CreateCommentInput struct {
	UserID  uint   `json:"-"`
	AssetID uint   `json:"-"`
	Content string `json:"content" validate:"required,max=2000,no_xss"`
}

type DeleteCommentInput struct {
	UserID    uint
	AssetID   uint
	CommentID uint
}

// CommentPage is one page of a thread plus the thread's size.
type CommentPage struct {
	Comments []*models.Comment
	Total    int64
}

func NewCommentService(comments repository.CommentRepository, assets repository.AssetRepository) *CommentService {
	return &CommentService{comments: comments, assets: assets}
}

// visibleAsset loads assetID and hides anything not yet live.
func (s *CommentService) visibleAsset(ctx context.Context, assetID uint) (*models.Asset, error) {
	asset, err := s.assets.GetByID(ctx, assetID)
	if err != nil {
		return nil, err
	}
	if asset.Status != models.AssetStatusApproved {
		return nil, models.NewNotFoundError("Asset", assetID)
	}
	return asset, nil
}

// CreateComment posts a comment and returns it with its author loaded.
// The asset is returned too so callers can notify its creator.
func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, *models.Asset, error) {
	in.Content = strings.TrimSpace(in.Content)
	if err := validation.Struct(in); err != nil {
		return nil, nil, models.NewValidationError(err.Error())
	}
	asset, err := s.visibleAsset(ctx, in.AssetID)
	if err != nil {
		return nil, nil, err
	}

	comment := &models.Comment{AssetID: in.AssetID, UserID: in.UserID, Content: in.Content}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, nil, err
	}
	stored, err := s.comments.GetByID(ctx, comment.ID)
	if err != nil {
		return nil, nil, err
	}
	return stored, asset, nil
}

func (s *CommentService) ListComments(ctx context.Context, assetID uint, limit, offset int) (*CommentPage, error) {
	if _, err := s.visibleAsset(ctx, assetID); err != nil {
		return nil, err
	}
	comments, total, err := s.comments.ListByAsset(ctx, assetID, limit, offset)
	if err != nil {
		return nil, err
	}
	return &CommentPage{Comments: comments, Total: total}, nil
}

// DeleteComment removes the caller's own comment. A comment id that does
// not belong to the asset in the path is reported as missing.
func (s *CommentService) DeleteComment(ctx context.Context, in DeleteCommentInput) error {
	comment, err := s.comments.GetByID(ctx, in.CommentID)
	if err != nil {
		return err
	}
	if in.AssetID != 0 && comment.AssetID != in.AssetID {
		return models.NewNotFoundError("Comment", in.CommentID)
	}
	if comment.UserID != in.UserID {
		return models.NewForbiddenError("You can only delete your own comments")
	}
	return s.comments.DeleteOwned(ctx, in.CommentID, in.UserID)
}
