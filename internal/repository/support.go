package repository

import (
	"context"

	"viralpik/internal/models"

	"gorm.io/gorm"
)

// SupportRepository stores contact form tickets.
type SupportRepository interface {
	Create(ctx context.Context, t *models.SupportTicket) error
	List(ctx context.Context, status models.SupportTicketStatus, limit, offset int) ([]models.SupportTicket, error)
	SetStatus(ctx context.Context, id uint, status models.SupportTicketStatus) error
}

type supportRepository struct {
	db *gorm.DB
}

// NewSupportRepository returns a new SupportRepository implementation.
func NewSupportRepository(db *gorm.DB) SupportRepository {
	return &supportRepository{db: db}
}

func (r *supportRepository) Create(ctx context.Context, t *models.SupportTicket) error {
	if err := r.db.WithContext(ctx).Create(t).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *supportRepository) List(ctx context.Context, status models.SupportTicketStatus, limit, offset int) ([]models.SupportTicket, error) {
	limit, offset = clampPage(limit, offset)
	q := readDB(r.db).WithContext(ctx)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	var out []models.SupportTicket
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *supportRepository) SetStatus(ctx context.Context, id uint, status models.SupportTicketStatus) error {
	res := r.db.WithContext(ctx).Model(&models.SupportTicket{}).Where("id = ?", id).Update("status", status)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("SupportTicket", id)
	}
	return nil
}
