package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"viralpik/internal/models"
	"viralpik/internal/observability"
	"viralpik/internal/repository"
	"viralpik/internal/validation"
)

// SupportMailer forwards tickets to the support inbox.
type SupportMailer interface {
	SendReply(ctx context.Context, to, replyTo, subject, body string) error
}

type SupportService struct {
	supportRepo repository.SupportRepository
	mailer      SupportMailer
	inbox       string
}

type CreateTicketInput struct {
	UserID   *uint  `json:"-"`
	Email    string `json:"email" validate:"required,email"`
	Subject  string `json:"subject" validate:"required,max=200,no_xss"`
	Message  string `json:"message" validate:"required,max=5000"`
	Category string `json:"category" validate:"omitempty,oneof=general billing technical copyright account"`
}

// NewSupportService builds the service. mailer may be nil, in which case
// tickets are only stored.
func NewSupportService(supportRepo repository.SupportRepository, mailer SupportMailer, inbox string) *SupportService {
	return &SupportService{supportRepo: supportRepo, mailer: mailer, inbox: inbox}
}

// CreateTicket stores the ticket and notifies the inbox on a best-effort basis.
func (s *SupportService) CreateTicket(ctx context.Context, in CreateTicketInput) (*models.SupportTicket, error) {
	in.Email = strings.TrimSpace(in.Email)
	in.Subject = strings.TrimSpace(in.Subject)
	in.Message = strings.TrimSpace(in.Message)
	if err := validation.Struct(in); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if in.Category == "" {
		in.Category = "general"
	}

	ticket := &models.SupportTicket{
		UserID:   in.UserID,
		Email:    in.Email,
		Subject:  in.Subject,
		Message:  in.Message,
		Category: in.Category,
		Status:   models.TicketOpen,
	}
	if err := s.supportRepo.Create(ctx, ticket); err != nil {
		return nil, err
	}

	if s.mailer != nil && s.inbox != "" {
		subject := fmt.Sprintf("[%s] #%d %s", ticket.Category, ticket.ID, ticket.Subject)
		body := fmt.Sprintf("From: %s\n\n%s", ticket.Email, ticket.Message)
		observability.RunBestEffort(ctx, "support_mail", 30*time.Second,
			map[string]interface{}{"ticket_id": ticket.ID},
			func(ctx context.Context) error {
				return s.mailer.SendReply(ctx, s.inbox, ticket.Email, subject, body)
			})
	}
	return ticket, nil
}

func (s *SupportService) List(ctx context.Context, status models.SupportTicketStatus, limit, offset int) ([]models.SupportTicket, error) {
	return s.supportRepo.List(ctx, status, limit, offset)
}

func (s *SupportService) Close(ctx context.Context, id uint) error {
	return s.supportRepo.SetStatus(ctx, id, models.TicketClosed)
}
