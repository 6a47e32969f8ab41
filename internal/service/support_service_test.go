package service

import (
	"context"
	"testing"

	"viralpik/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// supportRepoStub is a stub for repository.SupportRepository.
type supportRepoStub struct {
	createFn    func(context.Context, *models.SupportTicket) error
	listFn      func(context.Context, models.SupportTicketStatus, int, int) ([]models.SupportTicket, error)
	setStatusFn func(context.Context, uint, models.SupportTicketStatus) error
}

func (s *supportRepoStub) Create(ctx context.Context, t *models.SupportTicket) error {
	return s.createFn(ctx, t)
}
func (s *supportRepoStub) List(ctx context.Context, status models.SupportTicketStatus, limit, offset int) ([]models.SupportTicket, error) {
	return s.listFn(ctx, status, limit, offset)
}
func (s *supportRepoStub) SetStatus(ctx context.Context, id uint, status models.SupportTicketStatus) error {
	return s.setStatusFn(ctx, id, status)
}

func noopSupportRepo() *supportRepoStub {
	return &supportRepoStub{
		createFn: func(_ context.Context, t *models.SupportTicket) error {
			t.ID = 12
			return nil
		},
		listFn: func(_ context.Context, _ models.SupportTicketStatus, _, _ int) ([]models.SupportTicket, error) {
			return nil, nil
		},
		setStatusFn: func(_ context.Context, _ uint, _ models.SupportTicketStatus) error { return nil },
	}
}

func TestSupportService_CreateTicket_Validation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	svc := NewSupportService(noopSupportRepo(), nil, "")

	cases := map[string]CreateTicketInput{
		"missing email":    {Subject: "Help", Message: "Body"},
		"bad email":        {Email: "nope", Subject: "Help", Message: "Body"},
		"blank subject":    {Email: "a@viralpik.test", Subject: "   ", Message: "Body"},
		"script subject":   {Email: "a@viralpik.test", Subject: "<script>alert(1)</script>", Message: "Body"},
		"unknown category": {Email: "a@viralpik.test", Subject: "Help", Message: "Body", Category: "sales"},
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := svc.CreateTicket(ctx, in)
			assertValidationError(t, err)
		})
	}
}

func TestSupportService_CreateTicket_MailsInbox(t *testing.T) {
	t.Parallel()

	mailer := newMailerStub()
	svc := NewSupportService(noopSupportRepo(), mailer, "support@viralpik.test")

	uid := uint(7)
	ticket, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		UserID:  &uid,
		Email:   " fan@viralpik.test ",
		Subject: "Download failed",
		Message: "The zip is empty",
	})
	require.NoError(t, err)
	assert.Equal(t, "general", ticket.Category)
	assert.Equal(t, models.TicketOpen, ticket.Status)
	assert.Equal(t, "fan@viralpik.test", ticket.Email)

	msg := mailer.next(t)
	assert.Equal(t, "support@viralpik.test", msg.to)
	assert.Equal(t, "fan@viralpik.test", msg.replyTo)
	assert.Equal(t, "[general] #12 Download failed", msg.subject)
	assert.Contains(t, msg.body, "The zip is empty")
}

func TestSupportService_CreateTicket_MailFailureStillStores(t *testing.T) {
	t.Parallel()

	mailer := newMailerStub()
	mailer.err = assert.AnError
	svc := NewSupportService(noopSupportRepo(), mailer, "support@viralpik.test")

	ticket, err := svc.CreateTicket(context.Background(), CreateTicketInput{
		Email:    "fan@viralpik.test",
		Subject:  "Refund",
		Message:  "Please",
		Category: "billing",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(12), ticket.ID)
	mailer.next(t)
}

func TestSupportService_Close(t *testing.T) {
	t.Parallel()

	var got models.SupportTicketStatus
	repo := noopSupportRepo()
	repo.setStatusFn = func(_ context.Context, _ uint, s models.SupportTicketStatus) error {
		got = s
		return nil
	}
	svc := NewSupportService(repo, nil, "")
	require.NoError(t, svc.Close(context.Background(), 12))
	assert.Equal(t, models.TicketClosed, got)
}
