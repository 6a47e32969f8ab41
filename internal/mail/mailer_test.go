package mail

import (
	"bytes"
	"context"
	"testing"

	"viralpik/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSMTPMailer_DisabledWithoutHost(t *testing.T) {
	assert.Nil(t, NewSMTPMailer(nil))
	assert.Nil(t, NewSMTPMailer(&config.Config{SupportInbox: "support@viralpik.local"}))
	assert.NotNil(t, NewSMTPMailer(&config.Config{SMTPHost: "smtp.local", SMTPPort: 587, SupportInbox: "support@viralpik.local"}))
}

func TestNewMessage_Headers(t *testing.T) {
	msg := NewMessage("ViralPik <no-reply@viralpik.local>", "support@viralpik.local", "Ticket #4", "hello", "user@example.com")

	assert.Equal(t, []string{"support@viralpik.local"}, msg.GetHeader("To"))
	assert.Equal(t, []string{"Ticket #4"}, msg.GetHeader("Subject"))
	assert.Equal(t, []string{"user@example.com"}, msg.GetHeader("Reply-To"))

	var buf bytes.Buffer
	_, err := msg.WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "hello")
}

func TestNewMessage_NoReplyTo(t *testing.T) {
	msg := NewMessage("a@viralpik.local", "b@viralpik.local", "s", "b")
	assert.Empty(t, msg.GetHeader("Reply-To"))
}

func TestSend_CancelledContext(t *testing.T) {
	m := NewSMTPMailer(&config.Config{SMTPHost: "127.0.0.1", SMTPPort: 1, SupportInbox: "x@viralpik.local"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, "x@viralpik.local", "s", "b"), context.Canceled)
}
