// Package mail sends transactional email over SMTP.
package mail

import (
	"context"

	"viralpik/internal/config"

	"gopkg.in/gomail.v2"
)

// SMTPMailer delivers plain-text messages through one SMTP relay.
type SMTPMailer struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPMailer returns nil when SMTP is not configured.
func NewSMTPMailer(cfg *config.Config) *SMTPMailer {
	if cfg == nil || !cfg.SMTPEnabled() {
		return nil
	}
	return &SMTPMailer{
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword),
		from:   cfg.SMTPFrom,
	}
}

// NewMessage builds the message Send would deliver.
func NewMessage(from, to, subject, body string, replyTo ...string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	if len(replyTo) > 0 && replyTo[0] != "" {
		msg.SetHeader("Reply-To", replyTo[0])
	}
	msg.SetBody("text/plain", body)
	return msg
}

// Send delivers one message. gomail has no context support, so ctx is only
// checked before dialing.
func (m *SMTPMailer) Send(ctx context.Context, to, subject, body string) error {
	return m.SendReply(ctx, to, "", subject, body)
}

// SendReply is Send with a Reply-To header.
func (m *SMTPMailer) SendReply(ctx context.Context, to, replyTo, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return m.dialer.DialAndSend(NewMessage(m.from, to, subject, body, replyTo))
}
