package email

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const mailgunTimeout = 10 * time.Second

type mailgunMailer struct {
	client *mg.MailgunImpl
	sender string
	logger *slog.Logger
}

func newMailgunMailer(config MailerConfig, logger *slog.Logger) *mailgunMailer {
	return &mailgunMailer{
		client: mg.NewMailgun(config.Mailgun.Domain, config.Mailgun.APIKey),
		sender: config.source(),
		logger: logger,
	}
}

func (m *mailgunMailer) Send(ctx context.Context, to, subject, html, text string) error {
	msg := m.client.NewMessage(m.sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	c, cancel := context.WithTimeout(ctx, mailgunTimeout)
	defer cancel()
	_, id, err := m.client.Send(c, msg)
	if err != nil {
		return fmt.Errorf("failed to send email via mailgun: %w", err)
	}
	m.logger.InfoContext(ctx, "email sent via mailgun", "message_id", id)
	return nil
}
