package email

import (
	"context"
	"log/slog"
)

// consoleMailer logs outgoing mail instead of sending it; the development default.
type consoleMailer struct {
	logger *slog.Logger
}

func (c *consoleMailer) Send(ctx context.Context, to, subject, html, text string) error {
	c.logger.InfoContext(ctx, "email (console)", "to", to, "subject", subject, "text", text)
	return nil
}

type noopMailer struct{}

func (n *noopMailer) Send(ctx context.Context, to, subject, html, text string) error {
	return nil
}
