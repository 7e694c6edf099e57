package domain

import "context"

// Mailer defines the contract for sending emails (infrastructure port).
type Mailer interface {
	Send(ctx context.Context, to, subject, html, text string) error
}

// EmailTemplateRenderer renders email content from a named template with the given data.
type EmailTemplateRenderer interface {
	Render(templateName string, data any) (subject, htmlBody, textBody string, err error)
}

// SimpleLinkEmailData holds data for the "simple_link" template: a message and one call-to-action link.
type SimpleLinkEmailData struct {
	Subject  string
	Nickname string
	Message  string
	Link     string
	LinkName string
	Host     string
}

// EmailService defines the contract for sending domain-level emails.
type EmailService interface {
	SendSimpleLink(ctx context.Context, to string, data *SimpleLinkEmailData) error
}
