package services

import (
	"context"
	"fmt"

	"studyhub/internal/domain"
)

const simpleLinkTemplate = "simple_link"

type emailService struct {
	mailer   domain.Mailer
	renderer domain.EmailTemplateRenderer
}

// NewEmailService returns an EmailService that renders templates and sends via the given mailer.
func NewEmailService(mailer domain.Mailer, renderer domain.EmailTemplateRenderer) domain.EmailService {
	return &emailService{
		mailer:   mailer,
		renderer: renderer,
	}
}

func (s *emailService) SendSimpleLink(ctx context.Context, to string, data *domain.SimpleLinkEmailData) error {
	subject, html, text, err := s.renderer.Render(simpleLinkTemplate, data)
	if err != nil {
		return fmt.Errorf("failed to render %s template: %w", simpleLinkTemplate, err)
	}
	if err := s.mailer.Send(ctx, to, subject, html, text); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}
