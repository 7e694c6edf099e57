package email

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesMailer struct {
	client sesAPI
	source string
	logger *slog.Logger
}

func utf8Content(s string) *types.Content {
	return &types.Content{
		Data:    aws.String(s),
		Charset: aws.String("UTF-8"),
	}
}

func (s *sesMailer) Send(ctx context.Context, to, subject, html, text string) error {
	input := &ses.SendEmailInput{
		Source: aws.String(s.source),
		Destination: &types.Destination{
			ToAddresses: []string{to},
		},
		Message: &types.Message{
			Subject: utf8Content(subject),
			Body:    &types.Body{},
		},
	}
	if html != "" {
		input.Message.Body.Html = utf8Content(html)
	}
	if text != "" {
		input.Message.Body.Text = utf8Content(text)
	}
	result, err := s.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("failed to send email via SES: %w", err)
	}
	s.logger.InfoContext(ctx, "email sent via SES", "message_id", aws.ToString(result.MessageId))
	return nil
}
