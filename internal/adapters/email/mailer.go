package email

import (
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/ses"

	"studyhub/internal/domain"
)

// SESConfig holds configuration for AWS SES.
type SESConfig struct {
	Region             string
	AccessKeyID        string
	SecretAccessKey    string
	InsecureSkipVerify bool
}

// MailgunConfig holds the Mailgun sending domain and key.
type MailgunConfig struct {
	Domain string
	APIKey string
}

// QueueConfig points the queue provider at a RabbitMQ queue.
type QueueConfig struct {
	URL  string
	Name string
}

// MailerConfig holds configuration for creating a mailer.
type MailerConfig struct {
	Provider    string
	FromAddress string
	FromName    string
	SES         SESConfig
	Mailgun     MailgunConfig
	Queue       QueueConfig
}

func (c MailerConfig) source() string {
	if c.FromName == "" {
		return c.FromAddress
	}
	return fmt.Sprintf("%s <%s>", c.FromName, c.FromAddress)
}

// NewMailer creates a mailer from config. Providers: "ses", "mailgun", "queue" (RabbitMQ,
// delivered by the email worker), "console" and "noop". Unknown providers fall back to noop.
// The queue mailer holds a broker connection; callers close it through io.Closer.
func NewMailer(config MailerConfig, logger *slog.Logger) (domain.Mailer, error) {
	switch config.Provider {
	case "ses":
		return newSESMailer(config, logger), nil
	case "mailgun":
		if config.Mailgun.Domain == "" || config.Mailgun.APIKey == "" {
			return nil, fmt.Errorf("mailgun provider requires MAILGUN_DOMAIN and MAILGUN_API_KEY")
		}
		return newMailgunMailer(config, logger), nil
	case "queue":
		q, err := DialQueueMailer(config.Queue, logger)
		if err != nil {
			return nil, err
		}
		return q, nil
	case "console":
		return &consoleMailer{logger: logger}, nil
	case "noop":
		return &noopMailer{}, nil
	default:
		logger.Warn("unknown email provider, using noop", "provider", config.Provider)
		return &noopMailer{}, nil
	}
}

func newSESMailer(config MailerConfig, logger *slog.Logger) *sesMailer {
	sesConfig := config.SES
	if sesConfig.InsecureSkipVerify {
		logger.Warn("TLS certificate verification is disabled for SES, use only in development")
	}
	httpClient := &http.Client{
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{
				InsecureSkipVerify: sesConfig.InsecureSkipVerify,
				MinVersion:         tls.VersionTLS12,
			},
		},
	}
	awsCfg := aws.Config{
		Region: sesConfig.Region,
		Credentials: aws.NewCredentialsCache(
			credentials.NewStaticCredentialsProvider(
				sesConfig.AccessKeyID,
				sesConfig.SecretAccessKey,
				"",
			),
		),
		HTTPClient: httpClient,
	}
	return &sesMailer{
		client: ses.NewFromConfig(awsCfg),
		source: config.source(),
		logger: logger,
	}
}
