// Command emailworker consumes email jobs queued by the server and delivers
// them through EMAIL_WORKER_PROVIDER.
package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"studyhub/config"
	"studyhub/internal/adapters/email"
)

// prefetch bounds unacknowledged deliveries held by this worker.
const prefetch = 16

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "err", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Environment, cfg.LogLevel).With("component", "emailworker")

	if err := run(cfg, logger); err != nil {
		logger.Error("email worker stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	mailer, err := email.NewMailer(cfg.Email.MailerConfig(cfg.Email.WorkerProvider), logger)
	if err != nil {
		return err
	}
	if c, ok := mailer.(io.Closer); ok {
		defer c.Close()
	}

	conn, ch, err := email.DialQueue(email.QueueConfig{URL: cfg.Email.RabbitMQURL, Name: cfg.Email.QueueName})
	if err != nil {
		return err
	}
	defer func() { _ = conn.Close() }()
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		return err
	}
	deliveries, err := ch.Consume(cfg.Email.QueueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("email worker listening", "queue", cfg.Email.QueueName, "provider", cfg.Email.WorkerProvider)
	email.NewWorker(mailer, logger, cfg.Email.SendTimeout).Run(ctx, deliveries)
	logger.Info("email worker shutting down")
	return nil
}
