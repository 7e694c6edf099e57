package email

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"studyhub/internal/domain"
)

// EmailJob is the queue message carrying one rendered email.
type EmailJob struct {
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	HTML    string    `json:"html,omitempty"`
	Text    string    `json:"text,omitempty"`
	QueueAt time.Time `json:"queued_at"`
}

type amqpPublisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// QueueMailer publishes rendered emails to RabbitMQ for the email worker to deliver.
type QueueMailer struct {
	conn   *amqp.Connection
	ch     amqpPublisher
	queue  string
	logger *slog.Logger
	now    func() time.Time
}

// DialQueueMailer connects to the broker and declares the durable queue.
func DialQueueMailer(cfg QueueConfig, logger *slog.Logger) (*QueueMailer, error) {
	conn, ch, err := DialQueue(cfg)
	if err != nil {
		return nil, err
	}
	return &QueueMailer{conn: conn, ch: ch, queue: cfg.Name, logger: logger, now: time.Now}, nil
}

// DialQueue opens a connection and channel and declares the durable queue cfg.Name.
func DialQueue(cfg QueueConfig) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, nil, fmt.Errorf("amqp dial: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("amqp channel: %w", err)
	}
	if _, err := ch.QueueDeclare(
		cfg.Name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, fmt.Errorf("queue declare: %w", err)
	}
	return conn, ch, nil
}

func (q *QueueMailer) Send(ctx context.Context, to, subject, html, text string) error {
	body, err := json.Marshal(EmailJob{To: to, Subject: subject, HTML: html, Text: text, QueueAt: q.now().UTC()})
	if err != nil {
		return fmt.Errorf("encode email job: %w", err)
	}
	err = q.ch.PublishWithContext(ctx,
		"",      // default exchange
		q.queue, // routing key = queue
		false,   // mandatory
		false,   // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    q.now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish email job: %w", err)
	}
	q.logger.DebugContext(ctx, "email job queued", "queue", q.queue, "to", to)
	return nil
}

// Close closes the channel and the connection.
func (q *QueueMailer) Close() error {
	if ch, ok := q.ch.(*amqp.Channel); ok {
		_ = ch.Close()
	}
	if q.conn != nil {
		return q.conn.Close()
	}
	return nil
}

// Worker delivers queued EmailJobs through a concrete mailer.
type Worker struct {
	mailer  domain.Mailer
	logger  *slog.Logger
	timeout time.Duration
}

// NewWorker returns a Worker sending through mailer with a per-message timeout.
func NewWorker(mailer domain.Mailer, logger *slog.Logger, timeout time.Duration) *Worker {
	return &Worker{mailer: mailer, logger: logger, timeout: timeout}
}

// Run handles deliveries until ctx is done or the channel closes.
func (w *Worker) Run(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-deliveries:
			if !ok {
				return
			}
			w.Handle(ctx, d)
		}
	}
}

// Handle sends one job. Malformed jobs are dropped; a failed send is requeued once.
func (w *Worker) Handle(ctx context.Context, d amqp.Delivery) {
	var job EmailJob
	if err := json.Unmarshal(d.Body, &job); err != nil || job.To == "" {
		w.logger.ErrorContext(ctx, "bad email job", "err", err)
		_ = d.Nack(false, false)
		return
	}
	c, cancel := context.WithTimeout(ctx, w.timeout)
	defer cancel()
	if err := w.mailer.Send(c, job.To, job.Subject, job.HTML, job.Text); err != nil {
		w.logger.ErrorContext(ctx, "send email failed", "to", job.To, "redelivered", d.Redelivered, "err", err)
		_ = d.Nack(false, !d.Redelivered)
		return
	}
	_ = d.Ack(false)
}
