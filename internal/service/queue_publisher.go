package service

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/treenetra/treenetra/internal/queue"
)

// EmailPublisher pushes mail jobs onto the email.outbound queue.  The
// request path never waits on SMTP; it only enqueues.  Errors are logged
// and returned so callers can choose to ignore them, which the auth flows
// do: failure to send mail must not fail registration or password reset.
type EmailPublisher struct {
	URL string
	Log *zap.Logger
}

func NewEmailPublisher(log *zap.Logger) *EmailPublisher {
	return &EmailPublisher{URL: queue.BrokerURL(), Log: log}
}

// PublishEmail declares the durable queue (idempotent) and publishes the
// job as a persistent JSON message.
func (p *EmailPublisher) PublishEmail(ctx context.Context, job queue.EmailJob) error {
	conn, err := amqp.Dial(p.URL)
	if err != nil {
		p.Log.Warn("rabbitmq: dial failed", zap.Error(err))
		return err
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		p.Log.Warn("rabbitmq: channel open failed", zap.Error(err))
		return err
	}
	defer func() { _ = ch.Close() }()

	if _, err := ch.QueueDeclare(
		queue.EmailQueueName, // name
		true,                 // durable
		false,                // autoDelete
		false,                // exclusive
		false,                // noWait
		nil,                  // args
	); err != nil {
		p.Log.Warn("rabbitmq: queue declare failed", zap.Error(err))
		return err
	}

	body, err := json.Marshal(job)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // survive broker restarts
		Timestamp:    time.Now().UTC(),
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, "", queue.EmailQueueName, false, false, pub); err != nil {
		p.Log.Warn("rabbitmq: publish failed", zap.Error(err))
		return err
	}
	return nil
}
