// Package queue_publisher provides functions to publish domain events to RabbitMQ.
// Errors are logged and returned to allow callers to fall back without
// interrupting the main request flow.
package queue_publisher

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    q "github.com/iliyamo/hospital-admin/internal/queue"
)

// Publisher sends events to one broker.  It dials per publish: view events
// are low volume and a short-lived connection never goes stale.
type Publisher struct {
    URL string
    Log logrus.FieldLogger
}

func New(url string, log logrus.FieldLogger) *Publisher {
    return &Publisher{URL: url, Log: log.WithField("component", "publisher")}
}

// PublishBlogViewed publishes a BlogViewedEvent to the "blog.viewed" queue.
// Messages are marked as persistent.
func (p *Publisher) PublishBlogViewed(ctx context.Context, event q.BlogViewedEvent) error {
    conn, err := amqp.Dial(p.URL)
    if err != nil {
        p.Log.WithError(err).Warn("dial failed")
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        p.Log.WithError(err).Warn("channel open failed")
        return err
    }
    defer func() { _ = ch.Close() }()

    // Ensure the queue exists (idempotent). Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        q.BlogViewedQueue, // name
        true,              // durable
        false,             // autoDelete
        false,             // exclusive
        false,             // noWait
        nil,               // args
    ); err != nil {
        p.Log.WithError(err).Warn("queue declare failed")
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent, // store on disk
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",                // default exchange
        q.BlogViewedQueue, // routing key = queue name
        false,             // mandatory
        false,             // immediate
        pub,
    ); err != nil {
        p.Log.WithError(err).Warn("publish failed")
        return err
    }
    return nil
}
