package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"

    "github.com/iliyamo/hospital-admin/internal/model"
)

// ViewCounter applies a single view increment.
type ViewCounter interface {
    IncrementViews(ctx context.Context, id int64) (model.BlogPost, error)
}

// ErrUnknownPost marks a message whose post no longer exists.  Such
// messages are acknowledged and dropped.
var ErrUnknownPost = errors.New("post does not exist")

// StartViewConsumer connects to RabbitMQ, declares the blog.viewed queue
// (durable) and applies each message to counter.  It runs a reconnect loop
// with exponential backoff and returns only when ctx is cancelled.
func StartViewConsumer(ctx context.Context, url string, counter ViewCounter, notFound func(error) bool, log logrus.FieldLogger) {
    log = log.WithField("component", "view-consumer")
    backoff := time.Second
    for ctx.Err() == nil {
        conn, err := amqp.Dial(url)
        if err != nil {
            log.WithError(err).Warnf("failed to dial broker; retrying in %s", backoff)
            if !sleep(ctx, backoff) {
                return
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = consumeLoop(ctx, conn, counter, notFound, log)
        _ = conn.Close()
        if ctx.Err() != nil {
            return
        }
        log.WithError(err).Warn("consume loop ended; reconnecting")
        if !sleep(ctx, 2*time.Second) {
            return
        }
    }
}

func sleep(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, counter ViewCounter, notFound func(error) bool, log logrus.FieldLogger) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        log.WithError(err).Warn("set QoS failed")
    }
    if _, err := ch.QueueDeclare(BlogViewedQueue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(BlogViewedQueue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            err := HandleMessage(ctx, d.Body, counter, notFound)
            switch {
            case err == nil, errors.Is(err, ErrUnknownPost):
                _ = d.Ack(false)
            default:
                log.WithError(err).Warn("handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
            }
        }
    }
}

// HandleMessage decodes one BlogViewedEvent and applies it.  notFound
// classifies the counter's error for a missing post.
func HandleMessage(ctx context.Context, body []byte, counter ViewCounter, notFound func(error) bool) error {
    var ev BlogViewedEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.PostID <= 0 {
        return fmt.Errorf("invalid post id %d", ev.PostID)
    }
    if _, err := counter.IncrementViews(ctx, ev.PostID); err != nil {
        if notFound != nil && notFound(err) {
            return ErrUnknownPost
        }
        return fmt.Errorf("increment views of %d: %w", ev.PostID, err)
    }
    return nil
}
