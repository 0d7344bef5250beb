package queue

import (
    "context"
    "encoding/json"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/shrimpsizemoose/trekker/logger"
)

// Publisher publishes AnnotationEvents to the audit queue. A nil
// *Publisher or one with an empty URL is a no-op, so the lifecycle can
// run without a broker.
type Publisher struct {
    URL     string
    Timeout time.Duration
}

// NewPublisher returns a publisher for the broker at url.
func NewPublisher(url string) *Publisher {
    return &Publisher{URL: url, Timeout: 3 * time.Second}
}

// Publish sends one event. It dials per call, declares the durable queue
// (idempotent) and marks the message persistent. Errors are logged and
// returned so the caller can choose to ignore them.
func (p *Publisher) Publish(ctx context.Context, event AnnotationEvent) error {
    if p == nil || p.URL == "" {
        return nil
    }
    if p.Timeout > 0 {
        var cancel context.CancelFunc
        ctx, cancel = context.WithTimeout(ctx, p.Timeout)
        defer cancel()
    }

    conn, err := amqp.DialConfig(p.URL, amqp.Config{Dial: amqp.DefaultDial(p.Timeout)})
    if err != nil {
        logger.Error.Printf("rabbitmq: dial failed: %v", err)
        return err
    }
    defer func() { _ = conn.Close() }()

    ch, err := conn.Channel()
    if err != nil {
        logger.Error.Printf("rabbitmq: channel open failed: %v", err)
        return err
    }
    defer func() { _ = ch.Close() }()

    // Durable so messages survive broker restarts.
    if _, err := ch.QueueDeclare(
        AuditQueueName, // name
        true,           // durable
        false,          // autoDelete
        false,          // exclusive
        false,          // noWait
        nil,            // args
    ); err != nil {
        logger.Error.Printf("rabbitmq: queue declare failed: %v", err)
        return err
    }

    body, err := json.Marshal(event)
    if err != nil {
        logger.Error.Printf("rabbitmq: marshal event failed: %v", err)
        return err
    }

    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        MessageId:    event.EventID,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }

    if err := ch.PublishWithContext(ctx,
        "",             // default exchange
        AuditQueueName, // routing key = queue name
        false,          // mandatory
        false,          // immediate
        pub,
    ); err != nil {
        logger.Error.Printf("rabbitmq: publish failed: %v", err)
        return err
    }
    return nil
}
