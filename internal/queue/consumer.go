package queue

import (
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/shrimpsizemoose/trekker/logger"
)

// AuditLogName is the file, inside the audit directory, that receives
// one line per event.
const AuditLogName = "annotation.log"

// StartAuditConsumer connects to RabbitMQ, declares the audit queue
// (durable) and appends each message to <dir>/annotation.log. It runs a
// reconnect loop with exponential backoff and never returns; processing
// errors are logged and the offending message is rejected so the server
// keeps operating.
func StartAuditConsumer(url, dir string) {
    backoff := time.Second
    for {
        conn, err := amqp.Dial(url)
        if err != nil {
            logger.Error.Printf("audit-consumer: failed to dial broker: %v; retrying in %s", err, backoff)
            time.Sleep(backoff)
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        if err := consumeLoop(conn, dir); err != nil {
            logger.Error.Printf("audit-consumer: consume loop ended: %v; reconnecting", err)
            _ = conn.Close()
            time.Sleep(2 * time.Second)
        }
    }
}

func consumeLoop(conn *amqp.Connection, dir string) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logger.Error.Printf("audit-consumer: set QoS failed: %v", err)
    }

    if _, err := ch.QueueDeclare(AuditQueueName, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }

    msgs, err := ch.Consume(AuditQueueName, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for d := range msgs {
        if err := HandleMessage(dir, d.Body); err != nil {
            logger.Error.Printf("audit-consumer: handle message failed: %v", err)
            _ = d.Nack(false, false) // do not requeue poison messages
            continue
        }
        _ = d.Ack(false)
    }
    return errors.New("deliveries channel closed")
}

// HandleMessage decodes one event and appends its audit line.
func HandleMessage(dir string, body []byte) error {
    var ev AnnotationEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    if ev.Type == "" {
        return errors.New("event without type")
    }
    if err := os.MkdirAll(dir, 0o755); err != nil {
        return fmt.Errorf("mkdir %s: %w", dir, err)
    }
    f, err := os.OpenFile(filepath.Join(dir, AuditLogName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(FormatAuditLine(ev)); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}

// FormatAuditLine renders the single-line, human-friendly audit entry.
func FormatAuditLine(ev AnnotationEvent) string {
    if ev.Type == EventPurged {
        return fmt.Sprintf("[%s] Annotations purged | event_id=%s | count=%d\n",
            ev.OccurredAt, ev.EventID, ev.Count)
    }
    return fmt.Sprintf("[%s] Annotation %s | event_id=%s | annotation_id=%s | annotator_id=%d | email=%q | skipped=%t | reviewed=%t | text=%q\n",
        ev.OccurredAt, ev.Type, ev.EventID, ev.AnnotationID, ev.AnnotatorID, ev.AnnotatorEmail, ev.Skipped, ev.Reviewed, ev.SrcText)
}
