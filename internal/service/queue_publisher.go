package service

import (
    "context"
    "encoding/json"
    "fmt"
    "log/slog"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"

    q "github.com/iliyamo/cinema-ticket-booking/internal/queue"
)

// AMQPPublisher publishes change events to the queue.ChangesExchange
// fan-out exchange.  The connection is opened lazily and re-dialed after
// a failure, so a broker outage only costs the events published while it
// lasts.
type AMQPPublisher struct {
    url    string
    logger *slog.Logger

    mu   sync.Mutex
    conn *amqp.Connection
    ch   *amqp.Channel
}

func NewAMQPPublisher(url string, logger *slog.Logger) *AMQPPublisher {
    if logger == nil {
        logger = slog.Default()
    }
    return &AMQPPublisher{url: url, logger: logger.With("component", "change-publisher")}
}

// Publish sends ev as a persistent JSON message.  Errors are logged and
// returned; callers treat them as non-fatal.
func (p *AMQPPublisher) Publish(ctx context.Context, ev q.ChangeEvent) error {
    body, err := json.Marshal(ev)
    if err != nil {
        return fmt.Errorf("marshal change: %w", err)
    }
    p.mu.Lock()
    defer p.mu.Unlock()

    ch, err := p.channel()
    if err != nil {
        p.logger.Error("rabbitmq channel unavailable", "error", err)
        return err
    }
    pub := amqp.Publishing{
        ContentType:  "application/json",
        DeliveryMode: amqp.Persistent,
        Timestamp:    time.Now().UTC(),
        Body:         body,
    }
    if err := ch.PublishWithContext(ctx, q.ChangesExchange, "", false, false, pub); err != nil {
        p.logger.Error("rabbitmq publish failed", "table", ev.Table, "type", ev.Type, "error", err)
        p.reset()
        return err
    }
    return nil
}

// Close releases the broker connection.
func (p *AMQPPublisher) Close() error {
    p.mu.Lock()
    defer p.mu.Unlock()
    p.reset()
    return nil
}

func (p *AMQPPublisher) channel() (*amqp.Channel, error) {
    if p.ch != nil && !p.ch.IsClosed() {
        return p.ch, nil
    }
    p.reset()
    conn, err := amqp.Dial(p.url)
    if err != nil {
        return nil, fmt.Errorf("dial: %w", err)
    }
    ch, err := conn.Channel()
    if err != nil {
        _ = conn.Close()
        return nil, fmt.Errorf("channel open: %w", err)
    }
    if err := q.DeclareExchange(ch); err != nil {
        _ = ch.Close()
        _ = conn.Close()
        return nil, err
    }
    p.conn, p.ch = conn, ch
    return ch, nil
}

func (p *AMQPPublisher) reset() {
    if p.ch != nil {
        _ = p.ch.Close()
        p.ch = nil
    }
    if p.conn != nil {
        _ = p.conn.Close()
        p.conn = nil
    }
}
