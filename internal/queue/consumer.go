package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "log/slog"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
)

// Consumer binds an exclusive, auto-deleted queue to ChangesExchange and
// feeds every delivery into a Dispatcher.  Run keeps reconnecting with
// exponential backoff until its context is cancelled.
type Consumer struct {
    url    string
    d      *Dispatcher
    logger *slog.Logger
    ready  chan struct{}
}

func NewConsumer(url string, d *Dispatcher, logger *slog.Logger) *Consumer {
    if logger == nil {
        logger = slog.Default()
    }
    return &Consumer{url: url, d: d, logger: logger.With("component", "change-consumer"), ready: make(chan struct{})}
}

// Ready is closed once the first subscription is in place.
func (c *Consumer) Ready() <-chan struct{} { return c.ready }

// Run blocks until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
    backoff := time.Second
    first := true
    for {
        conn, err := amqp.Dial(c.url)
        if err != nil {
            c.logger.Warn("dial broker failed", "error", err, "retry_in", backoff)
            if !sleepCtx(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second

        err = c.consumeLoop(ctx, conn, &first)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        c.logger.Warn("consume loop ended, reconnecting", "error", err)
        if !sleepCtx(ctx, 2*time.Second) {
            return ctx.Err()
        }
    }
}

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection, first *bool) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        c.logger.Warn("set QoS failed", "error", err)
    }
    if err := DeclareExchange(ch); err != nil {
        return err
    }
    q, err := ch.QueueDeclare("", false, true, true, false, nil)
    if err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    if err := ch.QueueBind(q.Name, "", ChangesExchange, false, nil); err != nil {
        return fmt.Errorf("queue bind: %w", err)
    }
    msgs, err := ch.Consume(q.Name, "", false, true, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }
    if *first {
        *first = false
        close(c.ready)
    }
    c.logger.Info("subscribed", "exchange", ChangesExchange, "queue", q.Name)

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.handle(ctx, d.Body); err != nil {
                c.logger.Error("handle change failed", "error", err)
                _ = d.Nack(false, false)
                continue
            }
            _ = d.Ack(false)
        }
    }
}

func (c *Consumer) handle(ctx context.Context, body []byte) error {
    var ev ChangeEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    return c.d.Dispatch(ctx, ev)
}

// DeclareExchange declares the durable fan-out exchange.  Publisher and
// consumer both call it; the declaration is idempotent.
func DeclareExchange(ch *amqp.Channel) error {
    if err := ch.ExchangeDeclare(ChangesExchange, amqp.ExchangeFanout, true, false, false, false, nil); err != nil {
        return fmt.Errorf("exchange declare: %w", err)
    }
    return nil
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
    t := time.NewTimer(d)
    defer t.Stop()
    select {
    case <-ctx.Done():
        return false
    case <-t.C:
        return true
    }
}
