package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const maxBackoff = 30 * time.Second

// HandlerFunc processes one decoded event. An error rejects the delivery without requeue.
type HandlerFunc func(ctx context.Context, event TicketPurchasedEvent) error

type Consumer struct {
	url      string
	queue    string
	prefetch int
	log      *zap.Logger
}

func NewConsumer(url, queue string, log *zap.Logger) *Consumer {
	return &Consumer{
		url:      url,
		queue:    queue,
		prefetch: 50,
		log:      log.With(zap.String("component", "consumer"), zap.String("queue", queue)),
	}
}

// Run consumes until ctx is cancelled, reconnecting with exponential backoff.
func (c *Consumer) Run(ctx context.Context, handle HandlerFunc) error {
	backoff := time.Second
	for {
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("Failed to dial broker", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn, handle)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn("Consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection, handle HandlerFunc) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("open channel: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(c.prefetch, 0, false); err != nil {
		c.log.Warn("Failed to set QoS", zap.Error(err))
	}
	if _, err := declareQueue(ch, c.queue); err != nil {
		return err
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume: %w", err)
	}

	c.log.Info("Consuming")
	for d := range msgs {
		if err := Dispatch(ctx, d.Body, handle); err != nil {
			c.log.Error("Failed to handle message", zap.Error(err), zap.String("message_id", d.MessageId))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
	return errors.New("deliveries channel closed")
}

// Dispatch decodes body and hands it to handle.
func Dispatch(ctx context.Context, body []byte, handle HandlerFunc) error {
	var ev TicketPurchasedEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("unmarshal: %w", err)
	}
	if ev.TicketID == "" {
		return errors.New("event without ticket id")
	}
	return handle(ctx, ev)
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
