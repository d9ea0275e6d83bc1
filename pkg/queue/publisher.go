package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// Publisher emits ticket events. Callers treat failures as non-fatal.
type Publisher interface {
	PublishTicketPurchased(ctx context.Context, event TicketPurchasedEvent) error
	Close() error
}

// ErrBrokerUnavailable is returned while another call is (re)connecting.
var ErrBrokerUnavailable = errors.New("broker unavailable")

const defaultDialTimeout = 5 * time.Second

type amqpPublisher struct {
	url   string
	queue string
	log   *zap.Logger

	mu      sync.Mutex
	conn    *amqp.Connection
	ch      *amqp.Channel
	dialing bool
	closed  bool
}

// NewAMQPPublisher returns a publisher that dials lazily and redials after a broken connection.
// Only one caller dials at a time; the others fail fast until it finishes.
func NewAMQPPublisher(url, queue string, log *zap.Logger) Publisher {
	return &amqpPublisher{
		url:   url,
		queue: queue,
		log:   log.With(zap.String("component", "publisher")),
	}
}

func (p *amqpPublisher) PublishTicketPurchased(ctx context.Context, event TicketPurchasedEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ch, err := p.channel(ctx)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    event.TicketID,
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", p.queue, false, false, pub); err != nil {
		p.drop(ch)
		return fmt.Errorf("publish %s: %w", p.queue, err)
	}
	return nil
}

// channel returns the live channel or dials a new one within ctx's deadline.
// mu is never held across network I/O.
func (p *amqpPublisher) channel(ctx context.Context) (*amqp.Channel, error) {
	p.mu.Lock()
	switch {
	case p.closed:
		p.mu.Unlock()
		return nil, fmt.Errorf("publisher closed: %w", ErrBrokerUnavailable)
	case p.ch != nil && !p.ch.IsClosed() && p.conn != nil && !p.conn.IsClosed():
		ch := p.ch
		p.mu.Unlock()
		return ch, nil
	case p.dialing:
		p.mu.Unlock()
		return nil, fmt.Errorf("reconnect in progress: %w", ErrBrokerUnavailable)
	}
	p.reset()
	p.dialing = true
	p.mu.Unlock()

	conn, ch, err := p.dial(ctx)

	p.mu.Lock()
	defer p.mu.Unlock()
	p.dialing = false
	if err != nil {
		return nil, err
	}
	if p.closed {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("publisher closed: %w", ErrBrokerUnavailable)
	}
	p.conn, p.ch = conn, ch
	p.log.Info("Connected to broker", zap.String("queue", p.queue))
	return ch, nil
}

func (p *amqpPublisher) dial(ctx context.Context) (*amqp.Connection, *amqp.Channel, error) {
	timeout := defaultDialTimeout
	if deadline, ok := ctx.Deadline(); ok {
		timeout = time.Until(deadline)
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	if timeout <= 0 {
		return nil, nil, fmt.Errorf("dial broker: %w", context.DeadlineExceeded)
	}

	// DefaultDial bounds both the TCP connect and the AMQP handshake
	conn, err := amqp.DialConfig(p.url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial:      amqp.DefaultDial(timeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if _, err := declareQueue(ch, p.queue); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, nil, err
	}
	return conn, ch, nil
}

// drop discards the connection if ch is still the current channel.
// The close handshake runs after mu is released.
func (p *amqpPublisher) drop(ch *amqp.Channel) {
	p.mu.Lock()
	if p.ch != ch {
		p.mu.Unlock()
		return
	}
	conn := p.conn
	p.ch, p.conn = nil, nil
	p.mu.Unlock()

	_ = ch.Close()
	if conn != nil {
		_ = conn.Close()
	}
}

// reset must be called with mu held.
func (p *amqpPublisher) reset() {
	if p.ch != nil {
		_ = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
}

func (p *amqpPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	p.reset()
	return nil
}

func declareQueue(ch *amqp.Channel, name string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		name,
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("declare queue %s: %w", name, err)
	}
	return q, nil
}

type noopPublisher struct{}

// NewNoopPublisher is used when the broker is disabled.
func NewNoopPublisher() Publisher {
	return noopPublisher{}
}

func (noopPublisher) PublishTicketPurchased(context.Context, TicketPurchasedEvent) error { return nil }
func (noopPublisher) Close() error                                                      { return nil }
