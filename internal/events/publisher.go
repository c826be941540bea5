package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/rpattn/bookstore/internal/domain"
)

// RoutingKeyOrderStatusChanged is the routing key of order status events.
const RoutingKeyOrderStatusChanged = "order.status_changed"

// Config holds broker settings. An empty URL disables publishing.
type Config struct {
	URL      string `mapstructure:"url"`
	Exchange string `mapstructure:"exchange"`
}

// Publisher announces order updates to other services.
type Publisher interface {
	PublishOrderStatusChanged(ctx context.Context, change domain.OrderStatusChange) error
	Close() error
}

// channel is the subset of *amqp.Channel used for publishing.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Close() error
}

// AMQPPublisher publishes events to a durable topic exchange.
type AMQPPublisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       channel
	exchange string
	logger   *zap.Logger
}

// NewPublisher connects to the broker described by cfg, or returns a
// publisher that drops events when no broker is configured.
func NewPublisher(cfg Config, logger *zap.Logger) (Publisher, error) {
	if cfg.URL == "" {
		logger.Info("event publishing disabled")
		return NopPublisher{}, nil
	}
	exchange := cfg.Exchange
	if exchange == "" {
		exchange = "bookstore"
	}

	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange, // name
		"topic",  // type
		true,     // durable
		false,    // auto-delete
		false,    // internal
		false,    // noWait
		nil,      // arguments
	); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &AMQPPublisher{conn: conn, ch: ch, exchange: exchange, logger: logger}, nil
}

func newMessage(change domain.OrderStatusChange) (amqp.Publishing, error) {
	body, err := json.Marshal(change)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode event: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         RoutingKeyOrderStatusChanged,
		Body:         body,
	}, nil
}

func (p *AMQPPublisher) PublishOrderStatusChanged(ctx context.Context, change domain.OrderStatusChange) error {
	msg, err := newMessage(change)
	if err != nil {
		return err
	}
	// amqp channels are not safe for concurrent publishing
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.PublishWithContext(ctx, p.exchange, RoutingKeyOrderStatusChanged, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish order status change: %w", err)
	}
	p.logger.Debug("published order status change",
		zap.Int64("order_id", change.OrderID),
		zap.String("status", change.To.Name),
	)
	return nil
}

func (p *AMQPPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	chErr := p.ch.Close()
	var connErr error
	if p.conn != nil {
		connErr = p.conn.Close()
	}
	if chErr != nil {
		return chErr
	}
	return connErr
}

// NopPublisher discards events.
type NopPublisher struct{}

func (NopPublisher) PublishOrderStatusChanged(context.Context, domain.OrderStatusChange) error {
	return nil
}

func (NopPublisher) Close() error { return nil }
