package events

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/rpattn/bookstore/internal/domain"
)

type recordingChannel struct {
	exchange string
	key      string
	msg      amqp.Publishing
	closed   bool
}

func (c *recordingChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	c.exchange, c.key, c.msg = exchange, key, msg
	return nil
}

func (c *recordingChannel) Close() error {
	c.closed = true
	return nil
}

func TestAMQPPublisher_PublishesStatusChange(t *testing.T) {
	ch := &recordingChannel{}
	p := &AMQPPublisher{ch: ch, exchange: "bookstore", logger: zap.NewNop()}
	change := domain.OrderStatusChange{
		OrderID:   7,
		From:      domain.OrderStatus{ID: 1, Name: "Pending", Position: 1},
		To:        domain.OrderStatus{ID: 3, Name: "Shipped", Position: 3},
		ChangedBy: "jdoe",
		ChangedAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	require.NoError(t, p.PublishOrderStatusChanged(context.Background(), change))

	assert.Equal(t, "bookstore", ch.exchange)
	assert.Equal(t, RoutingKeyOrderStatusChanged, ch.key)
	assert.Equal(t, "application/json", ch.msg.ContentType)
	assert.Equal(t, amqp.Persistent, ch.msg.DeliveryMode)
	assert.NotEmpty(t, ch.msg.MessageId)

	var decoded domain.OrderStatusChange
	require.NoError(t, json.Unmarshal(ch.msg.Body, &decoded))
	assert.Equal(t, change, decoded)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
}

func TestNewPublisher_DisabledWithoutURL(t *testing.T) {
	p, err := NewPublisher(Config{}, zap.NewNop())
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.PublishOrderStatusChanged(context.Background(), domain.OrderStatusChange{}))
}
