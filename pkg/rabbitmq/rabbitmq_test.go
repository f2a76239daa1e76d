package rabbitmq_test

import (
	"context"
	"os"
	"testing"
	"time"

	"catalog/pkg/rabbitmq"

	amqp "github.com/streadway/amqp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := rabbitmq.NewClient(rabbitmq.Config{URL: "not-a-url"}, zap.NewNop())
	assert.Error(t, err)
}

func TestPublishAndConsume(t *testing.T) {
	url := os.Getenv("RABBITMQ_URL")
	if url == "" {
		t.Skip("RABBITMQ_URL not set")
	}
	exchange := "catalog.events.test"
	client, err := rabbitmq.NewClient(rabbitmq.Config{URL: url, Exchange: exchange}, zap.NewNop())
	require.NoError(t, err)
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	received := make(chan string, 1)
	go func() {
		_ = client.ConsumeEvents(ctx, "catalog.events.test.queue", "product.*", func(msg amqp.Delivery) error {
			received <- msg.RoutingKey
			return nil
		})
	}()

	// Give the consumer time to bind before publishing.
	time.Sleep(500 * time.Millisecond)
	require.NoError(t, client.Publish(ctx, "product.created", map[string]string{"id": "1"}))

	select {
	case key := <-received:
		assert.Equal(t, "product.created", key)
	case <-ctx.Done():
		t.Fatal("event not received")
	}
}
