package event

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRabbitMQEventPublisher_Validation(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := NewRabbitMQEventPublisher(nil, "customers", logger)
	assert.EqualError(t, err, "RabbitMQ connection cannot be nil")

	_, err = NewRabbitMQEventPublisher(&amqp.Connection{}, "", logger)
	assert.EqualError(t, err, "RabbitMQ exchange name cannot be empty")
}

func TestNewPublishing(t *testing.T) {
	amount := decimal.RequireFromString("45.00")
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	event := CustomerEvent{
		ID:        "3f2b1c9e-8d4a-4c1e-9b7a-2a6f5d0e1c44",
		Type:      CustomerPurchased,
		Timestamp: ts,
		Amount:    &amount,
		Payload: CustomerEventPayload{
			Email:        "ana@example.com",
			Name:         "Ana Gomez",
			CustomerType: "VIP",
			Active:       true,
			Balance:      decimal.NewFromInt(55),
			Tier:         "Silver",
		},
	}

	msg, err := newPublishing(event)
	require.NoError(t, err)

	assert.Equal(t, "application/json", msg.ContentType)
	assert.Equal(t, amqp.Persistent, msg.DeliveryMode)
	assert.Equal(t, publisherAppID, msg.AppId)
	assert.Equal(t, "customer.purchased", msg.Type)
	assert.Equal(t, event.ID, msg.MessageId)
	assert.Equal(t, ts, msg.Timestamp)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(msg.Body, &decoded))
	assert.Equal(t, "customer.purchased", decoded["type"])
	assert.Equal(t, "45", decoded["amount"])
	payload := decoded["payload"].(map[string]any)
	assert.Equal(t, "ana@example.com", payload["email"])
	assert.Equal(t, "Silver", payload["tier"])
}

func TestNoopPublisher(t *testing.T) {
	var pub EventPublisher = NoopPublisher{}
	assert.NoError(t, pub.Publish(context.Background(), CustomerEvent{Type: CustomerRegistered}))
}
