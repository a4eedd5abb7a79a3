package event

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type EventType string

const (
	CustomerRegistered EventType = "customer.registered"
	CustomerUpdated    EventType = "customer.updated"
	CustomerRemoved    EventType = "customer.removed"
	CustomerPurchased  EventType = "customer.purchased"
	CustomerRecharged  EventType = "customer.recharged"
)

type CustomerEventPayload struct {
	Email        string          `json:"email"`
	Name         string          `json:"name"`
	CustomerType string          `json:"customerType"`
	Active       bool            `json:"active"`
	Balance      decimal.Decimal `json:"balance"`
	Tier         string          `json:"tier,omitempty"`
	RegisteredAt time.Time       `json:"registeredAt"`
}

type CustomerEvent struct {
	ID        string               `json:"id"`
	Type      EventType            `json:"type"`
	Timestamp time.Time            `json:"timestamp"`
	Amount    *decimal.Decimal     `json:"amount,omitempty"`
	Payload   CustomerEventPayload `json:"payload"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event CustomerEvent) error
}

// NoopPublisher drops every event. It is used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, CustomerEvent) error {
	return nil
}

var _ EventPublisher = NoopPublisher{}
