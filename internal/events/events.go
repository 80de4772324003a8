// Package events publishes order lifecycle events for downstream consumers
// such as notification delivery.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Type names an order event.
type Type string

const (
	OrderCreated       Type = "order.created"
	OrderStatusChanged Type = "order.status_changed"
	OrderCancelled     Type = "order.cancelled"
)

// OrderEvent describes a change to an order.
type OrderEvent struct {
	Type                  Type              `json:"type"`
	OrderID               uuid.UUID         `json:"orderId"`
	OrderNumber           string            `json:"orderNumber"`
	PreviousStatus        string            `json:"previousStatus,omitempty"`
	CurrentStatus         string            `json:"currentStatus"`
	PreviousPaymentStatus string            `json:"previousPaymentStatus,omitempty"`
	PaymentStatus         string            `json:"paymentStatus"`
	Actor                 string            `json:"actor"`
	OccurredAt            time.Time         `json:"occurredAt"`
	Metadata              map[string]string `json:"metadata,omitempty"`
}

// Publisher delivers order events. Publishing happens after the database
// transaction commits, so a failed publish never undoes an order change.
type Publisher interface {
	Publish(ctx context.Context, event OrderEvent) error
}

// NopPublisher drops every event.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, OrderEvent) error { return nil }
