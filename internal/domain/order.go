package domain

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/bespoke/internal/address"
)

// Order-related domain errors.
var (
	ErrOrderNotFound       = &Error{Code: ENOTFOUND, Message: "Order not found"}
	ErrEmptySelection      = &Error{Code: EINVALID, Message: "Select at least one item to place an order"}
	ErrOrderNotCancellable = &Error{Code: ECONFLICT, Message: "Order can no longer be cancelled; contact the store for a refund"}
	ErrInvalidTransition   = &Error{Code: ECONFLICT, Message: "Status change is not allowed"}
)

// OrderStatus is the fulfillment state of an order.
type OrderStatus string

const (
	OrderPending          OrderStatus = "pending"
	OrderConfirmed        OrderStatus = "confirmed"
	OrderInProduction     OrderStatus = "in_production"
	OrderFitting          OrderStatus = "fitting"
	OrderReadyForDelivery OrderStatus = "ready_for_delivery"
	OrderDelivered        OrderStatus = "delivered"
	OrderCancelled        OrderStatus = "cancelled"
	OrderRefunded         OrderStatus = "refunded"
	OrderRejected         OrderStatus = "rejected"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	OrderPending,
	OrderConfirmed,
	OrderInProduction,
	OrderFitting,
	OrderReadyForDelivery,
	OrderDelivered,
	OrderCancelled,
	OrderRefunded,
	OrderRejected,
}

// Valid reports whether s is a known status.
func (s OrderStatus) Valid() bool {
	for _, v := range OrderStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further fulfillment happens in this status.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderDelivered, OrderCancelled, OrderRefunded, OrderRejected:
		return true
	}
	return false
}

// ReleasesStock reports whether entering s returns the order's items to stock.
func (s OrderStatus) ReleasesStock() bool {
	switch s {
	case OrderCancelled, OrderRefunded, OrderRejected:
		return true
	}
	return false
}

// ParseOrderStatus converts a string into an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(strings.TrimSpace(s))
	if !status.Valid() {
		return "", Errorf(EINVALID, "order.parse_status", "unknown order status: %q", s)
	}
	return status, nil
}

// PaymentStatus tracks payment independently of fulfillment.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentPaid      PaymentStatus = "paid"
	PaymentCancelled PaymentStatus = "cancelled"
	PaymentFailed    PaymentStatus = "failed"
)

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentPaid, PaymentCancelled, PaymentFailed:
		return true
	}
	return false
}

// ParsePaymentStatus converts a string into a PaymentStatus.
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(strings.TrimSpace(s))
	if !status.Valid() {
		return "", Errorf(EINVALID, "order.parse_payment_status", "unknown payment status: %q", s)
	}
	return status, nil
}

// OrderItem is an immutable copy of a cart line taken at checkout.
type OrderItem struct {
	ProductID uuid.UUID       `json:"productId"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Subtotal returns unitPrice * quantity.
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order is created once from a cart's selected lines. Items and TotalPrice
// never change after creation.
type Order struct {
	ID                   uuid.UUID       `json:"id"`
	OrderNumber          string          `json:"orderNumber"`
	OwnerKey             string          `json:"-"`
	Items                []OrderItem     `json:"items"`
	TotalPrice           decimal.Decimal `json:"totalPrice"`
	ShippingAddress      address.Address `json:"shippingAddress"`
	Status               OrderStatus     `json:"status"`
	PaymentStatus        PaymentStatus   `json:"paymentStatus"`
	ExpectedDeliveryDate *time.Time      `json:"expectedDeliveryDate"`
	StockReleased        bool            `json:"-"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// ItemsTotal recomputes the sum of item subtotals.
func (o *Order) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.Subtotal())
	}
	return total
}

// StatusEvent is one entry in an order's status history.
type StatusEvent struct {
	ID                int64         `json:"id"`
	OrderID           uuid.UUID     `json:"orderId"`
	FromStatus        OrderStatus   `json:"fromStatus,omitempty"`
	ToStatus          OrderStatus   `json:"toStatus"`
	FromPaymentStatus PaymentStatus `json:"fromPaymentStatus,omitempty"`
	ToPaymentStatus   PaymentStatus `json:"toPaymentStatus"`
	Actor             string        `json:"actor"`
	CreatedAt         time.Time     `json:"createdAt"`
}

// StatusUpdate is an admin request to move an order.
type StatusUpdate struct {
	Status        OrderStatus
	PaymentStatus PaymentStatus

	// ExpectedDeliveryDate overrides the computed estimate when non-nil.
	ExpectedDeliveryDate *time.Time

	// ClearExpectedDeliveryDate removes an earlier override.
	ClearExpectedDeliveryDate bool

	Actor string
}

// StockConflictError reports the products whose stock could not cover an
// order. It carries ECONFLICT through Unwrap.
type StockConflictError struct {
	ProductIDs []uuid.UUID
}

func (e *StockConflictError) Error() string {
	ids := make([]string, len(e.ProductIDs))
	for i, id := range e.ProductIDs {
		ids[i] = id.String()
	}
	return fmt.Sprintf("insufficient stock for products: %s", strings.Join(ids, ", "))
}

func (e *StockConflictError) Unwrap() error {
	return &Error{
		Code:    ECONFLICT,
		Op:      "order.place",
		Message: "Some items are no longer available in the requested quantity",
	}
}

// OrderService turns carts into orders and serves order reads.
type OrderService interface {
	// PlaceOrder converts the identity's selected cart lines into an order.
	// The bool is false when an earlier order with the same idempotency key
	// was returned instead of creating a new one.
	PlaceOrder(ctx context.Context, identity Identity, shipping address.Address, idempotencyKey string) (*Order, bool, error)

	// GetOrder returns an order owned by identity, or any order for admins.
	GetOrder(ctx context.Context, identity Identity, orderID uuid.UUID) (*Order, error)

	// ListOrders returns the identity's orders, newest first.
	ListOrders(ctx context.Context, identity Identity) ([]Order, error)
}

// FulfillmentService drives orders through their lifecycle.
type FulfillmentService interface {
	// UpdateStatus applies an admin status change.
	UpdateStatus(ctx context.Context, orderID uuid.UUID, update StatusUpdate) (*Order, error)

	// CancelOrder cancels a pending or confirmed order for its owner.
	CancelOrder(ctx context.Context, identity Identity, orderID uuid.UUID) (*Order, error)

	// ListOrdersByStatus returns orders in a status, or all orders when status is empty.
	ListOrdersByStatus(ctx context.Context, status OrderStatus, limit, offset int) ([]Order, error)

	// History returns the status events of an order, oldest first.
	History(ctx context.Context, orderID uuid.UUID) ([]StatusEvent, error)
}
