package handler

import (
	"time"

	"github.com/dukerupert/bespoke/internal/delivery"
	"github.com/dukerupert/bespoke/internal/domain"
)

// OrderView is an order as returned to clients, with its delivery date
// projection. The projection is computed per response and never stored.
type OrderView struct {
	*domain.Order
	DeliveryEstimate *delivery.Projection `json:"deliveryEstimate"`
}

// NewOrderView wraps o with its projection at now.
func NewOrderView(o *domain.Order, now time.Time) OrderView {
	return OrderView{Order: o, DeliveryEstimate: delivery.Resolve(o, now)}
}

// NewOrderViews wraps a list of orders. An empty list encodes as [].
func NewOrderViews(orders []domain.Order, now time.Time) []OrderView {
	views := make([]OrderView, len(orders))
	for i := range orders {
		views[i] = NewOrderView(&orders[i], now)
	}
	return views
}
