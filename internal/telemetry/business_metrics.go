package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// BusinessMetrics holds Prometheus metrics for the cart, inventory and order
// lifecycle. Every Record method is safe to call on a nil receiver.
type BusinessMetrics struct {
	// Cart
	CartItemsAdded   *prometheus.CounterVec
	CartAddsRejected *prometheus.CounterVec
	CartClaims       *prometheus.CounterVec

	// Inventory ledger
	StockReserved *prometheus.CounterVec
	StockReleased *prometheus.CounterVec

	// Orders
	OrdersPlaced   *prometheus.CounterVec
	OrderReplays   prometheus.Counter
	OrderValue     prometheus.Histogram
	OrderItemCount prometheus.Histogram
	StockConflicts prometheus.Counter

	// Lifecycle
	StatusTransitions *prometheus.CounterVec
	Cancellations     *prometheus.CounterVec

	// Background jobs
	CartLinesExpired prometheus.Counter
}

// NewBusinessMetrics creates business metrics and registers them with reg.
// A nil reg uses the default Prometheus registerer.
func NewBusinessMetrics(namespace string, reg prometheus.Registerer) *BusinessMetrics {
	if namespace == "" {
		namespace = "bespoke"
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	subsystem := "business"

	return &BusinessMetrics{
		// =======================================================================
		// Cart
		// =======================================================================
		CartItemsAdded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_items_added_total",
				Help:      "Units added to carts",
			},
			[]string{"identity_kind"}, // user, guest
		),
		CartAddsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_adds_rejected_total",
				Help:      "Add-to-cart attempts rejected",
			},
			[]string{"reason"}, // insufficient_stock, product_not_found
		),
		CartClaims: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_claims_total",
				Help:      "Guest carts claimed by signed-in users",
			},
			[]string{"strategy"}, // merge, discard
		),

		// =======================================================================
		// Inventory Ledger
		// =======================================================================
		StockReserved: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_reserved_units_total",
				Help:      "Units taken from the inventory ledger",
			},
			[]string{"reason"}, // add_to_cart, checkout_shortfall
		),
		StockReleased: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_released_units_total",
				Help:      "Units credited back to the inventory ledger",
			},
			[]string{"reason"}, // cancelled, refunded, rejected, cart_remove, cart_expiry, claim_discard, checkout_surplus
		),

		// =======================================================================
		// Orders
		// =======================================================================
		OrdersPlaced: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "orders_placed_total",
				Help:      "Orders created from carts",
			},
			[]string{"identity_kind"},
		),
		OrderReplays: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_replays_total",
				Help:      "Order placements answered with an existing order for the same idempotency key",
			},
		),
		OrderValue: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_value",
				Help:      "Order total price in store currency",
				Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000},
			},
		),
		OrderItemCount: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_item_count",
				Help:      "Units per order",
				Buckets:   []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
		StockConflicts: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "stock_conflicts_total",
				Help:      "Order placements rejected because stock could not cover the cart",
			},
		),

		// =======================================================================
		// Lifecycle
		// =======================================================================
		StatusTransitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_status_transitions_total",
				Help:      "Order status changes",
			},
			[]string{"from", "to"},
		),
		Cancellations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "order_cancellations_total",
				Help:      "Orders cancelled, refunded or rejected",
			},
			[]string{"status", "actor"}, // actor: customer, admin
		),

		// =======================================================================
		// Background Jobs
		// =======================================================================
		CartLinesExpired: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "cart_lines_expired_total",
				Help:      "Idle cart lines removed by the hold expiry sweeper",
			},
		),
	}
}

// Global instance for easy access from handlers
var Business *BusinessMetrics

// InitBusinessMetrics initializes the global business metrics instance
func InitBusinessMetrics(namespace string) *BusinessMetrics {
	Business = NewBusinessMetrics(namespace, nil)
	return Business
}

// RecordCartAdd records units added to a cart and reserved from stock.
func (m *BusinessMetrics) RecordCartAdd(identityKind string, units int) {
	if m == nil {
		return
	}
	m.CartItemsAdded.WithLabelValues(identityKind).Add(float64(units))
	m.StockReserved.WithLabelValues("add_to_cart").Add(float64(units))
}

// RecordCartAddRejected records a failed add-to-cart.
func (m *BusinessMetrics) RecordCartAddRejected(reason string) {
	if m == nil {
		return
	}
	m.CartAddsRejected.WithLabelValues(reason).Inc()
}

// RecordCartClaim records a guest cart claim.
func (m *BusinessMetrics) RecordCartClaim(strategy string) {
	if m == nil {
		return
	}
	m.CartClaims.WithLabelValues(strategy).Inc()
}

// RecordStockReserved records units reserved outside add-to-cart.
func (m *BusinessMetrics) RecordStockReserved(reason string, units int) {
	if m == nil || units <= 0 {
		return
	}
	m.StockReserved.WithLabelValues(reason).Add(float64(units))
}

// RecordStockReleased records units credited back to stock.
func (m *BusinessMetrics) RecordStockReleased(reason string, units int) {
	if m == nil || units <= 0 {
		return
	}
	m.StockReleased.WithLabelValues(reason).Add(float64(units))
}

// RecordOrderPlaced records a newly created order.
func (m *BusinessMetrics) RecordOrderPlaced(identityKind string, value float64, units int) {
	if m == nil {
		return
	}
	m.OrdersPlaced.WithLabelValues(identityKind).Inc()
	m.OrderValue.Observe(value)
	m.OrderItemCount.Observe(float64(units))
}

// RecordOrderReplay records an idempotent replay of an earlier placement.
func (m *BusinessMetrics) RecordOrderReplay() {
	if m == nil {
		return
	}
	m.OrderReplays.Inc()
}

// RecordStockConflict records a placement rejected for stock.
func (m *BusinessMetrics) RecordStockConflict() {
	if m == nil {
		return
	}
	m.StockConflicts.Inc()
}

// RecordStatusChange records a status transition and, for cancelled,
// refunded or rejected targets, who triggered it.
func (m *BusinessMetrics) RecordStatusChange(from, to, actor string, releasing bool) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(from, to).Inc()
	if releasing {
		m.Cancellations.WithLabelValues(to, actor).Inc()
	}
}

// RecordCartLinesExpired records lines removed by the expiry sweeper.
func (m *BusinessMetrics) RecordCartLinesExpired(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.CartLinesExpired.Add(float64(n))
}
