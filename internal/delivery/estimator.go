// Package delivery computes expected delivery dates for orders in progress.
package delivery

import (
	"time"

	"github.com/dukerupert/bespoke/internal/domain"
)

const week = 7 * 24 * time.Hour

// remainingWeeks is the expected time left until delivery from each
// non-terminal status.
var remainingWeeks = map[domain.OrderStatus]float64{
	domain.OrderPending:          12,
	domain.OrderConfirmed:        10,
	domain.OrderInProduction:     6,
	domain.OrderFitting:          2,
	domain.OrderReadyForDelivery: 0.43,
}

// Remaining returns the time left until delivery for a status.
// The second return value is false for terminal statuses.
func Remaining(status domain.OrderStatus) (time.Duration, bool) {
	weeks, ok := remainingWeeks[status]
	if !ok {
		return 0, false
	}
	return time.Duration(weeks * float64(week)), true
}

// Estimate returns the expected delivery date for an order in status.
// The estimate counts from now, not from createdAt, so it moves forward
// each time it is recomputed while the status is unchanged.
func Estimate(status domain.OrderStatus, createdAt, now time.Time) (time.Time, bool) {
	remaining, ok := Remaining(status)
	if !ok {
		return time.Time{}, false
	}
	return now.Add(remaining), true
}

// Source identifies where a displayed delivery date came from.
type Source string

const (
	SourceAdmin    Source = "admin"
	SourceEstimate Source = "estimate"
)

// Projection is the delivery date shown for an order.
type Projection struct {
	Date   time.Time `json:"date"`
	Source Source    `json:"source"`
}

// Resolve picks the delivery date to display: an admin-set date wins over
// the computed estimate. It never modifies the order.
func Resolve(order *domain.Order, now time.Time) *Projection {
	if order.ExpectedDeliveryDate != nil {
		return &Projection{Date: *order.ExpectedDeliveryDate, Source: SourceAdmin}
	}
	date, ok := Estimate(order.Status, order.CreatedAt, now)
	if !ok {
		return nil
	}
	return &Projection{Date: date, Source: SourceEstimate}
}
