package routes

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dukerupert/bespoke/internal/handler/admin"
	"github.com/dukerupert/bespoke/internal/handler/storefront"
	"github.com/dukerupert/bespoke/internal/router"
)

// StorefrontDeps contains dependencies for storefront routes
type StorefrontDeps struct {
	ProductHandler *storefront.ProductHandler
	CartHandler    *storefront.CartHandler
	OrderHandler   *storefront.OrderHandler

	// OrderRateLimit guards order placement. Nil disables it.
	OrderRateLimit router.Middleware
}

// AdminDeps contains dependencies for admin routes
type AdminDeps struct {
	OrderHandler *admin.OrderHandler
}

// Pinger reports whether a backing service is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// OpsDeps contains dependencies for health and metrics routes
type OpsDeps struct {
	Database Pinger

	// Gatherer serves /metrics. Nil uses the default registry.
	Gatherer prometheus.Gatherer
}

func optional(m router.Middleware) []router.Middleware {
	if m == nil {
		return nil
	}
	return []router.Middleware{m}
}
