package routes

import (
	"github.com/dukerupert/bespoke/internal/middleware"
	"github.com/dukerupert/bespoke/internal/router"
)

// RegisterAdminRoutes registers the fulfillment routes.
// All routes require a bearer token carrying the admin role.
func RegisterAdminRoutes(r *router.Router, deps AdminDeps) {
	admin := r.Group(middleware.RequireAdmin)

	admin.Put("/orders/{id}/status", deps.OrderHandler.UpdateStatus, middleware.MaxBodySize(middleware.SmallMaxBodySize))
	admin.Get("/admin/orders", deps.OrderHandler.List)
	admin.Get("/admin/orders/{id}/history", deps.OrderHandler.History)
}
