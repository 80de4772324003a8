package routes

import (
	"github.com/dukerupert/bespoke/internal/middleware"
	"github.com/dukerupert/bespoke/internal/router"
)

// RegisterStorefrontRoutes registers the customer-facing cart and order
// routes. Guests and signed-in users share them; the identity middleware
// decides whose cart and orders a request sees.
func RegisterStorefrontRoutes(r *router.Router, deps StorefrontDeps) {
	// Catalog
	r.Get("/products/{id}", deps.ProductHandler.Get)

	// Cart requests carry a few fields and touch one cart row
	cart := r.Group(
		middleware.MaxBodySize(middleware.SmallMaxBodySize),
		middleware.Timeout(middleware.ShortTimeout),
	)
	cart.Get("/cart", deps.CartHandler.View)
	cart.Delete("/cart", deps.CartHandler.Clear)
	cart.Post("/cart/items", deps.CartHandler.Add)
	cart.Patch("/cart/items/{productId}/{size}", deps.CartHandler.UpdateQuantity)
	cart.Post("/cart/items/{productId}/{size}/toggle", deps.CartHandler.ToggleSelection)
	cart.Delete("/cart/items/{productId}/{size}", deps.CartHandler.Remove)
	cart.Delete("/cart/selected", deps.CartHandler.RemoveSelected)

	// Claiming a guest cart needs a signed-in user
	account := cart.Group(middleware.RequireUser)
	account.Post("/cart/claim", deps.CartHandler.Claim)

	// Orders
	r.Post("/orders", deps.OrderHandler.Place, optional(deps.OrderRateLimit)...)
	r.Get("/orders", deps.OrderHandler.List)
	r.Get("/orders/{id}", deps.OrderHandler.Get)
	r.Post("/orders/{id}/cancel", deps.OrderHandler.Cancel)
}
