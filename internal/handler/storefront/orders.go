package storefront

import (
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/bespoke/internal/address"
	"github.com/dukerupert/bespoke/internal/domain"
	"github.com/dukerupert/bespoke/internal/handler"
)

// IdempotencyKeyHeader lets clients make order placement safe to retry.
const IdempotencyKeyHeader = "Idempotency-Key"

// maxIdempotencyKeyLength bounds client keys; they are hashed before storage.
const maxIdempotencyKeyLength = 255

// OrderHandler handles checkout and the customer's order views.
type OrderHandler struct {
	orderService       domain.OrderService
	fulfillmentService domain.FulfillmentService
	now                func() time.Time
}

// NewOrderHandler creates a new order handler
func NewOrderHandler(orderService domain.OrderService, fulfillmentService domain.FulfillmentService) *OrderHandler {
	return &OrderHandler{
		orderService:       orderService,
		fulfillmentService: fulfillmentService,
		now:                time.Now,
	}
}

type placeOrderRequest struct {
	// Address fields are validated after normalization by the order service.
	ShippingAddress *address.Address `json:"shippingAddress" validate:"-"`
}

// Place handles POST /orders. A new order answers 201; a replay of an
// earlier placement with the same idempotency key answers 200.
func (h *OrderHandler) Place(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		handler.Unauthorized(w, r)
		return
	}

	key := strings.TrimSpace(r.Header.Get(IdempotencyKeyHeader))
	if len(key) > maxIdempotencyKeyLength {
		handler.ErrorResponse(w, r, domain.NewValidationError("order.place", IdempotencyKeyHeader, "must be at most 255 characters"))
		return
	}

	var req placeOrderRequest
	if err := handler.DecodeJSON(r, "order.place", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	if req.ShippingAddress == nil {
		handler.ErrorResponse(w, r, domain.NewValidationError("order.place", "shippingAddress", "is required"))
		return
	}

	order, created, err := h.orderService.PlaceOrder(r.Context(), id, *req.ShippingAddress, key)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	status := http.StatusOK
	if created {
		status = http.StatusCreated
		w.Header().Set("Location", "/orders/"+order.ID.String())
	}
	handler.JSON(w, status, handler.NewOrderView(order, h.now()))
}

// List handles GET /orders
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		handler.Unauthorized(w, r)
		return
	}

	orders, err := h.orderService.ListOrders(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]interface{}{
		"orders": handler.NewOrderViews(orders, h.now()),
	})
}

// Get handles GET /orders/{id}
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		handler.Unauthorized(w, r)
		return
	}

	orderID, err := pathUUID(r, "id", "order.get")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), id, orderID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, handler.NewOrderView(order, h.now()))
}

// Cancel handles POST /orders/{id}/cancel
func (h *OrderHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		handler.Unauthorized(w, r)
		return
	}

	orderID, err := pathUUID(r, "id", "order.cancel")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	order, err := h.fulfillmentService.CancelOrder(r.Context(), id, orderID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, handler.NewOrderView(order, h.now()))
}
