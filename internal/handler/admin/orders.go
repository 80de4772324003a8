// Package admin serves the fulfillment endpoints. Every route requires the
// admin role; see routes.RegisterAdminRoutes.
package admin

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/bespoke/internal/domain"
	"github.com/dukerupert/bespoke/internal/handler"
)

// OrderHandler handles admin order status changes and listings.
type OrderHandler struct {
	fulfillmentService domain.FulfillmentService
	now                func() time.Time
}

// NewOrderHandler creates a new admin order handler
func NewOrderHandler(fulfillmentService domain.FulfillmentService) *OrderHandler {
	return &OrderHandler{
		fulfillmentService: fulfillmentService,
		now:                time.Now,
	}
}

type updateStatusRequest struct {
	Status                    string `json:"status" validate:"required"`
	PaymentStatus             string `json:"paymentStatus" validate:"required"`
	ExpectedDeliveryDate      *Date  `json:"expectedDeliveryDate"`
	ClearExpectedDeliveryDate bool   `json:"clearExpectedDeliveryDate"`
}

// Date accepts either an RFC 3339 timestamp or a calendar date (YYYY-MM-DD,
// read as midnight UTC).
type Date struct {
	time.Time
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		d.Time = t
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return domain.NewValidationError("order.update_status", "expectedDeliveryDate", "must be a date (YYYY-MM-DD) or RFC 3339 timestamp")
	}
	d.Time = t
	return nil
}

// UpdateStatus handles PUT /orders/{id}/status
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "order.update_status"

	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.NewValidationError(op, "id", "must be a UUID"))
		return
	}

	var req updateStatusRequest
	if err := handler.DecodeJSON(r, op, &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	update := domain.StatusUpdate{
		Status:                    domain.OrderStatus(req.Status),
		PaymentStatus:             domain.PaymentStatus(req.PaymentStatus),
		ClearExpectedDeliveryDate: req.ClearExpectedDeliveryDate,
	}
	if req.ExpectedDeliveryDate != nil {
		if req.ClearExpectedDeliveryDate {
			handler.ErrorResponse(w, r, domain.NewValidationError(op, "clearExpectedDeliveryDate", "cannot be combined with expectedDeliveryDate"))
			return
		}
		date := req.ExpectedDeliveryDate.UTC()
		update.ExpectedDeliveryDate = &date
	}
	// RequireAdmin guarantees an identity on this route.
	update.Actor = "admin:" + domain.MustIdentity(r.Context()).ID

	order, err := h.fulfillmentService.UpdateStatus(r.Context(), orderID, update)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, handler.NewOrderView(order, h.now()))
}

// List handles GET /admin/orders?status=&limit=&offset=
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	const op = "order.list"
	query := r.URL.Query()

	limit, err := intParam(query.Get("limit"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.NewValidationError(op, "limit", "must be a number"))
		return
	}
	offset, err := intParam(query.Get("offset"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.NewValidationError(op, "offset", "must be a number"))
		return
	}

	orders, err := h.fulfillmentService.ListOrdersByStatus(r.Context(), domain.OrderStatus(query.Get("status")), limit, offset)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]interface{}{
		"orders": handler.NewOrderViews(orders, h.now()),
	})
}

// History handles GET /admin/orders/{id}/history
func (h *OrderHandler) History(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handler.ErrorResponse(w, r, domain.NewValidationError("order.history", "id", "must be a UUID"))
		return
	}

	history, err := h.fulfillmentService.History(r.Context(), orderID)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, map[string]interface{}{
		"events": history,
	})
}

// intParam parses an optional integer query parameter. Empty means zero.
func intParam(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	return strconv.Atoi(s)
}
