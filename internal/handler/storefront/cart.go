package storefront

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/dukerupert/bespoke/internal/cookie"
	"github.com/dukerupert/bespoke/internal/domain"
	"github.com/dukerupert/bespoke/internal/handler"
)

// CartHandler handles all cart-related storefront routes
type CartHandler struct {
	cartService domain.CartService
	cookies     *cookie.Config
}

// NewCartHandler creates a new cart handler
func NewCartHandler(cartService domain.CartService, cookies *cookie.Config) *CartHandler {
	return &CartHandler{
		cartService: cartService,
		cookies:     cookies,
	}
}

type addItemRequest struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
	Size      string    `json:"size" validate:"required,max=32"`
	Quantity  *int      `json:"quantity" validate:"omitnil,gte=1,lte=100"`
}

// quantity defaults to one unit when the field is omitted.
func (r addItemRequest) quantity() int {
	if r.Quantity == nil {
		return 1
	}
	return *r.Quantity
}

// Quantities below 1 are accepted and leave the line unchanged.
type updateQuantityRequest struct {
	Quantity int `json:"quantity" validate:"lte=100"`
}

type claimRequest struct {
	GuestToken string `json:"guestToken" validate:"required"`
	Strategy   string `json:"strategy" validate:"required,oneof=merge discard"`
}

// View handles GET /cart
func (h *CartHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		handler.Unauthorized(w, r)
		return
	}
	h.respond(w, r)(h.cartService.Summary(r.Context(), id))
}

// Add handles POST /cart/items
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		handler.Unauthorized(w, r)
		return
	}

	var req addItemRequest
	if err := handler.DecodeJSON(r, "cart.add_item", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.respond(w, r)(h.cartService.AddItem(r.Context(), id, req.ProductID, req.Size, req.quantity()))
}

// UpdateQuantity handles PATCH /cart/items/{productId}/{size}
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	id, productID, size, ok := h.lineParams(w, r, "cart.update_quantity")
	if !ok {
		return
	}

	var req updateQuantityRequest
	if err := handler.DecodeJSON(r, "cart.update_quantity", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	h.respond(w, r)(h.cartService.UpdateQuantity(r.Context(), id, productID, size, req.Quantity))
}

// ToggleSelection handles POST /cart/items/{productId}/{size}/toggle
func (h *CartHandler) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	id, productID, size, ok := h.lineParams(w, r, "cart.toggle_selection")
	if !ok {
		return
	}
	h.respond(w, r)(h.cartService.ToggleSelection(r.Context(), id, productID, size))
}

// Remove handles DELETE /cart/items/{productId}/{size}
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id, productID, size, ok := h.lineParams(w, r, "cart.remove_item")
	if !ok {
		return
	}
	h.respond(w, r)(h.cartService.RemoveItem(r.Context(), id, productID, size))
}

// Clear handles DELETE /cart
func (h *CartHandler) Clear(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		handler.Unauthorized(w, r)
		return
	}
	h.respond(w, r)(h.cartService.Clear(r.Context(), id))
}

// RemoveSelected handles DELETE /cart/selected
func (h *CartHandler) RemoveSelected(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		handler.Unauthorized(w, r)
		return
	}
	h.respond(w, r)(h.cartService.RemoveSelected(r.Context(), id))
}

// Claim handles POST /cart/claim. Only signed-in users reach it.
func (h *CartHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(r)
	if !ok {
		handler.Unauthorized(w, r)
		return
	}

	var req claimRequest
	if err := handler.DecodeJSON(r, "cart.claim", &req); err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	summary, err := h.cartService.ClaimGuestCart(r.Context(), id, req.GuestToken, domain.ClaimStrategy(req.Strategy))
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	// The guest cart no longer exists; drop the browser's pointer to it.
	if h.cookies != nil && cookie.Get(r, cookie.GuestName) == req.GuestToken {
		h.cookies.ClearGuest(w)
	}

	handler.JSON(w, http.StatusOK, summary)
}

// lineParams resolves the caller and the (productId, size) path parameters.
// It writes the error response itself and reports false on failure.
func (h *CartHandler) lineParams(w http.ResponseWriter, r *http.Request, op string) (domain.Identity, uuid.UUID, string, bool) {
	id, ok := identity(r)
	if !ok {
		handler.Unauthorized(w, r)
		return domain.Identity{}, uuid.Nil, "", false
	}

	productID, err := pathUUID(r, "productId", op)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return domain.Identity{}, uuid.Nil, "", false
	}

	return id, productID, r.PathValue("size"), true
}

// respond writes a summary or the error that replaced it.
func (h *CartHandler) respond(w http.ResponseWriter, r *http.Request) func(*domain.CartSummary, error) {
	return func(summary *domain.CartSummary, err error) {
		if err != nil {
			handler.ErrorResponse(w, r, err)
			return
		}
		handler.JSON(w, http.StatusOK, summary)
	}
}
