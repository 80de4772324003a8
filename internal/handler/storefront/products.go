package storefront

import (
	"net/http"

	"github.com/dukerupert/bespoke/internal/domain"
	"github.com/dukerupert/bespoke/internal/handler"
)

// ProductHandler serves the catalog view used by product pages: price and
// available stock.
type ProductHandler struct {
	catalog domain.ProductCatalog
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog domain.ProductCatalog) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

// Get handles GET /products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id", "product.get")
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	handler.JSON(w, http.StatusOK, product)
}
