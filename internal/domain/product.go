package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// PRODUCT AND INVENTORY DOMAIN TYPES
// =============================================================================

var (
	ErrProductNotFound   = &Error{Code: ENOTFOUND, Message: "Product not found"}
	ErrInsufficientStock = &Error{Code: ECONFLICT, Message: "Not enough stock for the requested quantity"}
	ErrInvalidQuantity   = &Error{Code: EINVALID, Message: "Quantity must be between 1 and 100"}
)

// MaxLineQuantity caps the quantity of a single cart line.
const MaxLineQuantity = 100

// Product is the catalog view the ordering core depends on: a price and the
// available stock count owned by the inventory ledger.
type Product struct {
	ID        uuid.UUID       `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// InStock reports whether at least quantity units are available.
func (p Product) InStock(quantity int) bool {
	return quantity <= p.Stock
}

// ProductCatalog provides read-only product lookups.
// Catalog CRUD lives outside this service.
type ProductCatalog interface {
	GetProduct(ctx context.Context, productID uuid.UUID) (*Product, error)
}

// InventoryLedger owns available stock per product.
//
// Reserve is a compare-and-decrement: it either takes the full quantity or
// fails with ErrInsufficientStock and leaves stock unchanged. ReleaseOrder
// credits an order's items back at most once over the order's lifetime.
type InventoryLedger interface {
	Reserve(ctx context.Context, productID uuid.UUID, quantity int) error
	Release(ctx context.Context, productID uuid.UUID, quantity int) error
	ReleaseOrder(ctx context.Context, orderID uuid.UUID) (bool, error)
}
