package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// =============================================================================
// CART DOMAIN ERRORS
// =============================================================================

var (
	ErrCartLineNotFound     = &Error{Code: ENOTFOUND, Message: "Cart item not found"}
	ErrInvalidClaimStrategy = &Error{Code: EINVALID, Message: "Claim strategy must be merge or discard"}
	ErrClaimRequiresUser    = &Error{Code: EUNAUTHORIZED, Message: "Sign in to claim a guest cart"}
)

// CartService provides business logic for per-identity shopping carts.
// Every method is scoped to a single identity; carts are never shared.
type CartService interface {
	// Summary returns the cart with derived totals. A missing cart is empty.
	Summary(ctx context.Context, identity Identity) (*CartSummary, error)

	// AddItem merges into the (productID, size) line or appends a selected line,
	// reserving quantity from the inventory ledger.
	AddItem(ctx context.Context, identity Identity, productID uuid.UUID, size string, quantity int) (*CartSummary, error)

	// RemoveItem deletes a line.
	RemoveItem(ctx context.Context, identity Identity, productID uuid.UUID, size string) (*CartSummary, error)

	// UpdateQuantity replaces a line's quantity. Values below 1 are ignored.
	UpdateQuantity(ctx context.Context, identity Identity, productID uuid.UUID, size string, quantity int) (*CartSummary, error)

	// ToggleSelection flips whether a line is included at checkout.
	ToggleSelection(ctx context.Context, identity Identity, productID uuid.UUID, size string) (*CartSummary, error)

	// Clear removes every line.
	Clear(ctx context.Context, identity Identity) (*CartSummary, error)

	// RemoveSelected removes the selected lines only.
	RemoveSelected(ctx context.Context, identity Identity) (*CartSummary, error)

	// ClaimGuestCart migrates or discards a guest cart for a signed-in user.
	ClaimGuestCart(ctx context.Context, user Identity, guestToken string, strategy ClaimStrategy) (*CartSummary, error)
}

// ClaimStrategy selects what happens to a guest cart when its owner signs in.
type ClaimStrategy string

const (
	ClaimMerge   ClaimStrategy = "merge"
	ClaimDiscard ClaimStrategy = "discard"
)

// Valid reports whether s is a known strategy.
func (s ClaimStrategy) Valid() bool {
	return s == ClaimMerge || s == ClaimDiscard
}

// CartLine is one (productID, size) entry in a cart.
type CartLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Selected  bool            `json:"selected"`

	// ReservedQuantity is the stock this line currently holds in the ledger.
	// It can differ from Quantity after an unchecked quantity update.
	ReservedQuantity int `json:"-"`

	AddedAt   time.Time `json:"addedAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Subtotal returns unitPrice * quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the collection of lines owned by one identity.
type Cart struct {
	OwnerKey  string
	Lines     []CartLine
	UpdatedAt time.Time
}

// Total sums line subtotals, optionally only over selected lines.
func (c *Cart) Total(selectedOnly bool) decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		if selectedOnly && !l.Selected {
			continue
		}
		total = total.Add(l.Subtotal())
	}
	return total
}

// Count sums line quantities, optionally only over selected lines.
func (c *Cart) Count(selectedOnly bool) int {
	count := 0
	for _, l := range c.Lines {
		if selectedOnly && !l.Selected {
			continue
		}
		count += l.Quantity
	}
	return count
}

// SelectedLines returns the lines that will be ordered at checkout.
func (c *Cart) SelectedLines() []CartLine {
	var lines []CartLine
	for _, l := range c.Lines {
		if l.Selected {
			lines = append(lines, l)
		}
	}
	return lines
}

// CartSummary is the cart as returned to clients.
type CartSummary struct {
	Lines         []CartLine      `json:"lines"`
	Total         decimal.Decimal `json:"total"`
	SelectedTotal decimal.Decimal `json:"selectedTotal"`
	Count         int             `json:"count"`
	SelectedCount int             `json:"selectedCount"`
}

// Summarize derives a CartSummary from a cart. A nil cart is empty.
func Summarize(c *Cart) *CartSummary {
	if c == nil {
		c = &Cart{}
	}
	lines := c.Lines
	if lines == nil {
		lines = []CartLine{}
	}
	return &CartSummary{
		Lines:         lines,
		Total:         c.Total(false),
		SelectedTotal: c.Total(true),
		Count:         c.Count(false),
		SelectedCount: c.Count(true),
	}
}
