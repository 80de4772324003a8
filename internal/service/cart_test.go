package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/bespoke/internal/domain"
)

func TestCartService_Summary_EmptyForUnknownIdentity(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)

	summary, err := h.carts.Summary(context.Background(), alice)
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
	assert.NotNil(t, summary.Lines)
	assert.True(t, summary.Total.IsZero())
	assert.Equal(t, 0, summary.Count)
}

func TestCartService_AddItem_MergesSameProductAndSize(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 10)

	_, err := h.carts.AddItem(ctx, alice, p1, "M", 1)
	require.NoError(t, err)
	summary, err := h.carts.AddItem(ctx, alice, p1, "M", 2)
	require.NoError(t, err)

	require.Len(t, summary.Lines, 1)
	line := summary.Lines[0]
	assert.Equal(t, p1, line.ProductID)
	assert.Equal(t, 3, line.Quantity)
	assert.Equal(t, 3, line.ReservedQuantity)
	assert.True(t, line.Selected)
	assert.Equal(t, 7, h.store.stock(p1))
	assert.True(t, decimal.RequireFromString("3000").Equal(summary.Total))
}

func TestCartService_AddItem_DifferentSizesAreSeparateLines(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 10)

	_, err := h.carts.AddItem(ctx, alice, p1, "M", 1)
	require.NoError(t, err)
	summary, err := h.carts.AddItem(ctx, alice, p1, "L", 1)
	require.NoError(t, err)

	assert.Len(t, summary.Lines, 2)
	assert.Equal(t, 2, summary.Count)
}

func TestCartService_AddItem_InsufficientStockLeavesCartAndStock(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 1)

	_, err := h.carts.AddItem(ctx, alice, p1, "M", 2)
	require.ErrorIs(t, err, ErrInsufficientStock)
	assert.Equal(t, domain.ECONFLICT, domain.ErrorCode(err))

	assert.Equal(t, 1, h.store.stock(p1))
	summary, err := h.carts.Summary(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
}

func TestCartService_AddItem_InsufficientStockKeepsExistingLine(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 3)

	_, err := h.carts.AddItem(ctx, alice, p1, "M", 2)
	require.NoError(t, err)
	_, err = h.carts.AddItem(ctx, alice, p1, "M", 2)
	require.ErrorIs(t, err, ErrInsufficientStock)

	summary, err := h.carts.Summary(ctx, alice)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, 2, summary.Lines[0].Quantity)
	assert.Equal(t, 1, h.store.stock(p1))
}

func TestCartService_AddItem_Validation(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 5)

	tests := []struct {
		name     string
		product  uuid.UUID
		size     string
		quantity int
		wantErr  error
	}{
		{name: "zero quantity", product: p1, size: "M", quantity: 0, wantErr: ErrInvalidQuantity},
		{name: "negative quantity", product: p1, size: "M", quantity: -3, wantErr: ErrInvalidQuantity},
		{name: "quantity over line limit", product: p1, size: "M", quantity: domain.MaxLineQuantity + 1, wantErr: ErrInvalidQuantity},
		{name: "blank size", product: p1, size: "  ", quantity: 1, wantErr: ErrInvalidSize},
		{name: "unknown product", product: uuid.New(), size: "M", quantity: 1, wantErr: ErrProductNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.carts.AddItem(ctx, alice, tt.product, tt.size, tt.quantity)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
	assert.Equal(t, 5, h.store.stock(p1))
}

func TestCartService_AddItem_KeepsFirstPriceSnapshot(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 5)

	_, err := h.carts.AddItem(ctx, alice, p1, "M", 1)
	require.NoError(t, err)
	h.store.setPrice(p1, "1500")
	summary, err := h.carts.AddItem(ctx, alice, p1, "M", 1)
	require.NoError(t, err)

	require.Len(t, summary.Lines, 1)
	assert.True(t, decimal.RequireFromString("1000").Equal(summary.Lines[0].UnitPrice))
}

func TestCartService_RemoveItem_DoesNotReleaseByDefault(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 5)

	_, err := h.carts.AddItem(ctx, alice, p1, "M", 2)
	require.NoError(t, err)
	summary, err := h.carts.RemoveItem(ctx, alice, p1, "M")
	require.NoError(t, err)

	assert.Empty(t, summary.Lines)
	assert.Equal(t, 3, h.store.stock(p1))
}

func TestCartService_RemoveItem_ReleasesWhenConfigured(t *testing.T) {
	h := newHarness(t, CartConfig{ReleaseOnRemove: true}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 5)

	_, err := h.carts.AddItem(ctx, alice, p1, "M", 2)
	require.NoError(t, err)
	_, err = h.carts.RemoveItem(ctx, alice, p1, "M")
	require.NoError(t, err)

	assert.Equal(t, 5, h.store.stock(p1))
}

func TestCartService_RemoveItem_MissingLine(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 5)

	_, err := h.carts.RemoveItem(ctx, alice, p1, "M")
	require.ErrorIs(t, err, ErrCartLineNotFound)

	_, err = h.carts.AddItem(ctx, alice, p1, "M", 1)
	require.NoError(t, err)
	_, err = h.carts.RemoveItem(ctx, alice, p1, "XL")
	require.ErrorIs(t, err, ErrCartLineNotFound)
}

func TestCartService_UpdateQuantity(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 5)

	_, err := h.carts.AddItem(ctx, alice, p1, "M", 2)
	require.NoError(t, err)

	t.Run("below one is a no-op", func(t *testing.T) {
		summary, err := h.carts.UpdateQuantity(ctx, alice, p1, "M", 0)
		require.NoError(t, err)
		require.Len(t, summary.Lines, 1)
		assert.Equal(t, 2, summary.Lines[0].Quantity)
	})

	t.Run("replaces quantity without touching stock", func(t *testing.T) {
		summary, err := h.carts.UpdateQuantity(ctx, alice, p1, "M", 9)
		require.NoError(t, err)
		require.Len(t, summary.Lines, 1)
		assert.Equal(t, 9, summary.Lines[0].Quantity)
		assert.Equal(t, 2, summary.Lines[0].ReservedQuantity)
		assert.Equal(t, 3, h.store.stock(p1))
	})

	t.Run("above the line limit is rejected", func(t *testing.T) {
		_, err := h.carts.UpdateQuantity(ctx, alice, p1, "M", 1<<32+3)
		require.ErrorIs(t, err, ErrInvalidQuantity)

		summary, err := h.carts.Summary(ctx, alice)
		require.NoError(t, err)
		require.Len(t, summary.Lines, 1)
		assert.Equal(t, 9, summary.Lines[0].Quantity)
	})

	t.Run("missing line", func(t *testing.T) {
		_, err := h.carts.UpdateQuantity(ctx, alice, p1, "S", 2)
		require.ErrorIs(t, err, ErrCartLineNotFound)
	})
}

func TestCartService_SelectionAndTotals(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 5)
	p2 := h.store.addProduct("250.50", 5)

	_, err := h.carts.AddItem(ctx, alice, p1, "M", 2)
	require.NoError(t, err)
	_, err = h.carts.AddItem(ctx, alice, p2, "S", 1)
	require.NoError(t, err)

	summary, err := h.carts.ToggleSelection(ctx, alice, p2, "S")
	require.NoError(t, err)

	assert.True(t, decimal.RequireFromString("2250.50").Equal(summary.Total))
	assert.True(t, decimal.RequireFromString("2000").Equal(summary.SelectedTotal))
	assert.Equal(t, 3, summary.Count)
	assert.Equal(t, 2, summary.SelectedCount)

	summary, err = h.carts.RemoveSelected(ctx, alice)
	require.NoError(t, err)
	require.Len(t, summary.Lines, 1)
	assert.Equal(t, p2, summary.Lines[0].ProductID)
	assert.False(t, summary.Lines[0].Selected)

	summary, err = h.carts.Clear(ctx, alice)
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)

	// Cart-local operations never touch the ledger.
	assert.Equal(t, 3, h.store.stock(p1))
	assert.Equal(t, 4, h.store.stock(p2))
}

func TestCartService_ClearAndRemoveSelected_WithoutCart(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()

	summary, err := h.carts.Clear(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)

	summary, err = h.carts.RemoveSelected(ctx, bob)
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
}

func TestCartService_IdentitiesAreIsolated(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 5)

	_, err := h.carts.AddItem(ctx, guest, p1, "M", 1)
	require.NoError(t, err)

	for _, who := range []domain.Identity{alice, domain.GuestIdentity("other-guest"), domain.UserIdentity(guest.ID, false)} {
		summary, err := h.carts.Summary(ctx, who)
		require.NoError(t, err)
		assert.Empty(t, summary.Lines, "identity %v must not see the guest cart", who)
	}
}

func TestCartService_ClaimGuestCart_Merge(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 10)
	p2 := h.store.addProduct("500", 10)

	_, err := h.carts.AddItem(ctx, alice, p1, "M", 1)
	require.NoError(t, err)
	_, err = h.carts.AddItem(ctx, guest, p1, "M", 2)
	require.NoError(t, err)
	_, err = h.carts.AddItem(ctx, guest, p2, "S", 1)
	require.NoError(t, err)

	summary, err := h.carts.ClaimGuestCart(ctx, alice, guest.ID, domain.ClaimMerge)
	require.NoError(t, err)

	require.Len(t, summary.Lines, 2)
	for _, line := range summary.Lines {
		switch line.ProductID {
		case p1:
			assert.Equal(t, 3, line.Quantity)
			assert.Equal(t, 3, line.ReservedQuantity)
		case p2:
			assert.Equal(t, 1, line.Quantity)
		}
	}

	// Held stock moves with the lines.
	assert.Equal(t, 7, h.store.stock(p1))
	assert.Equal(t, 9, h.store.stock(p2))

	guestSummary, err := h.carts.Summary(ctx, guest)
	require.NoError(t, err)
	assert.Empty(t, guestSummary.Lines)
}

func TestCartService_ClaimGuestCart_Discard(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()
	p1 := h.store.addProduct("1000", 10)

	_, err := h.carts.AddItem(ctx, guest, p1, "M", 4)
	require.NoError(t, err)

	summary, err := h.carts.ClaimGuestCart(ctx, alice, guest.ID, domain.ClaimDiscard)
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
	assert.Equal(t, 10, h.store.stock(p1))
}

func TestCartService_ClaimGuestCart_Errors(t *testing.T) {
	h := newHarness(t, CartConfig{}, nil)
	ctx := context.Background()

	_, err := h.carts.ClaimGuestCart(ctx, guest, "x", domain.ClaimMerge)
	require.ErrorIs(t, err, ErrClaimRequiresUser)

	_, err = h.carts.ClaimGuestCart(ctx, alice, "x", domain.ClaimStrategy("keep"))
	require.ErrorIs(t, err, ErrInvalidClaimStrategy)

	_, err = h.carts.ClaimGuestCart(ctx, alice, " ", domain.ClaimMerge)
	require.ErrorIs(t, err, ErrInvalidGuestToken)

	summary, err := h.carts.ClaimGuestCart(ctx, alice, "never-used", domain.ClaimMerge)
	require.NoError(t, err)
	assert.Empty(t, summary.Lines)
}
