package service

import (
	"context"
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/dukerupert/bespoke/internal/domain"
	"github.com/dukerupert/bespoke/internal/postgres"
	"github.com/dukerupert/bespoke/internal/repository"
)

// InventoryLedger owns product stock. Every mutation is a single conditional
// UPDATE, so the product row lock serializes concurrent writers and stock
// can never go below zero.
type InventoryLedger struct {
	repo repository.Querier
}

var _ domain.InventoryLedger = (*InventoryLedger)(nil)

// NewInventoryLedger creates a ledger over repo. Pass a transaction-scoped
// Querier to make ledger changes part of that transaction.
func NewInventoryLedger(repo repository.Querier) *InventoryLedger {
	return &InventoryLedger{repo: repo}
}

// Reserve takes quantity units of a product or fails without changing stock.
func (l *InventoryLedger) Reserve(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity < 1 || quantity > math.MaxInt32 {
		return ErrInvalidQuantity
	}

	_, err := l.repo.ReserveStock(ctx, repository.ReserveStockParams{
		Quantity: int32(quantity),
		ID:       postgres.UUID(productID),
	})
	if err == nil {
		return nil
	}
	if !repository.IsNoRows(err) {
		return fmt.Errorf("failed to reserve stock: %w", err)
	}

	// No row means either the product is missing or stock is short.
	if _, err := l.repo.GetProduct(ctx, postgres.UUID(productID)); err != nil {
		if repository.IsNoRows(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to get product: %w", err)
	}
	return ErrInsufficientStock
}

// Release credits quantity units back to a product. Zero is a no-op.
func (l *InventoryLedger) Release(ctx context.Context, productID uuid.UUID, quantity int) error {
	if quantity == 0 {
		return nil
	}
	if quantity < 0 || quantity > math.MaxInt32 {
		return ErrInvalidQuantity
	}

	_, err := l.repo.ReleaseStock(ctx, repository.ReleaseStockParams{
		Quantity: int32(quantity),
		ID:       postgres.UUID(productID),
	})
	if err != nil {
		if repository.IsNoRows(err) {
			return ErrProductNotFound
		}
		return fmt.Errorf("failed to release stock: %w", err)
	}
	return nil
}

// ReleaseOrder credits every item of an order back to stock at most once
// over the order's lifetime. It reports whether this call did the release.
func (l *InventoryLedger) ReleaseOrder(ctx context.Context, orderID uuid.UUID) (bool, error) {
	if _, err := l.repo.MarkOrderStockReleased(ctx, postgres.UUID(orderID)); err != nil {
		if !repository.IsNoRows(err) {
			return false, fmt.Errorf("failed to mark order stock released: %w", err)
		}
		if _, err := l.repo.GetOrder(ctx, postgres.UUID(orderID)); err != nil {
			if repository.IsNoRows(err) {
				return false, ErrOrderNotFound
			}
			return false, fmt.Errorf("failed to get order: %w", err)
		}
		return false, nil
	}

	items, err := l.repo.ListOrderItems(ctx, postgres.UUID(orderID))
	if err != nil {
		return false, fmt.Errorf("failed to list order items: %w", err)
	}
	for _, item := range items {
		productID, err := postgres.FromUUID(item.ProductID)
		if err != nil {
			return false, fmt.Errorf("failed to read order item product: %w", err)
		}
		if err := l.Release(ctx, productID, int(item.Quantity)); err != nil {
			return false, err
		}
	}
	return true, nil
}

// orderUnits sums item quantities of an order.
func orderUnits(items []domain.OrderItem) int {
	n := 0
	for _, item := range items {
		n += item.Quantity
	}
	return n
}
