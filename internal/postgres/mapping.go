package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/dukerupert/bespoke/internal/address"
	"github.com/dukerupert/bespoke/internal/domain"
	"github.com/dukerupert/bespoke/internal/repository"
)

// =============================================================================
// MAPPING HELPERS
// =============================================================================

// ProductFromRow maps a products row to the domain type.
func ProductFromRow(p repository.Product) (*domain.Product, error) {
	id, err := FromUUID(p.ID)
	if err != nil {
		return nil, err
	}
	price, err := Decimal(p.Price)
	if err != nil {
		return nil, fmt.Errorf("product %s price: %w", id, err)
	}
	return &domain.Product{
		ID:        id,
		Name:      p.Name,
		Price:     price,
		Stock:     int(p.Stock),
		UpdatedAt: p.UpdatedAt.Time,
	}, nil
}

// CartLineFromRow maps a cart_lines row to the domain type.
func CartLineFromRow(l repository.CartLine) (domain.CartLine, error) {
	productID, err := FromUUID(l.ProductID)
	if err != nil {
		return domain.CartLine{}, err
	}
	price, err := Decimal(l.UnitPrice)
	if err != nil {
		return domain.CartLine{}, fmt.Errorf("cart line %s/%s price: %w", productID, l.Size, err)
	}
	return domain.CartLine{
		ProductID:        productID,
		Size:             l.Size,
		Quantity:         int(l.Quantity),
		UnitPrice:        price,
		Selected:         l.Selected,
		ReservedQuantity: int(l.ReservedQuantity),
		AddedAt:          l.AddedAt.Time,
		UpdatedAt:        l.UpdatedAt.Time,
	}, nil
}

// CartFromRows maps a cart and its lines to the domain type.
func CartFromRows(c repository.Cart, rows []repository.CartLine) (*domain.Cart, error) {
	cart := &domain.Cart{
		OwnerKey:  c.OwnerKey,
		Lines:     make([]domain.CartLine, 0, len(rows)),
		UpdatedAt: c.UpdatedAt.Time,
	}
	for _, row := range rows {
		line, err := CartLineFromRow(row)
		if err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, line)
	}
	return cart, nil
}

// OrderItemFromRow maps an order_items row to the domain type.
func OrderItemFromRow(i repository.OrderItem) (domain.OrderItem, error) {
	productID, err := FromUUID(i.ProductID)
	if err != nil {
		return domain.OrderItem{}, err
	}
	price, err := Decimal(i.UnitPrice)
	if err != nil {
		return domain.OrderItem{}, fmt.Errorf("order item %s/%s price: %w", productID, i.Size, err)
	}
	return domain.OrderItem{
		ProductID: productID,
		Size:      i.Size,
		Quantity:  int(i.Quantity),
		UnitPrice: price,
	}, nil
}

// OrderFromRows maps an orders row and its items to the domain type.
func OrderFromRows(o repository.Order, items []repository.OrderItem) (*domain.Order, error) {
	id, err := FromUUID(o.ID)
	if err != nil {
		return nil, err
	}
	total, err := Decimal(o.TotalPrice)
	if err != nil {
		return nil, fmt.Errorf("order %s total: %w", id, err)
	}

	var shipping address.Address
	if err := json.Unmarshal(o.ShippingAddress, &shipping); err != nil {
		return nil, fmt.Errorf("order %s shipping address: %w", id, err)
	}

	order := &domain.Order{
		ID:                   id,
		OrderNumber:          o.OrderNumber,
		OwnerKey:             o.OwnerKey,
		Items:                make([]domain.OrderItem, 0, len(items)),
		TotalPrice:           total,
		ShippingAddress:      shipping,
		Status:               domain.OrderStatus(o.Status),
		PaymentStatus:        domain.PaymentStatus(o.PaymentStatus),
		ExpectedDeliveryDate: TimePtr(o.ExpectedDeliveryDate),
		StockReleased:        o.StockReleased,
		CreatedAt:            o.CreatedAt.Time,
		UpdatedAt:            o.UpdatedAt.Time,
	}
	for _, row := range items {
		item, err := OrderItemFromRow(row)
		if err != nil {
			return nil, err
		}
		order.Items = append(order.Items, item)
	}
	return order, nil
}

// StatusEventFromRow maps an order_status_events row to the domain type.
func StatusEventFromRow(e repository.OrderStatusEvent) (domain.StatusEvent, error) {
	orderID, err := FromUUID(e.OrderID)
	if err != nil {
		return domain.StatusEvent{}, err
	}
	return domain.StatusEvent{
		ID:                e.ID,
		OrderID:           orderID,
		FromStatus:        domain.OrderStatus(e.FromStatus.String),
		ToStatus:          domain.OrderStatus(e.ToStatus),
		FromPaymentStatus: domain.PaymentStatus(e.FromPaymentStatus.String),
		ToPaymentStatus:   domain.PaymentStatus(e.ToPaymentStatus),
		Actor:             e.Actor,
		CreatedAt:         e.CreatedAt.Time,
	}, nil
}
