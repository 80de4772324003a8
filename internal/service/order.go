package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukerupert/bespoke/internal/address"
	"github.com/dukerupert/bespoke/internal/domain"
	"github.com/dukerupert/bespoke/internal/events"
	"github.com/dukerupert/bespoke/internal/postgres"
	"github.com/dukerupert/bespoke/internal/repository"
	"github.com/dukerupert/bespoke/internal/telemetry"
)

const tracerName = "github.com/dukerupert/bespoke/internal/service"

// maxOrderNumberAttempts bounds retries after an order number collision.
const maxOrderNumberAttempts = 3

// orderNumberAlphabet has 32 symbols so a random byte maps onto it without bias.
const orderNumberAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// customerActor is recorded on events caused by the order's owner.
const customerActor = "customer"

type orderService struct {
	store     Store
	validator address.Validator
	publisher events.Publisher
	metrics   *telemetry.BusinessMetrics
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewOrderService creates a new OrderService instance.
// A nil validator accepts any address; a nil publisher drops events.
func NewOrderService(store Store, validator address.Validator, publisher events.Publisher, metrics *telemetry.BusinessMetrics, logger *slog.Logger) domain.OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &orderService{
		store:     store,
		validator: validator,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.With("service", "order"),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// placement is the outcome of one PlaceOrder transaction attempt.
type placement struct {
	order    *domain.Order
	created  bool
	key      string
	reserved int
	released int
}

// PlaceOrder converts the identity's selected cart lines into an order.
//
// Flow, in one transaction:
// 1. Lock the cart and read the selected lines (ErrEmptySelection if none)
// 2. Return the existing order when the idempotency key was used before
// 3. Reserve any quantity not yet held; collect every product that falls short
// 4. Release holds above the ordered quantity
// 5. Insert the order, its item snapshots and the initial status event
// 6. Delete the ordered lines, leaving unselected lines in the cart
//
// A StockConflictError rolls back every reservation made by the attempt and
// leaves the cart untouched. A concurrent duplicate that loses the unique
// race on the idempotency key returns the winning order.
func (s *orderService) PlaceOrder(ctx context.Context, identity domain.Identity, shipping address.Address, idempotencyKey string) (*domain.Order, bool, error) {
	ctx, span := s.tracer.Start(ctx, "order.place",
		trace.WithAttributes(attribute.String("identity.kind", string(identity.Kind))))
	defer span.End()

	order, created, err := s.placeOrder(ctx, identity, shipping, idempotencyKey)
	if err != nil {
		var conflict *domain.StockConflictError
		if errors.As(err, &conflict) {
			s.metrics.RecordStockConflict()
			span.SetAttributes(attribute.Int("order.conflicting_products", len(conflict.ProductIDs)))
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorCode(err))
		return nil, false, err
	}

	span.SetAttributes(
		attribute.String("order.id", order.ID.String()),
		attribute.Bool("order.created", created),
	)
	return order, created, nil
}

func (s *orderService) placeOrder(ctx context.Context, identity domain.Identity, shipping address.Address, clientKey string) (*domain.Order, bool, error) {
	shipping, err := s.validateAddress(ctx, shipping)
	if err != nil {
		return nil, false, err
	}
	shippingJSON, err := json.Marshal(shipping)
	if err != nil {
		return nil, false, fmt.Errorf("failed to encode shipping address: %w", err)
	}

	ownerKey := identity.OwnerKey()
	for attempt := 1; ; attempt++ {
		p, err := s.placeOrderTx(ctx, ownerKey, shippingJSON, clientKey)
		if err == nil {
			s.afterPlacement(ctx, identity, p)
			return p.order, p.created, nil
		}
		if !repository.IsUniqueViolation(err) || p.key == "" {
			return nil, false, err
		}

		// Either a concurrent duplicate committed first or the order number collided.
		existing, lookupErr := s.store.GetOrderByIdempotencyKey(ctx, repository.GetOrderByIdempotencyKeyParams{
			OwnerKey:       ownerKey,
			IdempotencyKey: p.key,
		})
		if lookupErr == nil {
			order, err := loadOrder(ctx, s.store, existing)
			if err != nil {
				return nil, false, err
			}
			s.metrics.RecordOrderReplay()
			return order, false, nil
		}
		if !repository.IsNoRows(lookupErr) {
			return nil, false, fmt.Errorf("failed to get order by idempotency key: %w", lookupErr)
		}
		if attempt >= maxOrderNumberAttempts {
			return nil, false, fmt.Errorf("failed to create order: %w", err)
		}
		s.logger.Warn("order number collision, retrying", "attempt", attempt)
	}
}

func (s *orderService) placeOrderTx(ctx context.Context, ownerKey string, shippingJSON []byte, clientKey string) (placement, error) {
	var p placement
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		// A client key identifies the attempt on its own, so a retry after a
		// lost response finds the order even though its lines are gone.
		if clientKey != "" {
			p.key = idempotencyKey(ownerKey, clientKey, nil)
			found, err := replayOrder(ctx, q, ownerKey, &p)
			if found || err != nil {
				return err
			}
		}

		cart, err := q.LockCartByOwner(ctx, ownerKey)
		if err != nil {
			if repository.IsNoRows(err) {
				return ErrEmptySelection
			}
			return fmt.Errorf("failed to lock cart: %w", err)
		}

		rows, err := q.ListCartLines(ctx, cart.ID)
		if err != nil {
			return fmt.Errorf("failed to list cart lines: %w", err)
		}
		c, err := postgres.CartFromRows(cart, rows)
		if err != nil {
			return fmt.Errorf("failed to map cart: %w", err)
		}
		selected := c.SelectedLines()
		if len(selected) == 0 {
			return ErrEmptySelection
		}

		if clientKey == "" {
			p.key = idempotencyKey(ownerKey, "", selected)
			found, err := replayOrder(ctx, q, ownerKey, &p)
			if found || err != nil {
				return err
			}
		}

		if err := reconcileHolds(ctx, NewInventoryLedger(q), selected, &p); err != nil {
			return err
		}

		total := decimal.Zero
		for _, line := range selected {
			total = total.Add(line.Subtotal())
		}

		orderNumber, err := newOrderNumber(s.now())
		if err != nil {
			return err
		}

		orderRow, err := q.CreateOrder(ctx, repository.CreateOrderParams{
			OrderNumber:     orderNumber,
			OwnerKey:        ownerKey,
			TotalPrice:      postgres.Numeric(total),
			ShippingAddress: shippingJSON,
			Status:          string(domain.OrderPending),
			PaymentStatus:   string(domain.PaymentPending),
			IdempotencyKey:  p.key,
		})
		if err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}

		items := make([]repository.OrderItem, 0, len(selected))
		for _, line := range selected {
			item, err := q.CreateOrderItem(ctx, repository.CreateOrderItemParams{
				OrderID:   orderRow.ID,
				ProductID: postgres.UUID(line.ProductID),
				Size:      line.Size,
				Quantity:  int32(line.Quantity),
				UnitPrice: postgres.Numeric(line.UnitPrice),
			})
			if err != nil {
				return fmt.Errorf("failed to create order item: %w", err)
			}
			items = append(items, item)
		}

		if _, err := q.CreateOrderStatusEvent(ctx, repository.CreateOrderStatusEventParams{
			OrderID:         orderRow.ID,
			ToStatus:        string(domain.OrderPending),
			ToPaymentStatus: string(domain.PaymentPending),
			Actor:           customerActor,
		}); err != nil {
			return fmt.Errorf("failed to create order status event: %w", err)
		}

		for _, line := range selected {
			if _, err := q.DeleteCartLine(ctx, repository.DeleteCartLineParams{
				CartID:    cart.ID,
				ProductID: postgres.UUID(line.ProductID),
				Size:      line.Size,
			}); err != nil {
				if repository.IsNoRows(err) {
					// The hold sweeper expired the line after it was read.
					return &domain.StockConflictError{ProductIDs: []uuid.UUID{line.ProductID}}
				}
				return fmt.Errorf("failed to delete ordered cart line: %w", err)
			}
		}

		p.order, err = postgres.OrderFromRows(orderRow, items)
		if err != nil {
			return fmt.Errorf("failed to map order: %w", err)
		}
		p.created = true
		return nil
	})
	if err != nil {
		return placement{key: p.key}, err
	}
	return p, nil
}

// replayOrder loads the order already placed under p.key, if any.
func replayOrder(ctx context.Context, q repository.Querier, ownerKey string, p *placement) (bool, error) {
	existing, err := q.GetOrderByIdempotencyKey(ctx, repository.GetOrderByIdempotencyKeyParams{
		OwnerKey:       ownerKey,
		IdempotencyKey: p.key,
	})
	if err != nil {
		if repository.IsNoRows(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get order by idempotency key: %w", err)
	}
	p.order, err = loadOrder(ctx, q, existing)
	return err == nil, err
}

// reconcileHolds makes the stock held by each line equal its quantity.
// Lines whose shortfall cannot be reserved are reported together.
func reconcileHolds(ctx context.Context, ledger *InventoryLedger, lines []domain.CartLine, p *placement) error {
	var conflicts []uuid.UUID
	seen := make(map[uuid.UUID]bool)

	for _, line := range lines {
		switch diff := line.Quantity - line.ReservedQuantity; {
		case diff > 0:
			err := ledger.Reserve(ctx, line.ProductID, diff)
			if err == nil {
				p.reserved += diff
				continue
			}
			if !errors.Is(err, ErrInsufficientStock) && !errors.Is(err, ErrProductNotFound) {
				return err
			}
			if !seen[line.ProductID] {
				seen[line.ProductID] = true
				conflicts = append(conflicts, line.ProductID)
			}
		case diff < 0:
			if err := ledger.Release(ctx, line.ProductID, -diff); err != nil {
				return err
			}
			p.released += -diff
		}
	}

	if len(conflicts) > 0 {
		return &domain.StockConflictError{ProductIDs: conflicts}
	}
	return nil
}

func (s *orderService) afterPlacement(ctx context.Context, identity domain.Identity, p placement) {
	if !p.created {
		s.metrics.RecordOrderReplay()
		return
	}

	total, _ := p.order.TotalPrice.Float64()
	s.metrics.RecordOrderPlaced(string(identity.Kind), total, orderUnits(p.order.Items))
	if p.reserved > 0 {
		s.metrics.RecordStockReserved("checkout", p.reserved)
	}
	if p.released > 0 {
		s.metrics.RecordStockReleased("checkout_surplus", p.released)
	}

	s.logger.Info("order placed",
		"order_id", p.order.ID,
		"order_number", p.order.OrderNumber,
		"items", len(p.order.Items),
		"total", p.order.TotalPrice.String(),
	)

	publish(ctx, s.publisher, s.logger, events.OrderEvent{
		Type:          events.OrderCreated,
		OrderID:       p.order.ID,
		OrderNumber:   p.order.OrderNumber,
		CurrentStatus: string(p.order.Status),
		PaymentStatus: string(p.order.PaymentStatus),
		Actor:         customerActor,
		OccurredAt:    p.order.CreatedAt,
		Metadata:      map[string]string{"total": p.order.TotalPrice.String()},
	})
}

func (s *orderService) validateAddress(ctx context.Context, shipping address.Address) (address.Address, error) {
	if s.validator == nil {
		return shipping.Normalize(), nil
	}

	result, err := s.validator.Validate(ctx, shipping)
	if err != nil {
		return address.Address{}, fmt.Errorf("failed to validate shipping address: %w", err)
	}
	if !result.IsValid {
		var verr error
		for _, e := range result.Errors {
			verr = domain.AddFieldError(verr, "shippingAddress."+e.Field, e.Message)
		}
		if verr == nil {
			verr = domain.NewValidationError("order.place", "shippingAddress", "is invalid")
		}
		return address.Address{}, verr
	}
	if result.NormalizedAddress != nil {
		return *result.NormalizedAddress, nil
	}
	return shipping, nil
}

// GetOrder returns an order owned by identity. Admins can read any order.
// Orders of other identities are reported as not found.
func (s *orderService) GetOrder(ctx context.Context, identity domain.Identity, orderID uuid.UUID) (*domain.Order, error) {
	row, err := s.store.GetOrder(ctx, postgres.UUID(orderID))
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	if !identity.Admin && row.OwnerKey != identity.OwnerKey() {
		return nil, ErrOrderNotFound
	}
	return loadOrder(ctx, s.store, row)
}

// ListOrders returns the identity's orders, newest first.
func (s *orderService) ListOrders(ctx context.Context, identity domain.Identity) ([]domain.Order, error) {
	rows, err := s.store.ListOrdersByOwner(ctx, identity.OwnerKey())
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return loadOrders(ctx, s.store, rows)
}

// loadOrder attaches items to an order row.
func loadOrder(ctx context.Context, q repository.Querier, row repository.Order) (*domain.Order, error) {
	items, err := q.ListOrderItems(ctx, row.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	order, err := postgres.OrderFromRows(row, items)
	if err != nil {
		return nil, fmt.Errorf("failed to map order: %w", err)
	}
	return order, nil
}

func loadOrders(ctx context.Context, q repository.Querier, rows []repository.Order) ([]domain.Order, error) {
	orders := make([]domain.Order, 0, len(rows))
	for _, row := range rows {
		order, err := loadOrder(ctx, q, row)
		if err != nil {
			return nil, err
		}
		orders = append(orders, *order)
	}
	return orders, nil
}

// idempotencyKey derives the per-owner key that deduplicates retried
// checkouts. A client-supplied key wins; otherwise the key is a hash of
// the selected lines, including when each was last changed, so ordering
// the same items again later is not mistaken for a retry.
func idempotencyKey(ownerKey, clientKey string, lines []domain.CartLine) string {
	h := sha256.New()
	h.Write([]byte(ownerKey))
	h.Write([]byte(":"))

	if clientKey != "" {
		h.Write([]byte(clientKey))
		return "client:" + hex.EncodeToString(h.Sum(nil))
	}

	sorted := make([]domain.CartLine, len(lines))
	copy(sorted, lines)
	sort.Slice(sorted, func(i, j int) bool {
		if c := bytes.Compare(sorted[i].ProductID[:], sorted[j].ProductID[:]); c != 0 {
			return c < 0
		}
		return sorted[i].Size < sorted[j].Size
	})
	for _, l := range sorted {
		fmt.Fprintf(h, "%s|%s|%d|%s|%d;", l.ProductID, l.Size, l.Quantity, l.UnitPrice.String(), l.UpdatedAt.UnixNano())
	}
	return "cart:" + hex.EncodeToString(h.Sum(nil))
}

// newOrderNumber returns a human-facing order number like ORD-20260115-7KQ2MX.
func newOrderNumber(now time.Time) (string, error) {
	b := make([]byte, 6)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate order number: %w", err)
	}
	for i := range b {
		b[i] = orderNumberAlphabet[int(b[i])%len(orderNumberAlphabet)]
	}
	return fmt.Sprintf("ORD-%s-%s", now.UTC().Format("20060102"), b), nil
}

// publish delivers an event after commit. Failures are logged, not returned.
func publish(ctx context.Context, publisher events.Publisher, logger *slog.Logger, event events.OrderEvent) {
	if err := publisher.Publish(ctx, event); err != nil {
		logger.Error("failed to publish order event",
			"type", event.Type,
			"order_id", event.OrderID,
			"error", err,
		)
	}
}
