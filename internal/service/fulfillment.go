package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dukerupert/bespoke/internal/domain"
	"github.com/dukerupert/bespoke/internal/events"
	"github.com/dukerupert/bespoke/internal/postgres"
	"github.com/dukerupert/bespoke/internal/repository"
	"github.com/dukerupert/bespoke/internal/telemetry"
)

// adminActor is recorded when a status update names no actor.
const adminActor = "admin"

// Admin listing bounds.
const (
	DefaultListLimit = 50
	MaxListLimit     = 200
)

// =============================================================================
// TRANSITION POLICIES
// =============================================================================

// TransitionPolicy decides which admin status changes are accepted.
// Staying in the same status is always allowed.
type TransitionPolicy interface {
	Allowed(from, to domain.OrderStatus) bool
}

// PermissiveTransitions accepts any status change, including backward and
// skipped steps, so admins can correct mistakes by hand.
type PermissiveTransitions struct{}

// Allowed implements TransitionPolicy.
func (PermissiveTransitions) Allowed(from, to domain.OrderStatus) bool { return true }

// TransitionTable lists the allowed target statuses per source status.
type TransitionTable map[domain.OrderStatus][]domain.OrderStatus

// Allowed implements TransitionPolicy.
func (t TransitionTable) Allowed(from, to domain.OrderStatus) bool {
	if from == to {
		return true
	}
	for _, s := range t[from] {
		if s == to {
			return true
		}
	}
	return false
}

// StrictTransitions follows the production path one step at a time.
// Cancellation, refund and rejection are reachable from every non-terminal
// status, and a delivered order can still be refunded.
func StrictTransitions() TransitionTable {
	sideExits := []domain.OrderStatus{domain.OrderCancelled, domain.OrderRefunded, domain.OrderRejected}
	next := map[domain.OrderStatus]domain.OrderStatus{
		domain.OrderPending:          domain.OrderConfirmed,
		domain.OrderConfirmed:        domain.OrderInProduction,
		domain.OrderInProduction:     domain.OrderFitting,
		domain.OrderFitting:          domain.OrderReadyForDelivery,
		domain.OrderReadyForDelivery: domain.OrderDelivered,
	}

	table := TransitionTable{
		domain.OrderDelivered: {domain.OrderRefunded},
	}
	for from, to := range next {
		table[from] = append([]domain.OrderStatus{to}, sideExits...)
	}
	return table
}

// =============================================================================
// FULFILLMENT SERVICE
// =============================================================================

type fulfillmentService struct {
	store     Store
	policy    TransitionPolicy
	publisher events.Publisher
	metrics   *telemetry.BusinessMetrics
	logger    *slog.Logger
	tracer    trace.Tracer
	now       func() time.Time
}

// NewFulfillmentService creates a new FulfillmentService instance.
// A nil policy is permissive.
func NewFulfillmentService(store Store, policy TransitionPolicy, publisher events.Publisher, metrics *telemetry.BusinessMetrics, logger *slog.Logger) domain.FulfillmentService {
	if logger == nil {
		logger = slog.Default()
	}
	if policy == nil {
		policy = PermissiveTransitions{}
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &fulfillmentService{
		store:     store,
		policy:    policy,
		publisher: publisher,
		metrics:   metrics,
		logger:    logger.With("service", "fulfillment"),
		tracer:    otel.Tracer(tracerName),
		now:       time.Now,
	}
}

// transition is the outcome of a status change transaction.
type transition struct {
	order         *domain.Order
	changed       bool
	from          domain.OrderStatus
	fromPayment   domain.PaymentStatus
	releasedUnits int
	released      bool
}

// UpdateStatus applies an admin status change.
//
// Re-applying the current values is a no-op that writes no event. Entering
// cancelled, refunded or rejected returns the order's stock once; leaving
// such a status does not take the stock back.
func (s *fulfillmentService) UpdateStatus(ctx context.Context, orderID uuid.UUID, update domain.StatusUpdate) (*domain.Order, error) {
	if !update.Status.Valid() {
		return nil, domain.Errorf(domain.EINVALID, "order.update_status", "unknown order status: %q", update.Status)
	}
	if !update.PaymentStatus.Valid() {
		return nil, domain.Errorf(domain.EINVALID, "order.update_status", "unknown payment status: %q", update.PaymentStatus)
	}
	actor := update.Actor
	if actor == "" {
		actor = adminActor
	}

	ctx, span := s.tracer.Start(ctx, "order.update_status", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
		attribute.String("order.status", string(update.Status)),
	))
	defer span.End()

	var t transition
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		row, err := lockOrder(ctx, q, orderID)
		if err != nil {
			return err
		}
		t.from = domain.OrderStatus(row.Status)
		t.fromPayment = domain.PaymentStatus(row.PaymentStatus)

		date := row.ExpectedDeliveryDate
		switch {
		case update.ClearExpectedDeliveryDate:
			date = pgtype.Timestamptz{}
		case update.ExpectedDeliveryDate != nil:
			date = postgres.Timestamptz(*update.ExpectedDeliveryDate)
		}

		if t.from == update.Status && t.fromPayment == update.PaymentStatus && sameTimestamptz(date, row.ExpectedDeliveryDate) {
			t.order, err = loadOrder(ctx, q, row)
			return err
		}

		if !s.policy.Allowed(t.from, update.Status) {
			return domain.WrapError(ErrInvalidTransition, domain.ECONFLICT, "order.update_status",
				fmt.Sprintf("Cannot move an order from %s to %s", t.from, update.Status))
		}

		t.order, t.released, t.releasedUnits, err = s.applyStatus(ctx, q, row, update.Status, update.PaymentStatus, date, actor)
		if err != nil {
			return err
		}
		t.changed = true

		if t.from.ReleasesStock() && !update.Status.ReleasesStock() && row.StockReleased {
			s.logger.Warn("order left a released status; stock is not reserved again",
				"order_id", orderID,
				"from", t.from,
				"to", update.Status,
			)
		}
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorCode(err))
		return nil, err
	}

	if t.changed {
		s.afterTransition(ctx, events.OrderStatusChanged, actor, t)
	}
	return t.order, nil
}

// CancelOrder cancels a pending or confirmed order on behalf of its owner.
// Cancelling an already cancelled order returns it unchanged.
func (s *fulfillmentService) CancelOrder(ctx context.Context, identity domain.Identity, orderID uuid.UUID) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "order.cancel", trace.WithAttributes(
		attribute.String("order.id", orderID.String()),
	))
	defer span.End()

	var t transition
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		row, err := lockOrder(ctx, q, orderID)
		if err != nil {
			return err
		}
		if row.OwnerKey != identity.OwnerKey() {
			return ErrOrderNotFound
		}

		t.from = domain.OrderStatus(row.Status)
		t.fromPayment = domain.PaymentStatus(row.PaymentStatus)

		switch t.from {
		case domain.OrderCancelled:
			t.order, err = loadOrder(ctx, q, row)
			return err
		case domain.OrderPending, domain.OrderConfirmed:
		default:
			return ErrOrderNotCancellable
		}

		// Unpaid orders stop waiting for payment; a paid order keeps its
		// payment status until the store refunds it.
		payment := t.fromPayment
		if payment == domain.PaymentPending {
			payment = domain.PaymentCancelled
		}

		t.order, t.released, t.releasedUnits, err = s.applyStatus(ctx, q, row, domain.OrderCancelled, payment, row.ExpectedDeliveryDate, customerActor)
		if err != nil {
			return err
		}
		t.changed = true
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, domain.ErrorCode(err))
		return nil, err
	}

	if t.changed {
		s.afterTransition(ctx, events.OrderCancelled, customerActor, t)
	}
	return t.order, nil
}

// applyStatus writes the new status, records the event and releases stock
// when the target status requires it.
func (s *fulfillmentService) applyStatus(ctx context.Context, q repository.Querier, row repository.Order, status domain.OrderStatus, payment domain.PaymentStatus, date pgtype.Timestamptz, actor string) (*domain.Order, bool, int, error) {
	updated, err := q.UpdateOrderStatus(ctx, repository.UpdateOrderStatusParams{
		ID:                   row.ID,
		Status:               string(status),
		PaymentStatus:        string(payment),
		ExpectedDeliveryDate: date,
	})
	if err != nil {
		return nil, false, 0, fmt.Errorf("failed to update order status: %w", err)
	}

	if _, err := q.CreateOrderStatusEvent(ctx, repository.CreateOrderStatusEventParams{
		OrderID:           row.ID,
		FromStatus:        postgres.Text(row.Status),
		ToStatus:          string(status),
		FromPaymentStatus: postgres.Text(row.PaymentStatus),
		ToPaymentStatus:   string(payment),
		Actor:             actor,
	}); err != nil {
		return nil, false, 0, fmt.Errorf("failed to create order status event: %w", err)
	}

	order, err := loadOrder(ctx, q, updated)
	if err != nil {
		return nil, false, 0, err
	}

	if !status.ReleasesStock() {
		return order, false, 0, nil
	}

	released, err := NewInventoryLedger(q).ReleaseOrder(ctx, order.ID)
	if err != nil {
		return nil, false, 0, err
	}
	if released {
		order.StockReleased = true
		return order, true, orderUnits(order.Items), nil
	}
	return order, false, 0, nil
}

func (s *fulfillmentService) afterTransition(ctx context.Context, eventType events.Type, actor string, t transition) {
	s.metrics.RecordStatusChange(string(t.from), string(t.order.Status), actorRole(actor), t.released)
	if t.releasedUnits > 0 {
		s.metrics.RecordStockReleased("order_"+string(t.order.Status), t.releasedUnits)
	}

	s.logger.Info("order status changed",
		"order_id", t.order.ID,
		"from", t.from,
		"to", t.order.Status,
		"payment_status", t.order.PaymentStatus,
		"actor", actor,
		"stock_released", t.released,
	)

	publish(ctx, s.publisher, s.logger, events.OrderEvent{
		Type:                  eventType,
		OrderID:               t.order.ID,
		OrderNumber:           t.order.OrderNumber,
		PreviousStatus:        string(t.from),
		CurrentStatus:         string(t.order.Status),
		PreviousPaymentStatus: string(t.fromPayment),
		PaymentStatus:         string(t.order.PaymentStatus),
		Actor:                 actor,
		OccurredAt:            s.now(),
	})
}

// ListOrdersByStatus returns orders in a status, newest first. An empty
// status lists every order.
func (s *fulfillmentService) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, error) {
	if status != "" && !status.Valid() {
		return nil, domain.Errorf(domain.EINVALID, "order.list", "unknown order status: %q", status)
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := s.store.ListOrders(ctx, repository.ListOrdersParams{
		Status:    postgres.Text(string(status)),
		RowLimit:  int32(limit),
		RowOffset: int32(offset),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return loadOrders(ctx, s.store, rows)
}

// History returns the status events of an order, oldest first.
func (s *fulfillmentService) History(ctx context.Context, orderID uuid.UUID) ([]domain.StatusEvent, error) {
	if _, err := s.store.GetOrder(ctx, postgres.UUID(orderID)); err != nil {
		if repository.IsNoRows(err) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}

	rows, err := s.store.ListOrderStatusEvents(ctx, postgres.UUID(orderID))
	if err != nil {
		return nil, fmt.Errorf("failed to list order status events: %w", err)
	}

	history := make([]domain.StatusEvent, 0, len(rows))
	for _, row := range rows {
		event, err := postgres.StatusEventFromRow(row)
		if err != nil {
			return nil, fmt.Errorf("failed to map order status event: %w", err)
		}
		history = append(history, event)
	}
	return history, nil
}

func lockOrder(ctx context.Context, q repository.Querier, orderID uuid.UUID) (repository.Order, error) {
	row, err := q.GetOrderForUpdate(ctx, postgres.UUID(orderID))
	if err != nil {
		if repository.IsNoRows(err) {
			return repository.Order{}, ErrOrderNotFound
		}
		return repository.Order{}, fmt.Errorf("failed to lock order: %w", err)
	}
	return row, nil
}

func sameTimestamptz(a, b pgtype.Timestamptz) bool {
	if a.Valid != b.Valid {
		return false
	}
	return !a.Valid || a.Time.Equal(b.Time)
}

// actorRole reduces an actor to a bounded metrics label.
func actorRole(actor string) string {
	if actor == customerActor {
		return customerActor
	}
	return adminActor
}
