package service

import (
	"bytes"
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"

	"github.com/dukerupert/bespoke/internal/postgres"
	"github.com/dukerupert/bespoke/internal/repository"
)

// memStore is an in-memory Store. ExecTx serializes transactions and
// restores a snapshot when fn fails, so tests observe the same
// all-or-nothing behavior as Postgres.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex

	products map[uuid.UUID]repository.Product
	carts    map[string]repository.Cart
	lines    map[lineKey]repository.CartLine
	orders   map[uuid.UUID]repository.Order
	items    map[uuid.UUID][]repository.OrderItem
	events   []repository.OrderStatusEvent

	clock   time.Time
	eventID int64

	// fail makes the named query return the error.
	fail map[string]error

	// hideIdempotencyLookups makes the next n GetOrderByIdempotencyKey calls
	// miss, simulating a concurrent checkout that commits first.
	hideIdempotencyLookups int
}

type lineKey struct {
	cart    uuid.UUID
	product uuid.UUID
	size    string
}

var _ Store = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{
		products: make(map[uuid.UUID]repository.Product),
		carts:    make(map[string]repository.Cart),
		lines:    make(map[lineKey]repository.CartLine),
		orders:   make(map[uuid.UUID]repository.Order),
		items:    make(map[uuid.UUID][]repository.OrderItem),
		clock:    time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
		fail:     make(map[string]error),
	}
}

// addProduct seeds a product and returns its ID.
func (s *memStore) addProduct(price string, stock int) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	now := s.tick()
	s.products[id] = repository.Product{
		ID:        postgres.UUID(id),
		Name:      "Product " + id.String()[:8],
		Price:     postgres.Numeric(decimal.RequireFromString(price)),
		Stock:     int32(stock),
		CreatedAt: now,
		UpdatedAt: now,
	}
	return id
}

func (s *memStore) stock(id uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.products[id].Stock)
}

func (s *memStore) setPrice(id uuid.UUID, price string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p := s.products[id]
	p.Price = postgres.Numeric(decimal.RequireFromString(price))
	s.products[id] = p
}

func (s *memStore) orderCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *memStore) eventCount(orderID uuid.UUID) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, e := range s.events {
		if uuid.UUID(e.OrderID.Bytes) == orderID {
			n++
		}
	}
	return n
}

// advance moves the store clock forward.
func (s *memStore) advance(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clock = s.clock.Add(d)
}

func (s *memStore) tick() pgtype.Timestamptz {
	s.clock = s.clock.Add(time.Millisecond)
	return postgres.Timestamptz(s.clock)
}

func (s *memStore) failure(name string) error {
	return s.fail[name]
}

type snapshot struct {
	products map[uuid.UUID]repository.Product
	carts    map[string]repository.Cart
	lines    map[lineKey]repository.CartLine
	orders   map[uuid.UUID]repository.Order
	items    map[uuid.UUID][]repository.OrderItem
	events   []repository.OrderStatusEvent
	eventID  int64
}

func (s *memStore) snapshot() snapshot {
	snap := snapshot{
		products: make(map[uuid.UUID]repository.Product, len(s.products)),
		carts:    make(map[string]repository.Cart, len(s.carts)),
		lines:    make(map[lineKey]repository.CartLine, len(s.lines)),
		orders:   make(map[uuid.UUID]repository.Order, len(s.orders)),
		items:    make(map[uuid.UUID][]repository.OrderItem, len(s.items)),
		events:   append([]repository.OrderStatusEvent(nil), s.events...),
		eventID:  s.eventID,
	}
	for k, v := range s.products {
		snap.products[k] = v
	}
	for k, v := range s.carts {
		snap.carts[k] = v
	}
	for k, v := range s.lines {
		snap.lines[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}
	for k, v := range s.items {
		snap.items[k] = append([]repository.OrderItem(nil), v...)
	}
	return snap
}

func (s *memStore) restore(snap snapshot) {
	s.products = snap.products
	s.carts = snap.carts
	s.lines = snap.lines
	s.orders = snap.orders
	s.items = snap.items
	s.events = snap.events
	s.eventID = snap.eventID
}

func (s *memStore) ExecTx(ctx context.Context, fn func(q repository.Querier) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	snap := s.snapshot()
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.restore(snap)
		s.mu.Unlock()
		return err
	}
	return nil
}

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

func (s *memStore) cartByID(id pgtype.UUID) (repository.Cart, bool) {
	for _, c := range s.carts {
		if c.ID.Bytes == id.Bytes {
			return c, true
		}
	}
	return repository.Cart{}, false
}

func (s *memStore) linesOf(cartID pgtype.UUID) []repository.CartLine {
	var out []repository.CartLine
	for k, l := range s.lines {
		if k.cart == uuid.UUID(cartID.Bytes) {
			out = append(out, l)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].AddedAt.Time.Equal(out[j].AddedAt.Time) {
			return out[i].AddedAt.Time.Before(out[j].AddedAt.Time)
		}
		if c := bytes.Compare(out[i].ProductID.Bytes[:], out[j].ProductID.Bytes[:]); c != 0 {
			return c < 0
		}
		return out[i].Size < out[j].Size
	})
	return out
}

func lineKeyOf(cartID, productID pgtype.UUID, size string) lineKey {
	return lineKey{cart: uuid.UUID(cartID.Bytes), product: uuid.UUID(productID.Bytes), size: size}
}

// =============================================================================
// products
// =============================================================================

func (s *memStore) GetProduct(ctx context.Context, id pgtype.UUID) (repository.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("GetProduct"); err != nil {
		return repository.Product{}, err
	}
	p, ok := s.products[uuid.UUID(id.Bytes)]
	if !ok {
		return repository.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (s *memStore) ReserveStock(ctx context.Context, arg repository.ReserveStockParams) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("ReserveStock"); err != nil {
		return 0, err
	}
	p, ok := s.products[uuid.UUID(arg.ID.Bytes)]
	if !ok || p.Stock < arg.Quantity {
		return 0, pgx.ErrNoRows
	}
	p.Stock -= arg.Quantity
	p.UpdatedAt = s.tick()
	s.products[uuid.UUID(arg.ID.Bytes)] = p
	return p.Stock, nil
}

func (s *memStore) ReleaseStock(ctx context.Context, arg repository.ReleaseStockParams) (int32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("ReleaseStock"); err != nil {
		return 0, err
	}
	p, ok := s.products[uuid.UUID(arg.ID.Bytes)]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	p.Stock += arg.Quantity
	p.UpdatedAt = s.tick()
	s.products[uuid.UUID(arg.ID.Bytes)] = p
	return p.Stock, nil
}

// =============================================================================
// carts
// =============================================================================

func (s *memStore) UpsertCart(ctx context.Context, ownerKey string) (repository.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpsertCart"); err != nil {
		return repository.Cart{}, err
	}
	now := s.tick()
	c, ok := s.carts[ownerKey]
	if !ok {
		c = repository.Cart{ID: postgres.UUID(uuid.New()), OwnerKey: ownerKey, CreatedAt: now}
	}
	c.UpdatedAt = now
	s.carts[ownerKey] = c
	return c, nil
}

func (s *memStore) GetCartByOwner(ctx context.Context, ownerKey string) (repository.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.carts[ownerKey]
	if !ok {
		return repository.Cart{}, pgx.ErrNoRows
	}
	return c, nil
}

func (s *memStore) LockCartByOwner(ctx context.Context, ownerKey string) (repository.Cart, error) {
	return s.GetCartByOwner(ctx, ownerKey)
}

func (s *memStore) DeleteCart(ctx context.Context, id pgtype.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.cartByID(id)
	if !ok {
		return nil
	}
	for k := range s.lines {
		if k.cart == uuid.UUID(id.Bytes) {
			delete(s.lines, k)
		}
	}
	delete(s.carts, c.OwnerKey)
	return nil
}

func (s *memStore) ListCartLines(ctx context.Context, cartID pgtype.UUID) ([]repository.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.linesOf(cartID), nil
}

func (s *memStore) UpsertCartLine(ctx context.Context, arg repository.UpsertCartLineParams) (repository.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpsertCartLine"); err != nil {
		return repository.CartLine{}, err
	}
	now := s.tick()
	k := lineKeyOf(arg.CartID, arg.ProductID, arg.Size)
	l, ok := s.lines[k]
	if ok {
		l.Quantity += arg.Quantity
		l.ReservedQuantity += arg.ReservedQuantity
	} else {
		l = repository.CartLine{
			CartID:           arg.CartID,
			ProductID:        arg.ProductID,
			Size:             arg.Size,
			Quantity:         arg.Quantity,
			ReservedQuantity: arg.ReservedQuantity,
			UnitPrice:        arg.UnitPrice,
			Selected:         true,
			AddedAt:          now,
		}
	}
	l.UpdatedAt = now
	s.lines[k] = l
	return l, nil
}

func (s *memStore) UpdateCartLineQuantity(ctx context.Context, arg repository.UpdateCartLineQuantityParams) (repository.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := lineKeyOf(arg.CartID, arg.ProductID, arg.Size)
	l, ok := s.lines[k]
	if !ok {
		return repository.CartLine{}, pgx.ErrNoRows
	}
	l.Quantity = arg.Quantity
	l.UpdatedAt = s.tick()
	s.lines[k] = l
	return l, nil
}

func (s *memStore) ToggleCartLineSelection(ctx context.Context, arg repository.ToggleCartLineSelectionParams) (repository.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := lineKeyOf(arg.CartID, arg.ProductID, arg.Size)
	l, ok := s.lines[k]
	if !ok {
		return repository.CartLine{}, pgx.ErrNoRows
	}
	l.Selected = !l.Selected
	l.UpdatedAt = s.tick()
	s.lines[k] = l
	return l, nil
}

func (s *memStore) DeleteCartLine(ctx context.Context, arg repository.DeleteCartLineParams) (repository.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("DeleteCartLine"); err != nil {
		return repository.CartLine{}, err
	}
	k := lineKeyOf(arg.CartID, arg.ProductID, arg.Size)
	l, ok := s.lines[k]
	if !ok {
		return repository.CartLine{}, pgx.ErrNoRows
	}
	delete(s.lines, k)
	return l, nil
}

func (s *memStore) DeleteAllCartLines(ctx context.Context, cartID pgtype.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k := range s.lines {
		if k.cart == uuid.UUID(cartID.Bytes) {
			delete(s.lines, k)
			n++
		}
	}
	return n, nil
}

func (s *memStore) DeleteSelectedCartLines(ctx context.Context, cartID pgtype.UUID) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for k, l := range s.lines {
		if k.cart == uuid.UUID(cartID.Bytes) && l.Selected {
			delete(s.lines, k)
			n++
		}
	}
	return n, nil
}

func (s *memStore) ListStaleCartLines(ctx context.Context, arg repository.ListStaleCartLinesParams) ([]repository.CartLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("ListStaleCartLines"); err != nil {
		return nil, err
	}
	var carts []repository.Cart
	for _, c := range s.carts {
		if c.UpdatedAt.Time.Before(arg.Cutoff.Time) {
			carts = append(carts, c)
		}
	}
	sort.Slice(carts, func(i, j int) bool { return carts[i].UpdatedAt.Time.Before(carts[j].UpdatedAt.Time) })

	var out []repository.CartLine
	for _, c := range carts {
		for _, l := range s.linesOf(c.ID) {
			if int32(len(out)) >= arg.BatchSize {
				return out, nil
			}
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *memStore) DeleteEmptyCarts(ctx context.Context, cutoff pgtype.Timestamptz) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for owner, c := range s.carts {
		if c.UpdatedAt.Time.Before(cutoff.Time) && len(s.linesOf(c.ID)) == 0 {
			delete(s.carts, owner)
			n++
		}
	}
	return n, nil
}

// =============================================================================
// orders
// =============================================================================

func (s *memStore) CreateOrder(ctx context.Context, arg repository.CreateOrderParams) (repository.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateOrder"); err != nil {
		return repository.Order{}, err
	}
	for _, o := range s.orders {
		if o.OrderNumber == arg.OrderNumber {
			return repository.Order{}, uniqueViolation("orders_order_number_key")
		}
		if o.OwnerKey == arg.OwnerKey && o.IdempotencyKey == arg.IdempotencyKey {
			return repository.Order{}, uniqueViolation("orders_owner_key_idempotency_key_key")
		}
	}
	now := s.tick()
	o := repository.Order{
		ID:              postgres.UUID(uuid.New()),
		OrderNumber:     arg.OrderNumber,
		OwnerKey:        arg.OwnerKey,
		TotalPrice:      arg.TotalPrice,
		ShippingAddress: append([]byte(nil), arg.ShippingAddress...),
		Status:          arg.Status,
		PaymentStatus:   arg.PaymentStatus,
		IdempotencyKey:  arg.IdempotencyKey,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s.orders[uuid.UUID(o.ID.Bytes)] = o
	return o, nil
}

func (s *memStore) CreateOrderItem(ctx context.Context, arg repository.CreateOrderItemParams) (repository.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateOrderItem"); err != nil {
		return repository.OrderItem{}, err
	}
	item := repository.OrderItem{
		OrderID:   arg.OrderID,
		ProductID: arg.ProductID,
		Size:      arg.Size,
		Quantity:  arg.Quantity,
		UnitPrice: arg.UnitPrice,
	}
	id := uuid.UUID(arg.OrderID.Bytes)
	s.items[id] = append(s.items[id], item)
	return item, nil
}

func (s *memStore) CreateOrderStatusEvent(ctx context.Context, arg repository.CreateOrderStatusEventParams) (repository.OrderStatusEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("CreateOrderStatusEvent"); err != nil {
		return repository.OrderStatusEvent{}, err
	}
	s.eventID++
	e := repository.OrderStatusEvent{
		ID:                s.eventID,
		OrderID:           arg.OrderID,
		FromStatus:        arg.FromStatus,
		ToStatus:          arg.ToStatus,
		FromPaymentStatus: arg.FromPaymentStatus,
		ToPaymentStatus:   arg.ToPaymentStatus,
		Actor:             arg.Actor,
		CreatedAt:         s.tick(),
	}
	s.events = append(s.events, e)
	return e, nil
}

func (s *memStore) GetOrder(ctx context.Context, id pgtype.UUID) (repository.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("GetOrder"); err != nil {
		return repository.Order{}, err
	}
	o, ok := s.orders[uuid.UUID(id.Bytes)]
	if !ok {
		return repository.Order{}, pgx.ErrNoRows
	}
	return o, nil
}

func (s *memStore) GetOrderForUpdate(ctx context.Context, id pgtype.UUID) (repository.Order, error) {
	return s.GetOrder(ctx, id)
}

func (s *memStore) GetOrderByIdempotencyKey(ctx context.Context, arg repository.GetOrderByIdempotencyKeyParams) (repository.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hideIdempotencyLookups > 0 {
		s.hideIdempotencyLookups--
		return repository.Order{}, pgx.ErrNoRows
	}
	for _, o := range s.orders {
		if o.OwnerKey == arg.OwnerKey && o.IdempotencyKey == arg.IdempotencyKey {
			return o, nil
		}
	}
	return repository.Order{}, pgx.ErrNoRows
}

func (s *memStore) ListOrderItems(ctx context.Context, orderID pgtype.UUID) ([]repository.OrderItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := append([]repository.OrderItem(nil), s.items[uuid.UUID(orderID.Bytes)]...)
	sort.Slice(items, func(i, j int) bool {
		if c := bytes.Compare(items[i].ProductID.Bytes[:], items[j].ProductID.Bytes[:]); c != 0 {
			return c < 0
		}
		return items[i].Size < items[j].Size
	})
	return items, nil
}

func (s *memStore) ListOrderStatusEvents(ctx context.Context, orderID pgtype.UUID) ([]repository.OrderStatusEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []repository.OrderStatusEvent
	for _, e := range s.events {
		if e.OrderID.Bytes == orderID.Bytes {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *memStore) sortedOrders(match func(repository.Order) bool) []repository.Order {
	var out []repository.Order
	for _, o := range s.orders {
		if match(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Time.After(out[j].CreatedAt.Time) })
	return out
}

func (s *memStore) ListOrders(ctx context.Context, arg repository.ListOrdersParams) ([]repository.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.sortedOrders(func(o repository.Order) bool {
		return !arg.Status.Valid || o.Status == arg.Status.String
	})
	start := int(arg.RowOffset)
	if start > len(out) {
		start = len(out)
	}
	end := start + int(arg.RowLimit)
	if end > len(out) {
		end = len(out)
	}
	return out[start:end], nil
}

func (s *memStore) ListOrdersByOwner(ctx context.Context, ownerKey string) ([]repository.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sortedOrders(func(o repository.Order) bool { return o.OwnerKey == ownerKey }), nil
}

func (s *memStore) UpdateOrderStatus(ctx context.Context, arg repository.UpdateOrderStatusParams) (repository.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failure("UpdateOrderStatus"); err != nil {
		return repository.Order{}, err
	}
	id := uuid.UUID(arg.ID.Bytes)
	o, ok := s.orders[id]
	if !ok {
		return repository.Order{}, pgx.ErrNoRows
	}
	o.Status = arg.Status
	o.PaymentStatus = arg.PaymentStatus
	o.ExpectedDeliveryDate = arg.ExpectedDeliveryDate
	o.UpdatedAt = s.tick()
	s.orders[id] = o
	return o, nil
}

func (s *memStore) MarkOrderStockReleased(ctx context.Context, id pgtype.UUID) (pgtype.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[uuid.UUID(id.Bytes)]
	if !ok || o.StockReleased {
		return pgtype.UUID{}, pgx.ErrNoRows
	}
	o.StockReleased = true
	o.UpdatedAt = s.tick()
	s.orders[uuid.UUID(id.Bytes)] = o
	return o.ID, nil
}

// setOrderStatus moves an order directly, bypassing the services.
func (s *memStore) setOrderStatus(id uuid.UUID, status string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o := s.orders[id]
	o.Status = status
	s.orders[id] = o
}
