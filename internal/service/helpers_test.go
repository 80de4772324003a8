package service

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/bespoke/internal/address"
	"github.com/dukerupert/bespoke/internal/domain"
	"github.com/dukerupert/bespoke/internal/events"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// recordingPublisher keeps every published event.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.OrderEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []events.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]events.Type, len(p.events))
	for i, e := range p.events {
		out[i] = e.Type
	}
	return out
}

// harness wires every service against one memStore.
type harness struct {
	store       *memStore
	publisher   *recordingPublisher
	carts       domain.CartService
	orders      domain.OrderService
	fulfillment domain.FulfillmentService
}

func newHarness(t *testing.T, cfg CartConfig, policy TransitionPolicy) *harness {
	t.Helper()
	store := newMemStore()
	pub := &recordingPublisher{}
	return &harness{
		store:       store,
		publisher:   pub,
		carts:       NewCartService(store, cfg, nil, discardLogger()),
		orders:      NewOrderService(store, address.NewBasicValidator(), pub, nil, discardLogger()),
		fulfillment: NewFulfillmentService(store, policy, pub, nil, discardLogger()),
	}
}

func shippingAddress() address.Address {
	return address.Address{
		FullName:     "Ada Lovelace",
		AddressLine1: "12 Tailor Row",
		City:         "London",
		PostalCode:   "ec1a 1bb",
		Country:      "gb",
	}
}

var (
	alice = domain.UserIdentity("alice", false)
	bob   = domain.UserIdentity("bob", false)
	admin = domain.UserIdentity("root", true)
	guest = domain.GuestIdentity("guest-token-1")
)

// placeOrder adds one product line and checks it out.
func (h *harness) placeOrder(t *testing.T, who domain.Identity, price string, stock, quantity int) (*domain.Order, uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	productID := h.store.addProduct(price, stock)

	_, err := h.carts.AddItem(ctx, who, productID, "M", quantity)
	require.NoError(t, err)

	order, created, err := h.orders.PlaceOrder(ctx, who, shippingAddress(), "")
	require.NoError(t, err)
	require.True(t, created)
	return order, productID
}
