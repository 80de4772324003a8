package storefront

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/bespoke/internal/address"
	"github.com/dukerupert/bespoke/internal/domain"
)

// mockCartService implements domain.CartService for testing
type mockCartService struct {
	summaryFunc         func(ctx context.Context, identity domain.Identity) (*domain.CartSummary, error)
	addItemFunc         func(ctx context.Context, identity domain.Identity, productID uuid.UUID, size string, quantity int) (*domain.CartSummary, error)
	removeItemFunc      func(ctx context.Context, identity domain.Identity, productID uuid.UUID, size string) (*domain.CartSummary, error)
	updateQuantityFunc  func(ctx context.Context, identity domain.Identity, productID uuid.UUID, size string, quantity int) (*domain.CartSummary, error)
	toggleSelectionFunc func(ctx context.Context, identity domain.Identity, productID uuid.UUID, size string) (*domain.CartSummary, error)
	clearFunc           func(ctx context.Context, identity domain.Identity) (*domain.CartSummary, error)
	removeSelectedFunc  func(ctx context.Context, identity domain.Identity) (*domain.CartSummary, error)
	claimGuestCartFunc  func(ctx context.Context, user domain.Identity, guestToken string, strategy domain.ClaimStrategy) (*domain.CartSummary, error)
}

func (m *mockCartService) Summary(ctx context.Context, identity domain.Identity) (*domain.CartSummary, error) {
	if m.summaryFunc != nil {
		return m.summaryFunc(ctx, identity)
	}
	return domain.Summarize(nil), nil
}

func (m *mockCartService) AddItem(ctx context.Context, identity domain.Identity, productID uuid.UUID, size string, quantity int) (*domain.CartSummary, error) {
	if m.addItemFunc != nil {
		return m.addItemFunc(ctx, identity, productID, size, quantity)
	}
	return domain.Summarize(nil), nil
}

func (m *mockCartService) RemoveItem(ctx context.Context, identity domain.Identity, productID uuid.UUID, size string) (*domain.CartSummary, error) {
	if m.removeItemFunc != nil {
		return m.removeItemFunc(ctx, identity, productID, size)
	}
	return domain.Summarize(nil), nil
}

func (m *mockCartService) UpdateQuantity(ctx context.Context, identity domain.Identity, productID uuid.UUID, size string, quantity int) (*domain.CartSummary, error) {
	if m.updateQuantityFunc != nil {
		return m.updateQuantityFunc(ctx, identity, productID, size, quantity)
	}
	return domain.Summarize(nil), nil
}

func (m *mockCartService) ToggleSelection(ctx context.Context, identity domain.Identity, productID uuid.UUID, size string) (*domain.CartSummary, error) {
	if m.toggleSelectionFunc != nil {
		return m.toggleSelectionFunc(ctx, identity, productID, size)
	}
	return domain.Summarize(nil), nil
}

func (m *mockCartService) Clear(ctx context.Context, identity domain.Identity) (*domain.CartSummary, error) {
	if m.clearFunc != nil {
		return m.clearFunc(ctx, identity)
	}
	return domain.Summarize(nil), nil
}

func (m *mockCartService) RemoveSelected(ctx context.Context, identity domain.Identity) (*domain.CartSummary, error) {
	if m.removeSelectedFunc != nil {
		return m.removeSelectedFunc(ctx, identity)
	}
	return domain.Summarize(nil), nil
}

func (m *mockCartService) ClaimGuestCart(ctx context.Context, user domain.Identity, guestToken string, strategy domain.ClaimStrategy) (*domain.CartSummary, error) {
	if m.claimGuestCartFunc != nil {
		return m.claimGuestCartFunc(ctx, user, guestToken, strategy)
	}
	return domain.Summarize(nil), nil
}

// mockOrderService implements domain.OrderService for testing
type mockOrderService struct {
	placeOrderFunc func(ctx context.Context, identity domain.Identity, shipping address.Address, idempotencyKey string) (*domain.Order, bool, error)
	getOrderFunc   func(ctx context.Context, identity domain.Identity, orderID uuid.UUID) (*domain.Order, error)
	listOrdersFunc func(ctx context.Context, identity domain.Identity) ([]domain.Order, error)
}

func (m *mockOrderService) PlaceOrder(ctx context.Context, identity domain.Identity, shipping address.Address, idempotencyKey string) (*domain.Order, bool, error) {
	if m.placeOrderFunc != nil {
		return m.placeOrderFunc(ctx, identity, shipping, idempotencyKey)
	}
	return nil, false, domain.ErrEmptySelection
}

func (m *mockOrderService) GetOrder(ctx context.Context, identity domain.Identity, orderID uuid.UUID) (*domain.Order, error) {
	if m.getOrderFunc != nil {
		return m.getOrderFunc(ctx, identity, orderID)
	}
	return nil, domain.ErrOrderNotFound
}

func (m *mockOrderService) ListOrders(ctx context.Context, identity domain.Identity) ([]domain.Order, error) {
	if m.listOrdersFunc != nil {
		return m.listOrdersFunc(ctx, identity)
	}
	return nil, nil
}

// mockFulfillmentService implements domain.FulfillmentService for testing
type mockFulfillmentService struct {
	cancelOrderFunc func(ctx context.Context, identity domain.Identity, orderID uuid.UUID) (*domain.Order, error)
}

func (m *mockFulfillmentService) UpdateStatus(ctx context.Context, orderID uuid.UUID, update domain.StatusUpdate) (*domain.Order, error) {
	return nil, domain.ErrOrderNotFound
}

func (m *mockFulfillmentService) CancelOrder(ctx context.Context, identity domain.Identity, orderID uuid.UUID) (*domain.Order, error) {
	if m.cancelOrderFunc != nil {
		return m.cancelOrderFunc(ctx, identity, orderID)
	}
	return nil, domain.ErrOrderNotFound
}

func (m *mockFulfillmentService) ListOrdersByStatus(ctx context.Context, status domain.OrderStatus, limit, offset int) ([]domain.Order, error) {
	return nil, nil
}

func (m *mockFulfillmentService) History(ctx context.Context, orderID uuid.UUID) ([]domain.StatusEvent, error) {
	return nil, nil
}

// mockCatalog implements domain.ProductCatalog for testing
type mockCatalog struct {
	getProductFunc func(ctx context.Context, productID uuid.UUID) (*domain.Product, error)
}

func (m *mockCatalog) GetProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	if m.getProductFunc != nil {
		return m.getProductFunc(ctx, productID)
	}
	return nil, domain.ErrProductNotFound
}

var (
	testGuest = domain.GuestIdentity("guest-token")
	testUser  = domain.UserIdentity("user-1", false)
)

// serve routes a single request through pattern with identity in context.
func serve(method, pattern, target, body string, identity *domain.Identity, h http.HandlerFunc, headers ...string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(method+" "+pattern, h)

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	if identity != nil {
		req = req.WithContext(domain.NewContextWithIdentity(req.Context(), *identity))
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}
