package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/bespoke/internal/domain"
	"github.com/dukerupert/bespoke/internal/postgres"
	"github.com/dukerupert/bespoke/internal/repository"
	"github.com/dukerupert/bespoke/internal/telemetry"
)

// CartConfig holds cart behavior switches.
type CartConfig struct {
	// ReleaseOnRemove returns a removed line's held stock to the ledger.
	// Off by default: removing a line keeps its stock held until the
	// hold-expiry sweeper runs.
	ReleaseOnRemove bool
}

type cartService struct {
	store   Store
	cfg     CartConfig
	metrics *telemetry.BusinessMetrics
	logger  *slog.Logger
}

// NewCartService creates a new CartService instance
func NewCartService(store Store, cfg CartConfig, metrics *telemetry.BusinessMetrics, logger *slog.Logger) domain.CartService {
	if logger == nil {
		logger = slog.Default()
	}
	return &cartService{
		store:   store,
		cfg:     cfg,
		metrics: metrics,
		logger:  logger.With("service", "cart"),
	}
}

// Summary returns the identity's cart. A cart that was never created is empty.
func (s *cartService) Summary(ctx context.Context, identity domain.Identity) (*domain.CartSummary, error) {
	cart, err := s.store.GetCartByOwner(ctx, identity.OwnerKey())
	if err != nil {
		if repository.IsNoRows(err) {
			return domain.Summarize(nil), nil
		}
		return nil, fmt.Errorf("failed to get cart: %w", err)
	}
	return s.summarize(ctx, s.store, cart)
}

// AddItem reserves stock and merges quantity into the (productID, size) line.
// On any failure the cart and stock are left as they were.
func (s *cartService) AddItem(ctx context.Context, identity domain.Identity, productID uuid.UUID, size string, quantity int) (*domain.CartSummary, error) {
	if quantity < 1 || quantity > domain.MaxLineQuantity {
		s.metrics.RecordCartAddRejected("invalid_quantity")
		return nil, ErrInvalidQuantity
	}
	size = strings.TrimSpace(size)
	if size == "" {
		s.metrics.RecordCartAddRejected("invalid_size")
		return nil, ErrInvalidSize
	}

	var summary *domain.CartSummary
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		cart, err := q.UpsertCart(ctx, identity.OwnerKey())
		if err != nil {
			return fmt.Errorf("failed to upsert cart: %w", err)
		}

		product, err := q.GetProduct(ctx, postgres.UUID(productID))
		if err != nil {
			if repository.IsNoRows(err) {
				return ErrProductNotFound
			}
			return fmt.Errorf("failed to get product: %w", err)
		}

		if err := NewInventoryLedger(q).Reserve(ctx, productID, quantity); err != nil {
			return err
		}

		if _, err := q.UpsertCartLine(ctx, repository.UpsertCartLineParams{
			CartID:           cart.ID,
			ProductID:        product.ID,
			Size:             size,
			Quantity:         int32(quantity),
			ReservedQuantity: int32(quantity),
			UnitPrice:        product.Price,
		}); err != nil {
			return fmt.Errorf("failed to upsert cart line: %w", err)
		}

		summary, err = s.summarize(ctx, q, cart)
		return err
	})
	if err != nil {
		switch {
		case domain.IsCode(err, domain.ECONFLICT):
			s.metrics.RecordCartAddRejected("insufficient_stock")
		case domain.IsCode(err, domain.ENOTFOUND):
			s.metrics.RecordCartAddRejected("product_not_found")
		}
		return nil, err
	}

	s.metrics.RecordCartAdd(string(identity.Kind), quantity)
	return summary, nil
}

// RemoveItem deletes a line. Held stock is released only when the cart is
// configured with ReleaseOnRemove.
func (s *cartService) RemoveItem(ctx context.Context, identity domain.Identity, productID uuid.UUID, size string) (*domain.CartSummary, error) {
	var (
		summary  *domain.CartSummary
		released int
	)
	err := s.withCart(ctx, identity, func(q repository.Querier, cart repository.Cart) error {
		line, err := q.DeleteCartLine(ctx, repository.DeleteCartLineParams{
			CartID:    cart.ID,
			ProductID: postgres.UUID(productID),
			Size:      size,
		})
		if err != nil {
			if repository.IsNoRows(err) {
				return ErrCartLineNotFound
			}
			return fmt.Errorf("failed to delete cart line: %w", err)
		}

		if s.cfg.ReleaseOnRemove && line.ReservedQuantity > 0 {
			if err := NewInventoryLedger(q).Release(ctx, productID, int(line.ReservedQuantity)); err != nil {
				return err
			}
			released = int(line.ReservedQuantity)
		}

		summary, err = s.summarize(ctx, q, cart)
		return err
	})
	if err != nil {
		return nil, err
	}

	if released > 0 {
		s.metrics.RecordStockReleased("cart_remove", released)
	}
	return summary, nil
}

// UpdateQuantity replaces a line's quantity without consulting the ledger.
// Quantities below 1 leave the cart unchanged; above MaxLineQuantity they
// are rejected. Checkout reconciles the
// difference between quantity and held stock.
func (s *cartService) UpdateQuantity(ctx context.Context, identity domain.Identity, productID uuid.UUID, size string, quantity int) (*domain.CartSummary, error) {
	if quantity < 1 {
		return s.Summary(ctx, identity)
	}
	if quantity > domain.MaxLineQuantity {
		return nil, ErrInvalidQuantity
	}

	var summary *domain.CartSummary
	err := s.withCart(ctx, identity, func(q repository.Querier, cart repository.Cart) error {
		if _, err := q.UpdateCartLineQuantity(ctx, repository.UpdateCartLineQuantityParams{
			CartID:    cart.ID,
			ProductID: postgres.UUID(productID),
			Size:      size,
			Quantity:  int32(quantity),
		}); err != nil {
			if repository.IsNoRows(err) {
				return ErrCartLineNotFound
			}
			return fmt.Errorf("failed to update cart line quantity: %w", err)
		}

		var err error
		summary, err = s.summarize(ctx, q, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// ToggleSelection flips whether a line is ordered at checkout.
func (s *cartService) ToggleSelection(ctx context.Context, identity domain.Identity, productID uuid.UUID, size string) (*domain.CartSummary, error) {
	var summary *domain.CartSummary
	err := s.withCart(ctx, identity, func(q repository.Querier, cart repository.Cart) error {
		if _, err := q.ToggleCartLineSelection(ctx, repository.ToggleCartLineSelectionParams{
			CartID:    cart.ID,
			ProductID: postgres.UUID(productID),
			Size:      size,
		}); err != nil {
			if repository.IsNoRows(err) {
				return ErrCartLineNotFound
			}
			return fmt.Errorf("failed to toggle cart line: %w", err)
		}

		var err error
		summary, err = s.summarize(ctx, q, cart)
		return err
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// Clear removes every line of the cart.
func (s *cartService) Clear(ctx context.Context, identity domain.Identity) (*domain.CartSummary, error) {
	err := s.withCart(ctx, identity, func(q repository.Querier, cart repository.Cart) error {
		if _, err := q.DeleteAllCartLines(ctx, cart.ID); err != nil {
			return fmt.Errorf("failed to clear cart: %w", err)
		}
		return nil
	})
	if err != nil && !errors.Is(err, ErrCartLineNotFound) {
		return nil, err
	}
	return domain.Summarize(nil), nil
}

// RemoveSelected removes the selected lines and keeps the rest.
func (s *cartService) RemoveSelected(ctx context.Context, identity domain.Identity) (*domain.CartSummary, error) {
	var summary *domain.CartSummary
	err := s.withCart(ctx, identity, func(q repository.Querier, cart repository.Cart) error {
		if _, err := q.DeleteSelectedCartLines(ctx, cart.ID); err != nil {
			return fmt.Errorf("failed to remove selected cart lines: %w", err)
		}

		var err error
		summary, err = s.summarize(ctx, q, cart)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrCartLineNotFound) {
			return domain.Summarize(nil), nil
		}
		return nil, err
	}
	return summary, nil
}

// ClaimGuestCart moves a guest cart to a signed-in user (merge) or drops it
// and returns its held stock (discard). Claiming a guest cart that does not
// exist leaves the user's cart unchanged.
func (s *cartService) ClaimGuestCart(ctx context.Context, user domain.Identity, guestToken string, strategy domain.ClaimStrategy) (*domain.CartSummary, error) {
	if user.IsGuest() || user.IsZero() {
		return nil, ErrClaimRequiresUser
	}
	if !strategy.Valid() {
		return nil, ErrInvalidClaimStrategy
	}
	guestToken = strings.TrimSpace(guestToken)
	if guestToken == "" {
		return nil, ErrInvalidGuestToken
	}
	guest := domain.GuestIdentity(guestToken)

	var (
		summary  *domain.CartSummary
		released int
	)
	err := s.store.ExecTx(ctx, func(q repository.Querier) error {
		userCart, err := q.UpsertCart(ctx, user.OwnerKey())
		if err != nil {
			return fmt.Errorf("failed to upsert cart: %w", err)
		}

		guestCart, err := q.LockCartByOwner(ctx, guest.OwnerKey())
		if err != nil {
			if repository.IsNoRows(err) {
				summary, err = s.summarize(ctx, q, userCart)
				return err
			}
			return fmt.Errorf("failed to lock guest cart: %w", err)
		}

		lines, err := q.ListCartLines(ctx, guestCart.ID)
		if err != nil {
			return fmt.Errorf("failed to list guest cart lines: %w", err)
		}

		ledger := NewInventoryLedger(q)
		for _, line := range lines {
			switch strategy {
			case domain.ClaimMerge:
				if _, err := q.UpsertCartLine(ctx, repository.UpsertCartLineParams{
					CartID:           userCart.ID,
					ProductID:        line.ProductID,
					Size:             line.Size,
					Quantity:         line.Quantity,
					ReservedQuantity: line.ReservedQuantity,
					UnitPrice:        line.UnitPrice,
				}); err != nil {
					return fmt.Errorf("failed to merge cart line: %w", err)
				}
			case domain.ClaimDiscard:
				productID, err := postgres.FromUUID(line.ProductID)
				if err != nil {
					return fmt.Errorf("failed to read cart line product: %w", err)
				}
				if err := ledger.Release(ctx, productID, int(line.ReservedQuantity)); err != nil {
					return err
				}
				released += int(line.ReservedQuantity)
			}
		}

		if err := q.DeleteCart(ctx, guestCart.ID); err != nil {
			return fmt.Errorf("failed to delete guest cart: %w", err)
		}

		summary, err = s.summarize(ctx, q, userCart)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordCartClaim(string(strategy))
	if released > 0 {
		s.metrics.RecordStockReleased("claim_discard", released)
	}
	s.logger.Info("guest cart claimed",
		"owner_key", user.OwnerKey(),
		"strategy", strategy,
	)
	return summary, nil
}

// withCart runs fn in a transaction holding the identity's cart row lock.
// A missing cart surfaces as ErrCartLineNotFound since it has no lines.
func (s *cartService) withCart(ctx context.Context, identity domain.Identity, fn func(q repository.Querier, cart repository.Cart) error) error {
	return s.store.ExecTx(ctx, func(q repository.Querier) error {
		cart, err := q.LockCartByOwner(ctx, identity.OwnerKey())
		if err != nil {
			if repository.IsNoRows(err) {
				return ErrCartLineNotFound
			}
			return fmt.Errorf("failed to lock cart: %w", err)
		}
		return fn(q, cart)
	})
}

func (s *cartService) summarize(ctx context.Context, q repository.Querier, cart repository.Cart) (*domain.CartSummary, error) {
	rows, err := q.ListCartLines(ctx, cart.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	c, err := postgres.CartFromRows(cart, rows)
	if err != nil {
		return nil, fmt.Errorf("failed to map cart: %w", err)
	}
	return domain.Summarize(c), nil
}
