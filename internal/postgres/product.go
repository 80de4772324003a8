package postgres

import (
	"context"

	"github.com/google/uuid"

	"github.com/dukerupert/bespoke/internal/domain"
	"github.com/dukerupert/bespoke/internal/repository"
)

// Catalog implements domain.ProductCatalog using PostgreSQL.
type Catalog struct {
	repo repository.Querier
}

// Compile-time check that Catalog implements domain.ProductCatalog.
var _ domain.ProductCatalog = (*Catalog)(nil)

// NewCatalog creates a new PostgreSQL-backed product catalog.
func NewCatalog(repo repository.Querier) *Catalog {
	return &Catalog{
		repo: repo,
	}
}

// GetProduct returns the product's current price and available stock.
func (c *Catalog) GetProduct(ctx context.Context, productID uuid.UUID) (*domain.Product, error) {
	row, err := c.repo.GetProduct(ctx, UUID(productID))
	if err != nil {
		if repository.IsNoRows(err) {
			return nil, domain.ErrProductNotFound
		}
		return nil, domain.Internal(err, "product.get", "failed to get product")
	}

	product, err := ProductFromRow(row)
	if err != nil {
		return nil, domain.Internal(err, "product.get", "failed to map product")
	}
	return product, nil
}
