package port

import (
	"context"

	"github.com/rmontes/storefront/internal/core/domain"
)

type ProductFilter struct {
	Category string
	Status   domain.ProductStatus
	Limit    int
	Page     int
}

type CatalogRepository interface {
	// GetProduct retrieves a product by ID, returning nil when absent
	GetProduct(ctx context.Context, id string) (*domain.Product, error)

	// ListProducts returns products matching the filter, paged
	ListProducts(ctx context.Context, filter ProductFilter) ([]domain.Product, error)

	// ConditionalDecrementStock atomically decrements stock by qty only when
	// current stock >= qty; false means the stock check failed at commit time
	ConditionalDecrementStock(ctx context.Context, id string, qty int) (bool, error)

	// Administrative mutations, outside the reservation path
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, product *domain.Product) error
	DeleteProduct(ctx context.Context, id string) error
}
