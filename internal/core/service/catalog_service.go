package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rmontes/storefront/internal/core/domain"
	"github.com/rmontes/storefront/internal/port"
)

var ErrInvalidProduct = errors.New("invalid product")

// CatalogService covers the administrative side of the catalog. Stock set
// here is absolute; the reservation path never goes through UpdateProduct.
type CatalogService struct {
	catalog port.CatalogRepository
	logger  *zap.Logger
}

func NewCatalogService(catalog port.CatalogRepository, logger *zap.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, logger: logger}
}

func (s *CatalogService) Get(ctx context.Context, id string) (*domain.Product, error) {
	product, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

func (s *CatalogService) List(ctx context.Context, filter port.ProductFilter) ([]domain.Product, error) {
	products, err := s.catalog.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) Create(ctx context.Context, product *domain.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}
	if product.ID == "" {
		product.ID = uuid.New().String()
	}
	if product.Status == "" {
		product.Status = domain.ProductStatusActive
	}
	product.CreatedAt = time.Now()
	product.UpdatedAt = product.CreatedAt

	if err := s.catalog.CreateProduct(ctx, product); err != nil {
		return fmt.Errorf("create product: %w", err)
	}
	s.logger.Info("product created",
		zap.String("product_id", product.ID),
		zap.String("title", product.Title))
	return nil
}

func (s *CatalogService) Update(ctx context.Context, product *domain.Product) error {
	if err := validateProduct(product); err != nil {
		return err
	}

	existing, err := s.catalog.GetProduct(ctx, product.ID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if existing == nil {
		return ErrProductNotFound
	}

	if err := s.catalog.UpdateProduct(ctx, product); err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (s *CatalogService) Delete(ctx context.Context, id string) error {
	existing, err := s.catalog.GetProduct(ctx, id)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if existing == nil {
		return ErrProductNotFound
	}

	if err := s.catalog.DeleteProduct(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	s.logger.Info("product deleted", zap.String("product_id", id))
	return nil
}

func validateProduct(p *domain.Product) error {
	if p.Title == "" {
		return fmt.Errorf("%w: title is required", ErrInvalidProduct)
	}
	if !p.Price.IsPositive() {
		return fmt.Errorf("%w: price must be positive", ErrInvalidProduct)
	}
	if p.Stock < 0 {
		return fmt.Errorf("%w: stock cannot be negative", ErrInvalidProduct)
	}
	if p.Status != "" && p.Status != domain.ProductStatusActive && p.Status != domain.ProductStatusInactive {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidProduct, p.Status)
	}
	return nil
}
