package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rmontes/storefront/internal/core/domain"
	"github.com/rmontes/storefront/internal/port"
)

// CartService owns cart mutations outside the checkout path. Every operation
// runs through the ownership gate: only the cart's owner or an admin touches
// a cart.
type CartService struct {
	carts   port.CartRepository
	catalog port.CatalogRepository
	logger  *zap.Logger
}

func NewCartService(carts port.CartRepository, catalog port.CatalogRepository, logger *zap.Logger) *CartService {
	return &CartService{carts: carts, catalog: catalog, logger: logger}
}

// Provision returns the caller's cart, creating one when none exists yet.
func (s *CartService) Provision(ctx context.Context, caller domain.Caller) (*domain.Cart, error) {
	cart, err := s.carts.GetCartByOwner(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("get cart by owner: %w", err)
	}
	if cart != nil {
		return cart, nil
	}

	cart, err = s.carts.CreateCart(ctx, caller.ID)
	if err != nil {
		return nil, fmt.Errorf("create cart: %w", err)
	}
	s.logger.Info("cart provisioned",
		zap.String("cart_id", cart.ID),
		zap.String("owner_id", caller.ID))
	return cart, nil
}

func (s *CartService) Get(ctx context.Context, cartID string, caller domain.Caller) (*domain.Cart, error) {
	cart, err := s.loadOwned(ctx, cartID, caller)
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddProduct appends qty of a product, incrementing the line if the product
// is already in the cart. The product must exist, be active, and have at
// least qty in stock at the time of the add; the checkout re-validates.
func (s *CartService) AddProduct(ctx context.Context, cartID, productID string, qty int, caller domain.Caller) error {
	if qty < 1 {
		qty = 1
	}
	if _, err := s.loadOwned(ctx, cartID, caller); err != nil {
		return err
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product == nil || product.Status != domain.ProductStatusActive {
		return ErrProductNotFound
	}
	if product.Stock < qty {
		return ErrInsufficientStock
	}

	if err := s.carts.AddLine(ctx, cartID, productID, qty); err != nil {
		return fmt.Errorf("add line: %w", err)
	}
	return nil
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line;
// a zero-quantity line is never stored.
func (s *CartService) UpdateQuantity(ctx context.Context, cartID, productID string, qty int, caller domain.Caller) error {
	cart, err := s.loadOwned(ctx, cartID, caller)
	if err != nil {
		return err
	}
	if !cartHasLine(cart, productID) {
		return ErrLineNotFound
	}

	if qty <= 0 {
		if err := s.carts.RemoveLine(ctx, cartID, productID); err != nil {
			return fmt.Errorf("remove line: %w", err)
		}
		return nil
	}

	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		return fmt.Errorf("get product: %w", err)
	}
	if product != nil && product.Stock < qty {
		return ErrInsufficientStock
	}

	if err := s.carts.UpdateLineQuantity(ctx, cartID, productID, qty); err != nil {
		return fmt.Errorf("update line quantity: %w", err)
	}
	return nil
}

func (s *CartService) RemoveProduct(ctx context.Context, cartID, productID string, caller domain.Caller) error {
	cart, err := s.loadOwned(ctx, cartID, caller)
	if err != nil {
		return err
	}
	if !cartHasLine(cart, productID) {
		return ErrLineNotFound
	}

	if err := s.carts.RemoveLine(ctx, cartID, productID); err != nil {
		return fmt.Errorf("remove line: %w", err)
	}
	return nil
}

func (s *CartService) Clear(ctx context.Context, cartID string, caller domain.Caller) error {
	if _, err := s.loadOwned(ctx, cartID, caller); err != nil {
		return err
	}
	if err := s.carts.ClearCart(ctx, cartID); err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}

func (s *CartService) loadOwned(ctx context.Context, cartID string, caller domain.Caller) (*domain.Cart, error) {
	cart, err := s.carts.LoadCart(ctx, cartID)
	if err != nil {
		return nil, fmt.Errorf("load cart: %w", err)
	}
	if cart == nil {
		return nil, ErrCartNotFound
	}
	if !caller.CanAccessCart(cart.OwnerID) {
		return nil, ErrForbidden
	}
	return cart, nil
}

func cartHasLine(cart *domain.Cart, productID string) bool {
	for _, line := range cart.Lines {
		if line.ProductID == productID {
			return true
		}
	}
	return false
}
