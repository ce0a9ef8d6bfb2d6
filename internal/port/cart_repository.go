package port

import (
	"context"

	"github.com/rmontes/storefront/internal/core/domain"
)

type CartRepository interface {
	// CreateCart provisions an empty cart for the owner
	CreateCart(ctx context.Context, ownerID string) (*domain.Cart, error)

	// GetCartByOwner returns the owner's cart, nil when absent
	GetCartByOwner(ctx context.Context, ownerID string) (*domain.Cart, error)

	// LoadCart returns the cart with product snapshots resolved per line, in
	// insertion order. Lines whose product no longer exists keep a nil
	// snapshot. Returns nil when the cart does not exist.
	LoadCart(ctx context.Context, cartID string) (*domain.Cart, error)

	// AddLine adds qty of a product, incrementing the existing line if present
	AddLine(ctx context.Context, cartID, productID string, qty int) error

	// UpdateLineQuantity sets a line's quantity; qty <= 0 removes the line
	UpdateLineQuantity(ctx context.Context, cartID, productID string, qty int) error

	RemoveLine(ctx context.Context, cartID, productID string) error

	// RemoveLines deletes the given product lines, leaving the rest untouched
	RemoveLines(ctx context.Context, cartID string, productIDs []string) error

	ClearCart(ctx context.Context, cartID string) error
}
