package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmontes/storefront/internal/core/domain"
)

type MySQLCart struct {
	db *sql.DB
}

func NewMySQLCart(db *sql.DB) *MySQLCart {
	return &MySQLCart{db: db}
}

func (m *MySQLCart) CreateCart(ctx context.Context, ownerID string) (*domain.Cart, error) {
	cart := &domain.Cart{
		ID:        uuid.New().String(),
		OwnerID:   ownerID,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO carts (id, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		cart.ID, cart.OwnerID, cart.CreatedAt, cart.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("insert cart: %w", err)
	}
	return cart, nil
}

func (m *MySQLCart) GetCartByOwner(ctx context.Context, ownerID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := m.db.QueryRowContext(ctx, `
		SELECT id, owner_id, created_at, updated_at
		FROM carts WHERE owner_id = ?`, ownerID,
	).Scan(&cart.ID, &cart.OwnerID, &cart.CreatedAt, &cart.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cart by owner: %w", err)
	}
	return &cart, nil
}

// LoadCart resolves each line's product snapshot with a LEFT JOIN so lines
// pointing at deleted products survive the load with a nil snapshot. Lines
// come back in insertion order.
func (m *MySQLCart) LoadCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	var cart domain.Cart
	err := m.db.QueryRowContext(ctx, `
		SELECT id, owner_id, created_at, updated_at
		FROM carts WHERE id = ?`, cartID,
	).Scan(&cart.ID, &cart.OwnerID, &cart.CreatedAt, &cart.UpdatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT cl.product_id, cl.quantity,
		       p.id, p.title, p.description, p.code, p.price, p.stock, p.status, p.category, p.created_at, p.updated_at
		FROM cart_lines cl
		LEFT JOIN products p ON p.id = cl.product_id
		WHERE cl.cart_id = ?
		ORDER BY cl.id`, cartID,
	)
	if err != nil {
		return nil, fmt.Errorf("query cart lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.CartLine
		var (
			pID, pTitle, pDesc, pCode, pStatus, pCategory sql.NullString
			pPrice                                        sql.NullString
			pStock                                        sql.NullInt64
			pCreated, pUpdated                            sql.NullTime
		)
		err := rows.Scan(&line.ProductID, &line.Quantity,
			&pID, &pTitle, &pDesc, &pCode, &pPrice, &pStock, &pStatus, &pCategory, &pCreated, &pUpdated)
		if err != nil {
			return nil, fmt.Errorf("scan cart line: %w", err)
		}

		if pID.Valid {
			product := &domain.Product{
				ID:          pID.String,
				Title:       pTitle.String,
				Description: pDesc.String,
				Code:        pCode.String,
				Stock:       int(pStock.Int64),
				Status:      domain.ProductStatus(pStatus.String),
				Category:    pCategory.String,
				CreatedAt:   pCreated.Time,
				UpdatedAt:   pUpdated.Time,
			}
			if err := product.Price.Scan(pPrice.String); err != nil {
				return nil, fmt.Errorf("scan product price: %w", err)
			}
			line.Product = product
		}
		cart.Lines = append(cart.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cart lines: %w", err)
	}
	return &cart, nil
}

func (m *MySQLCart) AddLine(ctx context.Context, cartID, productID string, qty int) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO cart_lines (cart_id, product_id, quantity)
		VALUES (?, ?, ?)
		ON DUPLICATE KEY UPDATE quantity = quantity + VALUES(quantity)`,
		cartID, productID, qty,
	)
	if err != nil {
		return fmt.Errorf("add cart line: %w", err)
	}
	return nil
}

func (m *MySQLCart) UpdateLineQuantity(ctx context.Context, cartID, productID string, qty int) error {
	// A line never stores a zero quantity; dropping to zero removes it.
	if qty <= 0 {
		return m.RemoveLine(ctx, cartID, productID)
	}

	// RowsAffected is no existence signal here: the driver reports changed
	// rows, so a value-preserving update affects zero. Callers verify the
	// line exists before updating.
	_, err := m.db.ExecContext(ctx, `
		UPDATE cart_lines SET quantity = ?
		WHERE cart_id = ? AND product_id = ?`,
		qty, cartID, productID,
	)
	if err != nil {
		return fmt.Errorf("update cart line: %w", err)
	}
	return nil
}

func (m *MySQLCart) RemoveLine(ctx context.Context, cartID, productID string) error {
	_, err := m.db.ExecContext(ctx, `
		DELETE FROM cart_lines WHERE cart_id = ? AND product_id = ?`,
		cartID, productID,
	)
	if err != nil {
		return fmt.Errorf("remove cart line: %w", err)
	}
	return nil
}

func (m *MySQLCart) RemoveLines(ctx context.Context, cartID string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}

	placeholders := strings.Repeat("?,", len(productIDs))
	placeholders = placeholders[:len(placeholders)-1]

	args := make([]any, 0, len(productIDs)+1)
	args = append(args, cartID)
	for _, id := range productIDs {
		args = append(args, id)
	}

	_, err := m.db.ExecContext(ctx,
		`DELETE FROM cart_lines WHERE cart_id = ? AND product_id IN (`+placeholders+`)`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("remove cart lines: %w", err)
	}
	return nil
}

func (m *MySQLCart) ClearCart(ctx context.Context, cartID string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM cart_lines WHERE cart_id = ?`, cartID)
	if err != nil {
		return fmt.Errorf("clear cart: %w", err)
	}
	return nil
}
