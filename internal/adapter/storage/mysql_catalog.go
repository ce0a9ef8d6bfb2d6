package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rmontes/storefront/internal/core/domain"
	"github.com/rmontes/storefront/internal/port"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

type MySQLCatalog struct {
	db *sql.DB
}

func NewMySQLCatalog(db *sql.DB) *MySQLCatalog {
	return &MySQLCatalog{db: db}
}

const productColumns = `id, title, description, code, price, stock, status, category, created_at, updated_at`

func scanProduct(row interface{ Scan(...any) error }) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(&p.ID, &p.Title, &p.Description, &p.Code, &p.Price,
		&p.Stock, &p.Status, &p.Category, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (m *MySQLCatalog) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	row := m.db.QueryRowContext(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ?`, id)

	p, err := scanProduct(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query product: %w", err)
	}
	return p, nil
}

func (m *MySQLCatalog) ListProducts(ctx context.Context, filter port.ProductFilter) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products`
	var conds []string
	var args []any

	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, filter.Category)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, filter.Status)
	}
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	query += " ORDER BY id LIMIT ? OFFSET ?"
	args = append(args, limit, (page-1)*limit)

	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, *p)
	}
	return products, rows.Err()
}

// ConditionalDecrementStock is the single atomicity boundary for stock. The
// check and the decrement run as one statement, so a concurrent checkout
// cannot slip between them; zero affected rows means the stock guard failed.
func (m *MySQLCatalog) ConditionalDecrementStock(ctx context.Context, id string, qty int) (bool, error) {
	result, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, updated_at = NOW()
		WHERE id = ? AND stock >= ?`,
		qty, id, qty,
	)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	return rows == 1, nil
}

func (m *MySQLCatalog) CreateProduct(ctx context.Context, p *domain.Product) error {
	_, err := m.db.ExecContext(ctx, `
		INSERT INTO products (id, title, description, code, price, stock, status, category, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Title, p.Description, p.Code, p.Price, p.Stock, p.Status,
		p.Category, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (m *MySQLCatalog) UpdateProduct(ctx context.Context, p *domain.Product) error {
	// Zero affected rows can mean "nothing changed" as well as "no such
	// row" with the driver's changed-rows reporting, so existence is checked
	// by the service, not inferred here.
	_, err := m.db.ExecContext(ctx, `
		UPDATE products
		SET title = ?, description = ?, code = ?, price = ?, stock = ?, status = ?, category = ?, updated_at = NOW()
		WHERE id = ?`,
		p.Title, p.Description, p.Code, p.Price, p.Stock, p.Status, p.Category, p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	return nil
}

func (m *MySQLCatalog) DeleteProduct(ctx context.Context, id string) error {
	_, err := m.db.ExecContext(ctx, `DELETE FROM products WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
