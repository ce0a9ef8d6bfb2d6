package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"

	"github.com/rmontes/storefront/internal/core/domain"
	"github.com/rmontes/storefront/internal/port"
)

// MySQL duplicate entry error, raised by the unique index on tickets.code.
const mysqlErrDuplicateEntry = 1062

type MySQLTicket struct {
	db *sql.DB
}

func NewMySQLTicket(db *sql.DB) *MySQLTicket {
	return &MySQLTicket{db: db}
}

func (m *MySQLTicket) CreateTicket(ctx context.Context, ticket *domain.Ticket) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO tickets (id, code, purchaser, amount, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		ticket.ID, ticket.Code, ticket.Purchaser, ticket.Amount, ticket.CreatedAt,
	)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return port.ErrCodeExists
		}
		return fmt.Errorf("insert ticket: %w", err)
	}

	for _, line := range ticket.Lines {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO ticket_lines (ticket_id, product_id, title, quantity, unit_price)
			VALUES (?, ?, ?, ?, ?)`,
			ticket.ID, line.ProductID, line.Title, line.Quantity, line.UnitPrice,
		)
		if err != nil {
			return fmt.Errorf("insert ticket line: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLTicket) GetTicketByCode(ctx context.Context, code string) (*domain.Ticket, error) {
	var ticket domain.Ticket
	err := m.db.QueryRowContext(ctx, `
		SELECT id, code, purchaser, amount, created_at
		FROM tickets WHERE code = ?`, code,
	).Scan(&ticket.ID, &ticket.Code, &ticket.Purchaser, &ticket.Amount, &ticket.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query ticket: %w", err)
	}

	if err := m.loadLines(ctx, &ticket); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (m *MySQLTicket) ListTicketsByPurchaser(ctx context.Context, purchaser string) ([]domain.Ticket, error) {
	return m.listTickets(ctx,
		`SELECT id, code, purchaser, amount, created_at
		 FROM tickets WHERE purchaser = ? ORDER BY created_at DESC`, purchaser)
}

func (m *MySQLTicket) ListTicketsByDateRange(ctx context.Context, start, end time.Time) ([]domain.Ticket, error) {
	return m.listTickets(ctx,
		`SELECT id, code, purchaser, amount, created_at
		 FROM tickets WHERE created_at BETWEEN ? AND ? ORDER BY created_at DESC`, start, end)
}

func (m *MySQLTicket) listTickets(ctx context.Context, query string, args ...any) ([]domain.Ticket, error) {
	rows, err := m.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list tickets: %w", err)
	}
	defer rows.Close()

	var tickets []domain.Ticket
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.Code, &t.Purchaser, &t.Amount, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}

	for i := range tickets {
		if err := m.loadLines(ctx, &tickets[i]); err != nil {
			return nil, err
		}
	}
	return tickets, nil
}

func (m *MySQLTicket) loadLines(ctx context.Context, ticket *domain.Ticket) error {
	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, title, quantity, unit_price
		FROM ticket_lines WHERE ticket_id = ? ORDER BY id`, ticket.ID,
	)
	if err != nil {
		return fmt.Errorf("query ticket lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.TicketLine
		if err := rows.Scan(&line.ProductID, &line.Title, &line.Quantity, &line.UnitPrice); err != nil {
			return fmt.Errorf("scan ticket line: %w", err)
		}
		ticket.Lines = append(ticket.Lines, line)
	}
	return rows.Err()
}

func (m *MySQLTicket) SalesReport(ctx context.Context, start, end time.Time) (port.SalesReport, error) {
	var report port.SalesReport
	var total sql.NullString

	err := m.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount), 0), COUNT(*)
		FROM tickets WHERE created_at BETWEEN ? AND ?`, start, end,
	).Scan(&total, &report.TicketCount)
	if err != nil {
		return port.SalesReport{}, fmt.Errorf("sales report: %w", err)
	}

	report.TotalAmount = decimal.Zero
	if total.Valid {
		amount, err := decimal.NewFromString(total.String)
		if err != nil {
			return port.SalesReport{}, fmt.Errorf("parse report total: %w", err)
		}
		report.TotalAmount = amount
	}
	return report, nil
}
