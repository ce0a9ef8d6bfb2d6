package port

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmontes/storefront/internal/core/domain"
)

// ErrCodeExists is returned by CreateTicket when the generated code collides
// with an existing ticket. The engine regenerates and retries.
var ErrCodeExists = errors.New("ticket code already exists")

type SalesReport struct {
	TotalAmount decimal.Decimal
	TicketCount int64
}

type TicketRepository interface {
	// CreateTicket persists the ticket and its line snapshots, enforcing code
	// uniqueness
	CreateTicket(ctx context.Context, ticket *domain.Ticket) error

	// GetTicketByCode returns the ticket with its lines, nil when absent
	GetTicketByCode(ctx context.Context, code string) (*domain.Ticket, error)

	// ListTicketsByPurchaser returns the purchaser's tickets, newest first
	ListTicketsByPurchaser(ctx context.Context, purchaser string) ([]domain.Ticket, error)

	ListTicketsByDateRange(ctx context.Context, start, end time.Time) ([]domain.Ticket, error)

	// SalesReport aggregates amount and count over the period
	SalesReport(ctx context.Context, start, end time.Time) (SalesReport, error)
}
