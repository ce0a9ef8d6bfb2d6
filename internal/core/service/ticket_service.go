package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmontes/storefront/internal/core/domain"
	"github.com/rmontes/storefront/internal/port"
)

var ErrInvalidDateRange = errors.New("invalid date range")

// TicketService is the read side of the ledger. Tickets are immutable; this
// service only resolves and aggregates them under access control.
type TicketService struct {
	tickets port.TicketRepository
}

func NewTicketService(tickets port.TicketRepository) *TicketService {
	return &TicketService{tickets: tickets}
}

// GetByCode resolves a ticket by its shareable code. Non-admin callers can
// only read their own tickets.
func (s *TicketService) GetByCode(ctx context.Context, code string, caller domain.Caller) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetTicketByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("get ticket by code: %w", err)
	}
	if ticket == nil {
		return nil, ErrTicketNotFound
	}
	if !caller.CanAccessTicket(ticket.Purchaser) {
		return nil, ErrForbidden
	}
	return ticket, nil
}

func (s *TicketService) ListMine(ctx context.Context, caller domain.Caller) ([]domain.Ticket, error) {
	tickets, err := s.tickets.ListTicketsByPurchaser(ctx, caller.Email)
	if err != nil {
		return nil, fmt.Errorf("list tickets by purchaser: %w", err)
	}
	return tickets, nil
}

type SalesSummary struct {
	Start              time.Time
	End                time.Time
	TotalSales         decimal.Decimal
	TotalTickets       int64
	AverageTicketValue decimal.Decimal
	Tickets            []domain.Ticket
}

// Report aggregates ticket totals over a period. The summary always matches
// what a recomputation from line snapshots would produce, since the stored
// amount is derived from those snapshots at creation time.
func (s *TicketService) Report(ctx context.Context, start, end time.Time) (*SalesSummary, error) {
	if start.IsZero() || end.IsZero() || start.After(end) {
		return nil, ErrInvalidDateRange
	}

	report, err := s.tickets.SalesReport(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("sales report: %w", err)
	}
	tickets, err := s.tickets.ListTicketsByDateRange(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("list tickets by date range: %w", err)
	}

	summary := &SalesSummary{
		Start:        start,
		End:          end,
		TotalSales:   report.TotalAmount,
		TotalTickets: report.TicketCount,
		Tickets:      tickets,
	}
	if report.TicketCount > 0 {
		summary.AverageTicketValue = report.TotalAmount.
			Div(decimal.NewFromInt(report.TicketCount)).Round(2)
	} else {
		summary.AverageTicketValue = decimal.Zero
	}
	return summary, nil
}
