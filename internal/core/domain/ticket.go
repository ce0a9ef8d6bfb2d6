package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Ticket is an immutable record of a completed (possibly partial) purchase.
// Code is the only identifier quoted to users; UnitPrice is frozen at purchase
// time and never follows later catalog price changes.
type Ticket struct {
	ID        string
	Code      string
	Purchaser string
	Lines     []TicketLine
	Amount    decimal.Decimal
	CreatedAt time.Time
}

type TicketLine struct {
	ProductID string
	Title     string
	Quantity  int
	UnitPrice decimal.Decimal
}

// ComputeAmount recomputes the ticket total from its line snapshots. The
// stored Amount must always equal this value.
func (t *Ticket) ComputeAmount() decimal.Decimal {
	total := decimal.Zero
	for _, line := range t.Lines {
		total = total.Add(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}
	return total
}
