package domain

type UnfulfilledReason string

const (
	ReasonProductRemoved    UnfulfilledReason = "product_removed"
	ReasonInsufficientStock UnfulfilledReason = "insufficient_stock"
	ReasonStockChanged      UnfulfilledReason = "stock_changed"
)

type UnfulfilledLine struct {
	ProductID      string
	Title          string
	Quantity       int
	Reason         UnfulfilledReason
	AvailableStock int
}

// CheckoutResult reports the outcome of one checkout invocation. It is never
// persisted; the Ticket is the durable record.
type CheckoutResult struct {
	Fulfilled       []TicketLine
	Unfulfilled     []UnfulfilledLine
	PartialPurchase bool
	Ticket          *Ticket
}
