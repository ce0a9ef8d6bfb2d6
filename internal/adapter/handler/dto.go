package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmontes/storefront/internal/core/domain"
	"github.com/rmontes/storefront/internal/core/service"
)

type productDTO struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description,omitempty"`
	Code        string          `json:"code,omitempty"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Status      string          `json:"status"`
	Category    string          `json:"category,omitempty"`
}

func newProductDTO(p *domain.Product) productDTO {
	return productDTO{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		Code:        p.Code,
		Price:       p.Price,
		Stock:       p.Stock,
		Status:      string(p.Status),
		Category:    p.Category,
	}
}

type cartLineDTO struct {
	ProductID string      `json:"product_id"`
	Quantity  int         `json:"quantity"`
	Product   *productDTO `json:"product,omitempty"`
}

type cartDTO struct {
	ID      string        `json:"id"`
	OwnerID string        `json:"owner_id"`
	Lines   []cartLineDTO `json:"lines"`
}

func newCartDTO(cart *domain.Cart) cartDTO {
	dto := cartDTO{ID: cart.ID, OwnerID: cart.OwnerID, Lines: make([]cartLineDTO, 0, len(cart.Lines))}
	for _, line := range cart.Lines {
		lineDTO := cartLineDTO{ProductID: line.ProductID, Quantity: line.Quantity}
		if line.Product != nil {
			p := newProductDTO(line.Product)
			lineDTO.Product = &p
		}
		dto.Lines = append(dto.Lines, lineDTO)
	}
	return dto
}

type ticketLineDTO struct {
	ProductID string          `json:"product_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

type ticketDTO struct {
	Code      string          `json:"code"`
	Purchaser string          `json:"purchaser"`
	Amount    decimal.Decimal `json:"amount"`
	Lines     []ticketLineDTO `json:"products"`
	CreatedAt time.Time       `json:"purchase_datetime"`
}

func newTicketDTO(t *domain.Ticket) ticketDTO {
	dto := ticketDTO{
		Code:      t.Code,
		Purchaser: t.Purchaser,
		Amount:    t.Amount,
		Lines:     make([]ticketLineDTO, 0, len(t.Lines)),
		CreatedAt: t.CreatedAt,
	}
	for _, line := range t.Lines {
		dto.Lines = append(dto.Lines, ticketLineDTO{
			ProductID: line.ProductID,
			Title:     line.Title,
			Quantity:  line.Quantity,
			UnitPrice: line.UnitPrice,
		})
	}
	return dto
}

type unfulfilledLineDTO struct {
	ProductID      string `json:"product_id"`
	Title          string `json:"title,omitempty"`
	Quantity       int    `json:"requested_quantity"`
	Reason         string `json:"reason"`
	AvailableStock int    `json:"available_stock,omitempty"`
}

type checkoutDTO struct {
	Ticket          ticketDTO            `json:"ticket"`
	Purchased       []ticketLineDTO      `json:"purchased"`
	Unavailable     []unfulfilledLineDTO `json:"unavailable"`
	PartialPurchase bool                 `json:"partial_purchase"`
}

func newCheckoutDTO(result *domain.CheckoutResult) checkoutDTO {
	ticket := newTicketDTO(result.Ticket)
	dto := checkoutDTO{
		Ticket:          ticket,
		Purchased:       ticket.Lines,
		Unavailable:     make([]unfulfilledLineDTO, 0, len(result.Unfulfilled)),
		PartialPurchase: result.PartialPurchase,
	}
	for _, line := range result.Unfulfilled {
		dto.Unavailable = append(dto.Unavailable, unfulfilledLineDTO{
			ProductID:      line.ProductID,
			Title:          line.Title,
			Quantity:       line.Quantity,
			Reason:         string(line.Reason),
			AvailableStock: line.AvailableStock,
		})
	}
	return dto
}

type reportDTO struct {
	Period struct {
		Start time.Time `json:"start"`
		End   time.Time `json:"end"`
	} `json:"period"`
	Summary struct {
		TotalSales         decimal.Decimal `json:"total_sales"`
		TotalTickets       int64           `json:"total_tickets"`
		AverageTicketValue decimal.Decimal `json:"average_ticket_value"`
	} `json:"summary"`
	Tickets []ticketDTO `json:"tickets"`
}

func newReportDTO(summary *service.SalesSummary) reportDTO {
	var dto reportDTO
	dto.Period.Start = summary.Start
	dto.Period.End = summary.End
	dto.Summary.TotalSales = summary.TotalSales
	dto.Summary.TotalTickets = summary.TotalTickets
	dto.Summary.AverageTicketValue = summary.AverageTicketValue
	dto.Tickets = make([]ticketDTO, 0, len(summary.Tickets))
	for i := range summary.Tickets {
		dto.Tickets = append(dto.Tickets, newTicketDTO(&summary.Tickets[i]))
	}
	return dto
}
