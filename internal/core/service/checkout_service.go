package service

import (
	"context"
	"crypto/rand"
	"encoding/base32"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rmontes/storefront/internal/core/domain"
	"github.com/rmontes/storefront/internal/port"
)

// maxCodeAttempts bounds ticket code regeneration on collision.
const maxCodeAttempts = 3

// CheckoutService converts a cart into a ticket under stock constraints.
//
// Lines are reserved independently: each fulfillable line issues exactly one
// conditional decrement against the catalog, and a rejected decrement demotes
// that line to unfulfilled instead of failing the checkout. There is no
// cross-store transaction; partial success is the contract, not a failure
// mode.
type CheckoutService struct {
	catalog port.CatalogRepository
	carts   port.CartRepository
	tickets port.TicketRepository
	idem    port.IdempotencyStore
	logger  *zap.Logger
	tracer  trace.Tracer
}

func NewCheckoutService(
	catalog port.CatalogRepository,
	carts port.CartRepository,
	tickets port.TicketRepository,
	idem port.IdempotencyStore,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		catalog: catalog,
		carts:   carts,
		tickets: tickets,
		idem:    idem,
		logger:  logger,
		tracer:  otel.Tracer("storefront/checkout"),
	}
}

// Checkout purchases whatever the cart can currently be served, mints a
// ticket for it, and leaves unfulfillable lines in the cart.
//
// idempotencyKey is optional. When empty, a double-submitted checkout is
// processed twice and may mint two tickets; when set, the second submission
// fails with ErrDuplicateRequest. Only a checkout that produced a ticket
// keeps the key consumed.
func (s *CheckoutService) Checkout(ctx context.Context, cartID string, caller domain.Caller, idempotencyKey string) (*domain.CheckoutResult, error) {
	ctx, span := s.tracer.Start(ctx, "checkout")
	defer span.End()
	span.SetAttributes(
		attribute.String("cart_id", cartID),
		attribute.String("caller_id", caller.ID),
	)

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

	ticketDurable := false
	if idempotencyKey != "" {
		ok, err := s.idem.SetIdempotency(ctx, idempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
		// The key only stays consumed once a ticket exists. A checkout that
		// fails before that releases it, so a corrected retry with the same
		// key is not locked out.
		defer func() {
			if ticketDurable {
				return
			}
			if err := s.idem.DeleteIdempotency(ctx, idempotencyKey); err != nil {
				s.logger.Warn("failed to release idempotency key",
					zap.String("cart_id", cartID),
					zap.Error(err))
			}
		}()
	}

	fulfillable, unfulfilled := partitionLines(cart.Lines)
	if len(fulfillable) == 0 {
		return nil, ErrNothingAvailable
	}

	// Reserve stock line by line, in cart order. A rejected decrement means a
	// concurrent checkout consumed the stock after our snapshot; the line is
	// demoted and the rest proceed.
	var purchased []domain.TicketLine
	var purchasedIDs []string
	for _, line := range fulfillable {
		ok, err := s.catalog.ConditionalDecrementStock(ctx, line.ProductID, line.Quantity)
		if err != nil {
			s.logger.Error("stock reservation aborted mid-checkout",
				zap.String("cart_id", cartID),
				zap.String("product_id", line.ProductID),
				zap.Int("lines_already_reserved", len(purchased)),
				zap.Error(err))
			return nil, fmt.Errorf("reserve stock: %w", err)
		}
		if !ok {
			unfulfilled = append(unfulfilled, domain.UnfulfilledLine{
				ProductID: line.ProductID,
				Title:     line.Product.Title,
				Quantity:  line.Quantity,
				Reason:    domain.ReasonStockChanged,
			})
			continue
		}

		purchased = append(purchased, domain.TicketLine{
			ProductID: line.ProductID,
			Title:     line.Product.Title,
			Quantity:  line.Quantity,
			UnitPrice: line.Product.Price,
		})
		purchasedIDs = append(purchasedIDs, line.ProductID)
	}

	if len(purchased) == 0 {
		// Every decrement lost its race; no stock was changed by this call.
		return nil, ErrNothingAvailable
	}

	ticket := &domain.Ticket{
		ID:        uuid.New().String(),
		Purchaser: caller.Email,
		Lines:     purchased,
		CreatedAt: time.Now(),
	}
	ticket.Amount = ticket.ComputeAmount()

	if err := s.persistTicket(ctx, ticket); err != nil {
		return nil, err
	}
	ticketDurable = true

	if err := s.carts.RemoveLines(ctx, cartID, purchasedIDs); err != nil {
		// The ticket is already durable; the cart still holds purchased
		// lines. Surface a server error so the caller consults the ledger
		// instead of re-submitting blindly.
		s.logger.Error("cart cleanup failed after ticket creation",
			zap.String("cart_id", cartID),
			zap.String("ticket_code", ticket.Code),
			zap.Error(err))
		return nil, fmt.Errorf("remove purchased lines: %w", err)
	}

	result := &domain.CheckoutResult{
		Fulfilled:       purchased,
		Unfulfilled:     unfulfilled,
		PartialPurchase: len(unfulfilled) > 0,
		Ticket:          ticket,
	}

	span.SetAttributes(
		attribute.String("ticket_code", ticket.Code),
		attribute.Bool("partial_purchase", result.PartialPurchase),
	)
	s.logger.Info("checkout completed",
		zap.String("cart_id", cartID),
		zap.String("purchaser", caller.Email),
		zap.String("ticket_code", ticket.Code),
		zap.String("amount", ticket.Amount.String()),
		zap.Int("fulfilled", len(purchased)),
		zap.Int("unfulfilled", len(unfulfilled)))

	return result, nil
}

// partitionLines splits cart lines into those the stock snapshot can serve
// and those it cannot. Dangling product references never abort the checkout.
func partitionLines(lines []domain.CartLine) ([]domain.CartLine, []domain.UnfulfilledLine) {
	var fulfillable []domain.CartLine
	var unfulfilled []domain.UnfulfilledLine

	for _, line := range lines {
		switch {
		case line.Product == nil:
			unfulfilled = append(unfulfilled, domain.UnfulfilledLine{
				ProductID: line.ProductID,
				Quantity:  line.Quantity,
				Reason:    domain.ReasonProductRemoved,
			})
		case line.Quantity > line.Product.Stock:
			unfulfilled = append(unfulfilled, domain.UnfulfilledLine{
				ProductID:      line.ProductID,
				Title:          line.Product.Title,
				Quantity:       line.Quantity,
				Reason:         domain.ReasonInsufficientStock,
				AvailableStock: line.Product.Stock,
			})
		default:
			fulfillable = append(fulfillable, line)
		}
	}
	return fulfillable, unfulfilled
}

func (s *CheckoutService) persistTicket(ctx context.Context, ticket *domain.Ticket) error {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		ticket.Code = newTicketCode()

		err := s.tickets.CreateTicket(ctx, ticket)
		if err == nil {
			return nil
		}
		if !errors.Is(err, port.ErrCodeExists) {
			return fmt.Errorf("create ticket: %w", err)
		}
		s.logger.Warn("ticket code collision, regenerating",
			zap.String("code", ticket.Code),
			zap.Int("attempt", attempt+1))
	}
	return ErrCodeGeneration
}

var codeEncoding = base32.StdEncoding.WithPadding(base32.NoPadding)

// newTicketCode returns a fresh human-shareable code with 64 bits of
// randomness. Uniqueness is enforced by the ledger, not assumed here.
func newTicketCode() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return "TKT-" + codeEncoding.EncodeToString(buf)
}
