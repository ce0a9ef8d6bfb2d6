package service

import "errors"

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrProductNotFound = errors.New("product not found")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrLineNotFound    = errors.New("product not found in cart")

	ErrForbidden        = errors.New("access denied")
	ErrDuplicateRequest = errors.New("duplicate request")

	// ErrInsufficientStock rejects a cart mutation that asks for more than the
	// catalog has. During checkout the same condition is never an error; it is
	// reported per line inside the CheckoutResult.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrNothingAvailable fails a checkout in which no line could be
	// fulfilled. It guarantees no ticket was created and no stock was
	// decremented by this call.
	ErrNothingAvailable = errors.New("no products available for purchase")

	// ErrCodeGeneration is returned after exhausting ticket code retries. It
	// is transient; note that stock reserved before the failure stays
	// reserved, so callers must check the ledger before retrying.
	ErrCodeGeneration = errors.New("could not allocate a unique ticket code")
)
