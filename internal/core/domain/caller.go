package domain

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Caller is the resolved identity of the requester, produced by the auth
// resolver chain before any service method runs.
type Caller struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  Role   `json:"role"`
}

// CanAccessCart reports whether the caller may operate on a cart owned by
// ownerID. Admins may operate on any cart.
func (c Caller) CanAccessCart(ownerID string) bool {
	return c.Role == RoleAdmin || c.ID == ownerID
}

// CanAccessTicket reports whether the caller may read a ticket purchased by
// the given email.
func (c Caller) CanAccessTicket(purchaser string) bool {
	return c.Role == RoleAdmin || c.Email == purchaser
}
