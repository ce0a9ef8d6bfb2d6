package domain

import "time"

type Cart struct {
	ID        string
	OwnerID   string
	Lines     []CartLine
	CreatedAt time.Time
	UpdatedAt time.Time
}

// CartLine references a product by ID. Product carries the catalog snapshot
// resolved at load time; it is nil when the referenced product no longer
// exists.
type CartLine struct {
	ProductID string
	Quantity  int
	Product   *Product
}
