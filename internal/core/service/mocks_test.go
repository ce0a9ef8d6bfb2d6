package service

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmontes/storefront/internal/core/domain"
	"github.com/rmontes/storefront/internal/port"
)

// In-memory fakes shared by the service tests. All of them are safe for
// concurrent use so the race and oversell tests can hammer them.

type memCatalog struct {
	mu       sync.Mutex
	products map[string]*domain.Product

	// forceDecrementFail simulates a concurrent checkout winning the stock
	// between our snapshot and our decrement.
	forceDecrementFail map[string]bool

	// decrementErr, when set for a product, aborts the decrement with an
	// infrastructure error.
	decrementErr map[string]error

	decrements int
}

func newMemCatalog(products ...*domain.Product) *memCatalog {
	m := &memCatalog{
		products:           make(map[string]*domain.Product),
		forceDecrementFail: make(map[string]bool),
		decrementErr:       make(map[string]error),
	}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *memCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, nil
	}
	clone := *p
	return &clone, nil
}

func (m *memCatalog) ListProducts(_ context.Context, filter port.ProductFilter) ([]domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Product
	for _, p := range m.products {
		if filter.Category != "" && p.Category != filter.Category {
			continue
		}
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *memCatalog) ConditionalDecrementStock(_ context.Context, id string, qty int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.decrementErr[id]; err != nil {
		return false, err
	}
	if m.forceDecrementFail[id] {
		return false, nil
	}

	p, ok := m.products[id]
	if !ok || p.Stock < qty {
		return false, nil
	}
	p.Stock -= qty
	m.decrements += qty
	return true, nil
}

func (m *memCatalog) CreateProduct(_ context.Context, p *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	clone := *p
	m.products[p.ID] = &clone
	return nil
}

func (m *memCatalog) UpdateProduct(_ context.Context, p *domain.Product) error {
	return m.CreateProduct(context.Background(), p)
}

func (m *memCatalog) DeleteProduct(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.products, id)
	return nil
}

func (m *memCatalog) stock(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.products[id]; ok {
		return p.Stock
	}
	return -1
}

type memLine struct {
	productID string
	quantity  int
}

type memCarts struct {
	mu      sync.Mutex
	owners  map[string]string // cartID -> ownerID
	lines   map[string][]memLine
	catalog *memCatalog

	// afterLoad, when set, runs after each LoadCart. Used to hold two
	// concurrent checkouts at the same snapshot.
	afterLoad func()

	removeErr error
	nextID    int
}

func newMemCarts(catalog *memCatalog) *memCarts {
	return &memCarts{
		owners:  make(map[string]string),
		lines:   make(map[string][]memLine),
		catalog: catalog,
	}
}

func (m *memCarts) addCart(cartID, ownerID string, lines ...memLine) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.owners[cartID] = ownerID
	m.lines[cartID] = lines
}

func (m *memCarts) CreateCart(_ context.Context, ownerID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	id := "cart-" + time.Now().Format("150405") + "-" + string(rune('a'+m.nextID%26))
	m.owners[id] = ownerID
	m.lines[id] = nil
	return &domain.Cart{ID: id, OwnerID: ownerID}, nil
}

func (m *memCarts) GetCartByOwner(_ context.Context, ownerID string) (*domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, owner := range m.owners {
		if owner == ownerID {
			return &domain.Cart{ID: id, OwnerID: owner}, nil
		}
	}
	return nil, nil
}

func (m *memCarts) LoadCart(ctx context.Context, cartID string) (*domain.Cart, error) {
	m.mu.Lock()
	owner, ok := m.owners[cartID]
	if !ok {
		m.mu.Unlock()
		return nil, nil
	}
	cart := &domain.Cart{ID: cartID, OwnerID: owner}
	lines := append([]memLine(nil), m.lines[cartID]...)
	m.mu.Unlock()

	for _, l := range lines {
		snapshot, err := m.catalog.GetProduct(ctx, l.productID)
		if err != nil {
			return nil, err
		}
		cart.Lines = append(cart.Lines, domain.CartLine{
			ProductID: l.productID,
			Quantity:  l.quantity,
			Product:   snapshot,
		})
	}

	if m.afterLoad != nil {
		m.afterLoad()
	}
	return cart, nil
}

func (m *memCarts) AddLine(_ context.Context, cartID, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, l := range m.lines[cartID] {
		if l.productID == productID {
			m.lines[cartID][i].quantity += qty
			return nil
		}
	}
	m.lines[cartID] = append(m.lines[cartID], memLine{productID, qty})
	return nil
}

func (m *memCarts) UpdateLineQuantity(_ context.Context, cartID, productID string, qty int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if qty <= 0 {
		m.removeLocked(cartID, productID)
		return nil
	}
	for i, l := range m.lines[cartID] {
		if l.productID == productID {
			m.lines[cartID][i].quantity = qty
			return nil
		}
	}
	return nil
}

func (m *memCarts) RemoveLine(_ context.Context, cartID, productID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.removeLocked(cartID, productID)
	return nil
}

func (m *memCarts) RemoveLines(_ context.Context, cartID string, productIDs []string) error {
	if m.removeErr != nil {
		return m.removeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range productIDs {
		m.removeLocked(cartID, id)
	}
	return nil
}

func (m *memCarts) ClearCart(_ context.Context, cartID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lines[cartID] = nil
	return nil
}

func (m *memCarts) removeLocked(cartID, productID string) {
	lines := m.lines[cartID]
	out := lines[:0]
	for _, l := range lines {
		if l.productID != productID {
			out = append(out, l)
		}
	}
	m.lines[cartID] = out
}

func (m *memCarts) lineCount(cartID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines[cartID])
}

func (m *memCarts) hasLine(cartID, productID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, l := range m.lines[cartID] {
		if l.productID == productID {
			return true
		}
	}
	return false
}

type memTickets struct {
	mu      sync.Mutex
	byCode  map[string]*domain.Ticket
	created []*domain.Ticket

	// collisions makes the next N CreateTicket calls fail with ErrCodeExists.
	collisions int
	createErr  error
}

func newMemTickets() *memTickets {
	return &memTickets{byCode: make(map[string]*domain.Ticket)}
}

func (m *memTickets) CreateTicket(_ context.Context, t *domain.Ticket) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if m.collisions > 0 {
		m.collisions--
		return port.ErrCodeExists
	}
	if _, exists := m.byCode[t.Code]; exists {
		return port.ErrCodeExists
	}
	clone := *t
	m.byCode[t.Code] = &clone
	m.created = append(m.created, &clone)
	return nil
}

func (m *memTickets) GetTicketByCode(_ context.Context, code string) (*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byCode[code]
	if !ok {
		return nil, nil
	}
	clone := *t
	return &clone, nil
}

func (m *memTickets) ListTicketsByPurchaser(_ context.Context, purchaser string) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ticket
	for i := len(m.created) - 1; i >= 0; i-- {
		if m.created[i].Purchaser == purchaser {
			out = append(out, *m.created[i])
		}
	}
	return out, nil
}

func (m *memTickets) ListTicketsByDateRange(_ context.Context, start, end time.Time) ([]domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.Ticket
	for _, t := range m.created {
		if !t.CreatedAt.Before(start) && !t.CreatedAt.After(end) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *memTickets) SalesReport(ctx context.Context, start, end time.Time) (port.SalesReport, error) {
	tickets, _ := m.ListTicketsByDateRange(ctx, start, end)
	report := port.SalesReport{TotalAmount: decimal.Zero}
	for _, t := range tickets {
		report.TotalAmount = report.TotalAmount.Add(t.Amount)
		report.TicketCount++
	}
	return report, nil
}

func (m *memTickets) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.created)
}

type memIdempotency struct {
	mu   sync.Mutex
	keys map[string]bool
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{keys: make(map[string]bool)}
}

func (m *memIdempotency) DeleteIdempotency(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *memIdempotency) SetIdempotency(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.keys[key] {
		return false, nil
	}
	m.keys[key] = true
	return true, nil
}
