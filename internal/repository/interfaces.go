package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/concertline/tickets/internal/domain"
)

// ConcertRepository defines the interface for concert data access
type ConcertRepository interface {
	// ListUpcoming lists concerts that have not happened yet, soonest first
	ListUpcoming(ctx context.Context) ([]domain.Concert, error)
	// GetByID retrieves a concert by ID
	GetByID(ctx context.Context, id int64) (*domain.Concert, error)
}

// TicketTypeRepository defines the interface for ticket type data access
type TicketTypeRepository interface {
	// ListByConcert lists displayable ticket types for a concert in position order
	ListByConcert(ctx context.Context, concertID int64) ([]domain.TicketType, error)
	// GetByID retrieves a ticket type by ID
	GetByID(ctx context.Context, id int64) (*domain.TicketType, error)
	// UpdateStock writes recalculated sold and available counts inside tx
	UpdateStock(ctx context.Context, tx pgx.Tx, id int64, qtySold, qtyAvailable int) error
}

// OrderRepository defines the interface for order and ticket data access
type OrderRepository interface {
	// Create persists a pending order together with its line items
	Create(ctx context.Context, order *domain.Order, items []domain.OrderItem) error
	// GetBySessionID retrieves an order by its payment session ID
	GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error)
	// ListItems retrieves an order's line items
	ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error)
	// Update writes an order's mutable fields
	Update(ctx context.Context, tx pgx.Tx, order *domain.Order) error
	// CreateTickets mints ticket rows for a confirmed order inside tx
	CreateTickets(ctx context.Context, tx pgx.Tx, tickets []domain.Ticket) error
	// CountSoldByType counts valid tickets per ticket type for a concert
	CountSoldByType(ctx context.Context, tx pgx.Tx, concertID int64) (map[int64]int, error)
}
