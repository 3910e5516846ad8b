package wizard

import (
	"context"

	"github.com/concertline/tickets/internal/domain"
)

// LineItem pairs a ticket type with a requested quantity
type LineItem struct {
	TicketTypeID int64 `json:"ticket_type_id"`
	Quantity     int   `json:"quantity"`
}

// CatalogAPI reads concerts and ticket types. Every call returns a
// fresh snapshot; nothing is cached on the wizard side.
type CatalogAPI interface {
	ListConcerts(ctx context.Context) ([]domain.Concert, error)
	ListTicketTypes(ctx context.Context, concertID int64) ([]domain.TicketType, error)
}

// CheckoutAPI creates payment sessions and reads order status.
// GetOrderStatus is an idempotent read and reports pending while
// backend finalization is in flight.
type CheckoutAPI interface {
	CreateCheckoutSession(ctx context.Context, concertID int64, items []LineItem) (*domain.CheckoutSession, error)
	GetOrderStatus(ctx context.Context, sessionID string) (*domain.OrderStatus, error)
}

// API is the full collaborator surface the wizard needs
type API interface {
	CatalogAPI
	CheckoutAPI
}

// OrderStatusReader is the narrow slice of the API the confirmation
// poller depends on.
type OrderStatusReader interface {
	GetOrderStatus(ctx context.Context, sessionID string) (*domain.OrderStatus, error)
}
