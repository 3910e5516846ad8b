package service

import (
	"context"

	"github.com/concertline/tickets/internal/domain"
	"github.com/concertline/tickets/internal/dto"
	"github.com/concertline/tickets/internal/gateway"
)

// CatalogService defines the interface for concert catalog reads
type CatalogService interface {
	// ListConcerts lists upcoming concerts
	ListConcerts(ctx context.Context) ([]domain.Concert, error)
	// ListTicketTypes lists a concert's displayable ticket types with live stock
	ListTicketTypes(ctx context.Context, concertID int64) ([]domain.TicketType, error)
}

// CheckoutService defines the interface for checkout business logic
type CheckoutService interface {
	// CreateCheckoutSession validates the request against live stock,
	// opens a payment session and records a pending order
	CreateCheckoutSession(ctx context.Context, req *dto.CreateCheckoutSessionRequest) (*dto.CheckoutSessionResponse, error)
	// GetOrderStatus reports an order's confirmation progress by session ID
	GetOrderStatus(ctx context.Context, sessionID string) (*domain.OrderStatus, error)
	// HandleSessionCompleted finalizes an order after the processor
	// reports payment: mints tickets, recalculates stock, emits the
	// confirmation event
	HandleSessionCompleted(ctx context.Context, session *gateway.SessionInfo) error
	// HandleSessionExpired marks an unpaid order failed
	HandleSessionExpired(ctx context.Context, sessionID string) error
}

// EventPublisher emits domain events to the message bus. A nil
// publisher disables publishing.
type EventPublisher interface {
	ProduceJSON(ctx context.Context, topic, key string, value interface{}, headers map[string]string) error
}
