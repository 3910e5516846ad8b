package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/concertline/tickets/internal/domain"
	"github.com/concertline/tickets/internal/dto"
	"github.com/concertline/tickets/internal/gateway"
	"github.com/concertline/tickets/internal/repository"
	"github.com/concertline/tickets/pkg/logger"
	"github.com/concertline/tickets/pkg/telemetry"
)

// Common errors
var (
	ErrTicketTypeNotOnSale = errors.New("ticket type is not on sale")
	ErrInvalidRequest      = errors.New("invalid checkout request")
)

// orderConfirmedTopic carries order confirmation events for downstream
// consumers (email delivery, reporting)
const orderConfirmedTopic = "tickets.order.confirmed"

// TxBeginner opens database transactions. *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// CacheInvalidator drops cached catalog state after stock changes
type CacheInvalidator interface {
	InvalidateConcert(ctx context.Context, concertID int64)
}

// OrderConfirmedEvent is published after an order is finalized
type OrderConfirmedEvent struct {
	OrderID       int64     `json:"order_id"`
	SessionID     string    `json:"session_id"`
	ConcertID     int64     `json:"concert_id"`
	CustomerEmail string    `json:"customer_email"`
	CustomerName  string    `json:"customer_name"`
	TotalAmount   float64   `json:"total_amount"`
	Currency      string    `json:"currency"`
	TicketCount   int       `json:"ticket_count"`
	ConfirmedAt   time.Time `json:"confirmed_at"`
}

// checkoutService implements CheckoutService
type checkoutService struct {
	db          TxBeginner
	concertRepo repository.ConcertRepository
	typeRepo    repository.TicketTypeRepository
	orderRepo   repository.OrderRepository
	gateway     gateway.CheckoutGateway
	publisher   EventPublisher
	invalidator CacheInvalidator
	currency    string
	returnURL   string
	log         *logger.Logger
}

// CheckoutServiceConfig wires the checkout service's collaborators.
// Publisher and Invalidator are optional.
type CheckoutServiceConfig struct {
	DB          TxBeginner
	ConcertRepo repository.ConcertRepository
	TypeRepo    repository.TicketTypeRepository
	OrderRepo   repository.OrderRepository
	Gateway     gateway.CheckoutGateway
	Publisher   EventPublisher
	Invalidator CacheInvalidator
	Currency    string
	ReturnURL   string
}

// NewCheckoutService creates a new CheckoutService
func NewCheckoutService(cfg CheckoutServiceConfig) CheckoutService {
	currency := cfg.Currency
	if currency == "" {
		currency = "gbp"
	}
	return &checkoutService{
		db:          cfg.DB,
		concertRepo: cfg.ConcertRepo,
		typeRepo:    cfg.TypeRepo,
		orderRepo:   cfg.OrderRepo,
		gateway:     cfg.Gateway,
		publisher:   cfg.Publisher,
		invalidator: cfg.Invalidator,
		currency:    currency,
		returnURL:   cfg.ReturnURL,
		log:         logger.Get(),
	}
}

// CreateCheckoutSession validates the request against live stock,
// opens a payment session and records a pending order. Stock is
// checked but not reserved; finalization recounts from minted tickets
// so overselling surfaces there, not here.
func (s *checkoutService) CreateCheckoutSession(ctx context.Context, req *dto.CreateCheckoutSessionRequest) (*dto.CheckoutSessionResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.checkout.create_session")
	defer span.End()

	if valid, msg := req.Validate(); !valid {
		return nil, fmt.Errorf("%w: %s", ErrInvalidRequest, msg)
	}

	concert, err := s.concertRepo.GetByID(ctx, req.ConcertID)
	if err != nil {
		return nil, err
	}

	var total float64
	items := make([]gateway.SessionItem, 0, len(req.LineItems))
	orderItems := make([]domain.OrderItem, 0, len(req.LineItems))
	for _, line := range req.LineItems {
		t, err := s.typeRepo.GetByID(ctx, line.TicketTypeID)
		if err != nil {
			return nil, err
		}
		if t.ConcertID != concert.ID {
			return nil, domain.ErrTicketTypeNotFound
		}
		if !t.Display {
			return nil, fmt.Errorf("%w: %s", ErrTicketTypeNotOnSale, t.Label)
		}
		if line.Quantity > t.QtyAvailable {
			return nil, fmt.Errorf("%w: only %d %s tickets available", domain.ErrInsufficientStock, t.QtyAvailable, t.Label)
		}

		items = append(items, gateway.SessionItem{
			Name:      fmt.Sprintf("%s: %s", concert.Name, t.Label),
			UnitPrice: t.Price,
			Quantity:  line.Quantity,
			PriceID:   t.PriceID,
		})
		orderItems = append(orderItems, domain.OrderItem{
			TicketTypeID: t.ID,
			Quantity:     line.Quantity,
			UnitPrice:    t.Price,
		})
		total += float64(line.Quantity) * t.Price
	}

	sess, err := s.gateway.CreateSession(ctx, &gateway.SessionRequest{
		Currency:  s.currency,
		ReturnURL: s.returnURL,
		Items:     items,
		Metadata: map[string]string{
			"concert_id": fmt.Sprintf("%d", concert.ID),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create payment session: %w", err)
	}

	order, err := domain.NewOrder(sess.SessionID, concert.ID, total, s.currency)
	if err != nil {
		return nil, err
	}
	if err := s.orderRepo.Create(ctx, order, orderItems); err != nil {
		return nil, err
	}

	s.log.Info("checkout session created",
		zap.String("session_id", sess.SessionID),
		zap.Int64("concert_id", concert.ID),
		zap.Int64("order_id", order.ID),
		zap.Float64("total", total))

	return &dto.CheckoutSessionResponse{
		SessionID:    sess.SessionID,
		ClientSecret: sess.ClientSecret,
	}, nil
}

// GetOrderStatus reports an order's confirmation progress by session
// ID. Pending is the answer while webhook finalization is still in
// flight; callers poll until the status turns terminal.
func (s *checkoutService) GetOrderStatus(ctx context.Context, sessionID string) (*domain.OrderStatus, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.checkout.get_order_status")
	defer span.End()

	order, err := s.orderRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	status := &domain.OrderStatus{
		Status:      order.Status,
		OrderID:     order.ID,
		TotalAmount: order.TotalAmount,
		Currency:    order.Currency,
	}
	if order.Status == domain.OrderStateConfirmed {
		status.CustomerEmail = order.CustomerEmail
		status.CustomerName = order.CustomerName
		if concert, err := s.concertRepo.GetByID(ctx, order.ConcertID); err == nil {
			status.ConcertName = concert.Name
		}
	}
	return status, nil
}

// HandleSessionCompleted finalizes an order after the processor
// reports payment. Redeliveries are no-ops: an order already past
// pending is left alone.
func (s *checkoutService) HandleSessionCompleted(ctx context.Context, session *gateway.SessionInfo) error {
	ctx, span := telemetry.StartSpan(ctx, "service.checkout.session_completed")
	defer span.End()

	order, err := s.orderRepo.GetBySessionID(ctx, session.SessionID)
	if err != nil {
		return err
	}
	if order.IsFinal() {
		s.log.Info("ignoring completion for finalized order",
			zap.String("session_id", session.SessionID),
			zap.String("status", string(order.Status)))
		return nil
	}

	items, err := s.orderRepo.ListItems(ctx, order.ID)
	if err != nil {
		return err
	}

	if err := order.Confirm(session.CustomerEmail, session.CustomerName); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.orderRepo.Update(ctx, tx, order); err != nil {
		return err
	}

	now := time.Now().UTC()
	var tickets []domain.Ticket
	for _, item := range items {
		for i := 0; i < item.Quantity; i++ {
			tickets = append(tickets, domain.Ticket{
				Serial:        uuid.NewString(),
				Name:          order.CustomerName,
				Email:         order.CustomerEmail,
				TransactionID: order.SessionID,
				ConcertID:     order.ConcertID,
				TicketTypeID:  item.TicketTypeID,
				Valid:         true,
				CreatedAt:     now,
			})
		}
	}
	if err := s.orderRepo.CreateTickets(ctx, tx, tickets); err != nil {
		return err
	}

	// Recount rather than decrement so redelivered or out-of-order
	// webhooks cannot drift the counters.
	sold, err := s.orderRepo.CountSoldByType(ctx, tx, order.ConcertID)
	if err != nil {
		return err
	}
	for _, item := range items {
		t, err := s.typeRepo.GetByID(ctx, item.TicketTypeID)
		if err != nil {
			return err
		}
		t.RecalculateFromSold(sold[t.ID])
		if err := s.typeRepo.UpdateStock(ctx, tx, t.ID, t.QtySold, t.QtyAvailable); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order finalization: %w", err)
	}

	if s.invalidator != nil {
		s.invalidator.InvalidateConcert(ctx, order.ConcertID)
	}

	s.log.Info("order confirmed",
		zap.Int64("order_id", order.ID),
		zap.String("session_id", order.SessionID),
		zap.Int("tickets", len(tickets)))

	s.publishConfirmed(ctx, order, len(tickets))
	return nil
}

// HandleSessionExpired marks an unpaid order failed. Finalized orders
// are left alone.
func (s *checkoutService) HandleSessionExpired(ctx context.Context, sessionID string) error {
	ctx, span := telemetry.StartSpan(ctx, "service.checkout.session_expired")
	defer span.End()

	order, err := s.orderRepo.GetBySessionID(ctx, sessionID)
	if err != nil {
		return err
	}
	if order.IsFinal() {
		return nil
	}

	if err := order.Fail(); err != nil {
		return err
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := s.orderRepo.Update(ctx, tx, order); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit order failure: %w", err)
	}

	s.log.Info("order failed",
		zap.Int64("order_id", order.ID),
		zap.String("session_id", sessionID))
	return nil
}

func (s *checkoutService) publishConfirmed(ctx context.Context, order *domain.Order, ticketCount int) {
	if s.publisher == nil {
		return
	}

	event := OrderConfirmedEvent{
		OrderID:       order.ID,
		SessionID:     order.SessionID,
		ConcertID:     order.ConcertID,
		CustomerEmail: order.CustomerEmail,
		CustomerName:  order.CustomerName,
		TotalAmount:   order.TotalAmount,
		Currency:      order.Currency,
		TicketCount:   ticketCount,
	}
	if order.ConfirmedAt != nil {
		event.ConfirmedAt = *order.ConfirmedAt
	}

	if err := s.publisher.ProduceJSON(ctx, orderConfirmedTopic, order.SessionID, event, nil); err != nil {
		s.log.Error("failed to publish order confirmed event",
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}
}
