package domain

import (
	"errors"
	"time"
)

// OrderState represents the lifecycle state of an order (matches DB ENUM)
type OrderState string

const (
	OrderStatePending   OrderState = "pending"
	OrderStateConfirmed OrderState = "confirmed"
	OrderStateFailed    OrderState = "failed"
	OrderStateCancelled OrderState = "cancelled"
)

// Order tracks one checkout session from payment handoff to
// webhook-driven finalization.
type Order struct {
	ID            int64      `json:"id"`
	SessionID     string     `json:"session_id"` // payment processor session id, unique
	ConcertID     int64      `json:"concert_id"`
	Status        OrderState `json:"status"`
	CustomerEmail string     `json:"customer_email"`
	CustomerName  string     `json:"customer_name"`
	TotalAmount   float64    `json:"total_amount"`
	Currency      string     `json:"currency"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
}

// NewOrder creates a pending order for a checkout session
func NewOrder(sessionID string, concertID int64, total float64, currency string) (*Order, error) {
	if sessionID == "" {
		return nil, errors.New("session id is required")
	}
	if total < 0 {
		return nil, errors.New("total amount must not be negative")
	}
	if currency == "" {
		currency = "GBP"
	}

	now := time.Now().UTC()
	return &Order{
		SessionID:   sessionID,
		ConcertID:   concertID,
		Status:      OrderStatePending,
		TotalAmount: total,
		Currency:    currency,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// Confirm marks the order as confirmed with the customer details the
// payment processor reported.
func (o *Order) Confirm(email, name string) error {
	if o.Status == OrderStateConfirmed {
		return ErrOrderAlreadyFinal
	}
	if o.Status != OrderStatePending {
		return errors.New("only pending orders can be confirmed")
	}
	now := time.Now().UTC()
	o.Status = OrderStateConfirmed
	o.CustomerEmail = email
	o.CustomerName = name
	o.ConfirmedAt = &now
	o.UpdatedAt = now
	return nil
}

// Fail marks the order as failed
func (o *Order) Fail() error {
	if o.Status != OrderStatePending {
		return errors.New("only pending orders can fail")
	}
	o.Status = OrderStateFailed
	o.UpdatedAt = time.Now().UTC()
	return nil
}

// IsFinal returns true if the order is in a terminal state
func (o *Order) IsFinal() bool {
	return o.Status == OrderStateConfirmed ||
		o.Status == OrderStateFailed ||
		o.Status == OrderStateCancelled
}

// OrderItem is one priced line of an order, recorded at session
// creation so webhook finalization knows what to mint
type OrderItem struct {
	ID           int64   `json:"id"`
	OrderID      int64   `json:"order_id"`
	TicketTypeID int64   `json:"ticket_type_id"`
	Quantity     int     `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
}

// Ticket is one purchased seat, minted when the webhook finalizes an
// order. Sold counts are derived from valid tickets.
type Ticket struct {
	ID            int64     `json:"id"`
	Serial        string    `json:"serial"`
	Name          string    `json:"name"`
	Email         string    `json:"email"`
	TransactionID string    `json:"transaction_id"` // checkout session id
	ConcertID     int64     `json:"concert_id"`
	TicketTypeID  int64     `json:"ticket_type_id"`
	Valid         bool      `json:"valid"`
	ChangeLog     string    `json:"change_log"`
	CreatedAt     time.Time `json:"created_at"`
}

// CheckoutSession is the handoff unit between this system and the
// external payment flow. The client secret drives the embedded payment
// UI and must not be logged or displayed in full.
type CheckoutSession struct {
	ID           string `json:"session_id"`
	ClientSecret string `json:"client_secret"`
}

// OrderStatus is the poller-facing view of an order. Status is pending
// while webhook finalization is in flight; order fields are populated
// only once confirmed.
type OrderStatus struct {
	Status        OrderState `json:"status"`
	OrderID       int64      `json:"order_id,omitempty"`
	CustomerEmail string     `json:"customer_email,omitempty"`
	CustomerName  string     `json:"customer_name,omitempty"`
	ConcertName   string     `json:"concert_name,omitempty"`
	TotalAmount   float64    `json:"total_amount,omitempty"`
	Currency      string     `json:"currency,omitempty"`
}
