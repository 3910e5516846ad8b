package dto

import "github.com/concertline/tickets/internal/domain"

// CheckoutLineItem is one requested ticket type and quantity
type CheckoutLineItem struct {
	TicketTypeID int64 `json:"ticket_type_id" binding:"required"`
	Quantity     int   `json:"quantity" binding:"required,min=1"`
}

// CreateCheckoutSessionRequest represents the request to open a
// payment session for a concert
type CreateCheckoutSessionRequest struct {
	ConcertID int64              `json:"concert_id" binding:"required"`
	LineItems []CheckoutLineItem `json:"line_items" binding:"required,min=1,dive"`
}

// Validate validates the CreateCheckoutSessionRequest
func (r *CreateCheckoutSessionRequest) Validate() (bool, string) {
	if r.ConcertID <= 0 {
		return false, "Concert ID is required"
	}
	if len(r.LineItems) == 0 {
		return false, "At least one line item is required"
	}
	seen := make(map[int64]bool, len(r.LineItems))
	for _, item := range r.LineItems {
		if item.TicketTypeID <= 0 {
			return false, "Ticket type ID is required"
		}
		if item.Quantity <= 0 {
			return false, "Quantity must be positive"
		}
		if seen[item.TicketTypeID] {
			return false, "Duplicate ticket type in line items"
		}
		seen[item.TicketTypeID] = true
	}
	return true, ""
}

// CheckoutSessionResponse carries the minted session back to the client
type CheckoutSessionResponse struct {
	SessionID    string `json:"session_id"`
	ClientSecret string `json:"client_secret"`
}

// OrderStatusResponse reports an order's confirmation progress
type OrderStatusResponse struct {
	Status        string  `json:"status"`
	OrderID       int64   `json:"order_id,omitempty"`
	CustomerEmail string  `json:"customer_email,omitempty"`
	CustomerName  string  `json:"customer_name,omitempty"`
	ConcertName   string  `json:"concert_name,omitempty"`
	TotalAmount   float64 `json:"total_amount,omitempty"`
	Currency      string  `json:"currency,omitempty"`
}

// ToOrderStatusResponse converts a domain order status to its API shape
func ToOrderStatusResponse(s *domain.OrderStatus) *OrderStatusResponse {
	return &OrderStatusResponse{
		Status:        string(s.Status),
		OrderID:       s.OrderID,
		CustomerEmail: s.CustomerEmail,
		CustomerName:  s.CustomerName,
		ConcertName:   s.ConcertName,
		TotalAmount:   s.TotalAmount,
		Currency:      s.Currency,
	}
}
