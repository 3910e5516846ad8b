package domain

import "time"

// Concert represents a performance with purchasable tickets.
// Concerts are read-only from the checkout flow's perspective.
type Concert struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Date        time.Time `json:"date"`
	Time        string    `json:"time"` // start time, HH:MM:SS
	Location    string    `json:"location"`
	Description string    `json:"description"`
	Conductor   string    `json:"conductor,omitempty"`
}

// TicketType is a purchasable tier for a concert with its own price and
// stock counters. Availability is authoritative only as of fetch time.
type TicketType struct {
	ID           int64   `json:"id"`
	ConcertID    int64   `json:"concert_id"`
	Position     int     `json:"position"` // lower shows first
	Label        string  `json:"label"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	PriceID      string  `json:"price_id"` // Stripe price reference
	QtyTotal     int     `json:"qty_total"`
	QtyAvailable int     `json:"qty_available"`
	QtySold      int     `json:"qty_sold"`
	Display      bool    `json:"display"`
}

// RecalculateFromSold updates the sold and available counters from a
// fresh count of valid tickets. Available never goes negative even when
// totals were lowered after sales.
func (t *TicketType) RecalculateFromSold(sold int) {
	t.QtySold = sold
	remaining := t.QtyTotal - sold
	if remaining < 0 {
		remaining = 0
	}
	t.QtyAvailable = remaining
}
