package dto

import (
	"time"

	"github.com/concertline/tickets/internal/domain"
)

// ConcertResponse represents one concert in the catalog listing
type ConcertResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Date        string `json:"date"`
	Time        string `json:"time"`
	Location    string `json:"location"`
	Description string `json:"description"`
	Conductor   string `json:"conductor"`
}

// ToConcertResponse converts a domain concert to its API shape
func ToConcertResponse(c *domain.Concert) *ConcertResponse {
	return &ConcertResponse{
		ID:          c.ID,
		Name:        c.Name,
		Date:        c.Date.Format(time.DateOnly),
		Time:        c.Time,
		Location:    c.Location,
		Description: c.Description,
		Conductor:   c.Conductor,
	}
}

// ToConcertResponses converts a concert list
func ToConcertResponses(concerts []domain.Concert) []*ConcertResponse {
	out := make([]*ConcertResponse, 0, len(concerts))
	for i := range concerts {
		out = append(out, ToConcertResponse(&concerts[i]))
	}
	return out
}

// TicketTypeResponse represents one ticket type with live stock
type TicketTypeResponse struct {
	ID           int64   `json:"id"`
	ConcertID    int64   `json:"concert_id"`
	Position     int     `json:"position"`
	Label        string  `json:"label"`
	Description  string  `json:"description"`
	Price        float64 `json:"price"`
	QtyTotal     int     `json:"qty_total"`
	QtyAvailable int     `json:"qty_available"`
	QtySold      int     `json:"qty_sold"`
}

// ToTicketTypeResponse converts a domain ticket type to its API shape
func ToTicketTypeResponse(t *domain.TicketType) *TicketTypeResponse {
	return &TicketTypeResponse{
		ID:           t.ID,
		ConcertID:    t.ConcertID,
		Position:     t.Position,
		Label:        t.Label,
		Description:  t.Description,
		Price:        t.Price,
		QtyTotal:     t.QtyTotal,
		QtyAvailable: t.QtyAvailable,
		QtySold:      t.QtySold,
	}
}

// ToTicketTypeResponses converts a ticket type list
func ToTicketTypeResponses(types []domain.TicketType) []*TicketTypeResponse {
	out := make([]*TicketTypeResponse, 0, len(types))
	for i := range types {
		out = append(out, ToTicketTypeResponse(&types[i]))
	}
	return out
}
