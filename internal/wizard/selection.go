package wizard

import "github.com/concertline/tickets/internal/domain"

// Selection tracks the per-type quantities the customer has picked,
// bounded by the most recent ticket type snapshot. Quantities for
// types absent from the snapshot are ignored.
type Selection struct {
	types  []domain.TicketType
	index  map[int64]int
	counts map[int64]int
}

// NewSelection starts every quantity at zero against the given snapshot.
func NewSelection(types []domain.TicketType) *Selection {
	s := &Selection{counts: make(map[int64]int)}
	s.setTypes(types)
	return s
}

func (s *Selection) setTypes(types []domain.TicketType) {
	s.types = make([]domain.TicketType, len(types))
	copy(s.types, types)
	s.index = make(map[int64]int, len(types))
	for i, t := range s.types {
		s.index[t.ID] = i
	}
}

// Refresh replaces the snapshot. Existing quantities are kept as-is;
// re-validation is what brings them back within the fresh bounds.
func (s *Selection) Refresh(types []domain.TicketType) {
	s.setTypes(types)
}

// Adjust moves the quantity for a ticket type by delta, clamping the
// result to [0, available]. Unknown ids are ignored.
func (s *Selection) Adjust(ticketTypeID int64, delta int) {
	i, ok := s.index[ticketTypeID]
	if !ok {
		return
	}
	q := s.counts[ticketTypeID] + delta
	if q < 0 {
		q = 0
	}
	if max := s.types[i].QtyAvailable; q > max {
		q = max
	}
	s.counts[ticketTypeID] = q
}

// ClampTo caps a quantity at max without raising it. Used after a
// fresh fetch shows less stock than the customer asked for.
func (s *Selection) ClampTo(ticketTypeID int64, max int) {
	if max < 0 {
		max = 0
	}
	if s.counts[ticketTypeID] > max {
		s.counts[ticketTypeID] = max
	}
}

// Quantity returns the current count for a ticket type.
func (s *Selection) Quantity(ticketTypeID int64) int {
	return s.counts[ticketTypeID]
}

// Total is the sum of all selected quantities.
func (s *Selection) Total() int {
	total := 0
	for id := range s.index {
		total += s.counts[id]
	}
	return total
}

// TotalPrice is the order total for the current quantities.
func (s *Selection) TotalPrice() float64 {
	var total float64
	for _, t := range s.types {
		total += float64(s.counts[t.ID]) * t.Price
	}
	return total
}

// Types returns the current snapshot in display order.
func (s *Selection) Types() []domain.TicketType {
	out := make([]domain.TicketType, len(s.types))
	copy(out, s.types)
	return out
}

// LineItems lists the non-zero quantities in snapshot order, ready to
// submit to session creation.
func (s *Selection) LineItems() []LineItem {
	var items []LineItem
	for _, t := range s.types {
		if q := s.counts[t.ID]; q > 0 {
			items = append(items, LineItem{TicketTypeID: t.ID, Quantity: q})
		}
	}
	return items
}

// Reset zeroes every quantity, keeping the snapshot.
func (s *Selection) Reset() {
	s.counts = make(map[int64]int)
}
