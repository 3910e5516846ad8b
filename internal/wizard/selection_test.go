package wizard

import (
	"math/rand"
	"testing"

	"github.com/concertline/tickets/internal/domain"
)

func testTicketTypes() []domain.TicketType {
	return []domain.TicketType{
		{ID: 1, ConcertID: 1, Position: 1, Label: "Adult", Price: 22.00, QtyAvailable: 5},
		{ID: 2, ConcertID: 1, Position: 2, Label: "Concession", Price: 15.00, QtyAvailable: 3},
		{ID: 3, ConcertID: 1, Position: 3, Label: "Child", Price: 8.50, QtyAvailable: 0},
	}
}

func TestSelectionAdjustClamps(t *testing.T) {
	tests := []struct {
		name   string
		id     int64
		deltas []int
		want   int
	}{
		{name: "simple increment", id: 1, deltas: []int{1, 1}, want: 2},
		{name: "decrement below zero clamps to zero", id: 1, deltas: []int{1, -1, -1}, want: 0},
		{name: "increment beyond stock clamps to stock", id: 2, deltas: []int{1, 1, 1, 1, 1}, want: 3},
		{name: "large positive delta clamps to stock", id: 1, deltas: []int{10}, want: 5},
		{name: "sold out type stays at zero", id: 3, deltas: []int{1, 1}, want: 0},
		{name: "unknown type is ignored", id: 99, deltas: []int{1}, want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSelection(testTicketTypes())
			for _, d := range tt.deltas {
				s.Adjust(tt.id, d)
			}
			if got := s.Quantity(tt.id); got != tt.want {
				t.Errorf("Quantity(%d) = %d, want %d", tt.id, got, tt.want)
			}
		})
	}
}

func TestSelectionAdjustNeverLeavesBounds(t *testing.T) {
	types := testTicketTypes()
	s := NewSelection(types)
	rng := rand.New(rand.NewSource(1))

	for i := 0; i < 1000; i++ {
		id := types[rng.Intn(len(types))].ID
		s.Adjust(id, rng.Intn(7)-3)

		for _, tt := range types {
			q := s.Quantity(tt.ID)
			if q < 0 || q > tt.QtyAvailable {
				t.Fatalf("step %d: quantity for %s = %d, outside [0, %d]", i, tt.Label, q, tt.QtyAvailable)
			}
		}
	}
}

func TestSelectionTotals(t *testing.T) {
	s := NewSelection(testTicketTypes())
	s.Adjust(1, 3)
	s.Adjust(2, 2)

	if got := s.Total(); got != 5 {
		t.Errorf("Total() = %d, want 5", got)
	}
	if got := s.TotalPrice(); got != 96.00 {
		t.Errorf("TotalPrice() = %.2f, want 96.00", got)
	}
}

func TestSelectionLineItemsOmitZeroes(t *testing.T) {
	s := NewSelection(testTicketTypes())
	s.Adjust(2, 2)

	items := s.LineItems()
	if len(items) != 1 {
		t.Fatalf("LineItems() returned %d items, want 1", len(items))
	}
	if items[0].TicketTypeID != 2 || items[0].Quantity != 2 {
		t.Errorf("LineItems()[0] = %+v, want {TicketTypeID:2 Quantity:2}", items[0])
	}
}

func TestSelectionRefreshKeepsCountsClampToCaps(t *testing.T) {
	s := NewSelection(testTicketTypes())
	s.Adjust(1, 4)

	fresh := testTicketTypes()
	fresh[0].QtyAvailable = 2
	s.Refresh(fresh)

	if got := s.Quantity(1); got != 4 {
		t.Errorf("after Refresh, Quantity(1) = %d, want 4 (refresh alone does not clamp)", got)
	}

	s.ClampTo(1, fresh[0].QtyAvailable)
	if got := s.Quantity(1); got != 2 {
		t.Errorf("after ClampTo, Quantity(1) = %d, want 2", got)
	}
}

func TestSelectionClampToNeverRaises(t *testing.T) {
	s := NewSelection(testTicketTypes())
	s.Adjust(1, 1)

	s.ClampTo(1, 4)
	if got := s.Quantity(1); got != 1 {
		t.Errorf("ClampTo raised quantity to %d, want 1", got)
	}

	s.ClampTo(1, -2)
	if got := s.Quantity(1); got != 0 {
		t.Errorf("ClampTo with negative max left quantity at %d, want 0", got)
	}
}

func TestSelectionReset(t *testing.T) {
	s := NewSelection(testTicketTypes())
	s.Adjust(1, 2)
	s.Adjust(2, 1)
	s.Reset()

	if got := s.Total(); got != 0 {
		t.Errorf("Total() after Reset = %d, want 0", got)
	}
}
