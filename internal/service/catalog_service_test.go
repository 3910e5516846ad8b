package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/concertline/tickets/internal/domain"
)

func TestCatalogListTicketTypes(t *testing.T) {
	concerts := &mockConcertRepo{concerts: map[int64]*domain.Concert{
		1: {ID: 1, Name: "Winter Gala"},
	}}
	types := &mockTicketTypeRepo{types: map[int64]*domain.TicketType{
		10: {ID: 10, ConcertID: 1, Label: "Adult", Display: true},
		20: {ID: 20, ConcertID: 2, Label: "General", Display: true},
	}}
	svc := NewCatalogService(concerts, types)

	got, err := svc.ListTicketTypes(context.Background(), 1)
	assert.NoError(t, err)
	if assert.Len(t, got, 1) {
		assert.Equal(t, int64(10), got[0].ID)
	}
}

func TestCatalogListTicketTypesUnknownConcert(t *testing.T) {
	concerts := &mockConcertRepo{concerts: map[int64]*domain.Concert{}}
	types := &mockTicketTypeRepo{}
	svc := NewCatalogService(concerts, types)

	_, err := svc.ListTicketTypes(context.Background(), 9)
	assert.ErrorIs(t, err, domain.ErrConcertNotFound)
}

func TestCatalogListConcerts(t *testing.T) {
	concerts := &mockConcertRepo{concerts: map[int64]*domain.Concert{
		1: {ID: 1, Name: "Winter Gala"},
		2: {ID: 2, Name: "Spring Prom"},
	}}
	svc := NewCatalogService(concerts, &mockTicketTypeRepo{})

	got, err := svc.ListConcerts(context.Background())
	assert.NoError(t, err)
	assert.Len(t, got, 2)
}
