package service

import (
	"context"

	"github.com/concertline/tickets/internal/domain"
	"github.com/concertline/tickets/internal/repository"
	"github.com/concertline/tickets/pkg/telemetry"
)

// catalogService implements CatalogService
type catalogService struct {
	concertRepo repository.ConcertRepository
	typeRepo    repository.TicketTypeRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(concertRepo repository.ConcertRepository, typeRepo repository.TicketTypeRepository) CatalogService {
	return &catalogService{
		concertRepo: concertRepo,
		typeRepo:    typeRepo,
	}
}

// ListConcerts lists upcoming concerts
func (s *catalogService) ListConcerts(ctx context.Context) ([]domain.Concert, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.list_concerts")
	defer span.End()

	return s.concertRepo.ListUpcoming(ctx)
}

// ListTicketTypes lists a concert's displayable ticket types with live stock
func (s *catalogService) ListTicketTypes(ctx context.Context, concertID int64) ([]domain.TicketType, error) {
	ctx, span := telemetry.StartSpan(ctx, "service.catalog.list_ticket_types")
	defer span.End()

	if _, err := s.concertRepo.GetByID(ctx, concertID); err != nil {
		return nil, err
	}
	return s.typeRepo.ListByConcert(ctx, concertID)
}
