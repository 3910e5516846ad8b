package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/concertline/tickets/internal/domain"
	"github.com/concertline/tickets/internal/dto"
	"github.com/concertline/tickets/internal/service"
	"github.com/concertline/tickets/pkg/response"
)

// ConcertHandler handles concert catalog HTTP requests
type ConcertHandler struct {
	catalogService service.CatalogService
}

// NewConcertHandler creates a new ConcertHandler
func NewConcertHandler(catalogService service.CatalogService) *ConcertHandler {
	return &ConcertHandler{
		catalogService: catalogService,
	}
}

// ListConcerts handles GET /api/tickets/concerts
func (h *ConcertHandler) ListConcerts(c *gin.Context) {
	concerts, err := h.catalogService.ListConcerts(c.Request.Context())
	if err != nil {
		response.InternalError(c, err)
		return
	}
	response.Success(c, dto.ToConcertResponses(concerts))
}

// ListTicketTypes handles GET /api/tickets/concert/tickettypes?concert_id=
func (h *ConcertHandler) ListTicketTypes(c *gin.Context) {
	concertID, err := strconv.ParseInt(c.Query("concert_id"), 10, 64)
	if err != nil || concertID <= 0 {
		response.BadRequest(c, "Valid concert_id is required")
		return
	}

	types, err := h.catalogService.ListTicketTypes(c.Request.Context(), concertID)
	if err != nil {
		if errors.Is(err, domain.ErrConcertNotFound) {
			response.NotFound(c, "Concert not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, dto.ToTicketTypeResponses(types))
}
