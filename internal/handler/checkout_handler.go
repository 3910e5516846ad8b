package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/concertline/tickets/internal/domain"
	"github.com/concertline/tickets/internal/dto"
	"github.com/concertline/tickets/internal/service"
	"github.com/concertline/tickets/pkg/response"
)

// CheckoutHandler handles checkout session HTTP requests
type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

// CreateCheckoutSession handles POST /api/tickets/create-checkout-session
func (h *CheckoutHandler) CreateCheckoutSession(c *gin.Context) {
	var req dto.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "Invalid request body")
		return
	}

	resp, err := h.checkoutService.CreateCheckoutSession(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRequest):
			response.BadRequest(c, err.Error())
		case errors.Is(err, domain.ErrConcertNotFound), errors.Is(err, domain.ErrTicketTypeNotFound):
			response.NotFound(c, err.Error())
		case errors.Is(err, domain.ErrInsufficientStock), errors.Is(err, service.ErrTicketTypeNotOnSale):
			response.UnprocessableEntity(c, "Cannot create checkout session", err.Error())
		default:
			response.InternalError(c, err)
		}
		return
	}
	response.Created(c, resp)
}

// GetOrderStatus handles GET /api/tickets/order-status?session_id=
func (h *CheckoutHandler) GetOrderStatus(c *gin.Context) {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		response.BadRequest(c, "session_id is required")
		return
	}

	status, err := h.checkoutService.GetOrderStatus(c.Request.Context(), sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrOrderNotFound) {
			response.NotFound(c, "Order not found")
			return
		}
		response.InternalError(c, err)
		return
	}
	response.Success(c, dto.ToOrderStatusResponse(status))
}
