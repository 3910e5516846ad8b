package handler

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"

	"github.com/concertline/tickets/internal/gateway"
	"github.com/concertline/tickets/internal/service"
	"github.com/concertline/tickets/pkg/logger"
)

// WebhookHandler handles Stripe webhook events
type WebhookHandler struct {
	checkoutService service.CheckoutService
	webhookSecret   string
}

// NewWebhookHandler creates a new WebhookHandler
func NewWebhookHandler(checkoutService service.CheckoutService, webhookSecret string) *WebhookHandler {
	return &WebhookHandler{
		checkoutService: checkoutService,
		webhookSecret:   webhookSecret,
	}
}

// HandleStripeWebhook handles POST /api/tickets/stripe-webhook
func (h *WebhookHandler) HandleStripeWebhook(c *gin.Context) {
	log := logger.Get()

	payload, err := io.ReadAll(c.Request.Body)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to read webhook body: %v", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read request body"})
		return
	}

	sigHeader := c.GetHeader("Stripe-Signature")
	if sigHeader == "" {
		log.Warn("Missing Stripe-Signature header")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing Stripe-Signature header"})
		return
	}

	event, err := webhook.ConstructEvent(payload, sigHeader, h.webhookSecret)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to verify webhook signature: %v", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid signature"})
		return
	}

	log.Info(fmt.Sprintf("Received Stripe webhook event: %s", event.Type))

	switch event.Type {
	case "checkout.session.completed":
		h.handleSessionCompleted(c, event)
	case "checkout.session.expired", "checkout.session.async_payment_failed":
		h.handleSessionFailed(c, event)
	default:
		log.Info(fmt.Sprintf("Unhandled event type: %s", event.Type))
		c.JSON(http.StatusOK, gin.H{"received": true, "message": "Event type not handled"})
	}
}

// handleSessionCompleted finalizes the order for a paid session
func (h *WebhookHandler) handleSessionCompleted(c *gin.Context, event stripe.Event) {
	log := logger.Get()

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Error(fmt.Sprintf("Failed to parse checkout.session.completed: %v", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event data"})
		return
	}

	info := &gateway.SessionInfo{
		SessionID:     session.ID,
		Status:        string(session.Status),
		PaymentStatus: string(session.PaymentStatus),
		Amount:        float64(session.AmountTotal) / 100,
		Currency:      string(session.Currency),
		Metadata:      session.Metadata,
	}
	if session.CustomerDetails != nil {
		info.CustomerEmail = session.CustomerDetails.Email
		info.CustomerName = session.CustomerDetails.Name
	}

	if err := h.checkoutService.HandleSessionCompleted(c.Request.Context(), info); err != nil {
		log.Error(fmt.Sprintf("Failed to finalize session %s: %v", session.ID, err))
		// Return 500 so Stripe retries delivery; finalization is idempotent
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to finalize order"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

// handleSessionFailed fails the order for an abandoned or declined session
func (h *WebhookHandler) handleSessionFailed(c *gin.Context, event stripe.Event) {
	log := logger.Get()

	var session stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &session); err != nil {
		log.Error(fmt.Sprintf("Failed to parse %s: %v", event.Type, err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse event data"})
		return
	}

	if err := h.checkoutService.HandleSessionExpired(c.Request.Context(), session.ID); err != nil {
		log.Error(fmt.Sprintf("Failed to expire session %s: %v", session.ID, err))
		// Acknowledge anyway, the order stays pending until retried
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}
