package gateway

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// StripeGateway implements CheckoutGateway using Stripe embedded
// checkout sessions
type StripeGateway struct {
	config *StripeGatewayConfig
}

// StripeGatewayConfig holds configuration for the Stripe gateway
type StripeGatewayConfig struct {
	SecretKey     string
	WebhookSecret string
	ReturnURL     string
}

// NewStripeGateway creates a new Stripe gateway
func NewStripeGateway(config *StripeGatewayConfig) (*StripeGateway, error) {
	if config == nil {
		return nil, fmt.Errorf("stripe config is required")
	}
	if config.SecretKey == "" {
		return nil, fmt.Errorf("stripe secret key is required")
	}

	// Set Stripe API key globally
	stripe.Key = config.SecretKey

	return &StripeGateway{
		config: config,
	}, nil
}

// CreateSession creates an embedded Stripe Checkout session
func (g *StripeGateway) CreateSession(ctx context.Context, req *SessionRequest) (*SessionResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("session request is required")
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("at least one line item is required")
	}

	var total float64
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(req.Items))
	for _, item := range req.Items {
		lineItem := &stripe.CheckoutSessionLineItemParams{
			Quantity: stripe.Int64(int64(item.Quantity)),
		}
		if item.PriceID != "" {
			lineItem.Price = stripe.String(item.PriceID)
		} else {
			// Stripe expects the smallest currency unit
			lineItem.PriceData = &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency:   stripe.String(req.Currency),
				UnitAmount: stripe.Int64(int64(item.UnitPrice * 100)),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
			}
		}
		lineItems = append(lineItems, lineItem)
		total += float64(item.Quantity) * item.UnitPrice
	}

	params := &stripe.CheckoutSessionParams{
		UIMode:    stripe.String(string(stripe.CheckoutSessionUIModeEmbedded)),
		Mode:      stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: lineItems,
	}
	if req.ReturnURL != "" {
		params.ReturnURL = stripe.String(req.ReturnURL)
	} else if g.config.ReturnURL != "" {
		params.ReturnURL = stripe.String(g.config.ReturnURL)
	}
	if len(req.Metadata) > 0 {
		params.Metadata = req.Metadata
	}

	sess, err := session.New(params)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &SessionResponse{
		SessionID:    sess.ID,
		ClientSecret: sess.ClientSecret,
		Amount:       total,
		Currency:     req.Currency,
	}, nil
}

// GetSession retrieves a checkout session from Stripe
func (g *StripeGateway) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}

	sess, err := session.Get(sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get checkout session: %w", err)
	}

	info := &SessionInfo{
		SessionID:     sess.ID,
		Status:        string(sess.Status),
		PaymentStatus: string(sess.PaymentStatus),
		Amount:        float64(sess.AmountTotal) / 100,
		Currency:      string(sess.Currency),
		Metadata:      sess.Metadata,
	}
	if sess.CustomerDetails != nil {
		info.CustomerEmail = sess.CustomerDetails.Email
		info.CustomerName = sess.CustomerDetails.Name
	}
	return info, nil
}

// Name returns the gateway name
func (g *StripeGateway) Name() string {
	return "stripe"
}
