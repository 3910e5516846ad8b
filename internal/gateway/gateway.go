package gateway

import (
	"context"
	"fmt"
)

// CheckoutGateway abstracts the payment processor behind session
// creation. The embedded payment form runs against the processor
// directly; the backend only mints sessions and verifies webhooks.
type CheckoutGateway interface {
	// CreateSession opens an embedded checkout session for the given
	// line items and returns its id and client secret.
	CreateSession(ctx context.Context, req *SessionRequest) (*SessionResponse, error)

	// GetSession retrieves a session's current processor-side state.
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)

	// Name returns the gateway name
	Name() string
}

// SessionRequest describes one checkout session
type SessionRequest struct {
	Currency  string
	ReturnURL string
	Items     []SessionItem
	Metadata  map[string]string
}

// SessionItem is one priced line in a session
type SessionItem struct {
	Name      string
	UnitPrice float64
	Quantity  int
	PriceID   string // processor price reference, used instead of UnitPrice when set
}

// SessionResponse is the minted session handed back to the client
type SessionResponse struct {
	SessionID    string
	ClientSecret string
	Amount       float64
	Currency     string
}

// SessionInfo is a session's processor-side state
type SessionInfo struct {
	SessionID     string
	Status        string
	PaymentStatus string
	CustomerEmail string
	CustomerName  string
	Amount        float64
	Currency      string
	Metadata      map[string]string
}

// Config selects and configures the gateway implementation
type Config struct {
	Gateway       string // "stripe" or "mock"
	SecretKey     string
	WebhookSecret string
	ReturnURL     string
}

// New creates the configured gateway implementation.
func New(cfg *Config) (CheckoutGateway, error) {
	if cfg == nil {
		return nil, fmt.Errorf("gateway config is required")
	}

	switch cfg.Gateway {
	case "stripe":
		return NewStripeGateway(&StripeGatewayConfig{
			SecretKey:     cfg.SecretKey,
			WebhookSecret: cfg.WebhookSecret,
			ReturnURL:     cfg.ReturnURL,
		})
	case "mock", "":
		return NewMockGateway(nil), nil
	default:
		return nil, fmt.Errorf("unknown gateway: %s", cfg.Gateway)
	}
}
