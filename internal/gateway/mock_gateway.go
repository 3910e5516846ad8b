package gateway

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"
)

// alphanumericChars for generating Stripe-compatible IDs
const alphanumericChars = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// randomAlphanumeric generates a random alphanumeric string of given length
func randomAlphanumeric(length int) string {
	b := make([]byte, length)
	for i := range b {
		b[i] = alphanumericChars[rand.Intn(len(alphanumericChars))]
	}
	return string(b)
}

// MockGateway implements CheckoutGateway in memory for testing and
// local development. Sessions start open and can be completed or
// expired explicitly.
type MockGateway struct {
	config   *MockGatewayConfig
	sessions sync.Map
}

// MockGatewayConfig holds configuration for the mock gateway
type MockGatewayConfig struct {
	// DelayMs is the simulated processing delay in milliseconds
	DelayMs int
}

// DefaultMockGatewayConfig returns default configuration
func DefaultMockGatewayConfig() *MockGatewayConfig {
	return &MockGatewayConfig{
		DelayMs: 0,
	}
}

// NewMockGateway creates a new mock gateway
func NewMockGateway(config *MockGatewayConfig) *MockGateway {
	if config == nil {
		config = DefaultMockGatewayConfig()
	}
	return &MockGateway{
		config: config,
	}
}

func (g *MockGateway) delay(ctx context.Context) error {
	if g.config.DelayMs <= 0 {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(g.config.DelayMs) * time.Millisecond):
		return nil
	}
}

// CreateSession creates a mock checkout session
func (g *MockGateway) CreateSession(ctx context.Context, req *SessionRequest) (*SessionResponse, error) {
	if req == nil {
		return nil, fmt.Errorf("session request is required")
	}
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("at least one line item is required")
	}
	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	var total float64
	for _, item := range req.Items {
		total += float64(item.Quantity) * item.UnitPrice
	}

	// Stripe-compatible ID format (alphanumeric only)
	sessionID := fmt.Sprintf("cs_mock_%s", randomAlphanumeric(24))
	clientSecret := fmt.Sprintf("%s_secret_%s", sessionID, randomAlphanumeric(24))

	g.sessions.Store(sessionID, &SessionInfo{
		SessionID:     sessionID,
		Status:        "open",
		PaymentStatus: "unpaid",
		Amount:        total,
		Currency:      req.Currency,
		Metadata:      req.Metadata,
	})

	return &SessionResponse{
		SessionID:    sessionID,
		ClientSecret: clientSecret,
		Amount:       total,
		Currency:     req.Currency,
	}, nil
}

// GetSession retrieves a mock session
func (g *MockGateway) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("session ID is required")
	}
	if err := g.delay(ctx); err != nil {
		return nil, err
	}

	sess, ok := g.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	info := *sess.(*SessionInfo)
	return &info, nil
}

// CompleteSession marks a session paid with the given customer
// details, the way a completed embedded form would.
func (g *MockGateway) CompleteSession(sessionID, email, name string) (*SessionInfo, error) {
	sess, ok := g.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}

	info := sess.(*SessionInfo)
	info.Status = "complete"
	info.PaymentStatus = "paid"
	info.CustomerEmail = email
	info.CustomerName = name
	g.sessions.Store(sessionID, info)

	out := *info
	return &out, nil
}

// ExpireSession marks a session expired without payment.
func (g *MockGateway) ExpireSession(sessionID string) error {
	sess, ok := g.sessions.Load(sessionID)
	if !ok {
		return fmt.Errorf("session not found: %s", sessionID)
	}

	info := sess.(*SessionInfo)
	info.Status = "expired"
	g.sessions.Store(sessionID, info)
	return nil
}

// Name returns the gateway name
func (g *MockGateway) Name() string {
	return "mock"
}
