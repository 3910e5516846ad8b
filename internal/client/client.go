// Package client is the HTTP implementation of the purchase wizard's
// backend API, speaking the same envelope the handlers emit.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/concertline/tickets/internal/domain"
	"github.com/concertline/tickets/internal/dto"
	"github.com/concertline/tickets/internal/wizard"
	"github.com/concertline/tickets/pkg/response"
)

// Client talks to the ticket API over HTTP. It implements wizard.API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// New creates a Client for the given base URL
func New(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

func (c *Client) post(ctx context.Context, path string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	return decodeEnvelope(resp, out)
}

// apiError carries the server's error envelope for a non-2xx response
type apiError struct {
	status  int
	code    string
	message string
	details string
}

func (e *apiError) Error() string {
	if e.details != "" {
		return e.details
	}
	if e.message != "" {
		return e.message
	}
	return fmt.Sprintf("unexpected status code: %d", e.status)
}

func decodeEnvelope(resp *http.Response, out interface{}) error {
	var envelope response.Response
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("failed to decode response (status %d): %w", resp.StatusCode, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !envelope.Success {
		apiErr := &apiError{status: resp.StatusCode}
		if envelope.Error != nil {
			apiErr.code = envelope.Error.Code
			apiErr.message = envelope.Error.Message
			apiErr.details = envelope.Error.Details
		}
		return apiErr
	}

	if out != nil {
		data, err := json.Marshal(envelope.Data)
		if err != nil {
			return fmt.Errorf("failed to re-encode data: %w", err)
		}
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("failed to decode data: %w", err)
		}
	}
	return nil
}

// ListConcerts fetches the upcoming concert catalog
func (c *Client) ListConcerts(ctx context.Context) ([]domain.Concert, error) {
	var concerts []dto.ConcertResponse
	if err := c.get(ctx, "/api/tickets/concerts", &concerts); err != nil {
		return nil, err
	}

	out := make([]domain.Concert, 0, len(concerts))
	for _, cr := range concerts {
		date, err := time.Parse(time.DateOnly, cr.Date)
		if err != nil {
			return nil, fmt.Errorf("bad concert date %q: %w", cr.Date, err)
		}
		out = append(out, domain.Concert{
			ID:          cr.ID,
			Name:        cr.Name,
			Date:        date,
			Time:        cr.Time,
			Location:    cr.Location,
			Description: cr.Description,
			Conductor:   cr.Conductor,
		})
	}
	return out, nil
}

// ListTicketTypes fetches a concert's ticket types with live stock
func (c *Client) ListTicketTypes(ctx context.Context, concertID int64) ([]domain.TicketType, error) {
	var types []dto.TicketTypeResponse
	path := fmt.Sprintf("/api/tickets/concert/tickettypes?concert_id=%d", concertID)
	if err := c.get(ctx, path, &types); err != nil {
		return nil, err
	}

	out := make([]domain.TicketType, 0, len(types))
	for _, tr := range types {
		out = append(out, domain.TicketType{
			ID:           tr.ID,
			ConcertID:    tr.ConcertID,
			Position:     tr.Position,
			Label:        tr.Label,
			Description:  tr.Description,
			Price:        tr.Price,
			QtyTotal:     tr.QtyTotal,
			QtyAvailable: tr.QtyAvailable,
			QtySold:      tr.QtySold,
			Display:      true,
		})
	}
	return out, nil
}

// CreateCheckoutSession opens a payment session for the given line
// items. Server-side rejections come back as wizard.SessionError with
// the backend's detail intact.
func (c *Client) CreateCheckoutSession(ctx context.Context, concertID int64, items []wizard.LineItem) (*domain.CheckoutSession, error) {
	req := dto.CreateCheckoutSessionRequest{ConcertID: concertID}
	for _, item := range items {
		req.LineItems = append(req.LineItems, dto.CheckoutLineItem{
			TicketTypeID: item.TicketTypeID,
			Quantity:     item.Quantity,
		})
	}

	var sess dto.CheckoutSessionResponse
	if err := c.post(ctx, "/api/tickets/create-checkout-session", &req, &sess); err != nil {
		var apiErr *apiError
		if errors.As(err, &apiErr) && apiErr.status >= 400 && apiErr.status < 500 {
			return nil, &wizard.SessionError{Detail: apiErr.Error()}
		}
		return nil, err
	}

	return &domain.CheckoutSession{
		ID:           sess.SessionID,
		ClientSecret: sess.ClientSecret,
	}, nil
}

// GetOrderStatus reads an order's confirmation progress
func (c *Client) GetOrderStatus(ctx context.Context, sessionID string) (*domain.OrderStatus, error) {
	var status dto.OrderStatusResponse
	path := "/api/tickets/order-status?session_id=" + url.QueryEscape(sessionID)
	if err := c.get(ctx, path, &status); err != nil {
		return nil, err
	}

	return &domain.OrderStatus{
		Status:        domain.OrderState(status.Status),
		OrderID:       status.OrderID,
		CustomerEmail: status.CustomerEmail,
		CustomerName:  status.CustomerName,
		ConcertName:   status.ConcertName,
		TotalAmount:   status.TotalAmount,
		Currency:      status.Currency,
	}, nil
}
