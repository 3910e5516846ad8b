package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/concertline/tickets/internal/wizard"
	"github.com/concertline/tickets/pkg/response"
)

func envelope(data interface{}) []byte {
	b, _ := json.Marshal(response.Response{Success: true, Data: data})
	return b
}

func errorEnvelope(code, message, details string) []byte {
	b, _ := json.Marshal(response.Response{
		Success: false,
		Error:   &response.ErrorData{Code: code, Message: message, Details: details},
	})
	return b
}

func TestClientListConcerts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/tickets/concerts" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write(envelope([]map[string]interface{}{
			{"id": 1, "name": "Winter Gala", "date": "2026-12-12", "time": "19:30", "location": "City Hall"},
		}))
	}))
	defer server.Close()

	concerts, err := New(server.URL).ListConcerts(context.Background())
	if err != nil {
		t.Fatalf("ListConcerts: %v", err)
	}
	if len(concerts) != 1 {
		t.Fatalf("got %d concerts, want 1", len(concerts))
	}
	c := concerts[0]
	if c.ID != 1 || c.Name != "Winter Gala" || c.Time != "19:30" {
		t.Errorf("concert = %+v", c)
	}
	if got := c.Date.Format("2006-01-02"); got != "2026-12-12" {
		t.Errorf("date = %s, want 2026-12-12", got)
	}
}

func TestClientListTicketTypes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("concert_id"); got != "3" {
			t.Errorf("concert_id = %s, want 3", got)
		}
		w.Write(envelope([]map[string]interface{}{
			{"id": 10, "concert_id": 3, "position": 1, "label": "Adult", "price": 22.0, "qty_total": 100, "qty_available": 5, "qty_sold": 95},
		}))
	}))
	defer server.Close()

	types, err := New(server.URL).ListTicketTypes(context.Background(), 3)
	if err != nil {
		t.Fatalf("ListTicketTypes: %v", err)
	}
	if len(types) != 1 || types[0].Label != "Adult" || types[0].QtyAvailable != 5 {
		t.Errorf("types = %+v", types)
	}
}

func TestClientCreateCheckoutSession(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]interface{}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req["concert_id"].(float64) != 1 {
			t.Errorf("concert_id = %v, want 1", req["concert_id"])
		}
		w.WriteHeader(http.StatusCreated)
		w.Write(envelope(map[string]string{
			"session_id":    "cs_test_9",
			"client_secret": "cs_test_9_secret",
		}))
	}))
	defer server.Close()

	sess, err := New(server.URL).CreateCheckoutSession(context.Background(), 1, []wizard.LineItem{
		{TicketTypeID: 10, Quantity: 3},
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	if sess.ID != "cs_test_9" || sess.ClientSecret != "cs_test_9_secret" {
		t.Errorf("session = %+v", sess)
	}
}

func TestClientCreateCheckoutSessionRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write(errorEnvelope("UNPROCESSABLE", "Cannot create checkout session", "only 2 Adult tickets available"))
	}))
	defer server.Close()

	_, err := New(server.URL).CreateCheckoutSession(context.Background(), 1, []wizard.LineItem{
		{TicketTypeID: 10, Quantity: 5},
	})

	var sessErr *wizard.SessionError
	if !errors.As(err, &sessErr) {
		t.Fatalf("error = %v, want SessionError", err)
	}
	if sessErr.Detail != "only 2 Adult tickets available" {
		t.Errorf("detail = %q, backend detail must pass through verbatim", sessErr.Detail)
	}
}

func TestClientGetOrderStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("session_id"); got != "cs_test_9" {
			t.Errorf("session_id = %s", got)
		}
		w.Write(envelope(map[string]interface{}{
			"status": "confirmed", "order_id": 7, "total_amount": 66.0, "currency": "gbp",
		}))
	}))
	defer server.Close()

	status, err := New(server.URL).GetOrderStatus(context.Background(), "cs_test_9")
	if err != nil {
		t.Fatalf("GetOrderStatus: %v", err)
	}
	if string(status.Status) != "confirmed" || status.OrderID != 7 || status.TotalAmount != 66.0 {
		t.Errorf("status = %+v", status)
	}
}

func TestClientGetOrderStatusEscapesSessionID(t *testing.T) {
	raw := "cs_test a+b&c=d"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("session_id"); got != raw {
			t.Errorf("session_id = %q, want %q", got, raw)
		}
		w.Write(envelope(map[string]interface{}{"status": "pending"}))
	}))
	defer server.Close()

	status, err := New(server.URL).GetOrderStatus(context.Background(), raw)
	if err != nil {
		t.Fatalf("GetOrderStatus: %v", err)
	}
	if string(status.Status) != "pending" {
		t.Errorf("status = %+v", status)
	}
}

func TestClientServerErrorIsNotSessionError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write(errorEnvelope("INTERNAL_ERROR", "Internal Server Error", ""))
	}))
	defer server.Close()

	_, err := New(server.URL).CreateCheckoutSession(context.Background(), 1, []wizard.LineItem{
		{TicketTypeID: 10, Quantity: 1},
	})

	var sessErr *wizard.SessionError
	if errors.As(err, &sessErr) {
		t.Error("5xx responses should surface as plain errors, not session rejections")
	}
	if err == nil {
		t.Error("expected an error")
	}
}
