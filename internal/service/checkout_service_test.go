package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/concertline/tickets/internal/domain"
	"github.com/concertline/tickets/internal/dto"
	"github.com/concertline/tickets/internal/gateway"
)

// fakeTx satisfies pgx.Tx for services that only commit or roll back;
// repository mocks ignore the tx entirely.
type fakeTx struct {
	pgx.Tx
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit(ctx context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(ctx context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeDB struct {
	lastTx *fakeTx
}

func (d *fakeDB) Begin(ctx context.Context) (pgx.Tx, error) {
	d.lastTx = &fakeTx{}
	return d.lastTx, nil
}

type mockConcertRepo struct {
	concerts map[int64]*domain.Concert
}

func (m *mockConcertRepo) ListUpcoming(ctx context.Context) ([]domain.Concert, error) {
	var out []domain.Concert
	for _, c := range m.concerts {
		out = append(out, *c)
	}
	return out, nil
}

func (m *mockConcertRepo) GetByID(ctx context.Context, id int64) (*domain.Concert, error) {
	c, ok := m.concerts[id]
	if !ok {
		return nil, domain.ErrConcertNotFound
	}
	return c, nil
}

type mockTicketTypeRepo struct {
	types        map[int64]*domain.TicketType
	stockUpdates map[int64][2]int
}

func (m *mockTicketTypeRepo) ListByConcert(ctx context.Context, concertID int64) ([]domain.TicketType, error) {
	var out []domain.TicketType
	for _, t := range m.types {
		if t.ConcertID == concertID {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockTicketTypeRepo) GetByID(ctx context.Context, id int64) (*domain.TicketType, error) {
	t, ok := m.types[id]
	if !ok {
		return nil, domain.ErrTicketTypeNotFound
	}
	out := *t
	return &out, nil
}

func (m *mockTicketTypeRepo) UpdateStock(ctx context.Context, tx pgx.Tx, id int64, qtySold, qtyAvailable int) error {
	if m.stockUpdates == nil {
		m.stockUpdates = make(map[int64][2]int)
	}
	m.stockUpdates[id] = [2]int{qtySold, qtyAvailable}
	return nil
}

type mockOrderRepo struct {
	orders  map[string]*domain.Order
	items   map[int64][]domain.OrderItem
	tickets []domain.Ticket
	sold    map[int64]int
	nextID  int64
}

func newMockOrderRepo() *mockOrderRepo {
	return &mockOrderRepo{
		orders: make(map[string]*domain.Order),
		items:  make(map[int64][]domain.OrderItem),
		sold:   make(map[int64]int),
		nextID: 7,
	}
}

func (m *mockOrderRepo) Create(ctx context.Context, order *domain.Order, items []domain.OrderItem) error {
	order.ID = m.nextID
	m.nextID++
	m.orders[order.SessionID] = order
	m.items[order.ID] = items
	return nil
}

func (m *mockOrderRepo) GetBySessionID(ctx context.Context, sessionID string) (*domain.Order, error) {
	order, ok := m.orders[sessionID]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	out := *order
	return &out, nil
}

func (m *mockOrderRepo) ListItems(ctx context.Context, orderID int64) ([]domain.OrderItem, error) {
	return m.items[orderID], nil
}

func (m *mockOrderRepo) Update(ctx context.Context, tx pgx.Tx, order *domain.Order) error {
	if _, ok := m.orders[order.SessionID]; !ok {
		return domain.ErrOrderNotFound
	}
	out := *order
	m.orders[order.SessionID] = &out
	return nil
}

func (m *mockOrderRepo) CreateTickets(ctx context.Context, tx pgx.Tx, tickets []domain.Ticket) error {
	m.tickets = append(m.tickets, tickets...)
	for _, t := range tickets {
		m.sold[t.TicketTypeID]++
	}
	return nil
}

func (m *mockOrderRepo) CountSoldByType(ctx context.Context, tx pgx.Tx, concertID int64) (map[int64]int, error) {
	out := make(map[int64]int, len(m.sold))
	for k, v := range m.sold {
		out[k] = v
	}
	return out, nil
}

type capturedEvent struct {
	topic string
	key   string
	value interface{}
}

type mockPublisher struct {
	events []capturedEvent
	err    error
}

func (m *mockPublisher) ProduceJSON(ctx context.Context, topic, key string, value interface{}, headers map[string]string) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, capturedEvent{topic: topic, key: key, value: value})
	return nil
}

type mockInvalidator struct {
	concertIDs []int64
}

func (m *mockInvalidator) InvalidateConcert(ctx context.Context, concertID int64) {
	m.concertIDs = append(m.concertIDs, concertID)
}

type checkoutFixture struct {
	db          *fakeDB
	concerts    *mockConcertRepo
	types       *mockTicketTypeRepo
	orders      *mockOrderRepo
	gw          *gateway.MockGateway
	publisher   *mockPublisher
	invalidator *mockInvalidator
	svc         CheckoutService
}

func newCheckoutFixture() *checkoutFixture {
	f := &checkoutFixture{
		db: &fakeDB{},
		concerts: &mockConcertRepo{concerts: map[int64]*domain.Concert{
			1: {ID: 1, Name: "Winter Gala", Date: time.Now().AddDate(0, 1, 0)},
		}},
		types: &mockTicketTypeRepo{types: map[int64]*domain.TicketType{
			10: {ID: 10, ConcertID: 1, Position: 1, Label: "Adult", Price: 22.00, QtyTotal: 100, QtyAvailable: 5, QtySold: 95, Display: true},
			11: {ID: 11, ConcertID: 1, Position: 2, Label: "Concession", Price: 15.00, QtyTotal: 50, QtyAvailable: 50, Display: true},
			12: {ID: 12, ConcertID: 1, Position: 3, Label: "Patron", Price: 50.00, QtyTotal: 10, QtyAvailable: 10, Display: false},
		}},
		orders:      newMockOrderRepo(),
		gw:          gateway.NewMockGateway(nil),
		publisher:   &mockPublisher{},
		invalidator: &mockInvalidator{},
	}
	f.svc = NewCheckoutService(CheckoutServiceConfig{
		DB:          f.db,
		ConcertRepo: f.concerts,
		TypeRepo:    f.types,
		OrderRepo:   f.orders,
		Gateway:     f.gw,
		Publisher:   f.publisher,
		Invalidator: f.invalidator,
		Currency:    "gbp",
	})
	return f
}

func (f *checkoutFixture) createSession(t *testing.T, items ...dto.CheckoutLineItem) *dto.CheckoutSessionResponse {
	t.Helper()
	resp, err := f.svc.CreateCheckoutSession(context.Background(), &dto.CreateCheckoutSessionRequest{
		ConcertID: 1,
		LineItems: items,
	})
	if err != nil {
		t.Fatalf("CreateCheckoutSession: %v", err)
	}
	return resp
}

func TestCreateCheckoutSession(t *testing.T) {
	f := newCheckoutFixture()

	resp := f.createSession(t,
		dto.CheckoutLineItem{TicketTypeID: 10, Quantity: 3},
	)

	if resp.SessionID == "" || resp.ClientSecret == "" {
		t.Fatal("response missing session id or client secret")
	}

	order, err := f.orders.GetBySessionID(context.Background(), resp.SessionID)
	if err != nil {
		t.Fatalf("order not recorded: %v", err)
	}
	if order.Status != domain.OrderStatePending {
		t.Errorf("order status = %s, want %s", order.Status, domain.OrderStatePending)
	}
	if order.TotalAmount != 66.00 {
		t.Errorf("order total = %.2f, want 66.00", order.TotalAmount)
	}
	if order.Currency != "gbp" {
		t.Errorf("order currency = %s, want gbp", order.Currency)
	}
}

func TestCreateCheckoutSessionRejections(t *testing.T) {
	tests := []struct {
		name    string
		req     *dto.CreateCheckoutSessionRequest
		wantErr error
	}{
		{
			name:    "unknown concert",
			req:     &dto.CreateCheckoutSessionRequest{ConcertID: 99, LineItems: []dto.CheckoutLineItem{{TicketTypeID: 10, Quantity: 1}}},
			wantErr: domain.ErrConcertNotFound,
		},
		{
			name:    "unknown ticket type",
			req:     &dto.CreateCheckoutSessionRequest{ConcertID: 1, LineItems: []dto.CheckoutLineItem{{TicketTypeID: 99, Quantity: 1}}},
			wantErr: domain.ErrTicketTypeNotFound,
		},
		{
			name:    "hidden ticket type",
			req:     &dto.CreateCheckoutSessionRequest{ConcertID: 1, LineItems: []dto.CheckoutLineItem{{TicketTypeID: 12, Quantity: 1}}},
			wantErr: ErrTicketTypeNotOnSale,
		},
		{
			name:    "quantity above stock",
			req:     &dto.CreateCheckoutSessionRequest{ConcertID: 1, LineItems: []dto.CheckoutLineItem{{TicketTypeID: 10, Quantity: 6}}},
			wantErr: domain.ErrInsufficientStock,
		},
		{
			name:    "empty line items",
			req:     &dto.CreateCheckoutSessionRequest{ConcertID: 1},
			wantErr: ErrInvalidRequest,
		},
		{
			name: "duplicate line items",
			req: &dto.CreateCheckoutSessionRequest{ConcertID: 1, LineItems: []dto.CheckoutLineItem{
				{TicketTypeID: 10, Quantity: 1},
				{TicketTypeID: 10, Quantity: 2},
			}},
			wantErr: ErrInvalidRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCheckoutFixture()
			_, err := f.svc.CreateCheckoutSession(context.Background(), tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateCheckoutSession error = %v, want %v", err, tt.wantErr)
			}
			if len(f.orders.orders) != 0 {
				t.Error("no order should be recorded on rejection")
			}
		})
	}
}

func TestGetOrderStatusPendingThenConfirmed(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	resp := f.createSession(t, dto.CheckoutLineItem{TicketTypeID: 10, Quantity: 3})

	status, err := f.svc.GetOrderStatus(ctx, resp.SessionID)
	if err != nil {
		t.Fatalf("GetOrderStatus: %v", err)
	}
	if status.Status != domain.OrderStatePending {
		t.Errorf("status = %s, want %s", status.Status, domain.OrderStatePending)
	}

	session, err := f.gw.CompleteSession(resp.SessionID, "alice@example.com", "Alice Adams")
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if err := f.svc.HandleSessionCompleted(ctx, session); err != nil {
		t.Fatalf("HandleSessionCompleted: %v", err)
	}

	status, err = f.svc.GetOrderStatus(ctx, resp.SessionID)
	if err != nil {
		t.Fatalf("GetOrderStatus: %v", err)
	}
	if status.Status != domain.OrderStateConfirmed {
		t.Errorf("status = %s, want %s", status.Status, domain.OrderStateConfirmed)
	}
	if status.OrderID != 7 {
		t.Errorf("order id = %d, want 7", status.OrderID)
	}
	if status.TotalAmount != 66.00 || status.Currency != "gbp" {
		t.Errorf("total = %.2f %s, want 66.00 gbp", status.TotalAmount, status.Currency)
	}
	if status.CustomerEmail != "alice@example.com" || status.CustomerName != "Alice Adams" {
		t.Errorf("customer = %s/%s, want alice@example.com/Alice Adams", status.CustomerEmail, status.CustomerName)
	}
	if status.ConcertName != "Winter Gala" {
		t.Errorf("concert name = %s, want Winter Gala", status.ConcertName)
	}
}

func TestGetOrderStatusUnknownSession(t *testing.T) {
	f := newCheckoutFixture()

	_, err := f.svc.GetOrderStatus(context.Background(), "cs_missing")
	if !errors.Is(err, domain.ErrOrderNotFound) {
		t.Errorf("GetOrderStatus = %v, want %v", err, domain.ErrOrderNotFound)
	}
}

func TestHandleSessionCompletedMintsTicketsAndRecalculatesStock(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	resp := f.createSession(t,
		dto.CheckoutLineItem{TicketTypeID: 10, Quantity: 2},
		dto.CheckoutLineItem{TicketTypeID: 11, Quantity: 1},
	)

	session, err := f.gw.CompleteSession(resp.SessionID, "bob@example.com", "Bob Brown")
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if err := f.svc.HandleSessionCompleted(ctx, session); err != nil {
		t.Fatalf("HandleSessionCompleted: %v", err)
	}

	if len(f.orders.tickets) != 3 {
		t.Fatalf("minted %d tickets, want 3", len(f.orders.tickets))
	}
	serials := make(map[string]bool)
	for _, ticket := range f.orders.tickets {
		if !ticket.Valid {
			t.Error("minted ticket should be valid")
		}
		if ticket.Serial == "" || serials[ticket.Serial] {
			t.Errorf("ticket serial %q must be unique and non-empty", ticket.Serial)
		}
		serials[ticket.Serial] = true
		if ticket.TransactionID != resp.SessionID {
			t.Errorf("ticket transaction id = %s, want %s", ticket.TransactionID, resp.SessionID)
		}
		if ticket.Email != "bob@example.com" {
			t.Errorf("ticket email = %s, want bob@example.com", ticket.Email)
		}
	}

	// 95 already sold plus the 2 just minted.
	if got := f.types.stockUpdates[10]; got != [2]int{97, 3} {
		t.Errorf("stock update for type 10 = %v, want [97 3]", got)
	}
	if got := f.types.stockUpdates[11]; got != [2]int{1, 49} {
		t.Errorf("stock update for type 11 = %v, want [1 49]", got)
	}

	if f.db.lastTx == nil || !f.db.lastTx.committed {
		t.Error("finalization should commit its transaction")
	}
	if len(f.invalidator.concertIDs) != 1 || f.invalidator.concertIDs[0] != 1 {
		t.Errorf("cache invalidations = %v, want [1]", f.invalidator.concertIDs)
	}

	if len(f.publisher.events) != 1 {
		t.Fatalf("published %d events, want 1", len(f.publisher.events))
	}
	ev := f.publisher.events[0]
	if ev.topic != orderConfirmedTopic || ev.key != resp.SessionID {
		t.Errorf("event topic/key = %s/%s, want %s/%s", ev.topic, ev.key, orderConfirmedTopic, resp.SessionID)
	}
	confirmed, ok := ev.value.(OrderConfirmedEvent)
	if !ok {
		t.Fatalf("event value has type %T", ev.value)
	}
	if confirmed.TicketCount != 3 || confirmed.CustomerEmail != "bob@example.com" {
		t.Errorf("event = %+v, want 3 tickets for bob@example.com", confirmed)
	}
}

func TestHandleSessionCompletedIsIdempotent(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	resp := f.createSession(t, dto.CheckoutLineItem{TicketTypeID: 10, Quantity: 2})
	session, err := f.gw.CompleteSession(resp.SessionID, "carol@example.com", "Carol Clark")
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	if err := f.svc.HandleSessionCompleted(ctx, session); err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if err := f.svc.HandleSessionCompleted(ctx, session); err != nil {
		t.Fatalf("redelivery: %v", err)
	}

	if len(f.orders.tickets) != 2 {
		t.Errorf("minted %d tickets across redeliveries, want 2", len(f.orders.tickets))
	}
	if len(f.publisher.events) != 1 {
		t.Errorf("published %d events across redeliveries, want 1", len(f.publisher.events))
	}
}

func TestHandleSessionExpired(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	resp := f.createSession(t, dto.CheckoutLineItem{TicketTypeID: 10, Quantity: 1})
	if err := f.svc.HandleSessionExpired(ctx, resp.SessionID); err != nil {
		t.Fatalf("HandleSessionExpired: %v", err)
	}

	status, err := f.svc.GetOrderStatus(ctx, resp.SessionID)
	if err != nil {
		t.Fatalf("GetOrderStatus: %v", err)
	}
	if status.Status != domain.OrderStateFailed {
		t.Errorf("status = %s, want %s", status.Status, domain.OrderStateFailed)
	}
}

func TestHandleSessionExpiredAfterConfirmationIsNoOp(t *testing.T) {
	f := newCheckoutFixture()
	ctx := context.Background()

	resp := f.createSession(t, dto.CheckoutLineItem{TicketTypeID: 10, Quantity: 1})
	session, err := f.gw.CompleteSession(resp.SessionID, "dan@example.com", "Dan Diaz")
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}
	if err := f.svc.HandleSessionCompleted(ctx, session); err != nil {
		t.Fatalf("HandleSessionCompleted: %v", err)
	}

	if err := f.svc.HandleSessionExpired(ctx, resp.SessionID); err != nil {
		t.Fatalf("HandleSessionExpired: %v", err)
	}

	status, _ := f.svc.GetOrderStatus(ctx, resp.SessionID)
	if status.Status != domain.OrderStateConfirmed {
		t.Errorf("status = %s, confirmed orders must not be failed by late expiry", status.Status)
	}
}

func TestPublishFailureDoesNotFailFinalization(t *testing.T) {
	f := newCheckoutFixture()
	f.publisher.err = errors.New("broker unavailable")
	ctx := context.Background()

	resp := f.createSession(t, dto.CheckoutLineItem{TicketTypeID: 10, Quantity: 1})
	session, err := f.gw.CompleteSession(resp.SessionID, "eve@example.com", "Eve Evans")
	if err != nil {
		t.Fatalf("CompleteSession: %v", err)
	}

	if err := f.svc.HandleSessionCompleted(ctx, session); err != nil {
		t.Fatalf("HandleSessionCompleted: %v", err)
	}

	status, _ := f.svc.GetOrderStatus(ctx, resp.SessionID)
	if status.Status != domain.OrderStateConfirmed {
		t.Errorf("status = %s, want confirmed despite publish failure", status.Status)
	}
}
