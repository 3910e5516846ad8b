package wizard

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/concertline/tickets/internal/domain"
	"github.com/concertline/tickets/pkg/logger"
)

// PollerState is the confirmation poller's lifecycle phase
type PollerState string

const (
	// PollerAwaitingPayment means the embedded payment form is up and
	// no completion signal has arrived yet.
	PollerAwaitingPayment PollerState = "awaiting_payment"
	// PollerConfirming means the background poll loop is running.
	PollerConfirming PollerState = "confirming"
	// PollerComplete means the backend confirmed the order.
	PollerComplete PollerState = "complete"
	// PollerError means confirmation failed or the poll budget ran out.
	PollerError PollerState = "error"
)

// PollerConfig bounds the confirmation loop
type PollerConfig struct {
	Interval time.Duration
	Budget   int
}

// DefaultPollerConfig polls once a second for at most thirty polls.
func DefaultPollerConfig() *PollerConfig {
	return &PollerConfig{
		Interval: time.Second,
		Budget:   30,
	}
}

// ConfirmationPoller watches an order after the customer completes
// payment. Webhook delivery races the redirect, so the first polls
// routinely see pending; the loop keeps going until the order turns
// terminal or the budget is spent.
type ConfirmationPoller struct {
	api OrderStatusReader
	cfg *PollerConfig
	log *logger.Logger

	mu     sync.Mutex
	state  PollerState
	order  *domain.OrderStatus
	err    error
	cancel context.CancelFunc
	done   chan struct{}
}

// NewConfirmationPoller starts in the awaiting-payment state. Nil
// config gets the defaults.
func NewConfirmationPoller(api OrderStatusReader, cfg *PollerConfig) *ConfirmationPoller {
	if cfg == nil {
		cfg = DefaultPollerConfig()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Budget <= 0 {
		cfg.Budget = 30
	}
	return &ConfirmationPoller{
		api:   api,
		cfg:   cfg,
		log:   logger.Get(),
		state: PollerAwaitingPayment,
	}
}

// PaymentCompleted moves to confirming and launches the poll loop.
// The first poll fires immediately and counts against the budget.
func (p *ConfirmationPoller) PaymentCompleted(ctx context.Context, sessionID string) error {
	p.mu.Lock()
	if p.state != PollerAwaitingPayment {
		p.mu.Unlock()
		return ErrPollerAlreadyStarted
	}
	pollCtx, cancel := context.WithCancel(ctx)
	p.state = PollerConfirming
	p.cancel = cancel
	p.done = make(chan struct{})
	p.mu.Unlock()

	go p.run(pollCtx, sessionID)
	return nil
}

func (p *ConfirmationPoller) run(ctx context.Context, sessionID string) {
	defer close(p.done)

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for attempt := 1; attempt <= p.cfg.Budget; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}
		}

		status, err := p.api.GetOrderStatus(ctx, sessionID)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.log.Warn("order status poll failed",
				zap.String("session_id", sessionID),
				zap.Int("attempt", attempt),
				zap.Error(err))
			continue
		}

		switch status.Status {
		case domain.OrderStateConfirmed:
			p.finish(PollerComplete, status, nil)
			return
		case domain.OrderStateFailed:
			p.finish(PollerError, status, ErrConfirmationFailed)
			return
		}
	}

	p.finish(PollerError, nil, ErrConfirmationTimeout)
}

func (p *ConfirmationPoller) finish(state PollerState, order *domain.OrderStatus, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state != PollerConfirming {
		return
	}
	p.state = state
	p.order = order
	p.err = err
	if p.cancel != nil {
		p.cancel()
	}
}

// Stop cancels any in-flight polling. Safe to call repeatedly and
// from any state.
func (p *ConfirmationPoller) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// State returns the current lifecycle phase.
func (p *ConfirmationPoller) State() PollerState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Order returns the confirmed order summary, nil until complete.
func (p *ConfirmationPoller) Order() *domain.OrderStatus {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order
}

// Err reports why the poller entered the error state.
func (p *ConfirmationPoller) Err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.err
}

// Done returns a channel closed when the poll loop exits. Before
// PaymentCompleted it returns an already-closed channel.
func (p *ConfirmationPoller) Done() <-chan struct{} {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return p.done
}
