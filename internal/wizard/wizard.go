package wizard

import (
	"context"
	"time"

	"github.com/concertline/tickets/internal/domain"
	"github.com/concertline/tickets/pkg/logger"
)

// Step identifies the wizard's current screen
type Step string

const (
	// StepSelectConcert lists upcoming concerts.
	StepSelectConcert Step = "selecting_concert"
	// StepSelectTickets shows quantity steppers per ticket type.
	StepSelectTickets Step = "selecting_tickets"
	// StepCheckout hosts the embedded payment form and, after
	// completion, the confirmation poll.
	StepCheckout Step = "checkout"
)

// Config carries the knobs the purchase flow needs from the host app
type Config struct {
	// ProcessorPublicKey is the payment processor's publishable key,
	// handed to the embedded payment form together with the session
	// client secret.
	ProcessorPublicKey string
	// PollInterval is the confirmation poll cadence.
	PollInterval time.Duration
	// PollBudget caps how many polls run before giving up.
	PollBudget int
}

// DefaultConfig matches production cadence: one poll a second, thirty
// polls before timing out.
func DefaultConfig() *Config {
	return &Config{
		PollInterval: time.Second,
		PollBudget:   30,
	}
}

// Wizard drives the three-step purchase flow: pick a concert, pick
// quantities, pay. Steps only advance through the Continue methods so
// their preconditions always hold.
//
// Wizard is not safe for concurrent use; it belongs to a single UI
// loop. The poller it spawns is the one concurrent piece and guards
// itself.
type Wizard struct {
	api API
	cfg *Config
	log *logger.Logger

	step      Step
	concerts  []domain.Concert
	concert   *domain.Concert
	selection *Selection
	session   *domain.CheckoutSession
	poller    *ConfirmationPoller
}

// New starts at the concert list. Nil config gets the defaults.
func New(api API, cfg *Config) *Wizard {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Wizard{
		api:  api,
		cfg:  cfg,
		log:  logger.Get(),
		step: StepSelectConcert,
	}
}

// Step returns the current screen.
func (w *Wizard) Step() Step {
	return w.step
}

// Config exposes the flow configuration to the view layer.
func (w *Wizard) Config() *Config {
	return w.cfg
}

// LoadConcerts fetches the concert list for step one. On failure the
// previous list is kept and the call can simply be retried.
func (w *Wizard) LoadConcerts(ctx context.Context) error {
	concerts, err := w.api.ListConcerts(ctx)
	if err != nil {
		return &FetchError{Op: "list concerts", Err: err}
	}
	w.concerts = concerts
	return nil
}

// Concerts returns the most recently loaded concert list.
func (w *Wizard) Concerts() []domain.Concert {
	return w.concerts
}

// SelectConcert picks a concert from the loaded list and fetches its
// ticket types, seeding a zeroed selection. Choosing a different
// concert discards any quantities picked for the previous one.
func (w *Wizard) SelectConcert(ctx context.Context, concertID int64) error {
	var concert *domain.Concert
	for i := range w.concerts {
		if w.concerts[i].ID == concertID {
			concert = &w.concerts[i]
			break
		}
	}
	if concert == nil {
		return domain.ErrConcertNotFound
	}

	types, err := w.api.ListTicketTypes(ctx, concertID)
	if err != nil {
		return &FetchError{Op: "list ticket types", Err: err}
	}

	w.concert = concert
	w.selection = NewSelection(types)
	return nil
}

// SelectedConcert returns the chosen concert, nil before selection.
func (w *Wizard) SelectedConcert() *domain.Concert {
	return w.concert
}

// Selection returns the quantity state for the chosen concert, nil
// before a concert is selected.
func (w *Wizard) Selection() *Selection {
	return w.selection
}

// ContinueToTickets advances to the quantity screen. A concert must
// be selected first.
func (w *Wizard) ContinueToTickets() error {
	if w.step != StepSelectConcert {
		return ErrInvalidStep
	}
	if w.concert == nil {
		return ErrNoConcertSelected
	}
	w.step = StepSelectTickets
	return nil
}

// Adjust moves a quantity stepper by delta, clamped to the stock in
// the current snapshot.
func (w *Wizard) Adjust(ticketTypeID int64, delta int) {
	if w.selection == nil {
		return
	}
	w.selection.Adjust(ticketTypeID, delta)
}

// ValidateAvailability refetches stock and checks every selected
// quantity against it, in display order. The first shortfall wins: the
// snapshot is replaced, the offending quantity is clamped down, and an
// AvailabilityError for that type is returned. When nothing is short
// the selection is left untouched.
func (w *Wizard) ValidateAvailability(ctx context.Context) error {
	if w.concert == nil || w.selection == nil {
		return ErrNoConcertSelected
	}

	fresh, err := w.api.ListTicketTypes(ctx, w.concert.ID)
	if err != nil {
		return &FetchError{Op: "list ticket types", Err: err}
	}

	for _, t := range fresh {
		if q := w.selection.Quantity(t.ID); q > t.QtyAvailable {
			w.selection.Refresh(fresh)
			w.selection.ClampTo(t.ID, t.QtyAvailable)
			return &AvailabilityError{
				TicketTypeID: t.ID,
				Label:        t.Label,
				Available:    t.QtyAvailable,
			}
		}
	}
	return nil
}

// ContinueToCheckout validates availability, creates the payment
// session and advances to the checkout screen with a fresh poller. On
// any failure the wizard stays on the ticket screen.
func (w *Wizard) ContinueToCheckout(ctx context.Context) error {
	if w.step != StepSelectTickets {
		return ErrInvalidStep
	}
	if w.selection == nil || w.selection.Total() == 0 {
		return ErrNoTicketsSelected
	}

	if err := w.ValidateAvailability(ctx); err != nil {
		return err
	}

	session, err := w.api.CreateCheckoutSession(ctx, w.concert.ID, w.selection.LineItems())
	if err != nil {
		return err
	}

	w.session = session
	w.poller = NewConfirmationPoller(w.api, &PollerConfig{
		Interval: w.cfg.PollInterval,
		Budget:   w.cfg.PollBudget,
	})
	w.step = StepCheckout
	return nil
}

// Session returns the active payment session, nil outside checkout.
func (w *Wizard) Session() *domain.CheckoutSession {
	return w.session
}

// Poller returns the confirmation poller for the active session, nil
// outside checkout.
func (w *Wizard) Poller() *ConfirmationPoller {
	return w.poller
}

// PaymentCompleted forwards the embedded form's completion signal to
// the poller, which starts polling immediately.
func (w *Wizard) PaymentCompleted(ctx context.Context) error {
	if w.step != StepCheckout || w.session == nil {
		return ErrInvalidStep
	}
	return w.poller.PaymentCompleted(ctx, w.session.ID)
}

// Back steps to the previous screen. Leaving checkout stops any
// in-flight polling and discards the payment session; quantities
// survive so the customer can adjust and retry.
func (w *Wizard) Back() {
	switch w.step {
	case StepCheckout:
		if w.poller != nil {
			w.poller.Stop()
		}
		w.poller = nil
		w.session = nil
		w.step = StepSelectTickets
	case StepSelectTickets:
		w.step = StepSelectConcert
	}
}

// Reset tears the whole flow down and returns to the concert list.
// Safe in any state, including mid-poll.
func (w *Wizard) Reset() {
	if w.poller != nil {
		w.poller.Stop()
	}
	w.poller = nil
	w.session = nil
	w.selection = nil
	w.concert = nil
	w.step = StepSelectConcert
}
