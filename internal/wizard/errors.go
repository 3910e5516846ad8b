package wizard

import (
	"errors"
	"fmt"
)

var (
	// ErrNoConcertSelected is returned when a step transition needs a
	// selected concert and none has been chosen yet.
	ErrNoConcertSelected = errors.New("no concert selected")

	// ErrNoTicketsSelected is returned when checkout is requested with
	// every quantity at zero.
	ErrNoTicketsSelected = errors.New("no tickets selected")

	// ErrInvalidStep is returned when an action is not valid for the
	// wizard's current step.
	ErrInvalidStep = errors.New("action not valid for current step")

	// ErrConfirmationFailed means the backend reported the order as
	// failed while polling.
	ErrConfirmationFailed = errors.New("payment was not confirmed")

	// ErrConfirmationTimeout means the poll budget was exhausted
	// without the order reaching a terminal status.
	ErrConfirmationTimeout = errors.New("order confirmation timed out")

	// ErrPollerAlreadyStarted is returned when PaymentCompleted is
	// signalled on a poller that already left its waiting state.
	ErrPollerAlreadyStarted = errors.New("confirmation poller already started")
)

// FetchError wraps a failed catalog read. The operation that hit it
// can be retried without corrupting wizard state.
type FetchError struct {
	Op  string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// AvailabilityError reports the first selected ticket type whose
// requested quantity exceeds the freshly fetched stock. By the time
// the caller sees it the selection has already been clamped.
type AvailabilityError struct {
	TicketTypeID int64
	Label        string
	Available    int
}

func (e *AvailabilityError) Error() string {
	if e.Available == 1 {
		return fmt.Sprintf("only 1 %s ticket is still available", e.Label)
	}
	return fmt.Sprintf("only %d %s tickets are still available", e.Available, e.Label)
}

// SessionError carries the checkout backend's rejection detail
// verbatim so the view can show it unchanged.
type SessionError struct {
	Detail string
}

func (e *SessionError) Error() string {
	return e.Detail
}
