package domain

import "errors"

// Common domain errors
var (
	ErrConcertNotFound    = errors.New("concert not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderAlreadyFinal  = errors.New("order already finalized")
	ErrInsufficientStock  = errors.New("insufficient tickets available")
)
