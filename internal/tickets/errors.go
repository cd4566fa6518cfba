package tickets

import "errors"

var (
	// ErrTicketNotFound is returned when no ticket exists for the given ID.
	ErrTicketNotFound = errors.New("tickets: ticket not found")

	// ErrDuplicateTicketID is returned when an insert collides with an
	// existing ticket ID. Callers regenerate the ID and retry.
	ErrDuplicateTicketID = errors.New("tickets: duplicate ticket id")

	// ErrInvalidTicketID is returned when a ticket ID is not 8 upper-case
	// alphanumeric characters.
	ErrInvalidTicketID = errors.New("tickets: invalid ticket id")

	// ErrMissingComplaint is returned when the verbatim complaint text is empty.
	ErrMissingComplaint = errors.New("tickets: complaint text is required")

	// ErrMissingLocation is returned when a ticket has no resolved location.
	ErrMissingLocation = errors.New("tickets: location is required")

	// ErrMissingStatus is returned when a ticket has no lifecycle status.
	ErrMissingStatus = errors.New("tickets: status is required")
)
