package extraction

import (
	"context"
	"fmt"
)

const ticketIDPrompt = `Extract the 8-character alphanumeric ticket ID from this message. Respond with only the ticket ID.
Message: "%s"`

// TicketIDExtractor pulls a ticket ID out of a status-check message.
type TicketIDExtractor struct {
	oracle *Oracle
}

func NewTicketIDExtractor(oracle *Oracle) *TicketIDExtractor {
	if oracle == nil {
		panic("extraction: oracle cannot be nil")
	}
	return &TicketIDExtractor{oracle: oracle}
}

// Extract returns the trimmed oracle response, which may be empty or
// off-format. Callers normalize and validate before using it as a key.
func (e *TicketIDExtractor) Extract(ctx context.Context, message string) (string, error) {
	raw, err := e.oracle.Generate(ctx, fmt.Sprintf(ticketIDPrompt, message))
	if err != nil {
		return "", fmt.Errorf("extraction: ticket id extraction failed: %w", err)
	}
	return raw, nil
}
