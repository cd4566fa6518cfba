package dialogue

import (
	"fmt"

	"github.com/civicline/grievance-intake/internal/tickets"
)

// Reply texts use WhatsApp *bold* markers; the messaging layer passes them
// through verbatim.
const (
	ReplyCouldNotUnderstand = "Sorry, I couldn't understand that. Please try again."

	ReplyAskLocation = "I understand you're reporting an issue. To proceed, could you please reply with the specific location or a nearby landmark?"

	ReplyFallback = "I'm sorry, I can only help with filing new complaints or checking the status of existing ones."

	ReplyUnexpectedError = "I'm sorry, an unexpected error occurred. Please try again later."

	ReplyTicketNotFound = "It looks like you're asking for a status, but I couldn't find a valid ticket ID in your message."
)

func registeredReply(t *tickets.Ticket) string {
	return fmt.Sprintf(
		"Thank you. Your new ticket *%s* has been registered.\n\n *Category:* %s\n *Location:* %s\n *Summary:* %s",
		t.TicketID, t.Category, t.Location, t.Summary,
	)
}

func locationFilledReply(t *tickets.Ticket) string {
	return fmt.Sprintf(
		"Thank you for providing the location. Your ticket *%s* has been fully registered.\n\n *Category:* %s\n *Location:* %s\n *Summary:* %s",
		t.TicketID, t.Category, t.Location, t.Summary,
	)
}

func statusReply(ticketID string, info *tickets.StatusInfo) string {
	return fmt.Sprintf(
		"Ticket *%s* is for: '%s'.\nThe current status is: *%s*.",
		ticketID, info.Summary, info.Status,
	)
}
