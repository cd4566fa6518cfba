package dialogue

import "context"

// AwaitingSlot names the ticket field a pending conversation is waiting on.
type AwaitingSlot string

// AwaitingLocation is the only slot the intake flow currently defers.
const AwaitingLocation AwaitingSlot = "location"

// PartialTicket holds the fields collected before a conversation was
// suspended for slot-filling. The verbatim complaint rides along so the
// finished ticket can carry the original message text.
type PartialTicket struct {
	Complaint string `json:"complaint"`
	Category  string `json:"category"`
	Urgency   string `json:"urgency"`
	Summary   string `json:"summary"`
}

// ConversationState is the ephemeral per-sender record of a suspended turn.
// At most one exists per sender; it is destroyed the moment the pending
// ticket is finalized.
type ConversationState struct {
	Awaiting AwaitingSlot  `json:"awaiting"`
	Ticket   PartialTicket `json:"ticket_data"`
}

// StateTracker stores pending conversation state keyed by sender identifier.
// Get returns (nil, nil) when the sender has no pending state; errors are
// reserved for storage failures.
type StateTracker interface {
	Set(ctx context.Context, sender string, state *ConversationState) error
	Get(ctx context.Context, sender string) (*ConversationState, error)
	Clear(ctx context.Context, sender string) error
}
