package tickets

import (
	"encoding/hex"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a ticket. Intake only ever produces
// StatusNew; ops workflows advance tickets out of band.
type Status string

const (
	StatusNew Status = "New"
)

// TimestampLayout matches the human-readable creation time written by the
// intake flow, e.g. "2025-08-31 04:15 PM".
const TimestampLayout = "2006-01-02 03:04 PM"

// Ticket is the durable record of a complaint.
type Ticket struct {
	TicketID  string `json:"ticket_id" dynamodbav:"ticket_id"`
	Timestamp string `json:"timestamp" dynamodbav:"timestamp"`
	Complaint string `json:"complaint" dynamodbav:"complaint"`
	Category  string `json:"category" dynamodbav:"category"`
	Location  string `json:"location" dynamodbav:"location"`
	Urgency   string `json:"urgency" dynamodbav:"urgency"`
	Summary   string `json:"summary" dynamodbav:"summary"`
	Status    Status `json:"status" dynamodbav:"status"`
}

// StatusInfo is the subset of a ticket returned by status lookups.
type StatusInfo struct {
	Status  Status
	Summary string
}

var ticketIDPattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// NewTicketID generates an 8-character upper-case hex identifier. Randomness
// comes from a v4 UUID; collisions are handled by the insert path, not here.
func NewTicketID() string {
	id := uuid.New()
	return strings.ToUpper(hex.EncodeToString(id[:4]))
}

// NormalizeTicketID upper-cases and trims a caller-supplied ticket ID so
// lookups are case-insensitive.
func NormalizeTicketID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ValidTicketID reports whether id is a well-formed (normalized) ticket ID.
func ValidTicketID(id string) bool {
	return ticketIDPattern.MatchString(id)
}

// NewTimestamp formats the ticket creation time in server-local time.
func NewTimestamp(now time.Time) string {
	return now.Format(TimestampLayout)
}

// Validate checks the invariant that no partial ticket is ever persisted.
func (t *Ticket) Validate() error {
	if !ValidTicketID(t.TicketID) {
		return ErrInvalidTicketID
	}
	if strings.TrimSpace(t.Complaint) == "" {
		return ErrMissingComplaint
	}
	if strings.TrimSpace(t.Location) == "" {
		return ErrMissingLocation
	}
	if t.Status == "" {
		return ErrMissingStatus
	}
	return nil
}
