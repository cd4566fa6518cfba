package tickets

import (
	"context"
	"sync"
)

// Repository defines the interface for ticket storage.
type Repository interface {
	// Insert persists a complete ticket. Returns ErrDuplicateTicketID when
	// the ticket ID already exists.
	Insert(ctx context.Context, ticket *Ticket) error

	// GetStatus returns the status and summary for a ticket ID. The lookup
	// is case-insensitive; returns ErrTicketNotFound when absent.
	GetStatus(ctx context.Context, ticketID string) (*StatusInfo, error)
}

// InMemoryRepository stores tickets in memory, keyed by upper-cased ticket ID.
type InMemoryRepository struct {
	mu      sync.RWMutex
	tickets map[string]*Ticket
}

// NewInMemoryRepository creates a new in-memory repository
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		tickets: make(map[string]*Ticket),
	}
}

// Insert persists a ticket, enforcing ticket ID uniqueness.
func (r *InMemoryRepository) Insert(ctx context.Context, ticket *Ticket) error {
	if err := ticket.Validate(); err != nil {
		return err
	}

	key := NormalizeTicketID(ticket.TicketID)

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tickets[key]; exists {
		return ErrDuplicateTicketID
	}
	copied := *ticket
	r.tickets[key] = &copied
	return nil
}

// GetStatus retrieves status and summary by ticket ID.
func (r *InMemoryRepository) GetStatus(ctx context.Context, ticketID string) (*StatusInfo, error) {
	key := NormalizeTicketID(ticketID)

	r.mu.RLock()
	defer r.mu.RUnlock()
	ticket, ok := r.tickets[key]
	if !ok {
		return nil, ErrTicketNotFound
	}
	return &StatusInfo{Status: ticket.Status, Summary: ticket.Summary}, nil
}

// Len reports the number of stored tickets. Test helper.
func (r *InMemoryRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.tickets)
}
