package tickets

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// pgxPool is the subset of pgxpool.Pool used by the repository. Narrowed so
// tests can substitute a pgxmock pool.
type pgxPool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresRepository stores tickets in the relational database.
type PostgresRepository struct {
	pool pgxPool
}

// NewPostgresRepository initializes a repo backed by pgxpool.
func NewPostgresRepository(pool pgxPool) *PostgresRepository {
	if pool == nil {
		panic("tickets: pgx pool required")
	}
	return &PostgresRepository{pool: pool}
}

// Insert persists a complete ticket row. The unique constraint on ticket_id
// surfaces as ErrDuplicateTicketID.
func (r *PostgresRepository) Insert(ctx context.Context, ticket *Ticket) error {
	if err := ticket.Validate(); err != nil {
		return err
	}

	query := `
		INSERT INTO tickets (ticket_id, timestamp, complaint, category, location, urgency, summary, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.pool.Exec(ctx, query,
		NormalizeTicketID(ticket.TicketID),
		ticket.Timestamp,
		ticket.Complaint,
		ticket.Category,
		ticket.Location,
		ticket.Urgency,
		ticket.Summary,
		string(ticket.Status),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrDuplicateTicketID
		}
		return fmt.Errorf("tickets: insert failed: %w", err)
	}
	return nil
}

// GetStatus fetches the status and summary for a ticket ID.
func (r *PostgresRepository) GetStatus(ctx context.Context, ticketID string) (*StatusInfo, error) {
	query := `
		SELECT status, summary
		FROM tickets
		WHERE ticket_id = $1
	`
	row := r.pool.QueryRow(ctx, query, NormalizeTicketID(ticketID))

	var info StatusInfo
	if err := row.Scan(&info.Status, &info.Summary); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTicketNotFound
		}
		return nil, fmt.Errorf("tickets: select failed: %w", err)
	}
	return &info, nil
}
