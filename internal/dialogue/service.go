package dialogue

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/civicline/grievance-intake/internal/extraction"
	"github.com/civicline/grievance-intake/internal/observability/metrics"
	"github.com/civicline/grievance-intake/internal/tickets"
	"github.com/civicline/grievance-intake/internal/transcribe"
	"github.com/civicline/grievance-intake/pkg/logging"
)

// maxIDAttempts bounds the ticket-ID regeneration loop on insert collision.
const maxIDAttempts = 3

var errIDSpaceExhausted = errors.New("dialogue: exhausted ticket id regeneration attempts")

// InboundMessage is one turn's input as delivered by the messaging webhook.
type InboundMessage struct {
	From             string
	Body             string
	NumMedia         int
	MediaURL         string
	MediaContentType string
}

// Turn outcome labels for metrics.
const (
	outcomeTicketCreated  = "ticket_created"
	outcomeAwaitingSlot   = "awaiting_location"
	outcomeLocationFilled = "location_filled"
	outcomeStatusFound    = "status_found"
	outcomeTicketNotFound = "ticket_not_found"
	outcomeFallback       = "fallback"
	outcomeEmptyInput     = "empty_input"
	outcomeError          = "error"
)

// Service is the dialogue controller: it owns the per-turn state machine,
// routes intents, finalizes tickets, and produces the reply text. Every
// failure is absorbed into a conversational reply; ProcessTurn never fails
// the transport request.
type Service struct {
	tracker     StateTracker
	repo        tickets.Repository
	intents     *extraction.IntentClassifier
	fields      *extraction.FieldExtractor
	ticketIDs   *extraction.TicketIDExtractor
	transcriber transcribe.Transcriber
	metrics     *metrics.IntakeMetrics
	logger      *logging.Logger
	tracer      trace.Tracer

	senders *senderLocks

	now         func() time.Time
	newTicketID func() string
}

// Options carries optional Service collaborators.
type Options struct {
	// Transcriber handles voice-note media. Nil disables transcription;
	// media-only messages then fold into the empty-input path.
	Transcriber transcribe.Transcriber
	Metrics     *metrics.IntakeMetrics
	Logger      *logging.Logger
	Tracer      trace.Tracer
}

// NewService wires the dialogue controller.
func NewService(tracker StateTracker, repo tickets.Repository, intents *extraction.IntentClassifier, fields *extraction.FieldExtractor, ticketIDs *extraction.TicketIDExtractor, opts Options) *Service {
	if tracker == nil {
		panic("dialogue: state tracker cannot be nil")
	}
	if repo == nil {
		panic("dialogue: ticket repository cannot be nil")
	}
	if intents == nil || fields == nil || ticketIDs == nil {
		panic("dialogue: extraction components cannot be nil")
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	tracer := opts.Tracer
	if tracer == nil {
		tracer = otel.Tracer("grievance.internal.dialogue")
	}

	return &Service{
		tracker:     tracker,
		repo:        repo,
		intents:     intents,
		fields:      fields,
		ticketIDs:   ticketIDs,
		transcriber: opts.Transcriber,
		metrics:     opts.Metrics,
		logger:      logger,
		tracer:      tracer,
		senders:     newSenderLocks(),
		now:         time.Now,
		newTicketID: tickets.NewTicketID,
	}
}

// ProcessTurn handles one inbound message and returns the reply text. Turns
// for the same sender are serialized in arrival order; different senders
// proceed in parallel.
func (s *Service) ProcessTurn(ctx context.Context, msg InboundMessage) string {
	release := s.senders.acquire(msg.From)
	defer release()

	ctx, span := s.tracer.Start(ctx, "dialogue.turn")
	defer span.End()
	span.SetAttributes(attribute.String("grievance.sender", msg.From))

	start := s.now()
	intent, outcome, reply := s.processLocked(ctx, msg)
	s.metrics.ObserveTurn(intent, outcome, s.now().Sub(start).Seconds())
	span.SetAttributes(
		attribute.String("grievance.intent", intent),
		attribute.String("grievance.outcome", outcome),
	)
	return reply
}

func (s *Service) processLocked(ctx context.Context, msg InboundMessage) (intent, outcome, reply string) {
	// Pending state takes priority over everything else in the turn.
	state, err := s.tracker.Get(ctx, msg.From)
	if err != nil {
		s.logger.Error("failed to load conversation state", "error", err, "sender", msg.From)
		return "pending", outcomeError, ReplyUnexpectedError
	}
	if state != nil && state.Awaiting == AwaitingLocation {
		outcome, reply := s.completeLocation(ctx, msg, state)
		return "pending", outcome, reply
	}

	text := s.normalizeInput(ctx, msg)
	if text == "" {
		return "none", outcomeEmptyInput, ReplyCouldNotUnderstand
	}

	classified, err := s.intents.Classify(ctx, text)
	if err != nil {
		s.metrics.OracleError()
		s.logger.Error("intent classification failed", "error", err, "sender", msg.From)
		return "none", outcomeError, ReplyUnexpectedError
	}

	switch classified {
	case extraction.IntentStatusCheck:
		outcome, reply := s.statusCheck(ctx, text)
		return string(classified), outcome, reply
	case extraction.IntentNewComplaint:
		outcome, reply := s.newComplaint(ctx, msg.From, text)
		return string(classified), outcome, reply
	default:
		return string(classified), outcomeFallback, ReplyFallback
	}
}

// normalizeInput resolves the turn's text: the transcript for voice notes,
// otherwise the trimmed body. Transcription failure degrades to empty input.
func (s *Service) normalizeInput(ctx context.Context, msg InboundMessage) string {
	if msg.NumMedia > 0 {
		if s.transcriber == nil {
			s.logger.Warn("media message received but no transcriber configured", "sender", msg.From)
			return ""
		}
		transcript, err := s.transcriber.TranscribeMedia(ctx, msg.MediaURL, msg.MediaContentType)
		if err != nil {
			s.logger.Error("transcription failed", "error", err, "sender", msg.From)
			return ""
		}
		return strings.TrimSpace(transcript)
	}
	return strings.TrimSpace(msg.Body)
}

// completeLocation finishes a suspended ticket: the message body is taken
// verbatim as the location, the full record is committed, and only then is
// the pending state cleared.
func (s *Service) completeLocation(ctx context.Context, msg InboundMessage, state *ConversationState) (outcome, reply string) {
	location := strings.TrimSpace(msg.Body)
	if location == "" {
		// Keep the pending state; the sender can try again.
		return outcomeEmptyInput, ReplyCouldNotUnderstand
	}

	ticket, err := s.commitTicket(ctx, extraction.ComplaintFields{
		Category: state.Ticket.Category,
		Location: location,
		Urgency:  state.Ticket.Urgency,
		Summary:  state.Ticket.Summary,
	}, state.Ticket.Complaint)
	if err != nil {
		s.logger.Error("failed to finalize pending ticket", "error", err, "sender", msg.From)
		return outcomeError, ReplyUnexpectedError
	}

	if err := s.tracker.Clear(ctx, msg.From); err != nil {
		// The ticket is already persisted; a stale tracker entry will expire.
		s.logger.Error("failed to clear conversation state", "error", err, "sender", msg.From)
	}

	s.logger.Info("pending ticket finalized", "ticket_id", ticket.TicketID, "sender", msg.From)
	return outcomeLocationFilled, locationFilledReply(ticket)
}

func (s *Service) statusCheck(ctx context.Context, text string) (outcome, reply string) {
	raw, err := s.ticketIDs.Extract(ctx, text)
	if err != nil {
		s.metrics.OracleError()
		s.logger.Error("ticket id extraction failed", "error", err)
		return outcomeError, ReplyUnexpectedError
	}

	ticketID := tickets.NormalizeTicketID(raw)
	if ticketID == "" {
		return outcomeTicketNotFound, ReplyTicketNotFound
	}

	info, err := s.repo.GetStatus(ctx, ticketID)
	if err != nil {
		if errors.Is(err, tickets.ErrTicketNotFound) {
			return outcomeTicketNotFound, ReplyTicketNotFound
		}
		s.logger.Error("status lookup failed", "error", err, "ticket_id", ticketID)
		return outcomeError, ReplyUnexpectedError
	}
	return outcomeStatusFound, statusReply(ticketID, info)
}

func (s *Service) newComplaint(ctx context.Context, sender, text string) (outcome, reply string) {
	fields, err := s.fields.Extract(ctx, text)
	if err != nil {
		s.metrics.OracleError()
		s.logger.Error("field extraction failed", "error", err, "sender", sender)
		return outcomeError, ReplyUnexpectedError
	}

	if fields.LocationMissing() {
		state := &ConversationState{
			Awaiting: AwaitingLocation,
			Ticket: PartialTicket{
				Complaint: text,
				Category:  fields.Category,
				Urgency:   fields.Urgency,
				Summary:   fields.Summary,
			},
		}
		if err := s.tracker.Set(ctx, sender, state); err != nil {
			s.logger.Error("failed to store conversation state", "error", err, "sender", sender)
			return outcomeError, ReplyUnexpectedError
		}
		return outcomeAwaitingSlot, ReplyAskLocation
	}

	ticket, err := s.commitTicket(ctx, fields, text)
	if err != nil {
		s.logger.Error("failed to persist ticket", "error", err, "sender", sender)
		return outcomeError, ReplyUnexpectedError
	}

	s.logger.Info("ticket registered", "ticket_id", ticket.TicketID, "category", ticket.Category, "sender", sender)
	return outcomeTicketCreated, registeredReply(ticket)
}

// commitTicket builds the complete record in memory and performs the single
// persistence call, regenerating the ID on collision. Nothing is mutated
// before the insert succeeds, so a failure here leaves no side effects.
func (s *Service) commitTicket(ctx context.Context, fields extraction.ComplaintFields, complaint string) (*tickets.Ticket, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		ticket := &tickets.Ticket{
			TicketID:  s.newTicketID(),
			Timestamp: tickets.NewTimestamp(s.now()),
			Complaint: complaint,
			Category:  fields.Category,
			Location:  fields.Location,
			Urgency:   fields.Urgency,
			Summary:   fields.Summary,
			Status:    tickets.StatusNew,
		}

		err := s.repo.Insert(ctx, ticket)
		if errors.Is(err, tickets.ErrDuplicateTicketID) {
			s.logger.Warn("ticket id collision, regenerating", "ticket_id", ticket.TicketID)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.metrics.TicketCreated()
		return ticket, nil
	}
	return nil, errIDSpaceExhausted
}
