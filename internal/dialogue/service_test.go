package dialogue

import (
	"context"
	"strings"
	"testing"

	"github.com/civicline/grievance-intake/internal/extraction"
	"github.com/civicline/grievance-intake/internal/tickets"
)

// scriptedLLM routes canned responses by prompt shape, standing in for the
// extraction oracle across all three call sites.
type scriptedLLM struct {
	intent   string
	fields   string
	ticketID string

	calls int
}

func (s *scriptedLLM) Complete(_ context.Context, req extraction.LLMRequest) (extraction.LLMResponse, error) {
	s.calls++
	prompt := req.Messages[0].Content
	switch {
	case strings.Contains(prompt, "primary intent"):
		return extraction.LLMResponse{Text: s.intent}, nil
	case strings.Contains(prompt, "JSON object"):
		return extraction.LLMResponse{Text: s.fields}, nil
	case strings.Contains(prompt, "ticket ID"):
		return extraction.LLMResponse{Text: s.ticketID}, nil
	default:
		return extraction.LLMResponse{Text: ""}, nil
	}
}

type fakeTranscriber struct {
	transcript string
	err        error
}

func (f *fakeTranscriber) TranscribeMedia(_ context.Context, _, _ string) (string, error) {
	return f.transcript, f.err
}

func newTestService(t *testing.T, llm *scriptedLLM, repo *tickets.InMemoryRepository, opts Options) (*Service, *MemoryTracker) {
	t.Helper()
	tracker := NewMemoryTracker(0)
	oracle := extraction.NewOracle(llm, "test-model", 300)
	svc := NewService(tracker, repo,
		extraction.NewIntentClassifier(oracle),
		extraction.NewFieldExtractor(oracle),
		extraction.NewTicketIDExtractor(oracle),
		opts,
	)
	return svc, tracker
}

func TestNewComplaintWithLocation(t *testing.T) {
	// Scenario A: full extraction registers a ticket immediately.
	llm := &scriptedLLM{
		intent: "new_complaint",
		fields: `{"category":"Road Maintenance","location":"MG Road","urgency":"High","summary":"Pothole reported"}`,
	}
	repo := tickets.NewInMemoryRepository()
	svc, _ := newTestService(t, llm, repo, Options{})

	reply := svc.ProcessTurn(context.Background(), InboundMessage{
		From: "+15550001111",
		Body: "There is a large pothole on MG Road",
	})

	if repo.Len() != 1 {
		t.Fatalf("tickets stored = %d, want 1", repo.Len())
	}
	for _, want := range []string{"has been registered", "Road Maintenance", "MG Road", "Pothole reported"} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply %q missing %q", reply, want)
		}
	}
}

func TestNewComplaintMissingLocationDefersTicket(t *testing.T) {
	// Scenario B: the location sentinel suspends the turn instead of persisting.
	llm := &scriptedLLM{
		intent: "new_complaint",
		fields: `{"category":"Garbage","location":"Not specified","urgency":"Medium","summary":"Garbage pileup"}`,
	}
	repo := tickets.NewInMemoryRepository()
	svc, tracker := newTestService(t, llm, repo, Options{})

	reply := svc.ProcessTurn(context.Background(), InboundMessage{
		From: "+15550001111",
		Body: "Garbage not collected",
	})

	if repo.Len() != 0 {
		t.Fatalf("tickets stored = %d, want 0 before slot-fill", repo.Len())
	}
	if reply != ReplyAskLocation {
		t.Errorf("reply = %q, want location prompt", reply)
	}

	state, err := tracker.Get(context.Background(), "+15550001111")
	if err != nil || state == nil {
		t.Fatalf("expected pending state, got %v (err %v)", state, err)
	}
	if state.Awaiting != AwaitingLocation {
		t.Errorf("Awaiting = %q, want location", state.Awaiting)
	}
	want := PartialTicket{
		Complaint: "Garbage not collected",
		Category:  "Garbage",
		Urgency:   "Medium",
		Summary:   "Garbage pileup",
	}
	if state.Ticket != want {
		t.Errorf("partial ticket = %+v, want %+v", state.Ticket, want)
	}
}

func TestLocationSlotFillFinalizesTicket(t *testing.T) {
	// Scenario C: the next message is taken verbatim as the location, with
	// no oracle involvement.
	llm := &scriptedLLM{}
	repo := tickets.NewInMemoryRepository()
	svc, tracker := newTestService(t, llm, repo, Options{})

	ctx := context.Background()
	if err := tracker.Set(ctx, "+15550001111", &ConversationState{
		Awaiting: AwaitingLocation,
		Ticket: PartialTicket{
			Complaint: "Garbage not collected",
			Category:  "Garbage",
			Urgency:   "Medium",
			Summary:   "Garbage pileup",
		},
	}); err != nil {
		t.Fatalf("seed state: %v", err)
	}

	reply := svc.ProcessTurn(ctx, InboundMessage{
		From: "+15550001111",
		Body: "Near City Park",
	})

	if llm.calls != 0 {
		t.Errorf("oracle calls = %d, want 0 during slot-fill", llm.calls)
	}
	if repo.Len() != 1 {
		t.Fatalf("tickets stored = %d, want 1", repo.Len())
	}
	for _, want := range []string{"fully registered", "Near City Park", "Garbage pileup"} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply %q missing %q", reply, want)
		}
	}

	state, err := tracker.Get(ctx, "+15550001111")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if state != nil {
		t.Errorf("state not cleared after slot-fill: %+v", state)
	}
}

func TestSlotFillLeavesNoMemory(t *testing.T) {
	// Once cleared, an identical message from the same sender is a fresh turn.
	llm := &scriptedLLM{intent: "new_complaint",
		fields: `{"category":"Garbage","location":"Near City Park","urgency":"Medium","summary":"Garbage pileup"}`}
	repo := tickets.NewInMemoryRepository()
	svc, tracker := newTestService(t, llm, repo, Options{})

	ctx := context.Background()
	_ = tracker.Set(ctx, "+15550001111", &ConversationState{
		Awaiting: AwaitingLocation,
		Ticket:   PartialTicket{Complaint: "Garbage not collected", Category: "Garbage", Urgency: "Medium", Summary: "Garbage pileup"},
	})
	_ = svc.ProcessTurn(ctx, InboundMessage{From: "+15550001111", Body: "Near City Park"})

	callsAfterFill := llm.calls
	_ = svc.ProcessTurn(ctx, InboundMessage{From: "+15550001111", Body: "Near City Park"})
	if llm.calls == callsAfterFill {
		t.Error("second identical message should be classified as a fresh turn")
	}
}

func TestStatusCheckUnknownTicket(t *testing.T) {
	// Scenario D: extracted ID has no stored record.
	llm := &scriptedLLM{intent: "status_check", ticketID: "AB12CD34"}
	repo := tickets.NewInMemoryRepository()
	svc, _ := newTestService(t, llm, repo, Options{})

	reply := svc.ProcessTurn(context.Background(), InboundMessage{
		From: "+15550002222",
		Body: "What is the status of ticket AB12CD34",
	})
	if reply != ReplyTicketNotFound {
		t.Errorf("reply = %q, want ticket-not-found", reply)
	}
}

func TestStatusCheckIsCaseInsensitive(t *testing.T) {
	llm := &scriptedLLM{intent: "status_check", ticketID: "ab12cd34"}
	repo := tickets.NewInMemoryRepository()
	svc, _ := newTestService(t, llm, repo, Options{})

	ctx := context.Background()
	err := repo.Insert(ctx, &tickets.Ticket{
		TicketID:  "AB12CD34",
		Timestamp: "2025-08-31 04:05 PM",
		Complaint: "Garbage not collected",
		Category:  "Garbage",
		Location:  "Near City Park",
		Urgency:   "Medium",
		Summary:   "Garbage pileup",
		Status:    tickets.StatusNew,
	})
	if err != nil {
		t.Fatalf("seed ticket: %v", err)
	}

	reply := svc.ProcessTurn(ctx, InboundMessage{From: "+15550002222", Body: "status of ab12cd34?"})
	for _, want := range []string{"AB12CD34", "Garbage pileup", "New"} {
		if !strings.Contains(reply, want) {
			t.Errorf("reply %q missing %q", reply, want)
		}
	}
}

func TestStatusCheckEmptyExtraction(t *testing.T) {
	llm := &scriptedLLM{intent: "status_check", ticketID: ""}
	svc, _ := newTestService(t, llm, tickets.NewInMemoryRepository(), Options{})

	reply := svc.ProcessTurn(context.Background(), InboundMessage{
		From: "+15550002222",
		Body: "what's happening with my complaint",
	})
	if reply != ReplyTicketNotFound {
		t.Errorf("reply = %q, want ticket-not-found", reply)
	}
}

func TestEmptyBodySkipsOracle(t *testing.T) {
	// Scenario E: nothing to classify, the oracle is never contacted.
	llm := &scriptedLLM{}
	svc, _ := newTestService(t, llm, tickets.NewInMemoryRepository(), Options{})

	reply := svc.ProcessTurn(context.Background(), InboundMessage{From: "+15550003333", Body: "   "})
	if reply != ReplyCouldNotUnderstand {
		t.Errorf("reply = %q, want could-not-understand", reply)
	}
	if llm.calls != 0 {
		t.Errorf("oracle calls = %d, want 0", llm.calls)
	}
}

func TestUnrecognizedIntentFallsBack(t *testing.T) {
	llm := &scriptedLLM{intent: "just saying hello"}
	repo := tickets.NewInMemoryRepository()
	svc, tracker := newTestService(t, llm, repo, Options{})

	reply := svc.ProcessTurn(context.Background(), InboundMessage{From: "+15550004444", Body: "hi there"})
	if reply != ReplyFallback {
		t.Errorf("reply = %q, want fallback", reply)
	}
	if repo.Len() != 0 {
		t.Errorf("tickets stored = %d, want 0", repo.Len())
	}
	if state, _ := tracker.Get(context.Background(), "+15550004444"); state != nil {
		t.Errorf("unexpected state created: %+v", state)
	}
}

func TestMalformedExtractionYieldsApology(t *testing.T) {
	llm := &scriptedLLM{intent: "new_complaint", fields: "that is not JSON"}
	repo := tickets.NewInMemoryRepository()
	svc, tracker := newTestService(t, llm, repo, Options{})

	reply := svc.ProcessTurn(context.Background(), InboundMessage{From: "+15550005555", Body: "water leaking everywhere"})
	if reply != ReplyUnexpectedError {
		t.Errorf("reply = %q, want unexpected-error", reply)
	}
	if repo.Len() != 0 {
		t.Errorf("tickets stored = %d, want 0 after failed extraction", repo.Len())
	}
	if state, _ := tracker.Get(context.Background(), "+15550005555"); state != nil {
		t.Errorf("state mutated despite failure: %+v", state)
	}
}

func TestTicketIDCollisionRegenerates(t *testing.T) {
	llm := &scriptedLLM{
		intent: "new_complaint",
		fields: `{"category":"Water","location":"Sector 9","urgency":"Low","summary":"Leaking pipe"}`,
	}
	repo := tickets.NewInMemoryRepository()
	svc, _ := newTestService(t, llm, repo, Options{})

	ids := []string{"AAAA1111", "AAAA1111", "BBBB2222"}
	svc.newTicketID = func() string {
		id := ids[0]
		if len(ids) > 1 {
			ids = ids[1:]
		}
		return id
	}

	ctx := context.Background()
	err := repo.Insert(ctx, &tickets.Ticket{
		TicketID: "AAAA1111", Timestamp: "2025-08-31 04:05 PM", Complaint: "seed",
		Category: "Water", Location: "Sector 9", Urgency: "Low", Summary: "seed", Status: tickets.StatusNew,
	})
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	reply := svc.ProcessTurn(ctx, InboundMessage{From: "+15550006666", Body: "pipe leaking"})
	if !strings.Contains(reply, "BBBB2222") {
		t.Errorf("reply %q should carry the regenerated ID", reply)
	}
	if repo.Len() != 2 {
		t.Errorf("tickets stored = %d, want 2", repo.Len())
	}
}

func TestMediaMessageTranscribed(t *testing.T) {
	llm := &scriptedLLM{
		intent: "new_complaint",
		fields: `{"category":"Garbage","location":"Ward 12","urgency":"Medium","summary":"Garbage pileup"}`,
	}
	repo := tickets.NewInMemoryRepository()
	svc, _ := newTestService(t, llm, repo, Options{
		Transcriber: &fakeTranscriber{transcript: "garbage is piling up in ward 12"},
	})

	reply := svc.ProcessTurn(context.Background(), InboundMessage{
		From:             "+15550007777",
		NumMedia:         1,
		MediaURL:         "https://media.example.com/voice.ogg",
		MediaContentType: "audio/ogg",
	})
	if !strings.Contains(reply, "has been registered") {
		t.Errorf("reply = %q, want registration confirmation", reply)
	}
	if repo.Len() != 1 {
		t.Errorf("tickets stored = %d, want 1", repo.Len())
	}
}

func TestTranscriptionFailureFoldsIntoEmptyInput(t *testing.T) {
	llm := &scriptedLLM{}
	svc, _ := newTestService(t, llm, tickets.NewInMemoryRepository(), Options{
		Transcriber: &fakeTranscriber{err: context.DeadlineExceeded},
	})

	reply := svc.ProcessTurn(context.Background(), InboundMessage{
		From:             "+15550008888",
		NumMedia:         1,
		MediaURL:         "https://media.example.com/voice.ogg",
		MediaContentType: "audio/ogg",
	})
	if reply != ReplyCouldNotUnderstand {
		t.Errorf("reply = %q, want could-not-understand", reply)
	}
	if llm.calls != 0 {
		t.Errorf("oracle calls = %d, want 0 after transcription failure", llm.calls)
	}
}

func TestEmptySlotFillKeepsState(t *testing.T) {
	llm := &scriptedLLM{}
	svc, tracker := newTestService(t, llm, tickets.NewInMemoryRepository(), Options{})

	ctx := context.Background()
	_ = tracker.Set(ctx, "+15550009999", &ConversationState{
		Awaiting: AwaitingLocation,
		Ticket:   PartialTicket{Complaint: "streetlight broken", Category: "Electricity", Urgency: "Low", Summary: "Streetlight out"},
	})

	reply := svc.ProcessTurn(ctx, InboundMessage{From: "+15550009999", Body: ""})
	if reply != ReplyCouldNotUnderstand {
		t.Errorf("reply = %q, want could-not-understand", reply)
	}
	if state, _ := tracker.Get(ctx, "+15550009999"); state == nil {
		t.Error("pending state should survive an empty slot-fill attempt")
	}
}
