package dialogue

import (
	"context"
	"testing"
	"time"
)

func TestMemoryTrackerRoundTrip(t *testing.T) {
	tracker := NewMemoryTracker(time.Hour)
	ctx := context.Background()

	if state, err := tracker.Get(ctx, "+15550000001"); err != nil || state != nil {
		t.Fatalf("Get on empty tracker = %v, %v; want nil, nil", state, err)
	}

	want := &ConversationState{
		Awaiting: AwaitingLocation,
		Ticket:   PartialTicket{Complaint: "pothole on main street", Category: "Roads", Urgency: "High", Summary: "Pothole"},
	}
	if err := tracker.Set(ctx, "+15550000001", want); err != nil {
		t.Fatalf("Set: %v", err)
	}

	got, err := tracker.Get(ctx, "+15550000001")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || *got != *want {
		t.Errorf("Get = %+v, want %+v", got, want)
	}

	if err := tracker.Clear(ctx, "+15550000001"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if state, _ := tracker.Get(ctx, "+15550000001"); state != nil {
		t.Errorf("state survived Clear: %+v", state)
	}
}

func TestMemoryTrackerGetReturnsCopy(t *testing.T) {
	tracker := NewMemoryTracker(time.Hour)
	ctx := context.Background()

	_ = tracker.Set(ctx, "+15550000002", &ConversationState{
		Awaiting: AwaitingLocation,
		Ticket:   PartialTicket{Complaint: "original"},
	})

	first, _ := tracker.Get(ctx, "+15550000002")
	first.Ticket.Complaint = "mutated"

	second, _ := tracker.Get(ctx, "+15550000002")
	if second.Ticket.Complaint != "original" {
		t.Errorf("stored state mutated through returned pointer: %q", second.Ticket.Complaint)
	}
}

func TestMemoryTrackerExpiry(t *testing.T) {
	tracker := NewMemoryTracker(time.Hour)
	clock := time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return clock }

	ctx := context.Background()
	_ = tracker.Set(ctx, "+15550000003", &ConversationState{Awaiting: AwaitingLocation})

	clock = clock.Add(59 * time.Minute)
	if state, _ := tracker.Get(ctx, "+15550000003"); state == nil {
		t.Fatal("state expired before TTL elapsed")
	}

	clock = clock.Add(2 * time.Minute)
	if state, _ := tracker.Get(ctx, "+15550000003"); state != nil {
		t.Errorf("state survived past TTL: %+v", state)
	}
}

func TestMemoryTrackerSweepsOnSet(t *testing.T) {
	tracker := NewMemoryTracker(time.Hour)
	clock := time.Date(2025, 8, 31, 12, 0, 0, 0, time.UTC)
	tracker.now = func() time.Time { return clock }

	ctx := context.Background()
	_ = tracker.Set(ctx, "abandoned", &ConversationState{Awaiting: AwaitingLocation})

	clock = clock.Add(2 * time.Hour)
	_ = tracker.Set(ctx, "active", &ConversationState{Awaiting: AwaitingLocation})

	tracker.mu.Lock()
	_, stale := tracker.entries["abandoned"]
	tracker.mu.Unlock()
	if stale {
		t.Error("expired entry not swept on Set")
	}
}
